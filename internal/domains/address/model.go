package address

// Ward - phường/xã giao hàng. Code là mã hành chính dạng số ("00004")
type Ward struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	DistrictName string `json:"district_name"`
}
