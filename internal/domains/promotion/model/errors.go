package model

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodePromoNotFound         ErrorCode = "PROMO_NOT_FOUND"
	ErrCodePromoInactive         ErrorCode = "PROMO_INACTIVE"
	ErrCodePromoNotStarted       ErrorCode = "PROMO_NOT_STARTED"
	ErrCodePromoExpired          ErrorCode = "PROMO_EXPIRED"
	ErrCodePromoUsageExceeded    ErrorCode = "PROMO_USAGE_LIMIT_EXCEEDED"
	ErrCodePromoMinOrderNotMet   ErrorCode = "PROMO_MIN_ORDER_NOT_MET"
	ErrCodePromoMinQtyNotMet     ErrorCode = "PROMO_MIN_QUANTITY_NOT_MET"
	ErrCodePromoNoMatchingItem   ErrorCode = "PROMO_NO_MATCHING_PRODUCT"
	ErrCodePromoAreaNotAllowed   ErrorCode = "PROMO_AREA_NOT_APPLICABLE"
	ErrCodePromoWardRequired     ErrorCode = "PROMO_WARD_REQUIRED"
	ErrCodePromoGiftNotMet       ErrorCode = "PROMO_GIFT_CONDITION_NOT_MET"
	ErrCodePromoNotCombinable    ErrorCode = "PROMO_NOT_COMBINABLE"
	ErrCodeVoucherNotOwned       ErrorCode = "VOUCHER_NOT_OWNED"
	ErrCodeVoucherUsed           ErrorCode = "VOUCHER_ALREADY_USED"
	ErrCodeVoucherExpired        ErrorCode = "VOUCHER_EXPIRED"
	ErrCodeVoucherAlreadyClaimed ErrorCode = "VOUCHER_ALREADY_CLAIMED"

	ErrCodePromoDuplicateCode ErrorCode = "VAL_DUPLICATE_CODE"
	ErrCodeValidationFailed   ErrorCode = "VAL_INVALID_INPUT"
)

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Is so theo Code để errors.Is hoạt động với lỗi có Details
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func newBadRequest(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg, HTTPStatus: http.StatusBadRequest}
}

var (
	ErrPromotionNotFound = &AppError{
		Code:       ErrCodePromoNotFound,
		Message:    "Mã giảm giá không tồn tại hoặc đã bị vô hiệu hóa",
		HTTPStatus: http.StatusNotFound,
	}
	ErrPromotionInactive   = newBadRequest(ErrCodePromoInactive, "Chương trình khuyến mãi không còn hoạt động")
	ErrPromotionNotStarted = newBadRequest(ErrCodePromoNotStarted, "Chương trình khuyến mãi chưa bắt đầu")
	ErrPromotionExpired    = newBadRequest(ErrCodePromoExpired, "Mã giảm giá đã hết hạn")
	ErrUsageLimitExceeded  = newBadRequest(ErrCodePromoUsageExceeded, "Mã giảm giá đã hết lượt sử dụng")
	ErrNoMatchingProduct   = newBadRequest(ErrCodePromoNoMatchingItem, "Giỏ hàng không có sản phẩm áp dụng mã giảm giá này")
	ErrAreaNotApplicable   = newBadRequest(ErrCodePromoAreaNotAllowed, "Mã giảm giá không áp dụng cho khu vực giao hàng này.")
	ErrWardRequired        = newBadRequest(ErrCodePromoWardRequired, "Vui lòng chọn phường/xã giao hàng để áp dụng mã vận chuyển")
	ErrGiftConditionNotMet = newBadRequest(ErrCodePromoGiftNotMet, "Giỏ hàng chưa đủ điều kiện nhận quà tặng")
	ErrNotCombinable       = newBadRequest(ErrCodePromoNotCombinable, "Mã giảm giá và mã vận chuyển không được dùng chung")
	ErrVoucherNotOwned     = &AppError{Code: ErrCodeVoucherNotOwned, Message: "Voucher không thuộc về bạn", HTTPStatus: http.StatusForbidden}
	ErrVoucherUsed         = newBadRequest(ErrCodeVoucherUsed, "Voucher đã được sử dụng")
	ErrVoucherExpired      = newBadRequest(ErrCodeVoucherExpired, "Voucher đã hết hạn")
	ErrVoucherClaimed      = &AppError{Code: ErrCodeVoucherAlreadyClaimed, Message: "Bạn đã lưu voucher này rồi", HTTPStatus: http.StatusConflict}
	ErrDuplicateCode       = &AppError{Code: ErrCodePromoDuplicateCode, Message: "Mã giảm giá đã tồn tại", HTTPStatus: http.StatusConflict}
)

func NewMinOrderError(min fmt.Stringer) *AppError {
	return &AppError{
		Code:       ErrCodePromoMinOrderNotMet,
		Message:    fmt.Sprintf("Đơn hàng tối thiểu %sđ để áp dụng mã giảm giá", min),
		Details:    map[string]interface{}{"min_order_value": min.String()},
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewMinQuantityError(min int) *AppError {
	return &AppError{
		Code:       ErrCodePromoMinQtyNotMet,
		Message:    fmt.Sprintf("Cần tối thiểu %d sản phẩm để áp dụng mã giảm giá", min),
		Details:    map[string]interface{}{"min_product_quantity": min},
		HTTPStatus: http.StatusBadRequest,
	}
}
