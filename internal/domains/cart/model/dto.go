package model

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
)

const dateLayout = "2006-01-02"

var deliveryTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(-([01]\d|2[0-3]):[0-5]\d)?$`)

// AddItemRequest - POST /cart/items
type AddItemRequest struct {
	ProductID    uuid.UUID `json:"product_id"`
	Quantity     int       `json:"quantity"`
	DeliveryDate string    `json:"delivery_date"` // YYYY-MM-DD
	DeliveryTime string    `json:"delivery_time"` // HH:MM hoặc HH:MM-HH:MM
	Note         string    `json:"note"`
}

func (r AddItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required.Error("product_id là bắt buộc")),
		validation.Field(&r.Quantity, validation.Required.Error("Số lượng phải lớn hơn 0"), validation.Min(1), validation.Max(100)),
		validation.Field(&r.DeliveryDate, validation.Date(dateLayout).Error("Ngày giao không hợp lệ (YYYY-MM-DD)")),
		validation.Field(&r.DeliveryTime, validation.Match(deliveryTimePattern).Error("Giờ giao không hợp lệ")),
		validation.Field(&r.Note, validation.Length(0, 500)),
	)
}

func (r AddItemRequest) Delivery() DeliveryInfo {
	return newDeliveryInfo(r.DeliveryDate, r.DeliveryTime, r.Note)
}

// UpdateDeliveryRequest - PUT /cart/items/:id/delivery
type UpdateDeliveryRequest struct {
	DeliveryDate string `json:"delivery_date"`
	DeliveryTime string `json:"delivery_time"`
	Note         string `json:"note"`
}

func (r UpdateDeliveryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DeliveryDate, validation.Date(dateLayout).Error("Ngày giao không hợp lệ (YYYY-MM-DD)")),
		validation.Field(&r.DeliveryTime, validation.Match(deliveryTimePattern).Error("Giờ giao không hợp lệ")),
		validation.Field(&r.Note, validation.Length(0, 500)),
	)
}

func (r UpdateDeliveryRequest) Delivery() DeliveryInfo {
	return newDeliveryInfo(r.DeliveryDate, r.DeliveryTime, r.Note)
}

// DeliveryInfo - thông tin giao hàng đã parse, nil nghĩa là bỏ trống
type DeliveryInfo struct {
	Date *time.Time
	Time *string
	Note *string
}

func newDeliveryInfo(date, timeSlot, note string) DeliveryInfo {
	var info DeliveryInfo
	if d, err := time.Parse(dateLayout, strings.TrimSpace(date)); err == nil {
		info.Date = &d
	}
	if t := strings.TrimSpace(timeSlot); t != "" {
		info.Time = &t
	}
	if n := strings.TrimSpace(note); n != "" {
		info.Note = &n
	}
	return info
}

// ApplyVoucherRequest - POST /cart/voucher. Nhập mã hoặc chọn voucher trong ví.
type ApplyVoucherRequest struct {
	Code          string     `json:"code"`
	UserVoucherID *uuid.UUID `json:"user_voucher_id"`
	WardCode      string     `json:"ward_code"`
}

func (r ApplyVoucherRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code,
			validation.When(r.UserVoucherID == nil, validation.Required.Error("Vui lòng nhập mã giảm giá hoặc chọn voucher")),
			validation.Length(0, 50),
		),
		validation.Field(&r.WardCode, validation.Length(0, 20)),
	)
}

func (r ApplyVoucherRequest) Ref() promotionModel.VoucherRef {
	return promotionModel.VoucherRef{Code: r.Code, UserVoucherID: r.UserVoucherID}
}
