package model

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var phonePattern = regexp.MustCompile(`^(0|\+84)(3|5|7|8|9)\d{8}$`)

// =====================================================
// CHECKOUT
// =====================================================

type CheckoutRequest struct {
	ReceiverName      string        `json:"receiver_name"`
	Phone             string        `json:"phone"`
	Address           string        `json:"address"`
	WardCode          string        `json:"ward_code"`
	Note              string        `json:"note"`
	PaymentMethod     PaymentMethod `json:"payment_method"`
	DiscountVoucherID *uuid.UUID    `json:"discount_voucher_id"`
	ShippingVoucherID *uuid.UUID    `json:"shipping_voucher_id"`
	PointsToUse       int           `json:"points_to_use"`
}

func (r CheckoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ReceiverName, validation.Required.Error("Vui lòng nhập tên người nhận"), validation.Length(2, 100)),
		validation.Field(&r.Phone, validation.Required.Error("Vui lòng nhập số điện thoại"), validation.Match(phonePattern).Error("Số điện thoại không hợp lệ")),
		validation.Field(&r.Address, validation.Required.Error("Vui lòng nhập địa chỉ"), validation.Length(5, 255)),
		validation.Field(&r.WardCode, validation.Required.Error("Vui lòng chọn phường/xã")),
		validation.Field(&r.Note, validation.Length(0, 500)),
		validation.Field(&r.PaymentMethod,
			validation.Required.Error("Vui lòng chọn phương thức thanh toán"),
			validation.In(PaymentMethodCOD, PaymentMethodMomo, PaymentMethodVNPay).Error("Phương thức thanh toán không hợp lệ"),
		),
		validation.Field(&r.PointsToUse, validation.Min(0).Error("Số điểm không hợp lệ")),
	)
}

func (r CheckoutRequest) NotePtr() *string {
	n := strings.TrimSpace(r.Note)
	if n == "" {
		return nil
	}
	return &n
}

type CheckoutResponse struct {
	Order      *Order        `json:"order"`
	Items      []OrderDetail `json:"items"`
	PaymentURL *string       `json:"payment_url,omitempty"`
	PointsUsed int           `json:"points_used"`
}

// =====================================================
// QUERY
// =====================================================

type ListOrdersRequest struct {
	Status    string `form:"status"`
	Search    string `form:"q"`
	ShipperID string `form:"shipper_id"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

func (r ListOrdersRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.By(func(interface{}) error {
			if r.Status != "" && !OrderStatus(r.Status).IsValid() {
				return validation.NewError("validation_status_invalid", "Trạng thái không hợp lệ")
			}
			return nil
		})),
		validation.Field(&r.ShipperID, validation.By(func(interface{}) error {
			if r.ShipperID == "" {
				return nil
			}
			if _, err := uuid.Parse(r.ShipperID); err != nil {
				return validation.NewError("validation_shipper_id_invalid", "shipper_id không hợp lệ")
			}
			return nil
		})),
		validation.Field(&r.Page, validation.Min(0)),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(100)),
	)
}

// ToFilter áp dụng giá trị mặc định
func (r ListOrdersRequest) ToFilter() OrderFilter {
	f := OrderFilter{
		Search: strings.TrimSpace(r.Search),
		Page:   r.Page,
		Limit:  r.Limit,
	}
	if r.Status != "" {
		s := OrderStatus(r.Status)
		f.Status = &s
	}
	if id, err := uuid.Parse(r.ShipperID); err == nil {
		f.ShipperID = &id
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	return f
}

type OrderFilter struct {
	UserID    *uuid.UUID
	ShipperID *uuid.UUID
	Status    *OrderStatus
	Search    string
	Page      int
	Limit     int
}

func (f OrderFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type OrderDetailResponse struct {
	Order   *Order               `json:"order"`
	Items   []OrderDetail        `json:"items"`
	History []OrderStatusHistory `json:"history,omitempty"`
}

// =====================================================
// LIFECYCLE
// =====================================================

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (r CancelOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required.Error("Vui lòng nhập lý do hủy"), validation.Length(3, 500)),
	)
}

type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
	Note   string      `json:"note"`
}

func (r UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.By(func(interface{}) error {
			if !r.Status.IsValid() {
				return validation.NewError("validation_status_invalid", "Trạng thái không hợp lệ")
			}
			return nil
		})),
		validation.Field(&r.Note, validation.Length(0, 500)),
	)
}

type AssignShipperRequest struct {
	ShipperID uuid.UUID `json:"shipper_id"`
}

func (r AssignShipperRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ShipperID, validation.Required.Error("Vui lòng chọn shipper")),
	)
}

type FailDeliveryRequest struct {
	Reason string `json:"reason"`
}

func (r FailDeliveryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required.Error("Vui lòng nhập lý do giao thất bại"), validation.Length(3, 500)),
	)
}

type UpdateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (r UpdateLocationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Lat, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.Lng, validation.Min(-180.0), validation.Max(180.0)),
	)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (r UpdateStatusRequest) NotePtr() *string {
	return optionalString(r.Note)
}
