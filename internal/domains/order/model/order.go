package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order - tạo 1 lần lúc checkout, sau đó chỉ cập nhật trạng thái / shipper / thanh toán
type Order struct {
	ID           uuid.UUID  `json:"id"`
	Seq          int64      `json:"-"`
	OrderCode    string     `json:"order_code"`
	UserID       uuid.UUID  `json:"user_id"`
	ReceiverName string     `json:"receiver_name"`
	Phone        string     `json:"phone"`
	Address      string     `json:"address"`
	WardCode     string     `json:"ward_code"`
	WardName     string     `json:"ward_name"`
	Note         *string    `json:"note,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	DeliveryTime *string    `json:"delivery_time,omitempty"`

	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Status        OrderStatus   `json:"status"`

	ShipperID         *uuid.UUID    `json:"shipper_id,omitempty"`
	ShipperStatus     ShipperStatus `json:"shipper_status"`
	ShipperLat        *float64      `json:"shipper_lat,omitempty"`
	ShipperLng        *float64      `json:"shipper_lng,omitempty"`
	LocationUpdatedAt *time.Time    `json:"location_updated_at,omitempty"`

	// Pricing
	GrossSubtotal     decimal.Decimal `json:"gross_subtotal"`
	ProductDiscount   decimal.Decimal `json:"product_discount"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	PromotionDiscount decimal.Decimal `json:"promotion_discount"`
	VoucherDiscount   decimal.Decimal `json:"voucher_discount"`
	ShippingFee       decimal.Decimal `json:"shipping_fee"`
	ShippingDiscount  decimal.Decimal `json:"shipping_discount"`
	PointsUsed        int             `json:"points_used"`
	PointsDiscount    decimal.Decimal `json:"points_discount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`

	PromotionCodeID   *uuid.UUID `json:"promotion_code_id,omitempty"`
	DiscountVoucherID *uuid.UUID `json:"discount_voucher_id,omitempty"`
	ShippingVoucherID *uuid.UUID `json:"shipping_voucher_id,omitempty"`

	CancelJobID  *string    `json:"-"`
	CancelReason *string    `json:"cancel_reason,omitempty"`
	FailReason   *string    `json:"fail_reason,omitempty"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// AwaitingPayment - đơn online chưa thanh toán và chưa bị xử lý
func (o *Order) AwaitingPayment() bool {
	return o.PaymentMethod.IsOnline() && !o.IsPaid() && o.Status == StatusPending
}

// OrderDetail - 1 dòng sản phẩm của đơn (kể cả quà tặng)
type OrderDetail struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Discount     decimal.Decimal `json:"discount"`
	IsGift       bool            `json:"is_gift"`
	LineTotal    decimal.Decimal `json:"line_total"`
	DeliveryDate *time.Time      `json:"delivery_date,omitempty"`
	DeliveryTime *string         `json:"delivery_time,omitempty"`
	Note         *string         `json:"note,omitempty"`
}

// OrderStatusHistory tracks status changes
type OrderStatusHistory struct {
	ID         uuid.UUID    `json:"id"`
	OrderID    uuid.UUID    `json:"order_id"`
	FromStatus *OrderStatus `json:"from_status,omitempty"`
	ToStatus   OrderStatus  `json:"to_status"`
	ChangedBy  *uuid.UUID   `json:"changed_by,omitempty"`
	Note       *string      `json:"note,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Tracking - vị trí shipper của đơn đang giao
type Tracking struct {
	OrderID           uuid.UUID     `json:"order_id"`
	OrderCode         string        `json:"order_code"`
	Status            OrderStatus   `json:"status"`
	ShipperID         *uuid.UUID    `json:"shipper_id,omitempty"`
	ShipperStatus     ShipperStatus `json:"shipper_status"`
	Lat               *float64      `json:"lat,omitempty"`
	Lng               *float64      `json:"lng,omitempty"`
	LocationUpdatedAt *time.Time    `json:"location_updated_at,omitempty"`
}

func (o *Order) Tracking() *Tracking {
	return &Tracking{
		OrderID:           o.ID,
		OrderCode:         o.OrderCode,
		Status:            o.Status,
		ShipperID:         o.ShipperID,
		ShipperStatus:     o.ShipperStatus,
		Lat:               o.ShipperLat,
		Lng:               o.ShipperLng,
		LocationUpdatedAt: o.LocationUpdatedAt,
	}
}

// Transition - một lần đổi trạng thái đơn và/hoặc trạng thái shipper.
// Repository chỉ áp dụng khi trạng thái hiện tại khớp From*.
type Transition struct {
	OrderID      uuid.UUID
	FromStatus   OrderStatus
	ToStatus     OrderStatus
	FromShipper  ShipperStatus
	ToShipper    ShipperStatus
	ShipperID    *uuid.UUID // set khi phân công
	ClearShipper bool
	FailReason   *string
	ChangedBy    *uuid.UUID
	Note         *string
}

func (t Transition) StatusChanged() bool {
	return t.FromStatus != t.ToStatus
}

// CancelParams - hủy đơn kèm hoàn kho, hoàn điểm và trả voucher
type CancelParams struct {
	OrderID       uuid.UUID
	FromStatus    OrderStatus
	Reason        string
	ChangedBy     *uuid.UUID
	PaymentFailed bool
}
