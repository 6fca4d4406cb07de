package model

// OrderStatus - trạng thái đơn hàng, giá trị lưu DB là tiếng Việt
type OrderStatus string

const (
	StatusPending        OrderStatus = "Chờ xác nhận"
	StatusConfirmed      OrderStatus = "Đã xác nhận"
	StatusShipping       OrderStatus = "Đang giao"
	StatusDeliveryFailed OrderStatus = "Giao thất bại"
	StatusDelivered      OrderStatus = "Đã giao"
	StatusCompleted      OrderStatus = "Hoàn thành"
	StatusCancelled      OrderStatus = "Đã hủy"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusShipping, StatusCancelled},
	StatusShipping:       {StatusDelivered, StatusDeliveryFailed},
	StatusDeliveryFailed: {StatusShipping, StatusCancelled},
	StatusDelivered:      {StatusCompleted},
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipping, StatusDeliveryFailed,
		StatusDelivered, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransition kiểm tra chuyển trạng thái theo bảng orderTransitions
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsFinal() bool {
	return len(orderTransitions[s]) == 0
}

// ShipperStatus - trạng thái phân công shipper của đơn
type ShipperStatus string

const (
	ShipperNone      ShipperStatus = ""
	ShipperAssigned  ShipperStatus = "Đã phân công"
	ShipperConfirmed ShipperStatus = "Đã xác nhận"
)

// Đã phân công -> "" khi shipper từ chối.
// Đã xác nhận -> "" chỉ khi giao thất bại, đơn được trả về để admin phân công lại.
var shipperTransitions = map[ShipperStatus][]ShipperStatus{
	ShipperNone:      {ShipperAssigned},
	ShipperAssigned:  {ShipperConfirmed, ShipperNone},
	ShipperConfirmed: {ShipperNone},
}

func (s ShipperStatus) IsValid() bool {
	switch s {
	case ShipperNone, ShipperAssigned, ShipperConfirmed:
		return true
	}
	return false
}

func (s ShipperStatus) CanTransition(to ShipperStatus) bool {
	for _, next := range shipperTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentMethod represents valid payment methods
type PaymentMethod string

const (
	PaymentMethodCOD   PaymentMethod = "COD"
	PaymentMethodMomo  PaymentMethod = "MOMO"
	PaymentMethodVNPay PaymentMethod = "VNPAY"
)

func (pm PaymentMethod) IsValid() bool {
	switch pm {
	case PaymentMethodCOD, PaymentMethodMomo, PaymentMethodVNPay:
		return true
	}
	return false
}

// IsOnline - thanh toán qua cổng, cần auto-cancel nếu quá hạn
func (pm PaymentMethod) IsOnline() bool {
	return pm == PaymentMethodMomo || pm == PaymentMethodVNPay
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)
