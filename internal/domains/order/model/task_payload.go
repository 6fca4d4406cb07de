package model

import "github.com/google/uuid"

// AutoCancelOrderPayload - hủy đơn online nếu quá hạn thanh toán
type AutoCancelOrderPayload struct {
	OrderID   uuid.UUID `json:"order_id"`
	OrderCode string    `json:"order_code"`
	UserID    uuid.UUID `json:"user_id"`
}

// AutoCompleteOrdersPayload - chuyển đơn "Đã giao" quá N ngày sang "Hoàn thành"
type AutoCompleteOrdersPayload struct {
	Days      int `json:"days"`
	BatchSize int `json:"batch_size"`
}
