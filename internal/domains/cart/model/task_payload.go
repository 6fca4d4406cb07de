package model

import "time"

// RemoveExpiredPromotionsPayload payload của job dọn CartState có mã hết hạn
type RemoveExpiredPromotionsPayload struct {
	BatchSize   int       `json:"batch_size"`
	TriggeredAt time.Time `json:"triggered_at"`
}
