package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
)

// =====================================================
// WEBHOOK LOG REPOSITORY INTERFACE
// =====================================================

// WebhookRepoInterface - audit trail callback MoMo / VNPay.
// Trạng thái thanh toán nằm trên bảng orders, bảng này chỉ để tra soát.
type WebhookRepoInterface interface {
	// Create ghi log ngay khi nhận callback (trước khi xử lý)
	Create(ctx context.Context, log *model.WebhookLog) error
	// MarkAsProcessed đánh dấu đã xử lý xong; errMsg != nil nếu xử lý lỗi
	MarkAsProcessed(ctx context.Context, id uuid.UUID, errMsg *string) error
	// ListByOrder - admin tra soát giao dịch của 1 đơn
	ListByOrder(ctx context.Context, orderID uuid.UUID, limit int) ([]model.WebhookLog, error)
}
