package service

import (
	"context"

	"github.com/google/uuid"

	orderModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
)

// =====================================================
// PAYMENT SERVICE INTERFACE
// =====================================================
type ServiceInterface interface {
	// CreatePaymentURL - gọi ngay sau checkout cho đơn MOMO / VNPAY
	CreatePaymentURL(ctx context.Context, order *orderModel.Order) (string, error)
	// RetryPayment tạo link mới cho đơn chưa thanh toán (POST /orders/:id/pay)
	RetryPayment(ctx context.Context, orderID, userID uuid.UUID) (*model.PaymentURLResponse, error)

	// ============================================
	// WEBHOOK PROCESSING
	// ============================================

	HandleMomoIPN(ctx context.Context, req model.MomoIPNRequest) error
	// HandleVNPayIPN luôn trả response cho VNPay, không trả error
	HandleVNPayIPN(ctx context.Context, params map[string]string) model.VNPayIPNResponse
	// HandleVNPayReturn xử lý giống IPN (idempotent) rồi trả kết quả cho frontend
	HandleVNPayReturn(ctx context.Context, params map[string]string) (*model.CallbackResult, error)

	// ConfirmPayment đánh dấu đã thanh toán và revoke task auto-cancel.
	// Trả về false nếu đơn đã paid từ trước.
	ConfirmPayment(ctx context.Context, order *orderModel.Order) (bool, error)

	// ListWebhookLogs - admin tra soát
	ListWebhookLogs(ctx context.Context, orderID uuid.UUID) ([]model.WebhookLog, error)
}

// OrderStore - phần order repository mà payment dùng
type OrderStore interface {
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*orderModel.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID) (bool, error)
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) error
}

// TaskRevoker - asynq.Inspector
type TaskRevoker interface {
	DeleteTask(queue, id string) error
}

type Notifier interface {
	SendToUser(userID uuid.UUID, eventType string, data interface{})
}
