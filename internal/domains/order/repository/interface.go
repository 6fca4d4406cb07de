package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
)

// CreateOrderParams - toàn bộ dữ liệu ghi trong transaction checkout
type CreateOrderParams struct {
	Order   *model.Order // ID đã sinh sẵn, OrderCode được set ở phase 2
	Details []model.OrderDetail
	// Mã chữ cái cuối order code
	CodeSuffix string
	// Voucher trong ví đánh dấu đã dùng
	UsedVoucherIDs []uuid.UUID
	// PromotionCode tăng used_count
	UsedCodeIDs []uuid.UUID
}

type OrderRepository interface {
	// ---- CHECKOUT ----

	// CreateOrder: trừ kho, insert order (phase 1), set order code theo seq (phase 2),
	// insert details, đánh dấu voucher, tăng used_count, trừ điểm, xóa giỏ hàng.
	CreateOrder(ctx context.Context, params CreateOrderParams) error
	GetUserPoints(ctx context.Context, userID uuid.UUID) (int, error)
	GetUserRole(ctx context.Context, userID uuid.UUID) (string, error)

	// ---- READ ----

	// GetOrderByID returns nil if not exists (don't treat as error)
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	GetOrderDetails(ctx context.Context, orderID uuid.UUID) ([]model.OrderDetail, error)
	GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error)
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)
	// FindDeliveredBefore - đơn "Đã giao" có delivered_at trước mốc
	FindDeliveredBefore(ctx context.Context, before time.Time, limit int) ([]model.Order, error)

	// ---- STATE CHANGES ----

	// ApplyTransition cập nhật trạng thái có guard theo trạng thái hiện tại,
	// trả về model.ErrStatusConflict nếu đơn đã đổi trạng thái.
	ApplyTransition(ctx context.Context, t model.Transition) error
	// CancelOrder hủy đơn, hoàn kho, hoàn điểm, trả voucher trong ví
	CancelOrder(ctx context.Context, params model.CancelParams) error
	// CompleteOrder "Đã giao" -> "Hoàn thành" và cộng điểm thưởng
	CompleteOrder(ctx context.Context, orderID uuid.UUID, changedBy *uuid.UUID, earnedPoints int) error
	UpdateLocation(ctx context.Context, orderID, shipperID uuid.UUID, lat, lng float64) error

	// ---- PAYMENT ----

	// MarkPaid trả về false nếu đơn đã paid trước đó (idempotent)
	MarkPaid(ctx context.Context, orderID uuid.UUID) (bool, error)
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) error
}
