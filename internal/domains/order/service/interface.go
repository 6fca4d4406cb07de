package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/address"
	cartModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	productModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
)

// =====================================================
// ORDER SERVICE INTERFACE
// =====================================================
type ServiceInterface interface {
	// Checkout tạo đơn từ giỏ hàng hiện tại
	Checkout(ctx context.Context, userID uuid.UUID, req model.CheckoutRequest) (*model.CheckoutResponse, error)

	// ---- Customer ----
	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.OrderDetailResponse, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID, req model.ListOrdersRequest) ([]model.Order, int, error)
	CancelOrder(ctx context.Context, orderID, userID uuid.UUID, req model.CancelOrderRequest) error
	ConfirmReceived(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error)

	// ---- Admin ----
	ListOrders(ctx context.Context, req model.ListOrdersRequest) ([]model.Order, int, error)
	GetOrderAdmin(ctx context.Context, orderID uuid.UUID) (*model.OrderDetailResponse, error)
	UpdateStatus(ctx context.Context, orderID, adminID uuid.UUID, req model.UpdateStatusRequest) (*model.Order, error)
	AssignShipper(ctx context.Context, orderID, adminID uuid.UUID, req model.AssignShipperRequest) (*model.Order, error)
	GetTracking(ctx context.Context, orderID uuid.UUID) (*model.Tracking, error)

	// ---- Shipper ----
	ListAssigned(ctx context.Context, shipperID uuid.UUID, req model.ListOrdersRequest) ([]model.Order, int, error)
	ConfirmAssignment(ctx context.Context, orderID, shipperID uuid.UUID) (*model.Order, error)
	RejectAssignment(ctx context.Context, orderID, shipperID uuid.UUID) (*model.Order, error)
	FailDelivery(ctx context.Context, orderID, shipperID uuid.UUID, req model.FailDeliveryRequest) (*model.Order, error)
	CompleteDelivery(ctx context.Context, orderID, shipperID uuid.UUID) (*model.Order, error)
	UpdateLocation(ctx context.Context, orderID, shipperID uuid.UUID, req model.UpdateLocationRequest) error

	// ---- System (jobs) ----

	// CancelUnpaid hủy đơn online quá hạn thanh toán; bỏ qua nếu đơn đã paid hoặc đã đổi trạng thái
	CancelUnpaid(ctx context.Context, orderID uuid.UUID) (bool, error)
	// AutoComplete chuyển đơn "Đã giao" sang "Hoàn thành" và cộng điểm
	AutoComplete(ctx context.Context, order *model.Order) error
}

// =====================================================
// DEPENDENCIES
// =====================================================

// CartReader - phần đọc của cart repository mà checkout cần
type CartReader interface {
	ListItems(ctx context.Context, userID uuid.UUID) ([]cartModel.CartItem, error)
	GetState(ctx context.Context, userID uuid.UUID) (*cartModel.CartState, error)
}

type ProductCatalog interface {
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*productModel.Product, error)
}

type VoucherEvaluator interface {
	ResolveCandidate(ctx context.Context, userID uuid.UUID, ref promotionModel.VoucherRef) (*promotionModel.Candidate, error)
	Evaluate(ctx context.Context, cand *promotionModel.Candidate, in promotionModel.EvalInput) (*promotionModel.EvalResult, error)
}

type WardLookup interface {
	GetWard(ctx context.Context, code string) (*address.Ward, error)
}

// TaskEnqueuer khớp với *asynq.Client
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskRevoker khớp với *asynq.Inspector
type TaskRevoker interface {
	DeleteTask(queue, id string) error
}

// PaymentURLCreator do payment domain implement
type PaymentURLCreator interface {
	CreatePaymentURL(ctx context.Context, order *model.Order) (string, error)
}

// Notifier đẩy event realtime tới user (websocket hub)
type Notifier interface {
	SendToUser(userID uuid.UUID, eventType string, data interface{})
}
