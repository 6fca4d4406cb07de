package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/repository"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/metrics"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

// =====================================================
// ORDER SERVICE IMPLEMENTATION
// =====================================================
type OrderService struct {
	orderRepo  repository.OrderRepository
	cartRepo   CartReader
	products   ProductCatalog
	promotions VoucherEvaluator
	wards      WardLookup
	queue      TaskEnqueuer
	inspector  TaskRevoker
	notifier   Notifier
	cfg        config.OrderConfig
	now        func() time.Time

	// set sau khi payment service được khởi tạo (payment phụ thuộc order repo)
	payments PaymentURLCreator
}

var _ ServiceInterface = (*OrderService)(nil)

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo CartReader,
	products ProductCatalog,
	promotions VoucherEvaluator,
	wards WardLookup,
	queue TaskEnqueuer,
	inspector TaskRevoker,
	notifier Notifier,
	cfg config.OrderConfig,
) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		cartRepo:   cartRepo,
		products:   products,
		promotions: promotions,
		wards:      wards,
		queue:      queue,
		inspector:  inspector,
		notifier:   notifier,
		cfg:        cfg,
		now:        time.Now,
	}
}

// SetPaymentURLCreator nối payment service vào checkout
func (s *OrderService) SetPaymentURLCreator(p PaymentURLCreator) {
	s.payments = p
}

// =====================================================
// READ
// =====================================================

func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*model.OrderDetailResponse, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// Không lộ đơn của người khác
	if order.UserID != userID {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Không tìm thấy đơn hàng", model.ErrOrderNotFound)
	}
	return s.detailResponse(ctx, order)
}

func (s *OrderService) GetOrderAdmin(ctx context.Context, orderID uuid.UUID) (*model.OrderDetailResponse, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.detailResponse(ctx, order)
}

func (s *OrderService) detailResponse(ctx context.Context, order *model.Order) (*model.OrderDetailResponse, error) {
	items, err := s.orderRepo.GetOrderDetails(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	history, err := s.orderRepo.GetStatusHistory(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &model.OrderDetailResponse{Order: order, Items: items, History: history}, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID uuid.UUID, req model.ListOrdersRequest) ([]model.Order, int, error) {
	filter := req.ToFilter()
	filter.UserID = &userID
	filter.ShipperID = nil
	return s.orderRepo.ListOrders(ctx, filter)
}

func (s *OrderService) ListOrders(ctx context.Context, req model.ListOrdersRequest) ([]model.Order, int, error) {
	return s.orderRepo.ListOrders(ctx, req.ToFilter())
}

func (s *OrderService) ListAssigned(ctx context.Context, shipperID uuid.UUID, req model.ListOrdersRequest) ([]model.Order, int, error) {
	filter := req.ToFilter()
	filter.ShipperID = &shipperID
	return s.orderRepo.ListOrders(ctx, filter)
}

func (s *OrderService) GetTracking(ctx context.Context, orderID uuid.UUID) (*model.Tracking, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order.Tracking(), nil
}

// =====================================================
// HELPERS
// =====================================================

func (s *OrderService) getOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Không tìm thấy đơn hàng", model.ErrOrderNotFound)
	}
	return order, nil
}

// applyTransition kiểm tra bảng chuyển trạng thái rồi ghi xuống DB
func (s *OrderService) applyTransition(ctx context.Context, order *model.Order, t model.Transition) (*model.Order, error) {
	t.OrderID = order.ID
	t.FromStatus = order.Status
	t.FromShipper = order.ShipperStatus

	if t.StatusChanged() && !t.FromStatus.CanTransition(t.ToStatus) {
		return nil, model.NewInvalidTransitionError(string(t.FromStatus), string(t.ToStatus))
	}
	if t.FromShipper != t.ToShipper && !t.FromShipper.CanTransition(t.ToShipper) {
		return nil, model.NewInvalidTransitionError(string(t.FromShipper), string(t.ToShipper))
	}

	if err := s.orderRepo.ApplyTransition(ctx, t); err != nil {
		return nil, mapConflict(err)
	}

	updated, err := s.getOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if t.StatusChanged() {
		s.afterStatusChange(updated, t.FromStatus)
	}
	return updated, nil
}

// afterStatusChange: metrics + đẩy realtime cho khách, lỗi chỉ log
func (s *OrderService) afterStatusChange(order *model.Order, from model.OrderStatus) {
	metrics.OrderTransitionsTotal.WithLabelValues(string(from), string(order.Status)).Inc()

	if s.notifier == nil {
		return
	}
	s.notifier.SendToUser(order.UserID, shared.EventOrderStatus, map[string]interface{}{
		"order_id":   order.ID,
		"order_code": order.OrderCode,
		"from":       from,
		"status":     order.Status,
	})
}

func mapConflict(err error) error {
	if errors.Is(err, model.ErrStatusConflict) {
		return model.NewOrderError(model.ErrCodeStatusConflict, "Đơn hàng vừa được cập nhật, vui lòng thử lại", err)
	}
	return err
}

func (s *OrderService) revokeAutoCancel(order *model.Order) {
	if s.inspector == nil || order.CancelJobID == nil {
		return
	}
	if err := s.inspector.DeleteTask(shared.QueueCritical, *order.CancelJobID); err != nil {
		logger.Warn("Failed to revoke auto-cancel task", map[string]interface{}{
			"order_id": order.ID,
			"task_id":  *order.CancelJobID,
			"error":    err.Error(),
		})
	}
}
