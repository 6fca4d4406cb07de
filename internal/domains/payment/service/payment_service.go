package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	orderModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/gateway"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
	repo "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/repository"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/utils"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

const webhookLogLimit = 50

// =====================================================
// PAYMENT SERVICE IMPLEMENTATION
// =====================================================
type PaymentService struct {
	orders      OrderStore
	webhookRepo repo.WebhookRepoInterface

	// Gateway integrations
	momoGateway  gateway.MomoGateway
	vnpayGateway gateway.VNPayGateway

	inspector TaskRevoker
	notifier  Notifier
	now       func() time.Time
}

var _ ServiceInterface = (*PaymentService)(nil)

func NewPaymentService(
	orders OrderStore,
	webhookRepo repo.WebhookRepoInterface,
	momoGateway gateway.MomoGateway,
	vnpayGateway gateway.VNPayGateway,
	inspector TaskRevoker,
	notifier Notifier,
) *PaymentService {
	return &PaymentService{
		orders:       orders,
		webhookRepo:  webhookRepo,
		momoGateway:  momoGateway,
		vnpayGateway: vnpayGateway,
		inspector:    inspector,
		notifier:     notifier,
		now:          time.Now,
	}
}

// =====================================================
// CREATE PAYMENT URL
// =====================================================

func (s *PaymentService) CreatePaymentURL(ctx context.Context, order *orderModel.Order) (string, error) {
	gw, err := s.gatewayFor(order.PaymentMethod)
	if err != nil {
		return "", err
	}

	payURL, err := gw.CreatePaymentURL(ctx, gateway.PaymentRequest{
		TxnRef:    model.NewTxnRef(order.ID, s.now()),
		Amount:    order.TotalAmount,
		OrderInfo: fmt.Sprintf("Thanh toan don hang %s", order.OrderCode),
		ClientIP:  utils.ClientIPFromContext(ctx),
	})
	if err != nil {
		logger.ErrorWithFields("Failed to create payment URL", err, map[string]interface{}{
			"order_id": order.ID,
			"gateway":  gw.Name(),
		})
		return "", model.NewPaymentError(model.ErrCodeGateway, "Không tạo được link thanh toán", err)
	}

	logger.Info("Payment URL created", map[string]interface{}{
		"order_id":   order.ID,
		"order_code": order.OrderCode,
		"gateway":    gw.Name(),
		"amount":     order.TotalAmount.String(),
	})
	return payURL, nil
}

func (s *PaymentService) RetryPayment(ctx context.Context, orderID, userID uuid.UUID) (*model.PaymentURLResponse, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, model.NewPaymentError(model.ErrCodeOrderNotFound, "Không tìm thấy đơn hàng", model.ErrOrderNotFound)
	}
	if !order.PaymentMethod.IsOnline() {
		return nil, model.NewPaymentError(model.ErrCodeNotOnline, "Đơn hàng thanh toán khi nhận hàng", model.ErrNotOnlineOrder)
	}
	if order.IsPaid() {
		return nil, model.NewPaymentError(model.ErrCodeAlreadyPaid, "Đơn hàng đã được thanh toán", model.ErrOrderAlreadyPaid)
	}
	if !order.AwaitingPayment() {
		return nil, model.NewPaymentError(model.ErrCodeNotPayable, "Đơn hàng không còn chờ thanh toán", model.ErrOrderNotPayable)
	}

	payURL, err := s.CreatePaymentURL(ctx, order)
	if err != nil {
		return nil, err
	}
	return &model.PaymentURLResponse{
		OrderID:    order.ID,
		OrderCode:  order.OrderCode,
		PaymentURL: payURL,
	}, nil
}

func (s *PaymentService) gatewayFor(method orderModel.PaymentMethod) (gateway.Gateway, error) {
	switch method {
	case orderModel.PaymentMethodMomo:
		if s.momoGateway != nil {
			return s.momoGateway, nil
		}
	case orderModel.PaymentMethodVNPay:
		if s.vnpayGateway != nil {
			return s.vnpayGateway, nil
		}
	default:
		return nil, model.NewPaymentError(model.ErrCodeNotOnline, "Đơn hàng thanh toán khi nhận hàng", model.ErrNotOnlineOrder)
	}
	return nil, model.NewPaymentError(model.ErrCodeGateway, "Cổng thanh toán chưa được cấu hình", nil)
}

// =====================================================
// CONFIRM PAYMENT
// =====================================================

func (s *PaymentService) ConfirmPayment(ctx context.Context, order *orderModel.Order) (bool, error) {
	changed, err := s.orders.MarkPaid(ctx, order.ID)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	if order.Status == orderModel.StatusCancelled {
		// tiền đã trừ nhưng đơn đã hủy, shop cần hoàn tiền thủ công
		logger.Warn("Payment received for cancelled order", map[string]interface{}{
			"order_id":   order.ID,
			"order_code": order.OrderCode,
		})
	}

	// Best effort: job auto-cancel tự kiểm tra lại trạng thái thanh toán
	if s.inspector != nil && order.CancelJobID != nil {
		if err := s.inspector.DeleteTask(shared.QueueCritical, *order.CancelJobID); err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
			logger.ErrorWithFields("Failed to revoke auto-cancel task", err, map[string]interface{}{
				"order_id": order.ID,
				"task_id":  *order.CancelJobID,
			})
		}
	}

	logger.Info("Order paid", map[string]interface{}{
		"order_id":   order.ID,
		"order_code": order.OrderCode,
		"method":     order.PaymentMethod,
	})
	return true, nil
}

func (s *PaymentService) ListWebhookLogs(ctx context.Context, orderID uuid.UUID) ([]model.WebhookLog, error) {
	return s.webhookRepo.ListByOrder(ctx, orderID, webhookLogLimit)
}
