package job

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/utils"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

// UnpaidCanceller - phần service mà job auto-cancel cần
type UnpaidCanceller interface {
	CancelUnpaid(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// AutoCancelOrderHandler hủy đơn MoMo/VNPay chưa thanh toán sau PAYMENT_TIMEOUT.
// Task được enqueue lúc checkout với TaskID cố định, bị xóa khi IPN báo thành công.
type AutoCancelOrderHandler struct {
	orders UnpaidCanceller
}

func NewAutoCancelOrderHandler(orders UnpaidCanceller) *AutoCancelOrderHandler {
	return &AutoCancelOrderHandler{orders: orders}
}

func (h *AutoCancelOrderHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.AutoCancelOrderPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.OrderID == uuid.Nil {
		// payload hỏng thì retry cũng vô ích
		return fmt.Errorf("missing order_id: %w", asynq.SkipRetry)
	}

	logger.Info("Processing auto-cancel order task", map[string]interface{}{
		"order_id":   payload.OrderID,
		"order_code": payload.OrderCode,
	})

	cancelled, err := h.orders.CancelUnpaid(ctx, payload.OrderID)
	if err != nil {
		logger.ErrorWithFields("Failed to auto-cancel order", err, map[string]interface{}{
			"order_id": payload.OrderID,
		})
		return fmt.Errorf("cancel unpaid order: %w", err)
	}

	if !cancelled {
		logger.Info("Order already paid or processed, skip auto-cancel", map[string]interface{}{
			"order_id": payload.OrderID,
		})
		return nil
	}

	logger.Info("Auto-cancelled unpaid order", map[string]interface{}{
		"order_id":   payload.OrderID,
		"order_code": payload.OrderCode,
		"user_id":    payload.UserID,
	})
	return nil
}
