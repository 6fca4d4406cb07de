package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/jwt"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

const unpaidCancelReason = "Quá hạn thanh toán"

// =====================================================
// CUSTOMER
// =====================================================

func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID, req model.CancelOrderRequest) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return model.NewOrderError(model.ErrCodeOrderNotFound, "Không tìm thấy đơn hàng", model.ErrOrderNotFound)
	}
	// Khách chỉ tự hủy khi shop chưa xác nhận
	if order.Status != model.StatusPending {
		return model.NewInvalidTransitionError(string(order.Status), string(model.StatusCancelled))
	}
	return s.cancel(ctx, order, req.Reason, &userID, false)
}

func (s *OrderService) ConfirmReceived(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Không tìm thấy đơn hàng", model.ErrOrderNotFound)
	}
	if err := s.complete(ctx, order, &userID); err != nil {
		return nil, err
	}
	return s.getOrder(ctx, orderID)
}

// =====================================================
// ADMIN
// =====================================================

func (s *OrderService) UpdateStatus(ctx context.Context, orderID, adminID uuid.UUID, req model.UpdateStatusRequest) (*model.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Hủy và hoàn thành có side effect riêng (kho, điểm, voucher)
	switch req.Status {
	case model.StatusCancelled:
		reason := "Shop hủy đơn"
		if note := req.NotePtr(); note != nil {
			reason = *note
		}
		if err := s.cancel(ctx, order, reason, &adminID, false); err != nil {
			return nil, err
		}
		return s.getOrder(ctx, orderID)
	case model.StatusCompleted:
		if err := s.complete(ctx, order, &adminID); err != nil {
			return nil, err
		}
		return s.getOrder(ctx, orderID)
	case model.StatusShipping:
		// Đang giao chỉ đến từ ConfirmAssignment, shipper phải nhận đơn trước
		return nil, model.NewOrderError(model.ErrCodeInvalidTransition,
			"Đơn chuyển sang Đang giao khi shipper nhận đơn", nil)
	}

	t := model.Transition{
		ToStatus:  req.Status,
		ToShipper: order.ShipperStatus,
		ChangedBy: &adminID,
		Note:      req.NotePtr(),
	}
	if req.Status == model.StatusDeliveryFailed {
		t.ToShipper = model.ShipperNone
		t.ClearShipper = true
		t.FailReason = req.NotePtr()
	}
	return s.applyTransition(ctx, order, t)
}

func (s *OrderService) AssignShipper(ctx context.Context, orderID, adminID uuid.UUID, req model.AssignShipperRequest) (*model.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.StatusConfirmed && order.Status != model.StatusDeliveryFailed {
		return nil, model.NewOrderError(model.ErrCodeInvalidTransition,
			"Chỉ phân công shipper cho đơn đã xác nhận hoặc giao thất bại", nil)
	}

	role, err := s.orderRepo.GetUserRole(ctx, req.ShipperID)
	if err != nil {
		return nil, err
	}
	if role != jwt.RoleShipper {
		return nil, model.NewOrderError(model.ErrCodeInvalidShipper, "Người được chọn không phải shipper", nil)
	}

	shipperID := req.ShipperID
	updated, err := s.applyTransition(ctx, order, model.Transition{
		ToStatus:  order.Status,
		ToShipper: model.ShipperAssigned,
		ShipperID: &shipperID,
		ChangedBy: &adminID,
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.SendToUser(shipperID, shared.EventShipperAssigned, map[string]interface{}{
			"order_id":   updated.ID,
			"order_code": updated.OrderCode,
			"address":    updated.Address,
			"ward_name":  updated.WardName,
		})
	}
	return updated, nil
}

// =====================================================
// SYSTEM
// =====================================================

func (s *OrderService) CancelUnpaid(ctx context.Context, orderID uuid.UUID) (bool, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	if order == nil || !order.AwaitingPayment() {
		return false, nil
	}

	if err := s.cancel(ctx, order, unpaidCancelReason, nil, true); err != nil {
		// đơn vừa được thanh toán / xử lý ở request khác
		if errors.Is(err, model.ErrStatusConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *OrderService) AutoComplete(ctx context.Context, order *model.Order) error {
	return s.complete(ctx, order, nil)
}

// =====================================================
// SIDE-EFFECT TRANSITIONS
// =====================================================

// cancel: hoàn kho, hoàn điểm, trả voucher, revoke task auto-cancel
func (s *OrderService) cancel(ctx context.Context, order *model.Order, reason string, by *uuid.UUID, paymentFailed bool) error {
	if !order.Status.CanTransition(model.StatusCancelled) {
		return model.NewInvalidTransitionError(string(order.Status), string(model.StatusCancelled))
	}

	from := order.Status
	err := s.orderRepo.CancelOrder(ctx, model.CancelParams{
		OrderID:       order.ID,
		FromStatus:    from,
		Reason:        reason,
		ChangedBy:     by,
		PaymentFailed: paymentFailed,
	})
	if err != nil {
		return mapConflict(err)
	}

	logger.Info("Order cancelled", map[string]interface{}{
		"order_id":   order.ID,
		"order_code": order.OrderCode,
		"from":       from,
		"reason":     reason,
	})

	s.revokeAutoCancel(order)
	order.Status = model.StatusCancelled
	s.afterStatusChange(order, from)
	return nil
}

// complete: "Đã giao" -> "Hoàn thành", cộng floor(total / POINTS_EARN_VND) điểm
func (s *OrderService) complete(ctx context.Context, order *model.Order, by *uuid.UUID) error {
	if !order.Status.CanTransition(model.StatusCompleted) {
		return model.NewInvalidTransitionError(string(order.Status), string(model.StatusCompleted))
	}

	points := model.EarnedPoints(order.TotalAmount, s.cfg.PointsEarnVND)
	if err := s.orderRepo.CompleteOrder(ctx, order.ID, by, points); err != nil {
		return mapConflict(err)
	}

	logger.Info("Order completed", map[string]interface{}{
		"order_id":      order.ID,
		"order_code":    order.OrderCode,
		"earned_points": points,
	})

	from := order.Status
	order.Status = model.StatusCompleted
	s.afterStatusChange(order, from)
	return nil
}
