package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
)

// getAssigned - đơn phải đang được phân công cho đúng shipper này và ở đúng bước phân công
func (s *OrderService) getAssigned(ctx context.Context, orderID, shipperID uuid.UUID, want model.ShipperStatus) (*model.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ShipperID == nil || *order.ShipperID != shipperID || order.ShipperStatus == model.ShipperNone {
		return nil, model.NewOrderError(model.ErrCodeNotAssignedShipper, "Đơn hàng không được phân công cho bạn", nil)
	}
	if order.ShipperStatus != want {
		switch want {
		case model.ShipperAssigned:
			return nil, model.NewOrderError(model.ErrCodeInvalidTransition, "Bạn đã nhận đơn này, không thể từ chối", nil)
		default:
			return nil, model.NewOrderError(model.ErrCodeInvalidTransition, "Bạn cần nhận đơn trước khi giao", nil)
		}
	}
	return order, nil
}

// ConfirmAssignment: shipper nhận đơn, đơn chuyển sang "Đang giao"
func (s *OrderService) ConfirmAssignment(ctx context.Context, orderID, shipperID uuid.UUID) (*model.Order, error) {
	order, err := s.getAssigned(ctx, orderID, shipperID, model.ShipperAssigned)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, order, model.Transition{
		ToStatus:  model.StatusShipping,
		ToShipper: model.ShipperConfirmed,
		ChangedBy: &shipperID,
	})
}

// RejectAssignment: trả đơn về cho admin phân công lại
func (s *OrderService) RejectAssignment(ctx context.Context, orderID, shipperID uuid.UUID) (*model.Order, error) {
	order, err := s.getAssigned(ctx, orderID, shipperID, model.ShipperAssigned)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, order, model.Transition{
		ToStatus:     order.Status,
		ToShipper:    model.ShipperNone,
		ClearShipper: true,
		ChangedBy:    &shipperID,
	})
}

func (s *OrderService) FailDelivery(ctx context.Context, orderID, shipperID uuid.UUID, req model.FailDeliveryRequest) (*model.Order, error) {
	order, err := s.getAssigned(ctx, orderID, shipperID, model.ShipperConfirmed)
	if err != nil {
		return nil, err
	}
	if order.Status != model.StatusShipping {
		return nil, model.NewInvalidTransitionError(string(order.Status), string(model.StatusDeliveryFailed))
	}

	reason := strings.TrimSpace(req.Reason)
	return s.applyTransition(ctx, order, model.Transition{
		ToStatus:     model.StatusDeliveryFailed,
		ToShipper:    model.ShipperNone,
		ClearShipper: true,
		FailReason:   &reason,
		ChangedBy:    &shipperID,
		Note:         &reason,
	})
}

func (s *OrderService) CompleteDelivery(ctx context.Context, orderID, shipperID uuid.UUID) (*model.Order, error) {
	order, err := s.getAssigned(ctx, orderID, shipperID, model.ShipperConfirmed)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, order, model.Transition{
		ToStatus:  model.StatusDelivered,
		ToShipper: order.ShipperStatus,
		ChangedBy: &shipperID,
	})
}

// UpdateLocation - GPS chỉ ghi nhận khi đơn đang giao
func (s *OrderService) UpdateLocation(ctx context.Context, orderID, shipperID uuid.UUID, req model.UpdateLocationRequest) error {
	order, err := s.getAssigned(ctx, orderID, shipperID, model.ShipperConfirmed)
	if err != nil {
		return err
	}
	if order.Status != model.StatusShipping {
		return model.NewOrderError(model.ErrCodeInvalidTransition, "Chỉ cập nhật vị trí khi đơn đang giao", nil)
	}
	return s.orderRepo.UpdateLocation(ctx, orderID, shipperID, req.Lat, req.Lng)
}
