package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/gateway/momo"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/gateway/vnpay"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/metrics"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

// =====================================================
// MOMO IPN
// =====================================================

func (s *PaymentService) HandleMomoIPN(ctx context.Context, req model.MomoIPNRequest) error {
	valid := s.momoGateway != nil && s.momoGateway.VerifyIPN(req)

	result := model.CallbackResult{
		Gateway:       model.GatewayMomo,
		TxnRef:        req.OrderID,
		TransactionID: strconv.FormatInt(req.TransID, 10),
		Amount:        decimal.NewFromInt(req.Amount),
		Success:       req.ResultCode == momo.ResultCodeSuccess,
		ResultCode:    strconv.Itoa(req.ResultCode),
		Message:       req.Message,
	}

	err := s.processCallback(ctx, &result, valid, momoBody(req))
	if errors.Is(err, model.ErrOrderAlreadyPaid) {
		return nil
	}
	return err
}

func momoBody(req model.MomoIPNRequest) map[string]interface{} {
	return map[string]interface{}{
		"partnerCode":  req.PartnerCode,
		"orderId":      req.OrderID,
		"requestId":    req.RequestID,
		"amount":       req.Amount,
		"orderInfo":    req.OrderInfo,
		"orderType":    req.OrderType,
		"transId":      req.TransID,
		"resultCode":   req.ResultCode,
		"message":      req.Message,
		"payType":      req.PayType,
		"responseTime": req.ResponseTime,
		"extraData":    req.ExtraData,
	}
}

// =====================================================
// VNPAY IPN / RETURN
// =====================================================

func (s *PaymentService) HandleVNPayIPN(ctx context.Context, params map[string]string) model.VNPayIPNResponse {
	_, err := s.handleVNPay(ctx, params)
	switch {
	case err == nil:
		return model.VNPayIPNResponse{RspCode: model.VNPayRspSuccess, Message: "Confirm Success"}
	case errors.Is(err, model.ErrInvalidSignature):
		return model.VNPayIPNResponse{RspCode: model.VNPayRspInvalidSignature, Message: "Invalid signature"}
	case errors.Is(err, model.ErrOrderNotFound), errors.Is(err, model.ErrInvalidTxnRef):
		return model.VNPayIPNResponse{RspCode: model.VNPayRspOrderNotFound, Message: "Order not found"}
	case errors.Is(err, model.ErrOrderAlreadyPaid):
		return model.VNPayIPNResponse{RspCode: model.VNPayRspAlreadyConfirmed, Message: "Order already confirmed"}
	case errors.Is(err, model.ErrAmountMismatch):
		return model.VNPayIPNResponse{RspCode: model.VNPayRspInvalidAmount, Message: "Invalid amount"}
	default:
		return model.VNPayIPNResponse{RspCode: model.VNPayRspUnknown, Message: "Unknown error"}
	}
}

func (s *PaymentService) HandleVNPayReturn(ctx context.Context, params map[string]string) (*model.CallbackResult, error) {
	result, err := s.handleVNPay(ctx, params)
	if err != nil && !errors.Is(err, model.ErrOrderAlreadyPaid) {
		return nil, err
	}
	return result, nil
}

func (s *PaymentService) handleVNPay(ctx context.Context, params map[string]string) (*model.CallbackResult, error) {
	valid := s.vnpayGateway != nil && s.vnpayGateway.VerifyCallback(params)

	amount, err := vnpay.ParseAmount(params["vnp_Amount"])
	if err != nil {
		amount = decimal.Zero
	}

	code := params["vnp_ResponseCode"]
	result := &model.CallbackResult{
		Gateway:       model.GatewayVNPay,
		TxnRef:        params["vnp_TxnRef"],
		TransactionID: params["vnp_TransactionNo"],
		Amount:        amount,
		// vnp_TransactionStatus vắng mặt ở một số môi trường sandbox
		Success:    code == vnpay.ResponseCodeSuccess && (params["vnp_TransactionStatus"] == "" || params["vnp_TransactionStatus"] == vnpay.ResponseCodeSuccess),
		ResultCode: code,
		Message:    vnpay.GetResponseMessage(code),
	}

	body := make(map[string]interface{}, len(params))
	for k, v := range params {
		body[k] = v
	}

	return result, s.processCallback(ctx, result, valid, body)
}

// =====================================================
// SHARED CALLBACK FLOW
// =====================================================

// processCallback: log -> verify chữ ký -> tìm đơn -> kiểm tra số tiền -> confirm / mark failed
func (s *PaymentService) processCallback(ctx context.Context, result *model.CallbackResult, valid bool, body map[string]interface{}) (err error) {
	var orderID *uuid.UUID
	if id, parseErr := model.ParseTxnRef(result.TxnRef); parseErr == nil {
		result.OrderID = id
		orderID = &id
	}

	// Step 1: audit log trước khi xử lý
	log := &model.WebhookLog{
		ID:         uuid.New(),
		OrderID:    orderID,
		Gateway:    result.Gateway,
		TxnRef:     result.TxnRef,
		ResultCode: result.ResultCode,
		Body:       body,
		IsValid:    valid,
		ReceivedAt: s.now(),
	}
	logged := s.webhookRepo.Create(ctx, log) == nil
	if !logged {
		logger.Warn("Failed to write payment webhook log", map[string]interface{}{
			"gateway": result.Gateway,
			"txn_ref": result.TxnRef,
		})
	}

	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = outcomeLabel(err)
		} else if !result.Success {
			outcome = "failed"
		}
		metrics.PaymentCallbacksTotal.WithLabelValues(result.Gateway, outcome).Inc()

		if !logged {
			return
		}
		var errMsg *string
		if err != nil && !errors.Is(err, model.ErrOrderAlreadyPaid) {
			msg := err.Error()
			errMsg = &msg
		}
		if markErr := s.webhookRepo.MarkAsProcessed(ctx, log.ID, errMsg); markErr != nil {
			logger.Error("Failed to mark webhook log processed", markErr)
		}
	}()

	// Step 2: verify signature
	if !valid {
		logger.Warn("Invalid payment callback signature", map[string]interface{}{
			"gateway": result.Gateway,
			"txn_ref": result.TxnRef,
		})
		return model.NewPaymentError(model.ErrCodeInvalidSignature, "Chữ ký không hợp lệ", model.ErrInvalidSignature)
	}
	if orderID == nil {
		return model.NewPaymentError(model.ErrCodeOrderNotFound, "Mã giao dịch không hợp lệ", model.ErrInvalidTxnRef)
	}

	// Step 3: get order
	order, err := s.orders.GetOrderByID(ctx, *orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return model.NewPaymentError(model.ErrCodeOrderNotFound, "Không tìm thấy đơn hàng", model.ErrOrderNotFound)
	}

	// Step 4: amount check (cả giao dịch thất bại cũng phải khớp)
	if !result.Amount.Equal(order.TotalAmount) {
		logger.Warn("Payment amount mismatch", map[string]interface{}{
			"order_id": order.ID,
			"expected": order.TotalAmount.String(),
			"received": result.Amount.String(),
		})
		return model.NewPaymentError(model.ErrCodeAmountMismatch, "Số tiền không khớp", model.ErrAmountMismatch)
	}

	if order.IsPaid() {
		return model.NewPaymentError(model.ErrCodeAlreadyPaid, "Đơn hàng đã được thanh toán", model.ErrOrderAlreadyPaid)
	}

	// Step 5: failed -> payment_status = failed, đơn vẫn chờ đến khi auto-cancel
	if !result.Success {
		if err := s.orders.MarkPaymentFailed(ctx, order.ID); err != nil {
			return err
		}
		logger.Info("Payment failed", map[string]interface{}{
			"order_id":    order.ID,
			"gateway":     result.Gateway,
			"result_code": result.ResultCode,
		})
		s.notifyPayment(order.UserID, result)
		return nil
	}

	// Step 6: success
	changed, err := s.ConfirmPayment(ctx, order)
	if err != nil {
		return err
	}
	if !changed {
		return model.NewPaymentError(model.ErrCodeAlreadyPaid, "Đơn hàng đã được thanh toán", model.ErrOrderAlreadyPaid)
	}
	s.notifyPayment(order.UserID, result)
	return nil
}

func (s *PaymentService) notifyPayment(userID uuid.UUID, result *model.CallbackResult) {
	if s.notifier == nil {
		return
	}
	s.notifier.SendToUser(userID, shared.EventPaymentResult, map[string]interface{}{
		"order_id": result.OrderID,
		"gateway":  result.Gateway,
		"success":  result.Success,
		"message":  result.Message,
	})
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, model.ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, model.ErrOrderNotFound), errors.Is(err, model.ErrInvalidTxnRef):
		return "order_not_found"
	case errors.Is(err, model.ErrOrderAlreadyPaid):
		return "duplicate"
	default:
		return "error"
	}
}
