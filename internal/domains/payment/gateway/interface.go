package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
)

// =====================================================
// GATEWAY INTERFACES
// =====================================================

// Gateway - phần chung của MoMo và VNPay
type Gateway interface {
	Name() string
	// CreatePaymentURL trả về link redirect khách sang cổng thanh toán
	CreatePaymentURL(ctx context.Context, req PaymentRequest) (string, error)
}

type MomoGateway interface {
	Gateway
	// VerifyIPN kiểm tra chữ ký HMAC-SHA256 của IPN
	VerifyIPN(req model.MomoIPNRequest) bool
}

type VNPayGateway interface {
	Gateway
	// VerifyCallback kiểm tra vnp_SecureHash của IPN / return URL
	VerifyCallback(params map[string]string) bool
}

// PaymentRequest request to create a payment link
type PaymentRequest struct {
	TxnRef    string          // model.NewTxnRef
	Amount    decimal.Decimal // Order total (VND)
	OrderInfo string          // Description
	ClientIP  string          // VNPay bắt buộc vnp_IpAddr
}
