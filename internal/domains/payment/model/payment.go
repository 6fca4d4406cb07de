package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	GatewayMomo  = "momo"
	GatewayVNPay = "vnpay"
)

// MomoIPNRequest - body MoMo POST về ipnUrl
type MomoIPNRequest struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// CallbackResult - kết quả chung sau khi verify callback của cổng thanh toán
type CallbackResult struct {
	Gateway       string          `json:"gateway"`
	OrderID       uuid.UUID       `json:"order_id"`
	TxnRef        string          `json:"txn_ref"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Success       bool            `json:"success"`
	ResultCode    string          `json:"result_code"`
	Message       string          `json:"message"`
}

// PaymentURLResponse - trả cho client khi tạo lại link thanh toán
type PaymentURLResponse struct {
	OrderID    uuid.UUID `json:"order_id"`
	OrderCode  string    `json:"order_code"`
	PaymentURL string    `json:"payment_url"`
}

// VNPayIPNResponse - VNPay đọc RspCode để quyết định retry
type VNPayIPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

const (
	VNPayRspSuccess          = "00"
	VNPayRspOrderNotFound    = "01"
	VNPayRspAlreadyConfirmed = "02"
	VNPayRspInvalidAmount    = "04"
	VNPayRspInvalidSignature = "97"
	VNPayRspUnknown          = "99"
)

// WebhookLog - audit mọi callback nhận được, kể cả sai chữ ký
type WebhookLog struct {
	ID           uuid.UUID              `json:"id"`
	OrderID      *uuid.UUID             `json:"order_id,omitempty"`
	Gateway      string                 `json:"gateway"`
	TxnRef       string                 `json:"txn_ref"`
	ResultCode   string                 `json:"result_code"`
	Body         map[string]interface{} `json:"body"`
	IsValid      bool                   `json:"is_valid"`
	IsProcessed  bool                   `json:"is_processed"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	ReceivedAt   time.Time              `json:"received_at"`
	ProcessedAt  *time.Time             `json:"processed_at,omitempty"`
}

// =====================================================
// TRANSACTION REFERENCE
// =====================================================

// NewTxnRef: MoMo từ chối orderId trùng nên mỗi lần tạo link
// dùng ref mới = <order uuid không gạch>_<unix>.
func NewTxnRef(orderID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("%s_%d", strings.ReplaceAll(orderID.String(), "-", ""), now.Unix())
}

// ParseTxnRef lấy lại order id từ ref
func ParseTxnRef(ref string) (uuid.UUID, error) {
	idPart, ts, ok := strings.Cut(ref, "_")
	if !ok || len(idPart) != 32 {
		return uuid.Nil, ErrInvalidTxnRef
	}
	if _, err := strconv.ParseInt(ts, 10, 64); err != nil {
		return uuid.Nil, ErrInvalidTxnRef
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidTxnRef, err)
	}
	return id, nil
}
