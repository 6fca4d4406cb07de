package vnpay

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/gateway"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
)

// VNPay yêu cầu thời gian theo GMT+7
var vnLocation = time.FixedZone("ICT", 7*60*60)

const timeLayout = "20060102150405"

// =====================================================
// VNPAY CLIENT
// =====================================================

type Client struct {
	config *Config
	now    func() time.Time
}

var _ gateway.VNPayGateway = (*Client)(nil)

func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid VNPay config: %w", err)
	}
	return &Client{config: config, now: time.Now}, nil
}

func (c *Client) Name() string { return model.GatewayVNPay }

// CreatePaymentURL ký tham số ngay trên server, không cần gọi API
func (c *Client) CreatePaymentURL(ctx context.Context, req gateway.PaymentRequest) (string, error) {
	if req.TxnRef == "" {
		return "", fmt.Errorf("txn_ref is required")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return "", fmt.Errorf("amount must be positive")
	}

	clientIP := req.ClientIP
	// VNPay chỉ nhận IPv4
	if clientIP == "" || clientIP == "::1" {
		clientIP = "127.0.0.1"
	}

	now := c.now().In(vnLocation)
	params := map[string]string{
		"vnp_Version":    c.config.Version,
		"vnp_Command":    c.config.Command,
		"vnp_TmnCode":    c.config.TmnCode,
		"vnp_Amount":     FormatAmount(req.Amount),
		"vnp_CurrCode":   c.config.CurrCode,
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  "other",
		"vnp_Locale":     c.config.Locale,
		"vnp_ReturnUrl":  c.config.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": now.Format(timeLayout),
	}
	if c.config.ExpireAfter > 0 {
		params["vnp_ExpireDate"] = now.Add(c.config.ExpireAfter).Format(timeLayout)
	}

	return BuildPaymentURL(c.config.GetPaymentURL(), params, c.config.HashSecret), nil
}

func (c *Client) VerifyCallback(params map[string]string) bool {
	return VerifySignature(params, c.config.HashSecret)
}

// FormatAmount: VNPay nhận số tiền * 100, không có phần thập phân
// Example: 100,000 VND -> "10000000"
func FormatAmount(amount decimal.Decimal) string {
	return amount.Round(0).Mul(decimal.NewFromInt(100)).StringFixed(0)
}

// ParseAmount: "10000000" -> 100,000 VND
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount: %w", err)
	}
	return amount.Div(decimal.NewFromInt(100)), nil
}
