package momo

import (
	"fmt"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
)

// =====================================================
// MOMO CONFIGURATION
// =====================================================

type Config struct {
	PartnerCode string // Partner code (provided by Momo)
	AccessKey   string // Access key
	SecretKey   string // Secret key for HMAC-SHA256 signature
	APIUrl      string // Momo API endpoint
	ReturnURL   string // Frontend callback URL (redirectUrl)
	IPNURL      string // Backend webhook URL
	RequestType string
}

// NewConfig build từ app config
func NewConfig(cfg config.MomoConfig) *Config {
	return &Config{
		PartnerCode: cfg.PartnerCode,
		AccessKey:   cfg.AccessKey,
		SecretKey:   cfg.SecretKey,
		APIUrl:      cfg.APIURL,
		ReturnURL:   cfg.ReturnURL,
		IPNURL:      cfg.IPNURL,
		RequestType: "captureWallet",
	}
}

func (c *Config) Validate() error {
	if c.PartnerCode == "" || c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("Momo PartnerCode, AccessKey and SecretKey are required")
	}
	if c.APIUrl == "" {
		return fmt.Errorf("Momo APIUrl is required")
	}
	return nil
}

// GetPaymentURL returns payment API endpoint
func (c *Config) GetPaymentURL() string {
	return c.APIUrl + "/v2/gateway/api/create"
}

// =====================================================
// MOMO CONSTANTS
// =====================================================

const (
	// Result codes
	ResultCodeSuccess           = 0
	ResultCodeUserCancelled     = 1006
	ResultCodeInsufficientFunds = 1001
	ResultCodeTimeout           = 1005
	ResultCodeTransactionFailed = 1003
	ResultCodePendingConfirm    = 9000
	ResultCodeInvalidSignature  = 11
)

// GetResultMessage returns Vietnamese message for result code
func GetResultMessage(code int) string {
	messages := map[int]string{
		ResultCodeSuccess:           "Giao dịch thành công",
		ResultCodeUserCancelled:     "Người dùng hủy giao dịch",
		ResultCodeInsufficientFunds: "Số dư tài khoản không đủ",
		ResultCodeTimeout:           "Giao dịch hết hạn",
		ResultCodeTransactionFailed: "Giao dịch thất bại",
		ResultCodePendingConfirm:    "Giao dịch đã được xác thực, chờ xác nhận",
		ResultCodeInvalidSignature:  "Chữ ký không hợp lệ",
	}

	if msg, exists := messages[code]; exists {
		return msg
	}
	return "Lỗi không xác định"
}
