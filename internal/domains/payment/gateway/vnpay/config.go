package vnpay

import (
	"fmt"
	"time"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
)

// =====================================================
// VNPAY CONFIGURATION
// =====================================================

type Config struct {
	TmnCode    string // Merchant code (provided by VNPay)
	HashSecret string // Secret key for HMAC-SHA512 signature
	APIUrl     string // VNPay payment gateway URL
	ReturnURL  string // Frontend callback URL
	IPNURL     string // Backend webhook URL (cấu hình trên merchant portal)
	Version    string // VNPay API version (default: "2.1.0")
	Command    string // Command type (default: "pay")
	CurrCode   string // Currency code (default: "VND")
	Locale     string // Language (default: "vn")
	// link hết hạn cùng lúc với job auto-cancel
	ExpireAfter time.Duration
}

// NewConfig creates VNPay configuration
func NewConfig(cfg config.VNPayConfig, expireAfter time.Duration) *Config {
	return &Config{
		TmnCode:     cfg.TmnCode,
		HashSecret:  cfg.HashSecret,
		APIUrl:      cfg.APIURL,
		ReturnURL:   cfg.ReturnURL,
		IPNURL:      cfg.IPNURL,
		Version:     "2.1.0",
		Command:     "pay",
		CurrCode:    "VND",
		Locale:      "vn",
		ExpireAfter: expireAfter,
	}
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.TmnCode == "" {
		return fmt.Errorf("VNPay TmnCode is required")
	}
	if c.HashSecret == "" {
		return fmt.Errorf("VNPay HashSecret is required")
	}
	if c.APIUrl == "" {
		return fmt.Errorf("VNPay APIUrl is required")
	}
	if c.ReturnURL == "" {
		return fmt.Errorf("VNPay ReturnURL is required")
	}
	return nil
}

// GetPaymentURL returns full payment URL
func (c *Config) GetPaymentURL() string {
	return c.APIUrl + "/vpcpay.html"
}

// =====================================================
// VNPAY CONSTANTS
// =====================================================

const (
	// Response codes
	ResponseCodeSuccess             = "00"
	ResponseCodeSuspicious          = "07"
	ResponseCodeNoInternetBanking   = "09"
	ResponseCodeAuthFailed          = "10"
	ResponseCodePaymentTimeout      = "11"
	ResponseCodeCardLocked          = "12"
	ResponseCodeIncorrectOTP        = "13"
	ResponseCodeUserCancelled       = "24"
	ResponseCodeInsufficientBalance = "51"
	ResponseCodeLimitExceeded       = "65"
	ResponseCodeBankMaintenance     = "75"
	ResponseCodeWrongPassword       = "79"
)

// GetResponseMessage returns Vietnamese message for response code
func GetResponseMessage(code string) string {
	messages := map[string]string{
		ResponseCodeSuccess:             "Giao dịch thành công",
		ResponseCodeSuspicious:          "Trừ tiền thành công, giao dịch bị nghi ngờ",
		ResponseCodeNoInternetBanking:   "Thẻ chưa đăng ký InternetBanking",
		ResponseCodeAuthFailed:          "Xác thực thông tin thẻ sai quá 3 lần",
		ResponseCodePaymentTimeout:      "Hết hạn chờ thanh toán",
		ResponseCodeCardLocked:          "Thẻ bị khóa",
		ResponseCodeIncorrectOTP:        "OTP không chính xác",
		ResponseCodeUserCancelled:       "Người dùng hủy giao dịch",
		ResponseCodeInsufficientBalance: "Số dư tài khoản không đủ",
		ResponseCodeLimitExceeded:       "Vượt quá hạn mức giao dịch trong ngày",
		ResponseCodeBankMaintenance:     "Ngân hàng đang bảo trì",
		ResponseCodeWrongPassword:       "Nhập sai mật khẩu thanh toán quá số lần quy định",
	}

	if msg, exists := messages[code]; exists {
		return msg
	}
	return "Lỗi không xác định"
}
