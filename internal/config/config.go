package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables (.env được load bởi godotenv ở cmd/)
type Config struct {
	App    AppConfig
	Redis  RedisConfig
	JWT    JWTConfig
	VNPay  VNPayConfig
	Momo   MomoConfig
	Gemini GeminiConfig
	Order  OrderConfig
	Job    JobConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	CORSOrigins string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

type VNPayConfig struct {
	TmnCode    string // Merchant Code (e.g., "DEMOV01")
	HashSecret string // Secret key for HMAC-SHA512
	APIURL     string
	ReturnURL  string // Frontend callback URL
	IPNURL     string // Backend webhook URL
}

type MomoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string // HMAC-SHA256
	APIURL      string
	ReturnURL   string
	IPNURL      string
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxToolCall int
	RateLimit   int // requests / phút / user
	HistoryTTL  time.Duration
}

// OrderConfig gom các hằng số nghiệp vụ của checkout
type OrderConfig struct {
	PaymentTimeout   time.Duration   // thời gian chờ thanh toán online trước khi auto-cancel
	PointsToVND      decimal.Decimal // 1 điểm = bao nhiêu VND
	PointsEarnVND    decimal.Decimal // bao nhiêu VND thì được 1 điểm khi đơn hoàn thành
	ShippingFee      decimal.Decimal
	AutoCompleteDays int
}

type JobConfig struct {
	AutoCompleteCron     string
	ExpiredPromotionCron string
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Bloomie API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 60*24),
		},
		VNPay: VNPayConfig{
			TmnCode:    getEnv("VNPAY_TMN_CODE", ""),
			HashSecret: getEnv("VNPAY_HASH_SECRET", ""),
			APIURL:     getEnv("VNPAY_API_URL", "https://sandbox.vnpayment.vn/paymentv2"),
			ReturnURL:  getEnv("VNPAY_RETURN_URL", "http://localhost:8080/api/v1/payments/vnpay/return"),
			IPNURL:     getEnv("VNPAY_IPN_URL", "http://localhost:8080/api/v1/webhooks/vnpay"),
		},
		Momo: MomoConfig{
			PartnerCode: getEnv("MOMO_PARTNER_CODE", ""),
			AccessKey:   getEnv("MOMO_ACCESS_KEY", ""),
			SecretKey:   getEnv("MOMO_SECRET_KEY", ""),
			APIURL:      getEnv("MOMO_API_URL", "https://test-payment.momo.vn"),
			ReturnURL:   getEnv("MOMO_RETURN_URL", "http://localhost:3000/payment/result"),
			IPNURL:      getEnv("MOMO_IPN_URL", "http://localhost:8080/api/v1/webhooks/momo"),
		},
		Gemini: GeminiConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL:     getEnv("GEMINI_BASE_URL", ""),
			MaxToolCall: getEnvInt("GEMINI_MAX_TOOL_CALLS", 3),
			RateLimit:   getEnvInt("CHATBOT_RATE_LIMIT", 20),
			HistoryTTL:  getEnvDuration("CHATBOT_HISTORY_TTL", 24*time.Hour),
		},
		Order: OrderConfig{
			PaymentTimeout:   getEnvDuration("ORDER_PAYMENT_TIMEOUT", 15*time.Minute),
			PointsToVND:      getEnvDecimal("POINTS_TO_VND", decimal.NewFromInt(1000)),
			PointsEarnVND:    getEnvDecimal("POINTS_EARN_VND", decimal.NewFromInt(10000)),
			ShippingFee:      getEnvDecimal("SHIPPING_FEE", decimal.NewFromInt(30000)),
			AutoCompleteDays: getEnvInt("ORDER_AUTO_COMPLETE_DAYS", 3),
		},
		Job: JobConfig{
			AutoCompleteCron:     getEnv("JOB_AUTO_COMPLETE_CRON", "0 1 * * *"),
			ExpiredPromotionCron: getEnv("JOB_EXPIRED_PROMOTION_CRON", "0 */3 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	if !c.Order.PointsToVND.IsPositive() {
		return fmt.Errorf("POINTS_TO_VND must be positive")
	}
	if !c.Order.PointsEarnVND.IsPositive() {
		return fmt.Errorf("POINTS_EARN_VND must be positive")
	}
	if c.Order.ShippingFee.IsNegative() {
		return fmt.Errorf("SHIPPING_FEE must not be negative")
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}

		// Payment gateway chỉ cảnh báo
		if c.VNPay.TmnCode == "" {
			fmt.Println("WARNING: VNPay TmnCode not set - VNPay payment will not work")
		}
		if c.Momo.PartnerCode == "" {
			fmt.Println("WARNING: Momo PartnerCode not set - Momo payment will not work")
		}
		if c.Gemini.APIKey == "" {
			fmt.Println("WARNING: GEMINI_API_KEY not set - chatbot will not work")
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
