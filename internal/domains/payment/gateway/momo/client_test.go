package momo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/gateway"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
)

func testConfig(apiURL string) *Config {
	return NewConfig(config.MomoConfig{
		PartnerCode: "MOMOBLOOMIE",
		AccessKey:   "F8BBA842ECF85",
		SecretKey:   "K951B6PE1waDMi640xX08PD3vg6EkVlz",
		APIURL:      apiURL,
		ReturnURL:   "https://bloomie.vn/payment/momo-return",
		IPNURL:      "https://api.bloomie.vn/api/v1/webhooks/momo",
	})
}

func TestCreatePaymentURL(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/gateway/api/create", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"resultCode": 0,
			"message":    "Thành công.",
			"payUrl":     "https://test-payment.momo.vn/pay/abc",
		})
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	client := NewClient(cfg)

	payURL, err := client.CreatePaymentURL(context.Background(), gateway.PaymentRequest{
		TxnRef:    "ref_1",
		Amount:    decimal.NewFromInt(430000),
		OrderInfo: "Thanh toan don hang",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://test-payment.momo.vn/pay/abc", payURL)

	assert.Equal(t, "captureWallet", received["requestType"])
	assert.Equal(t, float64(430000), received["amount"])

	raw := BuildPaymentSignatureString(cfg.AccessKey, "430000", "", cfg.IPNURL, "ref_1",
		"Thanh toan don hang", cfg.PartnerCode, cfg.ReturnURL, received["requestId"].(string), "captureWallet")
	assert.Equal(t, GenerateSignature(raw, cfg.SecretKey), received["signature"])
}

func TestCreatePaymentURL_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"resultCode": 22, "message": "Số tiền không hợp lệ"})
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL)).CreatePaymentURL(context.Background(), gateway.PaymentRequest{
		TxnRef: "ref_1",
		Amount: decimal.NewFromInt(1),
	})
	assert.ErrorContains(t, err, "22")
}

func TestVerifyIPN(t *testing.T) {
	cfg := testConfig("https://test-payment.momo.vn")
	client := NewClient(cfg)

	ipn := model.MomoIPNRequest{
		PartnerCode:  cfg.PartnerCode,
		OrderID:      "ref_1",
		RequestID:    "ref_1_99",
		Amount:       430000,
		OrderInfo:    "Thanh toan don hang",
		OrderType:    "momo_wallet",
		TransID:      4088878653,
		ResultCode:   0,
		Message:      "Thành công.",
		PayType:      "qr",
		ResponseTime: 1735700400000,
	}
	ipn.Signature = GenerateSignature(BuildIPNSignatureString(cfg.AccessKey, ipn), cfg.SecretKey)
	assert.True(t, client.VerifyIPN(ipn))

	tampered := ipn
	tampered.Amount = 1000
	assert.False(t, client.VerifyIPN(tampered))

	unsigned := ipn
	unsigned.Signature = ""
	assert.False(t, client.VerifyIPN(unsigned))
}
