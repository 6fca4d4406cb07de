package vnpay

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/gateway"
)

const testSecret = "SECRETKEY123"

func TestBuildHashData_SortedAndPHPEncoded(t *testing.T) {
	data := BuildHashData(map[string]string{
		"vnp_TxnRef":     "abc_1",
		"vnp_Amount":     "100",
		"vnp_OrderInfo":  "Thanh toan don 1",
		"vnp_SecureHash": "ignored",
	})
	assert.Equal(t, "vnp_Amount=100&vnp_OrderInfo=Thanh+toan+don+1&vnp_TxnRef=abc_1", data)
}

func TestVerifySignature(t *testing.T) {
	params := map[string]string{
		"vnp_Amount":       "48000000",
		"vnp_ResponseCode": "00",
		"vnp_TxnRef":       "abc_1",
		"vnp_OrderInfo":    "Thanh toán đơn hàng",
	}
	params["vnp_SecureHash"] = GenerateSignature(params, testSecret)

	assert.True(t, VerifySignature(params, testSecret))
	assert.False(t, VerifySignature(params, "other-secret"))

	params["vnp_Amount"] = "1000"
	assert.False(t, VerifySignature(params, testSecret))

	delete(params, "vnp_SecureHash")
	assert.False(t, VerifySignature(params, testSecret))
}

func TestCreatePaymentURL_CallbackVerifies(t *testing.T) {
	client, err := NewClient(NewConfig(config.VNPayConfig{
		TmnCode:    "DEMO01",
		HashSecret: testSecret,
		APIURL:     "https://sandbox.vnpayment.vn/paymentv2",
		ReturnURL:  "https://bloomie.vn/payment/vnpay-return",
	}, 15*time.Minute))
	require.NoError(t, err)
	client.now = func() time.Time { return time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC) }

	raw, err := client.CreatePaymentURL(context.Background(), gateway.PaymentRequest{
		TxnRef:    "0123456789abcdef0123456789abcdef_1735700400",
		Amount:    decimal.NewFromInt(480000),
		OrderInfo: "Thanh toan don hang 250101000001ABC",
		ClientIP:  "::1",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?"))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	params := ParamsFromQuery(u.Query())

	assert.Equal(t, "48000000", params["vnp_Amount"])
	assert.Equal(t, "127.0.0.1", params["vnp_IpAddr"])
	// 03:00 UTC = 10:00 GMT+7
	assert.Equal(t, "20250101100000", params["vnp_CreateDate"])
	assert.Equal(t, "20250101101500", params["vnp_ExpireDate"])
	assert.True(t, client.VerifyCallback(params))
}

func TestNewClient_RequiresSecret(t *testing.T) {
	_, err := NewClient(NewConfig(config.VNPayConfig{TmnCode: "X"}, 0))
	assert.Error(t, err)
}

func TestAmountConversion(t *testing.T) {
	assert.Equal(t, "48000000", FormatAmount(decimal.NewFromInt(480000)))

	amount, err := ParseAmount("48000000")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(480000)))

	_, err = ParseAmount("abc")
	assert.Error(t, err)
}
