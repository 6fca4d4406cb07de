package momo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
)

// =====================================================
// MOMO SIGNATURE GENERATION & VERIFICATION
// =====================================================

// GenerateSignature: HMAC-SHA256(rawSignature, secretKey), hex lowercase.
// Khác VNPay, raw string có thứ tự field cố định chứ không sort.
func GenerateSignature(rawSignature, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(rawSignature))
	return hex.EncodeToString(mac.Sum(nil))
}

// BuildPaymentSignatureString builds signature string for payment request
// Format: accessKey=$accessKey&amount=$amount&extraData=$extraData&ipnUrl=$ipnUrl&orderId=$orderId&orderInfo=$orderInfo&partnerCode=$partnerCode&redirectUrl=$redirectUrl&requestId=$requestId&requestType=$requestType
func BuildPaymentSignatureString(
	accessKey, amount, extraData, ipnUrl, orderId, orderInfo,
	partnerCode, redirectUrl, requestId, requestType string,
) string {
	parts := []string{
		"accessKey=" + accessKey,
		"amount=" + amount,
		"extraData=" + extraData,
		"ipnUrl=" + ipnUrl,
		"orderId=" + orderId,
		"orderInfo=" + orderInfo,
		"partnerCode=" + partnerCode,
		"redirectUrl=" + redirectUrl,
		"requestId=" + requestId,
		"requestType=" + requestType,
	}
	return strings.Join(parts, "&")
}

// BuildIPNSignatureString - raw string MoMo ký cho IPN / redirect
func BuildIPNSignatureString(accessKey string, req model.MomoIPNRequest) string {
	return fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		accessKey,
		req.Amount,
		req.ExtraData,
		req.Message,
		req.OrderID,
		req.OrderInfo,
		req.OrderType,
		req.PartnerCode,
		req.PayType,
		req.RequestID,
		req.ResponseTime,
		req.ResultCode,
		req.TransID,
	)
}

// VerifyIPNSignature so sánh constant-time
func VerifyIPNSignature(req model.MomoIPNRequest, accessKey, secretKey string) bool {
	if req.Signature == "" {
		return false
	}
	expected := GenerateSignature(BuildIPNSignatureString(accessKey, req), secretKey)
	return hmac.Equal([]byte(strings.ToLower(req.Signature)), []byte(expected))
}
