package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// =====================================================
// VNPAY SIGNATURE
// =====================================================

const (
	paramSecureHash     = "vnp_SecureHash"
	paramSecureHashType = "vnp_SecureHashType"
)

// BuildHashData: sort key tăng dần, urlencode kiểu PHP (space -> +),
// nối key=value bằng &. Dùng chung cho tạo URL và verify callback.
func BuildHashData(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == paramSecureHash || k == paramSecureHashType {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, phpURLEncode(k)+"="+phpURLEncode(params[k]))
	}
	return strings.Join(parts, "&")
}

// GenerateSignature: HMAC-SHA512, hex uppercase
func GenerateSignature(params map[string]string, secretKey string) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write([]byte(BuildHashData(params)))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// VerifySignature verifies VNPay callback signature
func VerifySignature(params map[string]string, secretKey string) bool {
	received := params[paramSecureHash]
	if received == "" {
		return false
	}
	expected := GenerateSignature(params, secretKey)
	return hmac.Equal([]byte(strings.ToUpper(received)), []byte(expected))
}

// BuildPaymentURL - query string chính là hash data, thêm vnp_SecureHash ở cuối
func BuildPaymentURL(baseURL string, params map[string]string, hashSecret string) string {
	filtered := make(map[string]string, len(params))
	for k, v := range params {
		if v != "" {
			filtered[k] = v
		}
	}
	query := BuildHashData(filtered)
	return baseURL + "?" + query + "&" + paramSecureHash + "=" + GenerateSignature(filtered, hashSecret)
}

// phpURLEncode encodes string like PHP urlencode() (space -> +)
func phpURLEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%20", "+")
}

// ParamsFromQuery lấy các tham số vnp_* từ query (IPN / return URL)
func ParamsFromQuery(values url.Values) map[string]string {
	params := make(map[string]string)
	for key, vals := range values {
		if strings.HasPrefix(key, "vnp_") && len(vals) > 0 {
			params[key] = vals[0]
		}
	}
	return params
}
