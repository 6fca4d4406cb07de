package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/gateway"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
)

// =====================================================
// MOMO CLIENT IMPLEMENTATION
// =====================================================

type Client struct {
	config     *Config
	httpClient *http.Client
	now        func() time.Time
}

var _ gateway.MomoGateway = (*Client)(nil)

// NewClient creates new Momo client
func NewClient(config *Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

func (c *Client) Name() string { return model.GatewayMomo }

type createResponse struct {
	PartnerCode string `json:"partnerCode"`
	OrderID     string `json:"orderId"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	ResultCode  int    `json:"resultCode"`
	Message     string `json:"message"`
	PayURL      string `json:"payUrl"`
}

// =====================================================
// CREATE PAYMENT URL
// =====================================================

// CreatePaymentURL gọi API captureWallet, trả về payUrl
func (c *Client) CreatePaymentURL(ctx context.Context, req gateway.PaymentRequest) (string, error) {
	// Step 1: Build request parameters
	requestID := fmt.Sprintf("%s_%d", req.TxnRef, c.now().UnixNano())
	amount := req.Amount.StringFixed(0) // Momo uses integer amount
	extraData := ""

	// Step 2: Build signature
	rawSignature := BuildPaymentSignatureString(
		c.config.AccessKey,
		amount,
		extraData,
		c.config.IPNURL,
		req.TxnRef,
		req.OrderInfo,
		c.config.PartnerCode,
		c.config.ReturnURL,
		requestID,
		c.config.RequestType,
	)
	signature := GenerateSignature(rawSignature, c.config.SecretKey)

	// Step 3: Build request body
	requestBody := map[string]interface{}{
		"partnerCode": c.config.PartnerCode,
		"accessKey":   c.config.AccessKey,
		"requestId":   requestID,
		"amount":      req.Amount.IntPart(),
		"orderId":     req.TxnRef,
		"orderInfo":   req.OrderInfo,
		"redirectUrl": c.config.ReturnURL,
		"ipnUrl":      c.config.IPNURL,
		"requestType": c.config.RequestType,
		"extraData":   extraData,
		"signature":   signature,
		"lang":        "vi",
	}

	// Step 4: Call Momo API
	bodyJSON, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.GetPaymentURL(), bytes.NewReader(bodyJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call Momo API: %w", err)
	}
	defer resp.Body.Close()

	// Step 5: Parse response
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var respData createResponse
	if err := json.Unmarshal(bodyBytes, &respData); err != nil {
		return "", fmt.Errorf("failed to unmarshal response (status=%d): %w", resp.StatusCode, err)
	}

	// Step 6: Check result code
	if respData.ResultCode != ResultCodeSuccess {
		return "", fmt.Errorf("Momo API error [%d]: %s", respData.ResultCode, respData.Message)
	}
	if respData.PayURL == "" {
		return "", fmt.Errorf("payUrl not found in response")
	}

	return respData.PayURL, nil
}

// =====================================================
// VERIFY SIGNATURE
// =====================================================

func (c *Client) VerifyIPN(req model.MomoIPNRequest) bool {
	return VerifyIPNSignature(req, c.config.AccessKey, c.config.SecretKey)
}
