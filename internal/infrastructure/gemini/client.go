package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

const (
	RoleUser  = string(genai.RoleUser)
	RoleModel = string(genai.RoleModel)
)

var (
	ErrNotConfigured = errors.New("gemini api key not configured")
	ErrRateLimited   = errors.New("gemini quota exceeded")
)

// Generator - abstraction để service test bằng fake
type Generator interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client bọc genai.Client; không có API key thì mọi lời gọi trả ErrNotConfigured
type Client struct {
	genai *genai.Client
	model string
}

var _ Generator = (*Client)(nil)

func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	c := &Client{model: cfg.Model}
	if cfg.APIKey == "" {
		return c, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	// GEMINI_BASE_URL chỉ set khi đi qua proxy / test server
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL, APIVersion: "v1beta"}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	c.genai = client
	return c, nil
}

func (c *Client) GenerateContent(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if c.genai == nil {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			logger.Warn("Gemini API error", map[string]interface{}{
				"status":  apiErr.Code,
				"code":    apiErr.Status,
				"message": apiErr.Message,
			})
			if apiErr.Code == http.StatusTooManyRequests {
				return nil, ErrRateLimited
			}
			return nil, fmt.Errorf("gemini returned %d: %s", apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("failed to call gemini: %w", err)
	}

	var tokens int32
	if resp.UsageMetadata != nil {
		tokens = resp.UsageMetadata.TotalTokenCount
	}
	logger.Debug(fmt.Sprintf("Gemini generateContent model=%s tokens=%d duration=%s", c.model, tokens, time.Since(start)))
	return resp, nil
}

// TextContent helper cho history / tin nhắn người dùng
func TextContent(role, text string) *genai.Content {
	return genai.NewContentFromText(text, genai.Role(role))
}

// FirstContent - content của candidate đầu tiên, nil nếu model không trả gì
func FirstContent(resp *genai.GenerateContentResponse) *genai.Content {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	return resp.Candidates[0].Content
}
