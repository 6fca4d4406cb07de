package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
)

func TestGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var body struct {
			Contents []json.RawMessage `json:"contents"`
			Tools    []struct {
				FunctionDeclarations []struct {
					Name string `json:"name"`
				} `json:"functionDeclarations"`
			} `json:"tools"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Contents, 1)
		if assert.NotEmpty(t, body.Tools) && assert.NotEmpty(t, body.Tools[0].FunctionDeclarations) {
			assert.Equal(t, "search_products", body.Tools[0].FunctionDeclarations[0].Name)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [
					{"functionCall": {"name": "search_products", "args": {"query": "hoa hồng"}}}
				]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"totalTokenCount": 42}
		}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), config.GeminiConfig{APIKey: "test-key", Model: "gemini-2.0-flash", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	resp, err := c.GenerateContent(context.Background(),
		[]*genai.Content{TextContent(RoleUser, "tìm hoa hồng")},
		&genai.GenerateContentConfig{Tools: []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name: "search_products", Description: "search",
		}}}}},
	)
	require.NoError(t, err)

	calls := resp.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "search_products", calls[0].Name)
	assert.Equal(t, "hoa hồng", calls[0].Args["query"])
	assert.Equal(t, int32(42), resp.UsageMetadata.TotalTokenCount)
	require.NotNil(t, FirstContent(resp))
	assert.Equal(t, RoleModel, FirstContent(resp).Role)
}

func TestGenerateContent_Errors(t *testing.T) {
	status := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"error": {"code": %d, "message": "quota", "status": "RESOURCE_EXHAUSTED"}}`, status)
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), config.GeminiConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	require.NoError(t, err)
	contents := []*genai.Content{TextContent(RoleUser, "hi")}

	_, err = c.GenerateContent(context.Background(), contents, nil)
	assert.ErrorIs(t, err, ErrRateLimited)

	status = http.StatusBadRequest
	_, err = c.GenerateContent(context.Background(), contents, nil)
	assert.ErrorContains(t, err, "gemini returned 400")

	unconfigured, err := NewClient(context.Background(), config.GeminiConfig{Model: "m"})
	require.NoError(t, err)
	_, err = unconfigured.GenerateContent(context.Background(), contents, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFirstContent(t *testing.T) {
	assert.Nil(t, FirstContent(nil))
	assert.Nil(t, FirstContent(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: RoleModel, Parts: []*genai.Part{{Text: "Xin "}, {Text: "chào"}}},
	}}}
	assert.Equal(t, "Xin chào", resp.Text())
	assert.Empty(t, resp.FunctionCalls())
}
