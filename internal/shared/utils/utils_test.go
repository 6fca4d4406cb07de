package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	assert.Equal(t, "hoa-hong-do-ecuador", GenerateSlug("Hoa Hồng Đỏ  Ecuador!"))
	assert.Equal(t, "lan-ho-diep", GenerateSlug("  Lan Hồ Điệp "))
}

func TestRandomLetters(t *testing.T) {
	s := RandomLetters(3)
	assert.Len(t, s, 3)
	for _, r := range s {
		assert.True(t, r >= 'A' && r <= 'Z')
	}
}

func TestExtractClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"invalid forwarded falls through", map[string]string{"X-Forwarded-For": "garbage"}, "192.0.2.10:5555", "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ExtractClientIP(c))
		})
	}
}

func TestClientIPFromContext(t *testing.T) {
	assert.Equal(t, "", ClientIPFromContext(context.Background()))
	assert.Equal(t, "203.0.113.7", ClientIPFromContext(WithClientIP(context.Background(), "203.0.113.7")))
}
