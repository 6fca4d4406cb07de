package cache

import (
	"context"
	"time"
)

// Cache interface định nghĩa contract cho cache layer
// Implementation chính: internal/infrastructure/cache.RedisCache
type Cache interface {
	// Get lấy data từ cache và unmarshal vào dest
	// found = false: cache miss, dest không bị thay đổi
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set lưu data (JSON) vào cache với TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	DeletePattern(ctx context.Context, pattern string) error

	// Counter dùng cho rate limit chatbot
	Increment(ctx context.Context, key string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}
