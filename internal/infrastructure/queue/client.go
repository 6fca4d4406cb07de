package queue

import (
	"github.com/hibiken/asynq"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
)

// RedisOpt dùng chung cho client, inspector, scheduler và worker server
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Host,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewClient - enqueue task auto-cancel sau checkout
func NewClient(cfg config.RedisConfig) *asynq.Client {
	return asynq.NewClient(RedisOpt(cfg))
}

// NewInspector - revoke task auto-cancel khi đơn đã thanh toán / đã hủy
func NewInspector(cfg config.RedisConfig) *asynq.Inspector {
	return asynq.NewInspector(RedisOpt(cfg))
}
