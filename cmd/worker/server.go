package main

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/queue"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/container"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

// asynqServer wraps asynq.Server with shutdown logging
type asynqServer struct {
	*asynq.Server
}

func setupAsynqServer(c *container.Container, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		queue.RedisOpt(c.Config.Redis),
		asynq.Config{
			// auto-cancel đơn chưa thanh toán ưu tiên cao nhất
			Queues: map[string]int{
				shared.QueueCritical:  6,
				shared.QueueDefault:   3,
				shared.QueuePromotion: 1,
			},
			Concurrency: 10,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.ErrorWithFields("[Asynq] ❌ Task failed", err, map[string]interface{}{
					"type":      task.Type(),
					"retried":   retried,
					"max_retry": maxRetry,
				})
			}),
		},
	)

	go func() {
		logger.Info("[Worker] Starting...", nil)
		if err := srv.Run(mux); err != nil {
			logger.Fatal("[Worker] Failed", err)
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown chờ task đang chạy xong (asynq tự áp ShutdownTimeout mặc định 8s)
func (s *asynqServer) Shutdown() {
	logger.Info("[Worker] Shutting down...", nil)
	s.Server.Shutdown()
	logger.Info("[Worker] ✓ Gracefully stopped", nil)
}
