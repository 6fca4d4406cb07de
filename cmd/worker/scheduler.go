package main

import (
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/queue"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/container"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

// asynqScheduler wraps queue.Scheduler with shutdown logging
type asynqScheduler struct {
	*queue.Scheduler
}

func setupScheduler(c *container.Container) *asynqScheduler {
	scheduler := queue.NewScheduler(c.Config.Redis, c.Config.Job, c.Config.Order)

	if err := scheduler.RegisterJobs(); err != nil {
		logger.Fatal("[Scheduler] Failed to register", err)
	}

	go func() {
		logger.Info("[Scheduler] Starting...", nil)
		if err := scheduler.Start(); err != nil {
			logger.Fatal("[Scheduler] Failed", err)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

func (s *asynqScheduler) Shutdown() {
	logger.Info("[Scheduler] Shutting down...", nil)
	s.Scheduler.Shutdown()
	logger.Info("[Scheduler] ✓ Stopped", nil)
}
