package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/metrics"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/container"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

const healthAddr = ":9999"

// HealthChecker performs startup health checks
type HealthChecker struct {
	c *container.Container
}

func startServices(c *container.Container) error {
	logger.Info("🚀 Bloomie Worker Starting...", map[string]interface{}{
		"redis": c.Config.Redis.Host,
	})

	checker := &HealthChecker{c: c}
	if err := checker.checkAll(); err != nil {
		return err
	}

	go startHealthCheckServer()
	return nil
}

func (h *HealthChecker) checkAll() error {
	checks := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		// asynq dùng chung Redis với cache nên ping Redis là đủ
		{"Redis Connection", h.c.Cache.Ping},
		{"PostgreSQL Connection", h.c.DB.HealthCheck},
	}

	for _, check := range checks {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := check.fn(ctx)
		cancel()
		if err != nil {
			logger.Error(fmt.Sprintf("❌ %s", check.name), err)
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		logger.Info(fmt.Sprintf("✓ %s: OK", check.name), nil)
	}
	return nil
}

func startHealthCheckServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthCheckHandler)
	mux.HandleFunc("/ready", readyCheckHandler)
	mux.Handle("/metrics", metrics.Handler())

	logger.Info("[Health] Starting health check server", map[string]interface{}{"addr": healthAddr})
	if err := http.ListenAndServe(healthAddr, mux); err != nil {
		logger.Error("[Health] Failed to start", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"UP","service":"bloomie-worker"}`))
}

// readyCheckHandler - Kubernetes readiness check
func readyCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"READY"}`))
}
