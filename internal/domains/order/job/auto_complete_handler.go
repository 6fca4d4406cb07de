package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/utils"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

const (
	defaultBatchSize = 100
	maxBatches       = 50
)

// DeliveredOrderFinder - repository.OrderRepository thỏa interface này
type DeliveredOrderFinder interface {
	FindDeliveredBefore(ctx context.Context, before time.Time, limit int) ([]model.Order, error)
}

type OrderCompleter interface {
	AutoComplete(ctx context.Context, order *model.Order) error
}

// ================================================
// AUTO COMPLETE ORDERS JOB HANDLER
// ================================================

// AutoCompleteOrdersHandler chuyển đơn "Đã giao" quá N ngày sang "Hoàn thành"
// và cộng điểm tích lũy cho khách.
type AutoCompleteOrdersHandler struct {
	finder      DeliveredOrderFinder
	completer   OrderCompleter
	defaultDays int
	now         func() time.Time
}

func NewAutoCompleteOrdersHandler(finder DeliveredOrderFinder, completer OrderCompleter, defaultDays int) *AutoCompleteOrdersHandler {
	return &AutoCompleteOrdersHandler{
		finder:      finder,
		completer:   completer,
		defaultDays: defaultDays,
		now:         time.Now,
	}
}

func (h *AutoCompleteOrdersHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.AutoCompleteOrdersPayload
	if len(t.Payload()) > 0 {
		if err := utils.UnmarshalTask(t, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	days := payload.Days
	if days <= 0 {
		days = h.defaultDays
	}
	batchSize := payload.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	stats := &JobStatistics{StartTime: h.now()}
	cutoff := stats.StartTime.AddDate(0, 0, -days)

	logger.Info("Starting auto-complete orders job", map[string]interface{}{
		"cutoff":     cutoff,
		"days":       days,
		"batch_size": batchSize,
	})

	// đơn lỗi vẫn ở "Đã giao" nên có thể bị lấy lại ở batch sau
	failed := make(map[string]bool)

	for batch := 0; batch < maxBatches; batch++ {
		orders, err := h.finder.FindDeliveredBefore(ctx, cutoff, batchSize)
		if err != nil {
			logger.Error("Failed to fetch delivered orders", err)
			return fmt.Errorf("fetch delivered orders (batch=%d): %w", batch, err)
		}

		progressed := 0
		for i := range orders {
			order := &orders[i]
			if failed[order.ID.String()] {
				continue
			}
			stats.TotalProcessed++
			progressed++

			if err := h.completer.AutoComplete(ctx, order); err != nil {
				stats.Errors++
				failed[order.ID.String()] = true
				logger.ErrorWithFields("Failed to auto-complete order", err, map[string]interface{}{
					"order_id":   order.ID,
					"order_code": order.OrderCode,
				})
				continue
			}
			stats.Completed++
		}

		if len(orders) < batchSize || progressed == 0 {
			break
		}
	}

	stats.EndTime = h.now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	logger.Info("Completed auto-complete orders job", map[string]interface{}{
		"total_processed": stats.TotalProcessed,
		"completed":       stats.Completed,
		"errors":          stats.Errors,
		"duration":        stats.Duration.String(),
	})
	return nil
}

// ================================================
// STATISTICS TRACKING
// ================================================

type JobStatistics struct {
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalProcessed int
	Completed      int
	Errors         int
}
