package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
	cartRepo "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/repository"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/utils"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

const (
	defaultBatchSize = 100
	// chặn vòng lặp vô hạn nếu ClearVoucher không xóa được state
	maxBatches = 100
)

// ================================================
// REMOVE EXPIRED PROMOTIONS JOB HANDLER
// ================================================

// RemoveExpiredPromotionsHandler xóa CartState (và gift) trỏ tới mã đã hết hạn,
// bị tắt, hoặc voucher trong ví đã dùng.
type RemoveExpiredPromotionsHandler struct {
	cartRepo cartRepo.RepositoryInterface
	now      func() time.Time
}

func NewRemoveExpiredPromotionsHandler(cartRepo cartRepo.RepositoryInterface) *RemoveExpiredPromotionsHandler {
	return &RemoveExpiredPromotionsHandler{
		cartRepo: cartRepo,
		now:      time.Now,
	}
}

// ProcessTask chạy theo lịch (scheduler) hoặc enqueue tay, payload có thể rỗng
func (h *RemoveExpiredPromotionsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.RemoveExpiredPromotionsPayload
	if len(t.Payload()) > 0 {
		if err := utils.UnmarshalTask(t, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	batchSize := payload.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	logger.Info("Starting remove expired promotions job", map[string]interface{}{
		"started_at": h.now(),
		"batch_size": batchSize,
	})

	stats := &JobStatistics{StartTime: h.now()}

	for batch := 0; batch < maxBatches; batch++ {
		userIDs, err := h.cartRepo.FindExpiredStates(ctx, h.now(), batchSize)
		if err != nil {
			logger.Error("Failed to fetch expired cart states", err)
			return fmt.Errorf("fetch expired cart states (batch=%d): %w", batch, err)
		}
		if len(userIDs) == 0 {
			break
		}

		removed, err := h.cartRepo.ClearVoucher(ctx, userIDs...)
		if err != nil {
			stats.Errors++
			return fmt.Errorf("clear expired cart states: %w", err)
		}

		stats.TotalProcessed += len(userIDs)
		stats.Removed += int(removed)

		logger.Info("Processed batch", map[string]interface{}{
			"batch":        batch,
			"batch_size":   len(userIDs),
			"removed":      removed,
			"total_so_far": stats.TotalProcessed,
		})

		if len(userIDs) < batchSize {
			break
		}
	}

	stats.EndTime = h.now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	logger.Info("Completed remove expired promotions job", map[string]interface{}{
		"total_processed": stats.TotalProcessed,
		"removed":         stats.Removed,
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
	Removed        int
	Errors         int
}
