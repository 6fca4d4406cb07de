package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
	cartModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
	orderModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
	orderCfg  config.OrderConfig
}

func NewScheduler(redis config.RedisConfig, jobConfig config.JobConfig, orderCfg config.OrderConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		RedisOpt(redis),
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
		orderCfg:  orderCfg,
	}
}

func (s *Scheduler) RegisterJobs() error {
	if err := s.registerAutoCompleteOrdersJob(); err != nil {
		return err
	}

	if err := s.registerRemoveExpiredPromotionsJob(); err != nil {
		return err
	}

	return nil
}

// ================================================
// JOB 1: Auto-complete delivered orders (mặc định 1h sáng)
// ================================================
func (s *Scheduler) registerAutoCompleteOrdersJob() error {
	payload, err := json.Marshal(orderModel.AutoCompleteOrdersPayload{
		Days:      s.orderCfg.AutoCompleteDays,
		BatchSize: 100,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeAutoCompleteOrders, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.AutoCompleteCron,
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register AutoCompleteOrders job", err)
		return err
	}

	logger.Info("✓ Registered AutoCompleteOrders job", map[string]interface{}{
		"schedule": s.jobConfig.AutoCompleteCron,
		"days":     s.orderCfg.AutoCompleteDays,
	})
	return nil
}

// ================================================
// JOB 2: Remove expired promotions khỏi CartState (mỗi 3 giờ)
// ================================================
func (s *Scheduler) registerRemoveExpiredPromotionsJob() error {
	payload, err := json.Marshal(cartModel.RemoveExpiredPromotionsPayload{
		BatchSize: 500,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeRemoveExpiredPromotions, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.ExpiredPromotionCron,
		task,
		asynq.Queue(shared.QueuePromotion),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register RemoveExpiredPromotions job", err)
		return err
	}

	logger.Info("✓ Registered RemoveExpiredPromotions job", map[string]interface{}{
		"schedule": s.jobConfig.ExpiredPromotionCron,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
