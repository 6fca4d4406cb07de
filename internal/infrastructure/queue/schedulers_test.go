package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
)

func TestRedisOpt(t *testing.T) {
	opt := RedisOpt(config.RedisConfig{Host: "redis:6379", Password: "pw", DB: 2})
	assert.Equal(t, "redis:6379", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)
}

func TestScheduler_RegisterJobs(t *testing.T) {
	redis := config.RedisConfig{Host: "localhost:6379"}
	orderCfg := config.OrderConfig{AutoCompleteDays: 3}

	s := NewScheduler(redis, config.JobConfig{
		AutoCompleteCron:     "0 1 * * *",
		ExpiredPromotionCron: "0 */3 * * *",
	}, orderCfg)
	require.NoError(t, s.RegisterJobs())

	bad := NewScheduler(redis, config.JobConfig{
		AutoCompleteCron:     "every day",
		ExpiredPromotionCron: "0 */3 * * *",
	}, orderCfg)
	assert.Error(t, bad.RegisterJobs())
}
