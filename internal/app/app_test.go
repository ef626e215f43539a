package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/rental-billing/internal/clock"
	"github.com/segyhp/rental-billing/internal/config"
	"github.com/segyhp/rental-billing/internal/lock"
)

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:       "sqlite3",
			URL:          ":memory:",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			AutoMigrate:  true,
		},
		Redis:     config.RedisConfig{KeyPrefix: "test:"},
		Scheduler: config.SchedulerConfig{Timezone: "UTC"},
		Business: config.BusinessConfig{
			DefaultDailyLateFee: "120",
			LateFeeCap:          "3000",
			RunDayOfMonth:       1,
		},
		Runner: config.RunnerConfig{
			Concurrency:      3,
			BatchSize:        10,
			OperationTimeout: 5 * time.Second,
			LockTTL:          time.Minute,
		},
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNew_WithoutRedis(t *testing.T) {
	application, err := New(context.Background(), testConfig(), quietLogger())
	require.NoError(t, err)
	defer application.Close()

	assert.Nil(t, application.Redis)
	assert.IsType(t, lock.Noop{}, application.Payments.Locker)
	assert.IsType(t, clock.Real{}, application.Payments.Clock)

	// the schema is in place
	_, err = application.DB.Exec(`SELECT COUNT(*) FROM unified_payments`)
	assert.NoError(t, err)
}

func TestNew_WithRedisAndPinnedDate(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := testConfig()
	cfg.Redis.Addr = mr.Addr()
	cfg.Business.DateOverride = "2024-03-01"
	cfg.Scheduler.Timezone = "Asia/Jakarta"

	application, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer application.Close()

	assert.NotNil(t, application.Redis)
	assert.IsType(t, &lock.RedisLocker{}, application.Runner.Locker)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), application.Runner.Today())
}

func TestNew_RedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.Redis.Addr = addr

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = New(ctx, cfg, quietLogger())
	assert.ErrorContains(t, err, "redis")
}

func TestNew_ProductionRequiresRedis(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Env = "production"

	application, err := New(context.Background(), cfg, quietLogger())

	assert.Nil(t, application)
	assert.ErrorContains(t, err, "REDIS_ADDR")
}
