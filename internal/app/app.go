// Package app wires configuration into the database, lock and service
// graph shared by the HTTP server and the scheduler.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/rental-billing/internal/clock"
	"github.com/segyhp/rental-billing/internal/config"
	"github.com/segyhp/rental-billing/internal/lock"
	"github.com/segyhp/rental-billing/internal/repository"
	"github.com/segyhp/rental-billing/internal/service"
)

type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	DB       *sqlx.DB
	Redis    redis.UniversalClient
	Payments *service.PaymentService
	Runner   *service.MonthlyRunner
}

// New opens the database (and Redis when configured) and builds the services.
// Production refuses to start without Redis, since several replicas would
// otherwise run the monthly generation without a shared lock.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	if cfg.IsProduction() && !cfg.RedisEnabled() {
		return nil, fmt.Errorf("REDIS_ADDR is required when ENV=%s", cfg.Server.Env)
	}

	db, err := initDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var (
		redisClient redis.UniversalClient
		locker      lock.Locker = lock.Noop{}
	)
	if cfg.RedisEnabled() {
		redisClient = initRedis(cfg)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			db.Close()
			redisClient.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = lock.NewRedisLocker(redisClient, cfg.Redis.KeyPrefix)
	} else {
		logger.Warn("REDIS_ADDR not set; distributed locking is disabled")
	}

	clk := initClock(cfg, logger)
	settings := service.NewSettings(cfg)

	agreementRepo := repository.NewAgreementRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	payments := service.NewPaymentService(agreementRepo, paymentRepo, locker, clk, logger, settings)
	runner := service.NewMonthlyRunner(agreementRepo, payments, locker, clk, logger, settings)

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Redis:    redisClient,
		Payments: payments,
		Runner:   runner,
	}, nil
}

// Close releases the database and Redis connections
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.WithError(err).Warn("Failed to close redis client")
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.WithError(err).Warn("Failed to close database")
	}
}

func initDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// initClock pins the business date when BUSINESS_DATE_OVERRIDE is set. Noon
// keeps the date stable when converted to the business timezone.
func initClock(cfg *config.Config, logger *logrus.Logger) clock.Clock {
	d, ok := cfg.GetDateOverride()
	if !ok {
		return clock.Real{}
	}

	logger.WithField("date", cfg.Business.DateOverride).Warn("Business date is pinned by configuration")
	return clock.Fixed(time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, cfg.Location()))
}
