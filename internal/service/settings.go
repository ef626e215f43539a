package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/rental-billing/internal/config"
)

// Settings carries the business knobs the payment services need
type Settings struct {
	Location            *time.Location
	DefaultDailyLateFee decimal.Decimal
	LateFeeCap          decimal.Decimal
	OperationTimeout    time.Duration
	LockTTL             time.Duration
	RunDayOfMonth       int
	Concurrency         int
	BatchSize           int
}

// NewSettings derives Settings from the loaded configuration
func NewSettings(cfg *config.Config) Settings {
	return Settings{
		Location:            cfg.Location(),
		DefaultDailyLateFee: cfg.GetDefaultDailyLateFee(),
		LateFeeCap:          cfg.GetLateFeeCap(),
		OperationTimeout:    cfg.Runner.OperationTimeout,
		LockTTL:             cfg.Runner.LockTTL,
		RunDayOfMonth:       cfg.Business.RunDayOfMonth,
		Concurrency:         cfg.Runner.Concurrency,
		BatchSize:           cfg.Runner.BatchSize,
	}
}

// DefaultSettings mirrors the configuration defaults
func DefaultSettings() Settings {
	return Settings{
		Location:            time.UTC,
		DefaultDailyLateFee: decimal.NewFromInt(120),
		LateFeeCap:          decimal.NewFromInt(3000),
		OperationTimeout:    30 * time.Second,
		LockTTL:             2 * time.Minute,
		RunDayOfMonth:       1,
		Concurrency:         3,
		BatchSize:           10,
	}
}
