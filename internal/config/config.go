package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/segyhp/rental-billing/pkg/utils"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
	Business  BusinessConfig
	Runner    RunnerConfig
	Health    HealthConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type SchedulerConfig struct {
	Timezone    string
	MonthlyCron string
	OverdueCron string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type BusinessConfig struct {
	DateOverride        string
	DefaultDailyLateFee string
	LateFeeCap          string
	RunDayOfMonth       int
}

type RunnerConfig struct {
	Concurrency      int
	BatchSize        int
	OperationTimeout time.Duration
	LockTTL          time.Duration
}

type HealthConfig struct {
	Timeout time.Duration
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	config := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Env:          v.GetString("ENV"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("DATABASE_DRIVER"),
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DATABASE_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DATABASE_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:      v.GetString("REDIS_ADDR"),
			Password:  v.GetString("REDIS_PASSWORD"),
			DB:        v.GetInt("REDIS_DB"),
			KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
		},
		Scheduler: SchedulerConfig{
			Timezone:    v.GetString("SCHEDULER_TIMEZONE"),
			MonthlyCron: v.GetString("SCHEDULER_MONTHLY_CRON"),
			OverdueCron: v.GetString("SCHEDULER_OVERDUE_CRON"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Business: BusinessConfig{
			DateOverride:        v.GetString("BUSINESS_DATE_OVERRIDE"),
			DefaultDailyLateFee: v.GetString("DEFAULT_DAILY_LATE_FEE"),
			LateFeeCap:          v.GetString("LATE_FEE_CAP"),
			RunDayOfMonth:       v.GetInt("RUN_DAY_OF_MONTH"),
		},
		Runner: RunnerConfig{
			Concurrency:      v.GetInt("RUNNER_CONCURRENCY"),
			BatchSize:        v.GetInt("RUNNER_BATCH_SIZE"),
			OperationTimeout: v.GetDuration("OPERATION_TIMEOUT"),
			LockTTL:          v.GetDuration("LOCK_TTL"),
		},
		Health: HealthConfig{
			Timeout: v.GetDuration("HEALTH_CHECK_TIMEOUT"),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "35s")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DATABASE_AUTO_MIGRATE", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "rental-billing:")
	v.SetDefault("SCHEDULER_TIMEZONE", "Asia/Jakarta")
	v.SetDefault("SCHEDULER_MONTHLY_CRON", "0 5 0 * * *")
	v.SetDefault("SCHEDULER_OVERDUE_CRON", "0 30 0 * * *")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("BUSINESS_DATE_OVERRIDE", "")
	v.SetDefault("DEFAULT_DAILY_LATE_FEE", "120")
	v.SetDefault("LATE_FEE_CAP", "3000")
	v.SetDefault("RUN_DAY_OF_MONTH", 1)
	v.SetDefault("RUNNER_CONCURRENCY", 3)
	v.SetDefault("RUNNER_BATCH_SIZE", 10)
	v.SetDefault("OPERATION_TIMEOUT", "30s")
	v.SetDefault("LOCK_TTL", "2m")
	v.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite3" {
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite3, got %q", c.Database.Driver)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	if c.Business.DateOverride != "" {
		if _, err := utils.ParseDate(c.Business.DateOverride); err != nil {
			return fmt.Errorf("BUSINESS_DATE_OVERRIDE must be YYYY-MM-DD: %w", err)
		}
	}

	if _, err := decimal.NewFromString(c.Business.DefaultDailyLateFee); err != nil {
		return fmt.Errorf("DEFAULT_DAILY_LATE_FEE must be a valid decimal: %w", err)
	}

	if _, err := decimal.NewFromString(c.Business.LateFeeCap); err != nil {
		return fmt.Errorf("LATE_FEE_CAP must be a valid decimal: %w", err)
	}

	if c.Business.RunDayOfMonth < 1 || c.Business.RunDayOfMonth > 28 {
		return fmt.Errorf("RUN_DAY_OF_MONTH must be between 1 and 28")
	}

	if c.Runner.Concurrency <= 0 {
		return fmt.Errorf("RUNNER_CONCURRENCY must be greater than 0")
	}

	if c.Runner.BatchSize <= 0 {
		return fmt.Errorf("RUNNER_BATCH_SIZE must be greater than 0")
	}

	if c.Runner.OperationTimeout <= 0 {
		return fmt.Errorf("OPERATION_TIMEOUT must be a positive duration")
	}

	if c.Runner.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be a positive duration")
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a positive duration")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// RedisEnabled reports whether a Redis address was configured
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// Location returns the business timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetDateOverride returns the pinned business date, if any
func (c *Config) GetDateOverride() (time.Time, bool) {
	if c.Business.DateOverride == "" {
		return time.Time{}, false
	}
	d, err := utils.ParseDate(c.Business.DateOverride)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// GetDefaultDailyLateFee returns the fallback daily late fee as decimal
func (c *Config) GetDefaultDailyLateFee() decimal.Decimal {
	fee, _ := decimal.NewFromString(c.Business.DefaultDailyLateFee)
	return fee
}

// GetLateFeeCap returns the maximum late fine per payment as decimal
func (c *Config) GetLateFeeCap() decimal.Decimal {
	maxFee, _ := decimal.NewFromString(c.Business.LateFeeCap)
	return maxFee
}
