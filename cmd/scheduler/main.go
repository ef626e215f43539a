package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/rental-billing/internal/app"
	"github.com/segyhp/rental-billing/internal/config"
	"github.com/segyhp/rental-billing/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logr.Info("Starting rent payment scheduler...")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(startCtx, cfg, logr)
	cancelStart()
	if err != nil {
		logr.WithError(err).Fatal("Failed to initialize application")
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize cron scheduler
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	// Schedule tasks
	if err := setupCronJobs(ctx, c, application); err != nil {
		logr.WithError(err).Fatal("Failed to schedule jobs")
	}

	// Start the scheduler
	c.Start()
	logr.WithField("timezone", cfg.Scheduler.Timezone).Info("Scheduler started successfully")

	// Catch up when the process starts on the run day after the cron slot
	go runMonthly(ctx, application)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("Shutting down scheduler...")
	cancel()
	<-c.Stop().Done()
	logr.Info("Scheduler stopped")
}

func setupCronJobs(ctx context.Context, c *cron.Cron, application *app.App) error {
	cfg := application.Config

	// Daily gated job; generation only happens on the configured run day
	if _, err := c.AddFunc(cfg.Scheduler.MonthlyCron, func() {
		runMonthly(ctx, application)
	}); err != nil {
		return err
	}

	// Daily job to refresh overdue status and late fines
	if _, err := c.AddFunc(cfg.Scheduler.OverdueCron, func() {
		refreshOverdue(ctx, application)
	}); err != nil {
		return err
	}

	application.Logger.WithFields(logrus.Fields{
		"monthly_cron": cfg.Scheduler.MonthlyCron,
		"overdue_cron": cfg.Scheduler.OverdueCron,
	}).Info("Cron jobs scheduled successfully")
	return nil
}

func runMonthly(ctx context.Context, application *app.App) {
	summary, err := application.Runner.RunGated(ctx)
	if err != nil {
		application.Logger.WithError(err).Error("Monthly payment run failed")
		return
	}
	if !summary.Ran {
		application.Logger.Debug(summary.Message)
	}
}

func refreshOverdue(ctx context.Context, application *app.App) {
	updated, err := application.Payments.RefreshOverdue(ctx)
	if err != nil {
		application.Logger.WithError(err).WithField("updated", updated).Error("Overdue refresh failed")
		return
	}
	application.Logger.WithField("updated", updated).Info("Overdue refresh finished")
}
