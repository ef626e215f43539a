package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/rental-billing/internal/app"
	"github.com/segyhp/rental-billing/internal/config"
	"github.com/segyhp/rental-billing/internal/handler"
	"github.com/segyhp/rental-billing/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(startCtx, cfg, logr)
	cancelStart()
	if err != nil {
		logr.WithError(err).Fatal("Failed to initialize application")
	}
	defer application.Close()

	paymentHandler := handler.NewPaymentHandler(application.Payments, logr)
	runHandler := handler.NewRunHandler(application.Runner, logr)
	healthHandler := handler.NewHealthHandler(application.DB, application.Redis, cfg.Health.Timeout)

	// Setup routes
	router := handler.NewRouter(paymentHandler, runHandler, healthHandler, logr)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logr.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logr.WithError(err).Error("Server forced to shutdown")
		return
	}

	logr.Info("Server exited")
}
