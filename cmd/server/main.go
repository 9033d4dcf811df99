// Package main implements the entry point for the fairtrack API
// server: the careers-fair CRM background core serving exports, resume
// extraction, and realtime notifications.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/fairtrack/fairtrack-api/internal/config"
	"github.com/fairtrack/fairtrack-api/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		// Startup has no degraded mode: an unreachable database or a bad
		// migration aborts the process.
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
