// Package main runs the linernotes HTTP API together with its counter
// reconciliation workers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/linernotes/linernotes/internal/app"
	"github.com/linernotes/linernotes/internal/config"
	"github.com/linernotes/linernotes/pkg/logger"
)

const serviceName = "linernotes"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error("linernotes exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("linernotes stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting linernotes",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("identity_directory", cfg.IdentityDirectory),
		slog.Bool("kafka_enabled", cfg.KafkaEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return application.Run(ctx)
}
