package main

import (
	"context"
	"log/slog"
	"os"

	"edu-platform/internal/app"
	"edu-platform/internal/config"
	"edu-platform/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(os.Stdout, os.Stderr, logger.Options{}).Error("failed to load config", logger.Meta{"error": err})
		os.Exit(1)
	}

	log := logger.New(os.Stdout, os.Stderr, logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.Format(cfg.LogFormat),
	})
	slog.SetDefault(log.Slog())

	ctx := context.Background()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", logger.Meta{"error": err})
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		log.Error("application run failed", logger.Meta{"error": err})
		os.Exit(1)
	}
}
