package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"goaltrack/internal/config"
	"goaltrack/internal/logging"
	"goaltrack/internal/serverapp"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg, err := config.FromEnv("goaltrack.yml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := serverapp.Build(ctx, cfg, nil, logger)
	if err != nil {
		logger.Fatal("build server", zap.Error(err))
	}
	if err := app.Run(ctx, nil); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("bye")
}
