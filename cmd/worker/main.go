package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fanvault/internal/app/bootstrap"
	"fanvault/internal/platform/config"
	"fanvault/internal/platform/logging"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Relay the onboarding outbox to Kafka until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("fanvault worker stopped with error",
			"event", "worker_stopped",
			"module", "cmd/worker",
			"layer", "platform",
			"error", err.Error(),
		)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run(cfg config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWorker(ctx, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("worker shutdown close failed", "event", "worker_close_failed", "error", err.Error())
		}
	}()
	return app.Run(ctx)
}
