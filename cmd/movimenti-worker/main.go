package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"movimenti/internal/amqp"
	"movimenti/internal/config"
	"movimenti/internal/history"
	"movimenti/internal/log"
	"movimenti/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel)}).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("Starting movimenti-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the audit worker")
		os.Exit(1)
	}

	repo, err := history.NewRepository(cfg.HistoryDBPath)
	if err != nil {
		logger.Error("Failed to initialize history repository", log.FieldError, err, "path", cfg.HistoryDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	auditWorker := worker.NewAuditWorker(repo, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Consuming audit events", "queue", cfg.AMQPQueue)
		return client.ConsumeWithReconnect(gctx, auditWorker.HandleEvent)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
