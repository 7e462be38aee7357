package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"movimenti/internal/amqp"
	"movimenti/internal/config"
	apphttp "movimenti/internal/http"
	"movimenti/internal/log"
	"movimenti/internal/services"
	"movimenti/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel)})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	st := store.New(cfg.CurrentFile(), cfg.AllFile(), logger.WithComponent(log.ComponentStore))
	if err := st.Load(); err != nil {
		// Missing files already load as empty; this is an unreadable file.
		// Serve what loaded rather than refuse to start.
		logger.Warn("Failed loading transaction files", log.FieldError, err)
	}

	// The audit stream is optional: without an AMQP URL the service runs
	// standalone and only skips event publishing.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		events = client
		logger.Info("Audit event publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Audit event publishing disabled - no AMQP_URL provided")
	}

	svc := services.NewTransactionService(st, events, logger.WithComponent(log.ComponentService))
	srv := apphttp.NewServer(":"+cfg.Port, svc, logger.WithComponent(log.ComponentHTTP))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting movimenti server", "port", cfg.Port, "data_dir", cfg.DataDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}

	// Final snapshot so a clean shutdown never loses the in-memory state.
	if err := st.Save(); err != nil {
		logger.Warn("Failed saving transaction files on shutdown", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
