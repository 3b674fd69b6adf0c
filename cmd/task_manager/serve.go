package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task_manager/internal/analytics"
	"task_manager/internal/auth"
	"task_manager/internal/config"
	"task_manager/internal/http_server/router"
	resp "task_manager/internal/lib/api/response"
	"task_manager/internal/lib/jwt"
	"task_manager/internal/lib/logger"
	sl "task_manager/internal/lib/logger/sl"
	"task_manager/internal/middleware/metrics"
	"task_manager/internal/rabbitmq"
	"task_manager/internal/storage/memory"
	"task_manager/internal/storage/postgres"
	"task_manager/internal/tasks"
)

type storage interface {
	auth.UserSaver
	auth.UserProvider
	tasks.Storage
	analytics.SummaryProvider
	Close()
}

type publisher interface {
	auth.EventPublisher
	tasks.EventPublisher
}

func serve(parent context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.Setup(cfg.Env, os.Stdout)

	log.Info("starting task manager",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage),
	)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			log.Info("Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		return err
	}
	defer store.Close()

	events, closeEvents, err := openPublisher(cfg, log)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		return err
	}
	defer closeEvents()

	tokens := jwt.New(cfg.Tokens.Secret, cfg.Tokens.AccessTokenTTL, cfg.Tokens.RefreshTokenTTL)

	handler := router.New(router.Deps{
		Log:         log,
		Validate:    resp.NewValidator(),
		Auth:        auth.New(log, store, store, tokens, events),
		Tasks:       tasks.New(log, store, events),
		Analytics:   analytics.New(log, store),
		Metrics:     metrics.New(),
		CORSOrigins: cfg.HTTPServer.CORSOrigins,
		RateLimit:   true,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErr := make(chan error, 1)

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", sl.Err(err))
			serverErr <- err
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	select {
	case err := <-serverErr:
		return err
	default:
	}

	log.Info("Task manager stopped")

	return nil
}

func openStorage(ctx context.Context, cfg *config.Config) (storage, error) {
	const op = "main.openStorage"

	switch cfg.Storage {
	case config.StorageKindMemory:
		return memory.New(), nil
	case config.StorageKindPostgres:
		pg, err := postgres.New(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := pg.EnsureSchema(schemaCtx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return pg, nil
	}

	return nil, fmt.Errorf("%s: unknown storage %q", op, cfg.Storage)
}

// openPublisher falls back to a no-op publisher when no broker URL is set.
func openPublisher(cfg *config.Config, log *slog.Logger) (publisher, func(), error) {
	if cfg.RabbitMQ.URL == "" {
		log.Info("rabbitmq url is empty, events are disabled")
		return rabbitmq.Nop{}, func() {}, nil
	}

	client, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return nil, nil, err
	}

	return client, client.Close, nil
}
