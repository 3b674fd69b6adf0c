package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"task_manager/internal/config"
	"task_manager/internal/lib/logger"
	sl "task_manager/internal/lib/logger/sl"
	"task_manager/internal/notifier"
	"task_manager/internal/rabbitmq"

	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.LoadNotifier(configPath)
	if err != nil {
		slog.Error("failed to load config", sl.Err(err))
		os.Exit(1)
	}

	log := logger.Setup(cfg.Env, os.Stdout)

	log.Info("Starting notifier", slog.String("env", cfg.Env))

	if err := run(ctx, cfg, log); err != nil {
		log.Error("notifier stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("notifier gracefully stopped")
}

func run(ctx context.Context, cfg *config.Notifier, log *slog.Logger) error {
	r, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return err
	}
	defer r.Close()

	n := notifier.New(log, &notifier.Mailer{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	log.Info("consumer successfully started", slog.String("queue", cfg.RabbitMQ.QueueName))

	return r.Consume(ctx, log, n.Handle)
}
