package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/floroz/gavel-registry/internal/adapters/database"
	"github.com/floroz/gavel-registry/internal/config"
	"github.com/floroz/gavel-registry/migrations"
	pkgdb "github.com/floroz/gavel-registry/pkg/database"
	pkgevents "github.com/floroz/gavel-registry/pkg/events"
	"github.com/floroz/gavel-registry/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatal("Failed to load config", "error", err)
	}

	log, err := logger.NewWithLevel(cfg.Log.Level)
	if err != nil {
		logger.New().Fatal("Failed to build logger", "error", err)
	}
	defer func() { _ = log.Sync() }()

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Outbox Relay stopped", "error", err)
		os.Exit(1)
	}
	log.Info("Outbox Relay stopped")
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if cfg.Postgres.URL == "" {
		return errors.New("postgres.url is not set")
	}
	if cfg.RabbitMQ.URL == "" {
		return errors.New("rabbitmq.url is not set")
	}

	// 1. Postgres, migrated so the relay can start before any API instance
	pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("unable to create connection pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("unable to ping database: %w", err)
	}
	log.Info("Postgres Connected")

	if err := pkgdb.Migrate(ctx, pool, migrations.FS); err != nil {
		return err
	}

	// 2. RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer amqpConn.Close()
	log.Info("RabbitMQ Connected")

	publisher, err := pkgevents.NewRabbitMQPublisher(amqpConn, cfg.Relay.Exchange)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// 3. Relay until signalled
	relay := pkgevents.NewOutboxRelay(
		database.NewPostgresOutboxRepository(pool),
		publisher,
		pkgdb.NewPostgresTransactionManager(pool, cfg.Postgres.LockTimeout),
		cfg.Relay.BatchSize,
		cfg.Relay.Interval,
		cfg.Relay.Exchange,
		log,
	)

	log.Info("Starting Outbox Relay...", "interval", cfg.Relay.Interval)
	return relay.Run(ctx)
}
