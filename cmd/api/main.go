package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/floroz/gavel-registry/internal/adapters/api"
	"github.com/floroz/gavel-registry/internal/adapters/database"
	"github.com/floroz/gavel-registry/internal/adapters/memory"
	"github.com/floroz/gavel-registry/internal/adapters/redisstore"
	"github.com/floroz/gavel-registry/internal/config"
	"github.com/floroz/gavel-registry/internal/registry"
	"github.com/floroz/gavel-registry/migrations"
	"github.com/floroz/gavel-registry/pkg/auth"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Registry API stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	// 1. Identity
	if cfg.Auth.PublicKeyPath == "" {
		return errors.New("auth.public_key_path is required")
	}
	signer, err := auth.LoadSigner("", cfg.Auth.PublicKeyPath, cfg.Auth.Issuer)
	if err != nil {
		return err
	}
	apiKeys := auth.NewAPIKeys(cfg.Auth.APIKeys)

	g, ctx := errgroup.WithContext(ctx)

	// 2. Store (and the outbox relay when Postgres + RabbitMQ are configured)
	store, cleanup, err := openStore(ctx, g, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	// 3. Service (Domain Layer)
	service := registry.NewService(store, registry.WithOverwrite(cfg.Registry.AllowOverwrite))

	// 4. API Handler (ConnectRPC)
	path, handler := api.NewHandler(
		api.NewRegistryServiceHandler(service),
		auth.NewAuthInterceptor(signer, auth.WithAPIKeys(apiKeys)),
		connect.WithInterceptors(api.NewLoggingInterceptor(log)),
	)

	// Use h2c for HTTP/2 without TLS (common for internal services / local dev)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(api.NewRouter(path, handler), &http2.Server{}),
	}

	g.Go(func() error {
		log.Info("Starting Registry API", "addr", cfg.Server.Addr, "store", cfg.Store.Driver, "api_keys", apiKeys.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down Registry API...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore builds the configured ItemStore. Anything it starts in the
// background joins g.
func openStore(ctx context.Context, g *errgroup.Group, cfg *config.Config, log logger.Logger) (registry.ItemStore, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, g, cfg, log)

	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		log.Info("Redis Connected", "addr", cfg.Redis.Addr)
		return redisstore.NewItemStore(rdb), func() { _ = rdb.Close() }, nil

	case config.DriverMemory:
		log.Warn("Using in-memory store; items are lost on restart")
		return memory.NewItemStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func openPostgres(ctx context.Context, g *errgroup.Group, cfg *config.Config, log logger.Logger) (registry.ItemStore, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Info("Postgres Connected")

	if err := pkgdb.Migrate(ctx, pool, migrations.FS); err != nil {
		pool.Close()
		return nil, nil, err
	}

	txManager := pkgdb.NewPostgresTransactionManager(pool, cfg.Postgres.LockTimeout)
	outboxRepo := database.NewPostgresOutboxRepository(pool)
	store := database.NewPostgresItemStore(pool, txManager, outboxRepo)

	if !cfg.RelayEnabled() {
		log.Warn("RabbitMQ not configured; outbox events stay pending until a relay runs")
		return store, pool.Close, nil
	}

	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Info("RabbitMQ Connected")

	publisher, err := pkgevents.NewRabbitMQPublisher(amqpConn, cfg.Relay.Exchange)
	if err != nil {
		_ = amqpConn.Close()
		pool.Close()
		return nil, nil, err
	}

	relay := pkgevents.NewOutboxRelay(
		outboxRepo,
		publisher,
		txManager,
		cfg.Relay.BatchSize,
		cfg.Relay.Interval,
		cfg.Relay.Exchange,
		log,
	)
	g.Go(func() error {
		log.Info("Starting Outbox Relay...")
		return relay.Run(ctx)
	})

	cleanup := func() {
		_ = publisher.Close()
		_ = amqpConn.Close()
		pool.Close()
	}
	return store, cleanup, nil
}
