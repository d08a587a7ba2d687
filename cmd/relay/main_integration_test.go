//go:build integration

package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/gavel-registry/internal/config"
	pkgevents "github.com/floroz/gavel-registry/pkg/events"
	"github.com/floroz/gavel-registry/pkg/logger"
	"github.com/floroz/gavel-registry/pkg/testhelpers"
)

func TestRun_MigratesBeforeRelaying(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := testhelpers.NewEmptyTestDatabase(t)
	defer testDB.Close()
	amqpURL := testhelpers.NewTestRabbitMQ(t)

	cfg := &config.Config{
		Store:    config.StoreConfig{Driver: config.DriverPostgres},
		Postgres: config.PostgresConfig{URL: testDB.ConnStr, LockTimeout: time.Second},
		RabbitMQ: config.RabbitMQConfig{URL: amqpURL},
		Relay: config.RelayConfig{
			BatchSize: 10,
			Interval:  50 * time.Millisecond,
			Exchange:  pkgevents.DefaultExchange,
		},
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- run(runCtx, cfg, logger.NewNop()) }()

	// the relay creates the outbox table on a fresh database and keeps polling
	require.Eventually(t, func() bool {
		var table *string
		err := testDB.Pool.QueryRow(ctx, `SELECT to_regclass('public.outbox_events')::text`).Scan(&table)
		return err == nil && table != nil
	}, 30*time.Second, 100*time.Millisecond)

	_, err := testDB.Pool.Exec(ctx, `
		INSERT INTO outbox_events (id, event_type, item_key, payload)
		VALUES (gen_random_uuid(), 'item.created', 0, '\x00')
	`)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		var pending int
		err := testDB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_events WHERE status = 'pending'`).Scan(&pending)
		return err == nil && pending == 0
	}, 10*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("relay did not stop after cancellation")
	}
}

func TestRun_RequiresBrokerAndDatabase(t *testing.T) {
	err := run(context.Background(), &config.Config{}, logger.NewNop())
	assert.ErrorContains(t, err, "postgres.url is not set")

	err = run(context.Background(), &config.Config{Postgres: config.PostgresConfig{URL: "postgres://x"}}, logger.NewNop())
	assert.ErrorContains(t, err, "rabbitmq.url is not set")
}
