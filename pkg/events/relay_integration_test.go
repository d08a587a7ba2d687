//go:build integration

package events_test

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/gavel-registry/internal/adapters/database"
	adapterevents "github.com/floroz/gavel-registry/internal/adapters/events"
	"github.com/floroz/gavel-registry/internal/registry"
	pkgdb "github.com/floroz/gavel-registry/pkg/database"
	pkgevents "github.com/floroz/gavel-registry/pkg/events"
	"github.com/floroz/gavel-registry/pkg/logger"
	"github.com/floroz/gavel-registry/pkg/testhelpers"
)

// TestRelayIntegrationWithRabbitMQ drives registry calls against Postgres and
// checks the committed events arrive on the exchange
func TestRelayIntegrationWithRabbitMQ(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// 1. Start RabbitMQ and Postgres
	amqpURL := testhelpers.NewTestRabbitMQ(t)
	testDB := testhelpers.NewTestDatabase(t)
	defer testDB.Close()

	// 2. Setup Relay Components
	pubConn, err := amqp.Dial(amqpURL)
	require.NoError(t, err)
	defer pubConn.Close()

	publisher, err := pkgevents.NewRabbitMQPublisher(pubConn, pkgevents.DefaultExchange)
	require.NoError(t, err)
	defer publisher.Close()

	txManager := pkgdb.NewPostgresTransactionManager(testDB.Pool, time.Second)
	outboxRepo := database.NewPostgresOutboxRepository(testDB.Pool)

	relay := pkgevents.NewOutboxRelay(
		outboxRepo,
		publisher,
		txManager,
		10,
		50*time.Millisecond,
		pkgevents.DefaultExchange,
		logger.NewNop(),
	)

	// 3. Separate consumer bound to every registry event
	conn, err := amqp.Dial(amqpURL)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "#", pkgevents.DefaultExchange, false, nil))

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	require.NoError(t, err)

	// 4. Produce events through the registry
	store := database.NewPostgresItemStore(testDB.Pool, txManager, outboxRepo)
	service := registry.NewService(store)

	_, err = service.CreateItem(ctx, registry.CreateItemCommand{Key: 1, Caller: "alice", Input: registry.ItemInput{Description: "clock", IsActive: true}})
	require.NoError(t, err)
	require.NoError(t, service.Bid(ctx, registry.BidCommand{Key: 1, Caller: "bob", Amount: 30}))
	require.NoError(t, service.EndItem(ctx, registry.EndItemCommand{Key: 1, Caller: "alice"}))

	// 5. Run relay in background
	relayCtx, cancelRelay := context.WithCancel(ctx)
	defer cancelRelay()
	go func() {
		_ = relay.Run(relayCtx)
	}()

	// 6. Verify Message Receipt
	var got []string
	for len(got) < 3 {
		select {
		case msg := <-msgs:
			assert.Equal(t, "application/x-protobuf", msg.ContentType)
			e, err := adapterevents.UnmarshalEvent(msg.Body)
			require.NoError(t, err)
			assert.Equal(t, msg.RoutingKey, e.Type.String())
			assert.Equal(t, e.ID.String(), msg.MessageId)
			assert.Equal(t, "1", msg.Headers[pkgevents.ItemKeyHeader])
			got = append(got, msg.RoutingKey)
			if e.Type == registry.EventTypeItemEnded {
				assert.Equal(t, registry.Identity("bob"), e.Owner)
				assert.Equal(t, uint32(30), e.Amount)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("Timeout waiting for message from RabbitMQ")
		}
	}
	assert.Equal(t, []string{"item.created", "bid.placed", "item.ended"}, got)

	// 7. Verify DB Update
	require.Eventually(t, func() bool {
		var pending int
		err := testDB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM outbox_events WHERE status = 'pending'").Scan(&pending)
		return err == nil && pending == 0
	}, 5*time.Second, 100*time.Millisecond, "All events should be marked published")
}
