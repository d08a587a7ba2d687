//go:build integration

package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/gavel-registry/internal/adapters/events"
	"github.com/floroz/gavel-registry/internal/adapters/redisstore"
	"github.com/floroz/gavel-registry/internal/registry"
	"github.com/floroz/gavel-registry/internal/registry/registrytest"
	"github.com/floroz/gavel-registry/pkg/testhelpers"
)

func TestRedisItemStore_Contract(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := testhelpers.NewTestRedis(t)

	registrytest.RunItemStoreContract(t, func(t *testing.T) registry.ItemStore {
		require.NoError(t, client.FlushDB(context.Background()).Err())
		return redisstore.NewItemStore(client)
	})
}

func TestRedisItemStore_PublishesCommittedEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	client := testhelpers.NewTestRedis(t)
	store := redisstore.NewItemStore(client)
	service := registry.NewService(store)

	sub := store.Subscribe(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)
	msgs := sub.Channel()

	_, err = service.CreateItem(ctx, registry.CreateItemCommand{Key: 3, Caller: "alice", Input: registry.ItemInput{IsActive: true}})
	require.NoError(t, err)

	// rejected transitions publish nothing
	require.ErrorIs(t, service.EndItem(ctx, registry.EndItemCommand{Key: 3, Caller: "bob"}), registry.ErrAccessRejected)
	require.NoError(t, service.Bid(ctx, registry.BidCommand{Key: 3, Caller: "bob", Amount: 9}))

	var got []registry.EventType
	for len(got) < 2 {
		select {
		case msg := <-msgs:
			e, err := events.UnmarshalEvent([]byte(msg.Payload))
			require.NoError(t, err)
			assert.Equal(t, uint64(3), e.Key)
			got = append(got, e.Type)
		case <-time.After(5 * time.Second):
			t.Fatal("Timeout waiting for published event")
		}
	}
	assert.Equal(t, []registry.EventType{registry.EventTypeItemCreated, registry.EventTypeBidPlaced}, got)
}
