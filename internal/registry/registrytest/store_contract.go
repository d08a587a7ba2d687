// Package registrytest holds a behavioural suite every registry.ItemStore
// implementation must pass.
package registrytest

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floroz/gavel-registry/internal/registry"
)

// StoreFactory returns an empty store
type StoreFactory func(t *testing.T) registry.ItemStore

func put(item *registry.Item) registry.TransitionFunc {
	return func(*registry.Item) (*registry.Transition, error) {
		return &registry.Transition{Item: item}, nil
	}
}

func mustPut(t *testing.T, store registry.ItemStore, item *registry.Item) {
	t.Helper()
	_, err := store.Apply(context.Background(), item.Key, put(item))
	require.NoError(t, err)
}

// RunItemStoreContract runs the shared suite against stores built by newStore
func RunItemStoreContract(t *testing.T, newStore StoreFactory) {
	t.Run("get on empty store", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Get(context.Background(), 1)
		assert.ErrorIs(t, err, registry.ErrNoSuchItem)

		n, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)

		items, err := store.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("apply sees nil for absent key and returns no previous record", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		var seen *registry.Item
		called := false
		prev, err := store.Apply(ctx, 5, func(current *registry.Item) (*registry.Transition, error) {
			called = true
			seen = current
			return &registry.Transition{Item: &registry.Item{Key: 5, Description: "vase", Owner: "alice", Bidders: []registry.Identity{}}}, nil
		})
		require.NoError(t, err)
		assert.True(t, called)
		assert.Nil(t, seen)
		assert.Nil(t, prev)

		got, err := store.Get(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), got.Key)
		assert.Equal(t, "vase", got.Description)
		assert.Equal(t, registry.Identity("alice"), got.Owner)
		assert.NotNil(t, got.Bidders)
	})

	t.Run("apply returns the replaced record", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		mustPut(t, store, &registry.Item{Key: 9, Description: "first", Owner: "alice", Bidders: []registry.Identity{}})

		prev, err := store.Apply(ctx, 9, put(&registry.Item{Key: 9, Description: "second", Owner: "bob", Bidders: []registry.Identity{}}))
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, "first", prev.Description)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)
	})

	t.Run("failed transition writes nothing", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		original := &registry.Item{Key: 3, Description: "lamp", IsActive: true, Owner: "alice", Bidders: []registry.Identity{"bob"}, CurrentHighestBid: 4, CurrentHighestBidder: "bob"}
		mustPut(t, store, original)

		boom := errors.New("rejected")
		_, err := store.Apply(ctx, 3, func(current *registry.Item) (*registry.Transition, error) {
			// mutating the argument must not leak into the store
			current.Description = "mutated"
			current.Bidders = append(current.Bidders, "mallory")
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := store.Get(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, original, got)
	})

	t.Run("oversized record is rejected and prior state kept", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		mustPut(t, store, &registry.Item{Key: 4, Description: "small", Owner: "alice", Bidders: []registry.Identity{}})

		_, err := store.Apply(ctx, 4, put(&registry.Item{Key: 4, Description: strings.Repeat("x", registry.MaxRecordSize+1), Owner: "alice"}))
		assert.ErrorIs(t, err, registry.ErrRecordTooLarge)

		got, err := store.Get(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "small", got.Description)

		_, err = store.Apply(ctx, 40, put(&registry.Item{Key: 40, Description: strings.Repeat("x", registry.MaxRecordSize+1)}))
		assert.ErrorIs(t, err, registry.ErrRecordTooLarge)
		_, err = store.Get(ctx, 40)
		assert.ErrorIs(t, err, registry.ErrNoSuchItem)
	})

	t.Run("list is ordered by unsigned key", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		keys := []uint64{math.MaxUint64, 0, 1 << 63, 7, math.MaxInt64}
		for _, k := range keys {
			mustPut(t, store, &registry.Item{Key: k, Owner: "alice", Bidders: []registry.Identity{}})
		}

		items, err := store.List(ctx)
		require.NoError(t, err)
		got := make([]uint64, 0, len(items))
		for _, it := range items {
			got = append(got, it.Key)
		}
		assert.Equal(t, []uint64{0, 7, math.MaxInt64, 1 << 63, math.MaxUint64}, got)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(len(keys)), n)
	})

	t.Run("returned items are copies", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		mustPut(t, store, &registry.Item{Key: 11, Owner: "alice", Bidders: []registry.Identity{"bob"}})

		got, err := store.Get(ctx, 11)
		require.NoError(t, err)
		got.Bidders[0] = "mallory"

		again, err := store.Get(ctx, 11)
		require.NoError(t, err)
		assert.Equal(t, []registry.Identity{"bob"}, again.Bidders)
	})
}
