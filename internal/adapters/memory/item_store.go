// Package memory provides a process-local ItemStore for development and
// tests. Records are kept encoded, so the size budget and copy isolation match
// the durable stores; nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/floroz/gavel-registry/internal/adapters/codec"
	"github.com/floroz/gavel-registry/internal/registry"
)

// ItemStore implements registry.ItemStore in memory
type ItemStore struct {
	mu      sync.Mutex
	records map[uint64][]byte
	events  []registry.Event
}

// NewItemStore creates an empty in-memory store
func NewItemStore() *ItemStore {
	return &ItemStore{records: make(map[uint64][]byte)}
}

// Get retrieves the item stored at key
func (s *ItemStore) Get(_ context.Context, key uint64) (*registry.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.records[key]
	if !ok {
		return nil, registry.ErrNoSuchItem
	}
	return codec.MustDecode(key, raw), nil
}

// Count returns the number of keys held
func (s *ItemStore) Count(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.records)), nil
}

// List returns all items ordered by key
func (s *ItemStore) List(_ context.Context) ([]*registry.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]uint64, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	items := make([]*registry.Item, 0, len(keys))
	for _, k := range keys {
		items = append(items, codec.MustDecode(k, s.records[k]))
	}
	return items, nil
}

// Apply runs fn under the store lock and commits its transition
func (s *ItemStore) Apply(_ context.Context, key uint64, fn registry.TransitionFunc) (*registry.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev *registry.Item
	if raw, ok := s.records[key]; ok {
		prev = codec.MustDecode(key, raw)
	}

	t, err := fn(prev.Clone())
	if err != nil {
		return nil, err
	}
	if t == nil || t.Item == nil {
		return prev, nil
	}

	raw, err := codec.Encode(t.Item)
	if err != nil {
		return nil, err
	}

	s.records[key] = raw
	if t.Event != nil {
		s.events = append(s.events, *t.Event)
	}
	return prev, nil
}

// Events returns the events recorded so far, oldest first
func (s *ItemStore) Events() []registry.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}
