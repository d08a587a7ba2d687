package registry

import (
	"context"
)

// Transition is the outcome of a state machine step: the record to write
// back under the same key and the event describing it.
type Transition struct {
	Item  *Item
	Event *Event
}

// TransitionFunc computes a transition from the record currently stored at a
// key. It receives nil when the key is absent. Returning an error aborts the
// unit without writing anything.
type TransitionFunc func(current *Item) (*Transition, error)

// ItemStore defines the durable ordered map the registry is built on
type ItemStore interface {
	// Get retrieves the item at key, or ErrNoSuchItem
	Get(ctx context.Context, key uint64) (*Item, error)

	// Count returns the number of distinct keys ever inserted
	Count(ctx context.Context) (uint64, error)

	// List returns a snapshot of all items in ascending key order
	List(ctx context.Context) ([]*Item, error)

	// Apply reads the record at key, runs fn and persists its transition as one
	// atomic unit. It returns the record that was stored before the call.
	// A record that cannot be decoded is store corruption and panics.
	Apply(ctx context.Context, key uint64, fn TransitionFunc) (*Item, error)
}
