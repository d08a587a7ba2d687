package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service errors
var (
	ErrNoSuchItem      = errors.New("no such item")
	ErrAccessRejected  = errors.New("access rejected: only the owner can perform this action")
	ErrItemIsNotActive = errors.New("item is not active")
	ErrInvalidAmount   = errors.New("bid amount must be greater than 0")
	ErrUpdateFailed    = errors.New("update was not persisted")
	ErrItemExists      = errors.New("an item already exists at this key")
	ErrRecordTooLarge  = fmt.Errorf("encoded item exceeds %d bytes", MaxRecordSize)
)

// requestErrors are returned to callers as-is; anything else coming out of
// the store is a persistence failure.
var requestErrors = []error{
	ErrNoSuchItem,
	ErrAccessRejected,
	ErrItemIsNotActive,
	ErrInvalidAmount,
	ErrItemExists,
	ErrRecordTooLarge,
}

// Option configures a Service
type Option func(*Service)

// WithOverwrite lets CreateItem replace an existing record instead of failing
// with ErrItemExists. The replaced record is returned to the caller.
func WithOverwrite(allow bool) Option {
	return func(s *Service) {
		s.allowOverwrite = allow
	}
}

// WithClock overrides the time source used for event timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service implements the bid state machine and the query facade
type Service struct {
	store          ItemStore
	allowOverwrite bool
	now            func() time.Time
}

// NewService creates a new registry service on top of store
func NewService(store ItemStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateItem lists a fresh item owned by the caller. It returns the record
// previously stored at the key when overwriting is enabled, nil otherwise.
func (s *Service) CreateItem(ctx context.Context, cmd CreateItemCommand) (*Item, error) {
	prev, err := s.store.Apply(ctx, cmd.Key, func(current *Item) (*Transition, error) {
		if current != nil && !s.allowOverwrite {
			return nil, ErrItemExists
		}
		return &Transition{
			Item:  newItem(cmd.Key, cmd.Caller, cmd.Input),
			Event: s.event(EventTypeItemCreated, cmd.Key, cmd.Caller, 0, cmd.Caller),
		}, nil
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return prev, nil
}

// EditItem updates description and active flag of an item the caller owns
func (s *Service) EditItem(ctx context.Context, cmd EditItemCommand) error {
	_, err := s.store.Apply(ctx, cmd.Key, func(current *Item) (*Transition, error) {
		next, err := editItem(current, cmd.Caller, cmd.Input)
		if err != nil {
			return nil, err
		}
		return &Transition{
			Item:  next,
			Event: s.event(EventTypeItemEdited, cmd.Key, cmd.Caller, 0, next.Owner),
		}, nil
	})
	return s.classify(err)
}

// EndItem closes an auction the caller owns and transfers the item to the
// leading bidder
func (s *Service) EndItem(ctx context.Context, cmd EndItemCommand) error {
	_, err := s.store.Apply(ctx, cmd.Key, func(current *Item) (*Transition, error) {
		next, err := endItem(current, cmd.Caller)
		if err != nil {
			return nil, err
		}
		return &Transition{
			Item:  next,
			Event: s.event(EventTypeItemEnded, cmd.Key, cmd.Caller, current.CurrentHighestBid, next.Owner),
		}, nil
	})
	return s.classify(err)
}

// Bid places a bid on an active item. Any identity may bid, the owner included.
func (s *Service) Bid(ctx context.Context, cmd BidCommand) error {
	if err := validateBidAmount(cmd.Amount); err != nil {
		return err
	}

	_, err := s.store.Apply(ctx, cmd.Key, func(current *Item) (*Transition, error) {
		next, err := placeBid(current, cmd.Caller, cmd.Amount)
		if err != nil {
			return nil, err
		}
		return &Transition{
			Item:  next,
			Event: s.event(EventTypeBidPlaced, cmd.Key, cmd.Caller, cmd.Amount, next.Owner),
		}, nil
	})
	return s.classify(err)
}

// GetItem retrieves an item by key
func (s *Service) GetItem(ctx context.Context, key uint64) (*Item, error) {
	item, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNoSuchItem) {
			return nil, ErrNoSuchItem
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ItemCount returns the number of distinct keys ever created
func (s *Service) ItemCount(ctx context.Context) (uint64, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// ListItems returns every item in ascending key order
func (s *Service) ListItems(ctx context.Context) ([]*Item, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// MostExpensiveItem returns the item with the highest current bid.
// Ties go to the lowest key.
func (s *Service) MostExpensiveItem(ctx context.Context) (*Item, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	if best := mostExpensive(items); best != nil {
		return best, nil
	}
	return nil, ErrNoSuchItem
}

// MostBiddedItem returns the item with the most bids since it was listed.
// Ties go to the lowest key.
func (s *Service) MostBiddedItem(ctx context.Context) (*Item, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	if best := mostBidded(items); best != nil {
		return best, nil
	}
	return nil, ErrNoSuchItem
}

func (s *Service) event(t EventType, key uint64, actor Identity, amount uint32, owner Identity) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       t,
		Key:        key,
		Actor:      actor,
		Amount:     amount,
		Owner:      owner,
		OccurredAt: s.now(),
	}
}

// classify passes request-level errors through and folds every other store
// failure into ErrUpdateFailed
func (s *Service) classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range requestErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
}
