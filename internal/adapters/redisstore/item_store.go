// Package redisstore keeps the registry in Redis. Each record lives under its
// own string key; a sorted set with equal scores orders keys lexically over a
// zero-padded decimal member, which matches numeric order.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/floroz/gavel-registry/internal/adapters/codec"
	"github.com/floroz/gavel-registry/internal/adapters/events"
	"github.com/floroz/gavel-registry/internal/registry"
)

const (
	defaultPrefix  = "registry"
	DefaultChannel = "registry:events"
)

// ErrConcurrentUpdate is returned when the watched record changed before the
// transaction executed
var ErrConcurrentUpdate = errors.New("record changed during update")

// ItemStore implements registry.ItemStore on Redis
type ItemStore struct {
	client  *redis.Client
	prefix  string
	channel string
}

// Option configures an ItemStore
type Option func(*ItemStore)

// WithPrefix namespaces every key the store touches
func WithPrefix(prefix string) Option {
	return func(s *ItemStore) { s.prefix = prefix }
}

// WithChannel sets the pub/sub channel committed events are published on
func WithChannel(channel string) Option {
	return func(s *ItemStore) { s.channel = channel }
}

// NewItemStore creates a Redis backed store
func NewItemStore(client *redis.Client, opts ...Option) *ItemStore {
	s := &ItemStore{
		client:  client,
		prefix:  defaultPrefix,
		channel: DefaultChannel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ItemStore) recordKey(key uint64) string {
	return fmt.Sprintf("%s:item:%d", s.prefix, key)
}

func (s *ItemStore) indexKey() string {
	return s.prefix + ":items"
}

func indexMember(key uint64) string {
	return fmt.Sprintf("%020d", key)
}

// Get retrieves the item stored at key
func (s *ItemStore) Get(ctx context.Context, key uint64) (*registry.Item, error) {
	raw, err := s.client.Get(ctx, s.recordKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, registry.ErrNoSuchItem
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", key, err)
	}
	return codec.MustDecode(key, raw), nil
}

// Count returns the number of indexed keys
func (s *ItemStore) Count(ctx context.Context) (uint64, error) {
	n, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return uint64(n), nil
}

// List returns every item in ascending key order
func (s *ItemStore) List(ctx context.Context) ([]*registry.Item, error) {
	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list item keys: %w", err)
	}
	if len(members) == 0 {
		return []*registry.Item{}, nil
	}

	keys := make([]uint64, len(members))
	recordKeys := make([]string, len(members))
	for i, m := range members {
		k, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid index member %q: %w", m, err)
		}
		keys[i] = k
		recordKeys[i] = s.recordKey(k)
	}

	values, err := s.client.MGet(ctx, recordKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	items := make([]*registry.Item, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			panic(fmt.Sprintf("registry store corrupted at key %d: indexed record missing", keys[i]))
		}
		items = append(items, codec.MustDecode(keys[i], []byte(raw)))
	}
	return items, nil
}

// Apply watches the record, runs fn and commits the write, the index entry
// and the event publication in one MULTI/EXEC. A concurrent writer makes EXEC
// fail with ErrConcurrentUpdate; nothing is retried.
func (s *ItemStore) Apply(ctx context.Context, key uint64, fn registry.TransitionFunc) (*registry.Item, error) {
	recordKey := s.recordKey(key)
	var prev *registry.Item

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, recordKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			prev = nil
		case err != nil:
			return fmt.Errorf("failed to get item %d: %w", key, err)
		default:
			prev = codec.MustDecode(key, raw)
		}

		t, err := fn(prev.Clone())
		if err != nil {
			return err
		}
		if t == nil || t.Item == nil {
			return nil
		}

		encoded, err := codec.Encode(t.Item)
		if err != nil {
			return err
		}

		var payload []byte
		if t.Event != nil {
			if payload, err = events.MarshalEvent(*t.Event); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, recordKey, encoded, 0)
			pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: 0, Member: indexMember(key)})
			if payload != nil {
				pipe.Publish(ctx, s.channel, payload)
			}
			return nil
		})
		return err
	}, recordKey)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, fmt.Errorf("item %d: %w", key, ErrConcurrentUpdate)
	}
	if err != nil {
		return nil, err
	}
	return prev, nil
}

// Subscribe returns a subscription to committed event payloads
func (s *ItemStore) Subscribe(ctx context.Context) *redis.PubSub {
	return s.client.Subscribe(ctx, s.channel)
}
