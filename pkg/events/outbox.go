package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/floroz/gavel-registry/pkg/database"
	"github.com/floroz/gavel-registry/pkg/logger"
)

// OutboxStatus is the delivery state of an outbox row
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
)

// OutboxEvent is one registry event waiting in (or delivered from) the
// outbox. Seq is assigned by the database at insert and gives commit order;
// events for the same item are always relayed in Seq order.
type OutboxEvent struct {
	Seq         int64
	ID          uuid.UUID
	EventType   string
	ItemKey     uint64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// OutboxRepository is the relay's view of the outbox table
type OutboxRepository interface {
	// PendingEvents locks up to limit undelivered rows, lowest Seq first
	PendingEvents(ctx context.Context, tx pgx.Tx, limit int) ([]*OutboxEvent, error)
	MarkPublished(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error
}

// EventPublisher delivers one outbox event to the broker
type EventPublisher interface {
	Publish(ctx context.Context, exchange string, event *OutboxEvent) error
}

// OutboxRelay moves committed registry events from Postgres to the broker
type OutboxRelay struct {
	outboxRepo OutboxRepository
	publisher  EventPublisher
	txManager  database.TransactionManager
	batchSize  int
	interval   time.Duration
	exchange   string
	logger     logger.Logger
}

func NewOutboxRelay(
	outboxRepo OutboxRepository,
	publisher EventPublisher,
	txManager database.TransactionManager,
	batchSize int,
	interval time.Duration,
	exchange string,
	log logger.Logger,
) *OutboxRelay {
	return &OutboxRelay{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		txManager:  txManager,
		batchSize:  batchSize,
		interval:   interval,
		exchange:   exchange,
		logger:     log.With("component", "outbox_relay", "exchange", exchange),
	}
}

// Run relays a batch immediately and then every interval until ctx is done.
// A full batch is followed straight away by another so a backlog drains
// without waiting on the ticker.
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		n, err := r.ProcessBatch(ctx)
		if err != nil {
			r.logger.Error("Outbox batch failed", "error", err)
		}
		if err == nil && n == r.batchSize {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// ProcessBatch publishes pending events in Seq order and returns how many
// were marked published. Publishing stops at the first failure: the events
// already delivered are committed as published, the rest stay pending behind
// them, so per-item order survives a broker outage.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	tx, err := r.txManager.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	events, err := r.outboxRepo.PendingEvents(ctx, tx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pending events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	delivered := make([]uuid.UUID, 0, len(events))
	var publishErr error
	for _, event := range events {
		if err := r.publisher.Publish(ctx, r.exchange, event); err != nil {
			publishErr = fmt.Errorf("failed to publish event %s (seq %d): %w", event.ID, event.Seq, err)
			break
		}
		delivered = append(delivered, event.ID)
	}

	if len(delivered) == 0 {
		return 0, publishErr
	}

	if err := r.outboxRepo.MarkPublished(ctx, tx, delivered); err != nil {
		return 0, fmt.Errorf("failed to mark %d events published: %w", len(delivered), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	r.logger.Debug("Relayed events", "count", len(delivered), "last_seq", events[len(delivered)-1].Seq)
	return len(delivered), publishErr
}
