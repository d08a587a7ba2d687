package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	pkgevents "github.com/floroz/gavel-registry/pkg/events"
)

var errEventNotFound = errors.New("outbox event not found or already published")

// PostgresOutboxRepository stores registry events next to the items they
// describe. It is both the OutboxWriter of PostgresItemStore and the
// pkgevents.OutboxRepository of the relay.
type PostgresOutboxRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOutboxRepository(pool *pgxpool.Pool) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{pool: pool}
}

// SaveEvent appends a pending row inside the caller's item transaction and
// fills in the Seq the database assigned
func (r *PostgresOutboxRepository) SaveEvent(ctx context.Context, tx pgx.Tx, event *pkgevents.OutboxEvent) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO outbox_events (id, event_type, item_key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`,
		event.ID,
		event.EventType,
		toColumnKey(event.ItemKey),
		event.Payload,
		event.CreatedAt,
	).Scan(&event.Seq)
	if err != nil {
		return fmt.Errorf("failed to append %s event for item %d: %w", event.EventType, event.ItemKey, err)
	}
	event.Status = pkgevents.OutboxStatusPending
	return nil
}

// PendingEvents locks the oldest undelivered rows in commit order. SKIP LOCKED
// lets a second relay take the next rows instead of blocking on these.
func (r *PostgresOutboxRepository) PendingEvents(ctx context.Context, tx pgx.Tx, limit int) ([]*pkgevents.OutboxEvent, error) {
	rows, err := tx.Query(ctx, `
		SELECT seq, id, event_type, item_key, payload, created_at
		FROM outbox_events
		WHERE status = 'pending'
		ORDER BY seq
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending events: %w", err)
	}
	defer rows.Close()

	events := make([]*pkgevents.OutboxEvent, 0, limit)
	for rows.Next() {
		var (
			event pkgevents.OutboxEvent
			key   int64
		)
		if err := rows.Scan(&event.Seq, &event.ID, &event.EventType, &key, &event.Payload, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		event.ItemKey = fromColumnKey(key)
		event.Status = pkgevents.OutboxStatusPending
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox rows: %w", err)
	}
	return events, nil
}

// MarkPublished flags a delivered batch in one statement. Every id must still
// be pending, otherwise it fails and the caller's transaction is rolled back.
func (r *PostgresOutboxRepository) MarkPublished(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	result, err := tx.Exec(ctx, `
		UPDATE outbox_events
		SET status = 'published', published_at = NOW()
		WHERE id = ANY($1) AND status = 'pending'
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to mark events published: %w", err)
	}

	if n := result.RowsAffected(); n != int64(len(ids)) {
		return fmt.Errorf("%w: marked %d of %d", errEventNotFound, n, len(ids))
	}
	return nil
}
