package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floroz/gavel-registry/internal/adapters/codec"
	"github.com/floroz/gavel-registry/internal/adapters/events"
	"github.com/floroz/gavel-registry/internal/registry"
	pkgdb "github.com/floroz/gavel-registry/pkg/database"
	pkgevents "github.com/floroz/gavel-registry/pkg/events"
)

// OutboxWriter records an event in the same transaction as the item write
type OutboxWriter interface {
	SaveEvent(ctx context.Context, tx pgx.Tx, event *pkgevents.OutboxEvent) error
}

// PostgresItemStore implements registry.ItemStore using pgx
type PostgresItemStore struct {
	pool      *pgxpool.Pool // non-transactional reads
	txManager pkgdb.TransactionManager
	outbox    OutboxWriter
}

// NewPostgresItemStore creates a new PostgreSQL item store
func NewPostgresItemStore(pool *pgxpool.Pool, txManager pkgdb.TransactionManager, outbox OutboxWriter) *PostgresItemStore {
	return &PostgresItemStore{
		pool:      pool,
		txManager: txManager,
		outbox:    outbox,
	}
}

// Get retrieves the item stored at key
func (s *PostgresItemStore) Get(ctx context.Context, key uint64) (*registry.Item, error) {
	item, err := s.getItem(ctx, s.pool, key, false)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, registry.ErrNoSuchItem
	}
	return item, nil
}

// Count returns the number of stored keys
func (s *PostgresItemStore) Count(ctx context.Context) (uint64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return uint64(n), nil
}

// List returns every item in ascending key order
func (s *PostgresItemStore) List(ctx context.Context) ([]*registry.Item, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, record FROM items ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []*registry.Item{}
	for rows.Next() {
		var (
			col int64
			raw []byte
		)
		if err := rows.Scan(&col, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		key := fromColumnKey(col)
		items = append(items, codec.MustDecode(key, raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// Apply runs fn against the current record inside one transaction. The row
// (or, for an absent key, the key itself) is locked until commit.
func (s *PostgresItemStore) Apply(ctx context.Context, key uint64, fn registry.TransitionFunc) (*registry.Item, error) {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Absent keys have no row to lock, so concurrent creates serialize on
	// a transaction-scoped advisory lock instead
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, toColumnKey(key)); err != nil {
		return nil, fmt.Errorf("failed to lock key %d: %w", key, err)
	}

	prev, err := s.getItem(ctx, tx, key, true)
	if err != nil {
		return nil, err
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

	if err := s.putItem(ctx, tx, key, raw); err != nil {
		return nil, err
	}

	if t.Event != nil {
		row, err := events.NewOutboxEvent(*t.Event)
		if err != nil {
			return nil, err
		}
		if err := s.outbox.SaveEvent(ctx, tx, row); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return prev, nil
}

// getItem returns nil, nil when the key is absent
func (s *PostgresItemStore) getItem(ctx context.Context, db pkgdb.DBTX, key uint64, forUpdate bool) (*registry.Item, error) {
	query := `SELECT record FROM items WHERE key = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var raw []byte
	err := db.QueryRow(ctx, query, toColumnKey(key)).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item %d: %w", key, err)
	}
	return codec.MustDecode(key, raw), nil
}

func (s *PostgresItemStore) putItem(ctx context.Context, tx pgx.Tx, key uint64, raw []byte) error {
	query := `
		INSERT INTO items (key, record)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET record = EXCLUDED.record, updated_at = NOW()
	`
	result, err := tx.Exec(ctx, query, toColumnKey(key), raw)
	if err != nil {
		return fmt.Errorf("failed to write item %d: %w", key, err)
	}

	if result.RowsAffected() != 1 {
		return fmt.Errorf("failed to write item %d: %d rows affected", key, result.RowsAffected())
	}
	return nil
}
