package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/floroz/gavel-registry/pkg/logger"
)

type MockTx struct {
	pgx.Tx
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) PendingEvents(ctx context.Context, tx pgx.Tx, limit int) ([]*OutboxEvent, error) {
	args := m.Called(ctx, tx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	args := m.Called(ctx, tx, ids)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, exchange string, event *OutboxEvent) error {
	args := m.Called(ctx, exchange, event)
	return args.Error(0)
}

type relayFixture struct {
	tx        *MockTx
	txManager *MockTxManager
	repo      *MockOutboxRepository
	publisher *MockPublisher
	relay     *OutboxRelay
}

func newRelayFixture() *relayFixture {
	f := &relayFixture{
		tx:        new(MockTx),
		txManager: new(MockTxManager),
		repo:      new(MockOutboxRepository),
		publisher: new(MockPublisher),
	}
	f.relay = NewOutboxRelay(f.repo, f.publisher, f.txManager, 5, 0, DefaultExchange, logger.NewNop())
	f.txManager.On("BeginTx", mock.Anything).Return(f.tx, nil)
	f.tx.On("Rollback", mock.Anything).Return(nil)
	return f
}

func (f *relayFixture) assertExpectations(t *testing.T) {
	f.txManager.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
	f.tx.AssertExpectations(t)
}

func pendingEvents(types ...string) []*OutboxEvent {
	events := make([]*OutboxEvent, len(types))
	for i, typ := range types {
		events[i] = &OutboxEvent{
			Seq:       int64(i + 1),
			ID:        uuid.New(),
			EventType: typ,
			ItemKey:   7,
			Payload:   []byte(typ),
			Status:    OutboxStatusPending,
		}
	}
	return events
}

func ids(events []*OutboxEvent) []uuid.UUID {
	out := make([]uuid.UUID, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestOutboxRelay_ProcessBatch_PublishesInSeqOrderAndMarksBatch(t *testing.T) {
	ctx := context.Background()
	f := newRelayFixture()

	events := pendingEvents("item.created", "bid.placed", "item.ended")
	f.repo.On("PendingEvents", ctx, f.tx, 5).Return(events, nil)

	var order []int64
	for _, e := range events {
		f.publisher.On("Publish", ctx, DefaultExchange, e).
			Run(func(args mock.Arguments) { order = append(order, args.Get(2).(*OutboxEvent).Seq) }).
			Return(nil).Once()
	}
	f.repo.On("MarkPublished", ctx, f.tx, ids(events)).Return(nil).Once()
	f.tx.On("Commit", ctx).Return(nil)

	n, err := f.relay.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int64{1, 2, 3}, order)
	f.assertExpectations(t)
}

func TestOutboxRelay_ProcessBatch_NothingPending(t *testing.T) {
	ctx := context.Background()
	f := newRelayFixture()

	f.repo.On("PendingEvents", ctx, f.tx, 5).Return([]*OutboxEvent{}, nil)

	n, err := f.relay.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	f.tx.AssertNotCalled(t, "Commit", mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "MarkPublished", mock.Anything, mock.Anything, mock.Anything)
}

func TestOutboxRelay_ProcessBatch_CommitsDeliveredPrefixOnPublishFailure(t *testing.T) {
	ctx := context.Background()
	f := newRelayFixture()

	events := pendingEvents("item.created", "bid.placed", "bid.placed")
	f.repo.On("PendingEvents", ctx, f.tx, 5).Return(events, nil)
	f.publisher.On("Publish", ctx, DefaultExchange, events[0]).Return(nil).Once()
	f.publisher.On("Publish", ctx, DefaultExchange, events[1]).Return(errors.New("channel closed")).Once()
	f.repo.On("MarkPublished", ctx, f.tx, ids(events[:1])).Return(nil).Once()
	f.tx.On("Commit", ctx).Return(nil)

	n, err := f.relay.ProcessBatch(ctx)
	assert.ErrorContains(t, err, "channel closed")
	assert.Equal(t, 1, n)

	// the third event is never attempted ahead of the second
	f.publisher.AssertNotCalled(t, "Publish", ctx, DefaultExchange, events[2])
	f.assertExpectations(t)
}

func TestOutboxRelay_ProcessBatch_FirstPublishFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newRelayFixture()

	events := pendingEvents("item.ended")
	f.repo.On("PendingEvents", ctx, f.tx, 5).Return(events, nil)
	f.publisher.On("Publish", ctx, DefaultExchange, events[0]).Return(errors.New("channel closed"))

	n, err := f.relay.ProcessBatch(ctx)
	assert.ErrorContains(t, err, "channel closed")
	assert.Zero(t, n)

	f.repo.AssertNotCalled(t, "MarkPublished", mock.Anything, mock.Anything, mock.Anything)
	f.tx.AssertNotCalled(t, "Commit", mock.Anything)
	f.tx.AssertCalled(t, "Rollback", ctx)
}

func TestOutboxRelay_ProcessBatch_MarkFailureDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	f := newRelayFixture()

	events := pendingEvents("item.created")
	f.repo.On("PendingEvents", ctx, f.tx, 5).Return(events, nil)
	f.publisher.On("Publish", ctx, DefaultExchange, events[0]).Return(nil)
	f.repo.On("MarkPublished", ctx, f.tx, ids(events)).Return(errors.New("lock timeout"))

	_, err := f.relay.ProcessBatch(ctx)
	assert.ErrorContains(t, err, "lock timeout")
	f.tx.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestOutboxRelay_ProcessBatch_BeginFailure(t *testing.T) {
	ctx := context.Background()
	txManager := new(MockTxManager)
	txManager.On("BeginTx", ctx).Return(nil, errors.New("pool closed"))

	relay := NewOutboxRelay(new(MockOutboxRepository), new(MockPublisher), txManager, 5, 0, DefaultExchange, logger.NewNop())

	_, err := relay.ProcessBatch(ctx)
	assert.ErrorContains(t, err, "failed to begin transaction")
}
