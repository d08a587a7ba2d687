package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/floroz/gavel-registry/internal/registry"
	pkgevents "github.com/floroz/gavel-registry/pkg/events"
)

func sampleEvent() registry.Event {
	return registry.Event{
		ID:         uuid.New(),
		Type:       registry.EventTypeItemEnded,
		Key:        ^uint64(0),
		Actor:      "alice",
		Amount:     ^uint32(0),
		Owner:      "carol",
		OccurredAt: time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC),
	}
}

func TestMarshalEvent_KeepsFullKeyRange(t *testing.T) {
	e := sampleEvent()

	b, err := MarshalEvent(e)
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(b)
	require.NoError(t, err)
	assert.Equal(t, e, decoded)
}

func TestUnmarshalEvent_Rejects(t *testing.T) {
	valid := func() map[string]any {
		return map[string]any{
			fieldID:         uuid.NewString(),
			fieldType:       "bid.placed",
			fieldKey:        "7",
			fieldOccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		}
	}

	tests := []struct {
		name   string
		mutate func(m map[string]any)
		want   string
	}{
		{name: "bad id", mutate: func(m map[string]any) { m[fieldID] = "nope" }, want: "invalid event id"},
		{name: "unknown type", mutate: func(m map[string]any) { m[fieldType] = "item.deleted" }, want: "unknown event type"},
		{name: "negative key", mutate: func(m map[string]any) { m[fieldKey] = "-1" }, want: "invalid event key"},
		{name: "missing time", mutate: func(m map[string]any) { delete(m, fieldOccurredAt) }, want: "invalid event time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(m)
			s, err := structpb.NewStruct(m)
			require.NoError(t, err)
			b, err := proto.Marshal(s)
			require.NoError(t, err)

			_, err = UnmarshalEvent(b)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestNewOutboxEvent(t *testing.T) {
	e := sampleEvent()

	row, err := NewOutboxEvent(e)
	require.NoError(t, err)
	assert.Equal(t, e.ID, row.ID)
	assert.Equal(t, "item.ended", row.EventType)
	assert.Equal(t, pkgevents.OutboxStatusPending, row.Status)
	assert.Equal(t, e.OccurredAt, row.CreatedAt)
	assert.Equal(t, e.Key, row.ItemKey)
	assert.Nil(t, row.PublishedAt)

	decoded, err := UnmarshalEvent(row.Payload)
	require.NoError(t, err)
	assert.Equal(t, e.Key, decoded.Key)
}
