// Package events encodes registry events for the outbox and the broker.
package events

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/floroz/gavel-registry/internal/registry"
	pkgevents "github.com/floroz/gavel-registry/pkg/events"
)

// Payload keys. The key travels as a decimal string because a Struct number
// is a float64 and cannot hold every uint64.
const (
	fieldID         = "id"
	fieldType       = "type"
	fieldKey        = "key"
	fieldActor      = "actor"
	fieldAmount     = "amount"
	fieldOwner      = "owner"
	fieldOccurredAt = "occurred_at"
)

// MarshalEvent serializes an event as a protobuf Struct
func MarshalEvent(e registry.Event) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		fieldID:         e.ID.String(),
		fieldType:       e.Type.String(),
		fieldKey:        strconv.FormatUint(e.Key, 10),
		fieldActor:      e.Actor.String(),
		fieldAmount:     float64(e.Amount),
		fieldOwner:      e.Owner.String(),
		fieldOccurredAt: e.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build event payload: %w", err)
	}

	b, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return b, nil
}

// UnmarshalEvent is the inverse of MarshalEvent
func UnmarshalEvent(b []byte) (registry.Event, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return registry.Event{}, fmt.Errorf("failed to unmarshal event payload: %w", err)
	}
	fields := s.GetFields()

	id, err := uuid.Parse(fields[fieldID].GetStringValue())
	if err != nil {
		return registry.Event{}, fmt.Errorf("invalid event id: %w", err)
	}

	eventType := registry.EventType(fields[fieldType].GetStringValue())
	if !eventType.IsValid() {
		return registry.Event{}, fmt.Errorf("unknown event type %q", eventType)
	}

	key, err := strconv.ParseUint(fields[fieldKey].GetStringValue(), 10, 64)
	if err != nil {
		return registry.Event{}, fmt.Errorf("invalid event key: %w", err)
	}

	occurredAt, err := time.Parse(time.RFC3339Nano, fields[fieldOccurredAt].GetStringValue())
	if err != nil {
		return registry.Event{}, fmt.Errorf("invalid event time: %w", err)
	}

	return registry.Event{
		ID:         id,
		Type:       eventType,
		Key:        key,
		Actor:      registry.Identity(fields[fieldActor].GetStringValue()),
		Amount:     uint32(fields[fieldAmount].GetNumberValue()),
		Owner:      registry.Identity(fields[fieldOwner].GetStringValue()),
		OccurredAt: occurredAt,
	}, nil
}

// NewOutboxEvent wraps a registry event into a pending outbox row
func NewOutboxEvent(e registry.Event) (*pkgevents.OutboxEvent, error) {
	payload, err := MarshalEvent(e)
	if err != nil {
		return nil, err
	}
	return &pkgevents.OutboxEvent{
		ID:        e.ID,
		EventType: e.Type.String(),
		ItemKey:   e.Key,
		Payload:   payload,
		Status:    pkgevents.OutboxStatusPending,
		CreatedAt: e.OccurredAt,
	}, nil
}
