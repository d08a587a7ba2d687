package registry

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// MaxRecordSize is the upper bound, in bytes, of one encoded Item record
const MaxRecordSize = 5000

// Identity is the opaque token naming the invoker of a call.
// Owners, bidders and bid history entries all share this type.
type Identity string

// IsZero reports whether the identity is "none"
func (id Identity) IsZero() bool {
	return id == ""
}

// String returns the raw token
func (id Identity) String() string {
	return string(id)
}

// Item represents a biddable record in the registry
type Item struct {
	Key                  uint64
	Description          string
	CurrentHighestBid    uint32
	CurrentHighestBidder Identity
	IsActive             bool
	Bidders              []Identity
	Owner                Identity
}

// Clone returns a deep copy so transitions never alias stored state
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	c.Bidders = slices.Clone(i.Bidders)
	return &c
}

// BidCount returns the number of accepted bid calls since the item was last listed
func (i *Item) BidCount() int {
	return len(i.Bidders)
}

// ItemInput is the transient payload of create and edit calls
type ItemInput struct {
	Description string
	IsActive    bool
}

// CreateItemCommand represents the command to create an item at Key
type CreateItemCommand struct {
	Key    uint64
	Caller Identity
	Input  ItemInput
}

// EditItemCommand represents the command to edit an item's metadata
type EditItemCommand struct {
	Key    uint64
	Caller Identity
	Input  ItemInput
}

// EndItemCommand represents the command to close an auction
type EndItemCommand struct {
	Key    uint64
	Caller Identity
}

// BidCommand represents the command to bid on an item
type BidCommand struct {
	Key    uint64
	Caller Identity
	Amount uint32
}

// EventType represents the type of registry event
type EventType string

const (
	EventTypeItemCreated EventType = "item.created"
	EventTypeItemEdited  EventType = "item.edited"
	EventTypeItemEnded   EventType = "item.ended"
	EventTypeBidPlaced   EventType = "bid.placed"
)

// String returns the string representation of the event type
func (e EventType) String() string {
	return string(e)
}

// IsValid checks if the event type is valid
func (e EventType) IsValid() bool {
	switch e {
	case EventTypeItemCreated, EventTypeItemEdited, EventTypeItemEnded, EventTypeBidPlaced:
		return true
	default:
		return false
	}
}

// Event describes a committed transition. Stores record it in the same
// atomic unit as the item write.
type Event struct {
	ID         uuid.UUID
	Type       EventType
	Key        uint64
	Actor      Identity
	Amount     uint32
	Owner      Identity
	OccurredAt time.Time
}
