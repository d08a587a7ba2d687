// Package codec encodes registry items in protobuf wire format.
//
// Field numbers are stable; new fields must take new numbers. Unknown fields
// are skipped on decode so older binaries can read newer records.
package codec

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/floroz/gavel-registry/internal/registry"
)

const (
	fieldDescription          protowire.Number = 1
	fieldCurrentHighestBid    protowire.Number = 2
	fieldCurrentHighestBidder protowire.Number = 3
	fieldIsActive             protowire.Number = 4
	fieldBidders              protowire.Number = 5
	fieldOwner                protowire.Number = 6
)

// ErrMalformedRecord is returned when stored bytes are not a valid item
var ErrMalformedRecord = errors.New("malformed item record")

// Encode serializes item. It fails with registry.ErrRecordTooLarge when the
// result does not fit registry.MaxRecordSize.
func Encode(item *registry.Item) ([]byte, error) {
	var b []byte
	if item.Description != "" {
		b = protowire.AppendTag(b, fieldDescription, protowire.BytesType)
		b = protowire.AppendString(b, item.Description)
	}
	if item.CurrentHighestBid != 0 {
		b = protowire.AppendTag(b, fieldCurrentHighestBid, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(item.CurrentHighestBid))
	}
	if !item.CurrentHighestBidder.IsZero() {
		b = protowire.AppendTag(b, fieldCurrentHighestBidder, protowire.BytesType)
		b = protowire.AppendString(b, item.CurrentHighestBidder.String())
	}
	if item.IsActive {
		b = protowire.AppendTag(b, fieldIsActive, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	for _, bidder := range item.Bidders {
		b = protowire.AppendTag(b, fieldBidders, protowire.BytesType)
		b = protowire.AppendString(b, bidder.String())
	}
	if !item.Owner.IsZero() {
		b = protowire.AppendTag(b, fieldOwner, protowire.BytesType)
		b = protowire.AppendString(b, item.Owner.String())
	}

	if len(b) > registry.MaxRecordSize {
		return nil, fmt.Errorf("%w: item %d is %d bytes", registry.ErrRecordTooLarge, item.Key, len(b))
	}
	return b, nil
}

// Decode parses a record stored under key
func Decode(key uint64, b []byte) (*registry.Item, error) {
	item := &registry.Item{
		Key:     key,
		Bidders: []registry.Identity{},
	}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldDescription && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fieldError(num, m)
			}
			item.Description = v
			n = m
		case num == fieldCurrentHighestBid && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fieldError(num, m)
			}
			if v > math.MaxUint32 {
				return nil, fmt.Errorf("%w: bid %d overflows uint32", ErrMalformedRecord, v)
			}
			item.CurrentHighestBid = uint32(v)
			n = m
		case num == fieldCurrentHighestBidder && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fieldError(num, m)
			}
			item.CurrentHighestBidder = registry.Identity(v)
			n = m
		case num == fieldIsActive && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fieldError(num, m)
			}
			item.IsActive = protowire.DecodeBool(v)
			n = m
		case num == fieldBidders && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fieldError(num, m)
			}
			item.Bidders = append(item.Bidders, registry.Identity(v))
			n = m
		case num == fieldOwner && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fieldError(num, m)
			}
			item.Owner = registry.Identity(v)
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fieldError(num, n)
			}
		}
		b = b[n:]
	}

	return item, nil
}

// MustDecode decodes a stored record and panics if it is corrupt. Stores use
// it on every read: undecodable bytes mean the store itself is damaged.
func MustDecode(key uint64, b []byte) *registry.Item {
	item, err := Decode(key, b)
	if err != nil {
		panic(fmt.Sprintf("registry store corrupted at key %d: %v", key, err))
	}
	return item
}

func fieldError(num protowire.Number, n int) error {
	return fmt.Errorf("%w: field %d: %v", ErrMalformedRecord, num, protowire.ParseError(n))
}
