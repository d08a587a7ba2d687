package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeItem() *Item {
	return &Item{
		Key:         1,
		Description: "desc",
		IsActive:    true,
		Bidders:     []Identity{},
		Owner:       "owner",
	}
}

func TestValidateBidAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  uint32
		wantErr error
	}{
		{name: "zero is rejected", amount: 0, wantErr: ErrInvalidAmount},
		{name: "smallest positive bid", amount: 1, wantErr: nil},
		{name: "largest bid", amount: ^uint32(0), wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBidAmount(tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPlaceBid(t *testing.T) {
	tests := []struct {
		name        string
		leading     uint32
		amount      uint32
		wantBid     uint32
		wantLeader  Identity
		wantBidders []Identity
	}{
		{
			name:        "first bid takes the lead",
			leading:     0,
			amount:      10,
			wantBid:     10,
			wantLeader:  "alice",
			wantBidders: []Identity{"alice"},
		},
		{
			name:        "higher bid takes the lead",
			leading:     10,
			amount:      11,
			wantBid:     11,
			wantLeader:  "alice",
			wantBidders: []Identity{"alice"},
		},
		{
			name:        "tie keeps the leader",
			leading:     10,
			amount:      10,
			wantBid:     10,
			wantLeader:  "bob",
			wantBidders: []Identity{"alice"},
		},
		{
			name:        "lower bid is recorded but does not lead",
			leading:     10,
			amount:      5,
			wantBid:     10,
			wantLeader:  "bob",
			wantBidders: []Identity{"alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := activeItem()
			current.CurrentHighestBid = tt.leading
			if tt.leading > 0 {
				current.CurrentHighestBidder = "bob"
			}

			next, err := placeBid(current, "alice", tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBid, next.CurrentHighestBid)
			assert.Equal(t, tt.wantLeader, next.CurrentHighestBidder)
			assert.Equal(t, tt.wantBidders, next.Bidders)

			// the input record is never mutated
			assert.Empty(t, current.Bidders)
			assert.Equal(t, tt.leading, current.CurrentHighestBid)
		})
	}
}

func TestPlaceBid_Failures(t *testing.T) {
	_, err := placeBid(nil, "alice", 10)
	assert.ErrorIs(t, err, ErrNoSuchItem)

	inactive := activeItem()
	inactive.IsActive = false
	_, err = placeBid(inactive, "alice", 10)
	assert.ErrorIs(t, err, ErrItemIsNotActive)
}

func TestPlaceBid_OwnerMayBid(t *testing.T) {
	next, err := placeBid(activeItem(), "owner", 3)
	require.NoError(t, err)
	assert.Equal(t, Identity("owner"), next.CurrentHighestBidder)
}

func TestEditItem(t *testing.T) {
	current := activeItem()
	current.CurrentHighestBid = 20
	current.CurrentHighestBidder = "carol"
	current.Bidders = []Identity{"alice", "carol"}

	next, err := editItem(current, "owner", ItemInput{Description: "new", IsActive: false})
	require.NoError(t, err)
	assert.Equal(t, "new", next.Description)
	assert.False(t, next.IsActive)
	assert.Equal(t, uint32(20), next.CurrentHighestBid)
	assert.Equal(t, Identity("carol"), next.CurrentHighestBidder)
	assert.Equal(t, []Identity{"alice", "carol"}, next.Bidders)
	assert.Equal(t, Identity("owner"), next.Owner)

	_, err = editItem(current, "mallory", ItemInput{Description: "x"})
	assert.ErrorIs(t, err, ErrAccessRejected)

	_, err = editItem(nil, "owner", ItemInput{})
	assert.ErrorIs(t, err, ErrNoSuchItem)
}

func TestEndItem(t *testing.T) {
	current := activeItem()
	current.CurrentHighestBid = 20
	current.CurrentHighestBidder = "carol"
	current.Bidders = []Identity{"alice", "bob", "carol"}

	next, err := endItem(current, "owner")
	require.NoError(t, err)
	assert.False(t, next.IsActive)
	assert.Equal(t, Identity("carol"), next.Owner)
	assert.Zero(t, next.CurrentHighestBid)
	assert.True(t, next.CurrentHighestBidder.IsZero())
	assert.Empty(t, next.Bidders)
	assert.Equal(t, "desc", next.Description)

	_, err = endItem(current, "carol")
	assert.ErrorIs(t, err, ErrAccessRejected)

	_, err = endItem(nil, "owner")
	assert.ErrorIs(t, err, ErrNoSuchItem)
}

func TestEndItem_WithoutBidsLeavesItemOwnerless(t *testing.T) {
	next, err := endItem(activeItem(), "owner")
	require.NoError(t, err)
	assert.True(t, next.Owner.IsZero())

	// nobody can edit or end it afterwards
	assert.ErrorIs(t, Authorize("owner", next), ErrAccessRejected)
	assert.ErrorIs(t, Authorize("", next), ErrAccessRejected)
}

func TestAuthorize(t *testing.T) {
	item := &Item{Owner: "alice"}

	tests := []struct {
		name    string
		caller  Identity
		wantErr error
	}{
		{name: "owner", caller: "alice", wantErr: nil},
		{name: "someone else", caller: "bob", wantErr: ErrAccessRejected},
		{name: "anonymous", caller: "", wantErr: ErrAccessRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.caller, item)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAggregates_FirstKeyWinsTies(t *testing.T) {
	items := []*Item{
		{Key: 1, CurrentHighestBid: 5, Bidders: []Identity{"a"}},
		{Key: 2, CurrentHighestBid: 30, Bidders: []Identity{"a", "b", "c"}},
		{Key: 3, CurrentHighestBid: 30, Bidders: []Identity{"a", "b", "c"}},
		{Key: 4, CurrentHighestBid: 7, Bidders: []Identity{"a"}},
	}

	assert.Equal(t, uint64(2), mostExpensive(items).Key)
	assert.Equal(t, uint64(2), mostBidded(items).Key)

	assert.Nil(t, mostExpensive(nil))
	assert.Nil(t, mostBidded(nil))
}

func TestAggregates_AllZeroPicksLowestKey(t *testing.T) {
	items := []*Item{
		{Key: 10, Bidders: []Identity{}},
		{Key: 11, Bidders: []Identity{}},
	}

	assert.Equal(t, uint64(10), mostExpensive(items).Key)
	assert.Equal(t, uint64(10), mostBidded(items).Key)
}
