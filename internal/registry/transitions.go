package registry

// newItem builds a fresh listing owned by its creator
func newItem(key uint64, creator Identity, in ItemInput) *Item {
	return &Item{
		Key:         key,
		Description: in.Description,
		IsActive:    in.IsActive,
		Bidders:     []Identity{},
		Owner:       creator,
	}
}

// editItem rewrites description and active flag. Bid state is carried over.
func editItem(current *Item, caller Identity, in ItemInput) (*Item, error) {
	if current == nil {
		return nil, ErrNoSuchItem
	}
	if err := Authorize(caller, current); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.Description = in.Description
	next.IsActive = in.IsActive
	next.Owner = caller
	return next, nil
}

// endItem closes the auction and hands the item to the leading bidder
func endItem(current *Item, caller Identity) (*Item, error) {
	if current == nil {
		return nil, ErrNoSuchItem
	}
	if err := Authorize(caller, current); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.IsActive = false
	next.Owner = current.CurrentHighestBidder
	next.CurrentHighestBid = 0
	next.CurrentHighestBidder = ""
	next.Bidders = []Identity{}
	return next, nil
}

// placeBid records a bid. Only a strictly higher amount moves the leader;
// every accepted call is appended to the history.
func placeBid(current *Item, caller Identity, amount uint32) (*Item, error) {
	if current == nil {
		return nil, ErrNoSuchItem
	}
	if !current.IsActive {
		return nil, ErrItemIsNotActive
	}

	next := current.Clone()
	if amount > next.CurrentHighestBid {
		next.CurrentHighestBid = amount
		next.CurrentHighestBidder = caller
	}
	next.Bidders = append(next.Bidders, caller)
	return next, nil
}

// validateBidAmount rejects bids that carry no value
func validateBidAmount(amount uint32) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// mostExpensive returns the item with the highest current bid. items must be
// in ascending key order; the first maximum wins.
func mostExpensive(items []*Item) *Item {
	var best *Item
	for _, item := range items {
		if best == nil || item.CurrentHighestBid > best.CurrentHighestBid {
			best = item
		}
	}
	return best
}

// mostBidded returns the item with the longest bid history, first maximum wins
func mostBidded(items []*Item) *Item {
	var best *Item
	for _, item := range items {
		if best == nil || item.BidCount() > best.BidCount() {
			best = item
		}
	}
	return best
}
