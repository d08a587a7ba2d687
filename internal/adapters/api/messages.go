package api

import "github.com/floroz/gavel-registry/internal/registry"

// Keys and counts are uint64 and travel as JSON strings so that clients
// limited to float64 numbers keep them exact.

type Item struct {
	Key                  uint64   `json:"key,string"`
	Description          string   `json:"description"`
	CurrentHighestBid    uint32   `json:"current_highest_bid"`
	CurrentHighestBidder string   `json:"current_highest_bidder,omitempty"`
	IsActive             bool     `json:"is_active"`
	Bidders              []string `json:"bidders"`
	Owner                string   `json:"owner,omitempty"`
}

type GetItemRequest struct {
	Key uint64 `json:"key,string"`
}

type GetItemResponse struct {
	Item *Item `json:"item"`
}

type GetItemCountRequest struct{}

type GetItemCountResponse struct {
	Count uint64 `json:"count,string"`
}

type ListItemsRequest struct{}

type ListItemsResponse struct {
	Items []*Item `json:"items"`
}

type MostExpensiveItemRequest struct{}

type MostBiddedItemRequest struct{}

type CreateItemRequest struct {
	Key         uint64 `json:"key,string"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

type CreateItemResponse struct {
	// Replaced is the record previously stored at the key, if any
	Replaced *Item `json:"replaced,omitempty"`
}

type EditItemRequest struct {
	Key         uint64 `json:"key,string"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

type EditItemResponse struct{}

type EndItemRequest struct {
	Key uint64 `json:"key,string"`
}

type EndItemResponse struct{}

type PlaceBidRequest struct {
	Key    uint64 `json:"key,string"`
	Amount uint32 `json:"amount"`
}

type PlaceBidResponse struct{}

// mapItem converts a domain Item to its wire form
func mapItem(item *registry.Item) *Item {
	if item == nil {
		return nil
	}

	bidders := make([]string, len(item.Bidders))
	for i, b := range item.Bidders {
		bidders[i] = b.String()
	}

	return &Item{
		Key:                  item.Key,
		Description:          item.Description,
		CurrentHighestBid:    item.CurrentHighestBid,
		CurrentHighestBidder: item.CurrentHighestBidder.String(),
		IsActive:             item.IsActive,
		Bidders:              bidders,
		Owner:                item.Owner.String(),
	}
}
