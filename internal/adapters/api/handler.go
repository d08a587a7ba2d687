package api

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/floroz/gavel-registry/internal/registry"
	"github.com/floroz/gavel-registry/pkg/auth"
)

type RegistryServiceHandler struct {
	service *registry.Service
}

func NewRegistryServiceHandler(service *registry.Service) *RegistryServiceHandler {
	return &RegistryServiceHandler{service: service}
}

// caller returns the identity resolved by the auth interceptor
func caller(ctx context.Context) (registry.Identity, error) {
	id, ok := auth.CallerFromContext(ctx)
	if !ok {
		return "", connect.NewError(connect.CodeUnauthenticated, errors.New("caller identity missing"))
	}
	return registry.Identity(id), nil
}

// GetItem retrieves an item by key
func (h *RegistryServiceHandler) GetItem(
	ctx context.Context,
	req *connect.Request[GetItemRequest],
) (*connect.Response[GetItemResponse], error) {
	item, err := h.service.GetItem(ctx, req.Msg.Key)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetItemResponse{Item: mapItem(item)}), nil
}

func (h *RegistryServiceHandler) GetItemCount(
	ctx context.Context,
	_ *connect.Request[GetItemCountRequest],
) (*connect.Response[GetItemCountResponse], error) {
	n, err := h.service.ItemCount(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetItemCountResponse{Count: n}), nil
}

// ListItems returns every item in ascending key order
func (h *RegistryServiceHandler) ListItems(
	ctx context.Context,
	_ *connect.Request[ListItemsRequest],
) (*connect.Response[ListItemsResponse], error) {
	itemList, err := h.service.ListItems(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	items := make([]*Item, len(itemList))
	for i, item := range itemList {
		items[i] = mapItem(item)
	}
	return connect.NewResponse(&ListItemsResponse{Items: items}), nil
}

func (h *RegistryServiceHandler) MostExpensiveItem(
	ctx context.Context,
	_ *connect.Request[MostExpensiveItemRequest],
) (*connect.Response[GetItemResponse], error) {
	item, err := h.service.MostExpensiveItem(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetItemResponse{Item: mapItem(item)}), nil
}

func (h *RegistryServiceHandler) MostBiddedItem(
	ctx context.Context,
	_ *connect.Request[MostBiddedItemRequest],
) (*connect.Response[GetItemResponse], error) {
	item, err := h.service.MostBiddedItem(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetItemResponse{Item: mapItem(item)}), nil
}

// CreateItem lists a new item owned by the caller
func (h *RegistryServiceHandler) CreateItem(
	ctx context.Context,
	req *connect.Request[CreateItemRequest],
) (*connect.Response[CreateItemResponse], error) {
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	prev, err := h.service.CreateItem(ctx, registry.CreateItemCommand{
		Key:    req.Msg.Key,
		Caller: who,
		Input: registry.ItemInput{
			Description: req.Msg.Description,
			IsActive:    req.Msg.IsActive,
		},
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateItemResponse{Replaced: mapItem(prev)}), nil
}

// EditItem updates description and active flag; owner only
func (h *RegistryServiceHandler) EditItem(
	ctx context.Context,
	req *connect.Request[EditItemRequest],
) (*connect.Response[EditItemResponse], error) {
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	err = h.service.EditItem(ctx, registry.EditItemCommand{
		Key:    req.Msg.Key,
		Caller: who,
		Input: registry.ItemInput{
			Description: req.Msg.Description,
			IsActive:    req.Msg.IsActive,
		},
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&EditItemResponse{}), nil
}

// EndItem closes the auction and hands the item to the leading bidder; owner only
func (h *RegistryServiceHandler) EndItem(
	ctx context.Context,
	req *connect.Request[EndItemRequest],
) (*connect.Response[EndItemResponse], error) {
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.service.EndItem(ctx, registry.EndItemCommand{Key: req.Msg.Key, Caller: who}); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&EndItemResponse{}), nil
}

func (h *RegistryServiceHandler) PlaceBid(
	ctx context.Context,
	req *connect.Request[PlaceBidRequest],
) (*connect.Response[PlaceBidResponse], error) {
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	err = h.service.Bid(ctx, registry.BidCommand{
		Key:    req.Msg.Key,
		Caller: who,
		Amount: req.Msg.Amount,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&PlaceBidResponse{}), nil
}
