package api

import (
	"context"

	"connectrpc.com/connect"
)

// RegistryServiceClient calls the registry procedures over connect
type RegistryServiceClient struct {
	getItem           *connect.Client[GetItemRequest, GetItemResponse]
	getItemCount      *connect.Client[GetItemCountRequest, GetItemCountResponse]
	listItems         *connect.Client[ListItemsRequest, ListItemsResponse]
	mostExpensiveItem *connect.Client[MostExpensiveItemRequest, GetItemResponse]
	mostBiddedItem    *connect.Client[MostBiddedItemRequest, GetItemResponse]
	createItem        *connect.Client[CreateItemRequest, CreateItemResponse]
	editItem          *connect.Client[EditItemRequest, EditItemResponse]
	endItem           *connect.Client[EndItemRequest, EndItemResponse]
	placeBid          *connect.Client[PlaceBidRequest, PlaceBidResponse]
}

// NewRegistryServiceClient creates a client for the service at baseURL
func NewRegistryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RegistryServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &RegistryServiceClient{
		getItem:           connect.NewClient[GetItemRequest, GetItemResponse](httpClient, baseURL+GetItemProcedure, opts...),
		getItemCount:      connect.NewClient[GetItemCountRequest, GetItemCountResponse](httpClient, baseURL+GetItemCountProcedure, opts...),
		listItems:         connect.NewClient[ListItemsRequest, ListItemsResponse](httpClient, baseURL+ListItemsProcedure, opts...),
		mostExpensiveItem: connect.NewClient[MostExpensiveItemRequest, GetItemResponse](httpClient, baseURL+MostExpensiveItemProcedure, opts...),
		mostBiddedItem:    connect.NewClient[MostBiddedItemRequest, GetItemResponse](httpClient, baseURL+MostBiddedItemProcedure, opts...),
		createItem:        connect.NewClient[CreateItemRequest, CreateItemResponse](httpClient, baseURL+CreateItemProcedure, opts...),
		editItem:          connect.NewClient[EditItemRequest, EditItemResponse](httpClient, baseURL+EditItemProcedure, opts...),
		endItem:           connect.NewClient[EndItemRequest, EndItemResponse](httpClient, baseURL+EndItemProcedure, opts...),
		placeBid:          connect.NewClient[PlaceBidRequest, PlaceBidResponse](httpClient, baseURL+PlaceBidProcedure, opts...),
	}
}

func (c *RegistryServiceClient) GetItem(ctx context.Context, req *connect.Request[GetItemRequest]) (*connect.Response[GetItemResponse], error) {
	return c.getItem.CallUnary(ctx, req)
}

func (c *RegistryServiceClient) GetItemCount(ctx context.Context, req *connect.Request[GetItemCountRequest]) (*connect.Response[GetItemCountResponse], error) {
	return c.getItemCount.CallUnary(ctx, req)
}

func (c *RegistryServiceClient) ListItems(ctx context.Context, req *connect.Request[ListItemsRequest]) (*connect.Response[ListItemsResponse], error) {
	return c.listItems.CallUnary(ctx, req)
}

func (c *RegistryServiceClient) MostExpensiveItem(ctx context.Context, req *connect.Request[MostExpensiveItemRequest]) (*connect.Response[GetItemResponse], error) {
	return c.mostExpensiveItem.CallUnary(ctx, req)
}

func (c *RegistryServiceClient) MostBiddedItem(ctx context.Context, req *connect.Request[MostBiddedItemRequest]) (*connect.Response[GetItemResponse], error) {
	return c.mostBiddedItem.CallUnary(ctx, req)
}

func (c *RegistryServiceClient) CreateItem(ctx context.Context, req *connect.Request[CreateItemRequest]) (*connect.Response[CreateItemResponse], error) {
	return c.createItem.CallUnary(ctx, req)
}

func (c *RegistryServiceClient) EditItem(ctx context.Context, req *connect.Request[EditItemRequest]) (*connect.Response[EditItemResponse], error) {
	return c.editItem.CallUnary(ctx, req)
}

func (c *RegistryServiceClient) EndItem(ctx context.Context, req *connect.Request[EndItemRequest]) (*connect.Response[EndItemResponse], error) {
	return c.endItem.CallUnary(ctx, req)
}

func (c *RegistryServiceClient) PlaceBid(ctx context.Context, req *connect.Request[PlaceBidRequest]) (*connect.Response[PlaceBidResponse], error) {
	return c.placeBid.CallUnary(ctx, req)
}
