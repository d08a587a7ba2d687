package api

import (
	"net/http"

	"connectrpc.com/connect"
)

// RegistryServiceName is the fully-qualified name of the registry service.
const RegistryServiceName = "registry.v1.RegistryService"

// Procedure paths. Queries are public; updates require a resolved caller.
const (
	GetItemProcedure           = "/" + RegistryServiceName + "/GetItem"
	GetItemCountProcedure      = "/" + RegistryServiceName + "/GetItemCount"
	ListItemsProcedure         = "/" + RegistryServiceName + "/ListItems"
	MostExpensiveItemProcedure = "/" + RegistryServiceName + "/MostExpensiveItem"
	MostBiddedItemProcedure    = "/" + RegistryServiceName + "/MostBiddedItem"
	CreateItemProcedure        = "/" + RegistryServiceName + "/CreateItem"
	EditItemProcedure          = "/" + RegistryServiceName + "/EditItem"
	EndItemProcedure           = "/" + RegistryServiceName + "/EndItem"
	PlaceBidProcedure          = "/" + RegistryServiceName + "/PlaceBid"
)

// NewHandler builds an http.Handler serving every registry procedure and
// returns the path to mount it on. authInterceptor guards update procedures
// only; opts apply to all of them.
func NewHandler(h *RegistryServiceHandler, authInterceptor connect.Interceptor, opts ...connect.HandlerOption) (string, http.Handler) {
	common := append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	guarded := append(append([]connect.HandlerOption{}, common...), connect.WithInterceptors(authInterceptor))

	mux := http.NewServeMux()
	mux.Handle(GetItemProcedure, connect.NewUnaryHandler(GetItemProcedure, h.GetItem, common...))
	mux.Handle(GetItemCountProcedure, connect.NewUnaryHandler(GetItemCountProcedure, h.GetItemCount, common...))
	mux.Handle(ListItemsProcedure, connect.NewUnaryHandler(ListItemsProcedure, h.ListItems, common...))
	mux.Handle(MostExpensiveItemProcedure, connect.NewUnaryHandler(MostExpensiveItemProcedure, h.MostExpensiveItem, common...))
	mux.Handle(MostBiddedItemProcedure, connect.NewUnaryHandler(MostBiddedItemProcedure, h.MostBiddedItem, common...))
	mux.Handle(CreateItemProcedure, connect.NewUnaryHandler(CreateItemProcedure, h.CreateItem, guarded...))
	mux.Handle(EditItemProcedure, connect.NewUnaryHandler(EditItemProcedure, h.EditItem, guarded...))
	mux.Handle(EndItemProcedure, connect.NewUnaryHandler(EndItemProcedure, h.EndItem, guarded...))
	mux.Handle(PlaceBidProcedure, connect.NewUnaryHandler(PlaceBidProcedure, h.PlaceBid, guarded...))

	return "/" + RegistryServiceName + "/", mux
}
