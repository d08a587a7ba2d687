package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter mounts the registry handler under path and adds a health probe
func NewRouter(path string, handler http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	r.PathPrefix(path).Handler(handler)
	return r
}
