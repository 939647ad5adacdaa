package api

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes with the given router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")

	datasets := router.PathPrefix("/datasets").Subrouter()
	datasets.Use(h.sessionMiddleware)

	datasets.HandleFunc("", h.HandleListDatasets).Methods("GET")
	datasets.HandleFunc("/{name}/rows", h.HandleRows).Methods("GET")
	datasets.HandleFunc("/{name}/facets/{field}", h.HandleFacet).Methods("GET")
	datasets.HandleFunc("/{name}/export.csv", h.HandleExportCSV).Methods("GET")
	datasets.HandleFunc("/{name}/snapshot", h.HandleSnapshot).Methods("GET")
}
