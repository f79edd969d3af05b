package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/exporter"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(docs storage.Provider, db *index.DB, exp *exporter.Service, events EventPublisher, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(docs, db, exp, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents and extraction.
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/*", h.GetDocumentRecords)
	r.Post("/extract", h.Extract)

	// Search.
	r.Get("/search", h.Search)

	// Batch export.
	r.Post("/export", h.Export)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
