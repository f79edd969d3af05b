package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/exporter"
	"github.com/starford/ansuz/internal/extract"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/match"
	"github.com/starford/ansuz/internal/org"
	"github.com/starford/ansuz/internal/storage"
)

// EventPublisher receives notifications about completed export runs.
type EventPublisher interface {
	PublishExportEvent(path string, count int)
}

// Handler holds API route handlers.
type Handler struct {
	docs   storage.Provider
	db     *index.DB
	exp    *exporter.Service
	events EventPublisher // optional
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(docs storage.Provider, db *index.DB, exp *exporter.Service, events EventPublisher) *Handler {
	return &Handler{docs: docs, db: db, exp: exp, events: events}
}

// docPath extracts the document path from the URL (everything after /documents/).
// Supports encoded slashes from OpenAPI clients (e.g. agenda%2Ftasks.org).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// extractOptions builds extraction options from query parameters.
func extractOptions(q url.Values) extract.Options {
	return extract.Options{
		InheritTags:  q.Get("inherit") == "true" || q.Get("inherit") == "1",
		WholeSubtree: q.Get("subtree") == "true" || q.Get("subtree") == "1",
	}
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List indexed documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.ListDocuments()
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	docs := make([]DocumentInfo, 0, len(rows))
	for _, d := range rows {
		docs = append(docs, DocumentInfo{
			Path:      d.Path,
			Checksum:  d.Checksum,
			FileTags:  d.FileTags,
			UpdatedAt: d.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     len(docs),
	})
}

// GetDocumentRecords handles GET /api/documents/*.
//
//	@Summary		Extract records from a single document
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Param			matcher	query		string	false	"Tag match expression"
//	@Param			inherit	query		bool	false	"Inherit ancestor and file tags"
//	@Param			subtree	query		bool	false	"Select whole subtree content"
//	@Success		200		{object}	DocumentRecordsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocumentRecords(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	var m extract.Matcher
	if expr := r.URL.Query().Get("matcher"); expr != "" {
		compiled, err := match.Compile(expr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid matcher: "+err.Error()))
			return
		}
		m = compiled
	}

	data, err := h.docs.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("read document failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	tree := org.Parse(string(data))
	records := []RecordEntry{}
	for id, rec := range extract.Batch(tree, m, extractOptions(r.URL.Query())) {
		records = append(records, RecordEntry{Seq: id.Seq, Slug: id.Slug, Record: rec})
	}
	writeJSON(w, http.StatusOK, DocumentRecordsResponse{Path: path, Records: records})
}

// Extract handles POST /api/extract.
//
//	@Summary		Assemble a record from inline content at a position
//	@Tags			extract
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExtractRequest	true	"Content and position"
//	@Success		200		{object}	extract.Record
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/extract [post]
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	if req.Position < 0 || req.Position > len(req.Content) {
		writeJSON(w, http.StatusBadRequest, errorBody("position out of range"))
		return
	}

	tree := org.Parse(req.Content)
	target := tree.NodeAt(req.Position)
	rec := extract.Assemble(tree, target, extract.Options{
		InheritTags:  req.Inherit,
		WholeSubtree: req.Subtree,
	})
	writeJSON(w, http.StatusOK, rec)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across extracted records
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.db.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Export handles POST /api/export.
//
//	@Summary		Run a batch export for one document
//	@Tags			export
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExportRequest	true	"Export parameters"
//	@Success		200		{object}	ExportResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	opts := exporter.Options{
		Extract: extract.Options{
			InheritTags:  req.Inherit,
			WholeSubtree: req.Subtree,
		},
		Pretty:           req.Pretty,
		FilenameTemplate: req.FilenameTemplate,
	}
	if req.Matcher != "" {
		compiled, err := match.Compile(req.Matcher)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid matcher: "+err.Error()))
			return
		}
		opts.Matcher = compiled
	}

	artifacts, err := h.exp.ExportDocument(req.Path, req.OutPrefix, opts)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("export failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	if h.events != nil {
		h.events.PublishExportEvent(req.Path, len(artifacts))
	}
	writeJSON(w, http.StatusOK, ExportResponse{
		Path:      req.Path,
		Count:     len(artifacts),
		Artifacts: artifacts,
	})
}
