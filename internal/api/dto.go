package api

import (
	"time"

	"github.com/starford/ansuz/internal/exporter"
	"github.com/starford/ansuz/internal/extract"
	"github.com/starford/ansuz/internal/index"
)

// DocumentInfo describes one indexed document.
type DocumentInfo struct {
	Path      string    `json:"path" example:"agenda/tasks.org" validate:"required"`
	Checksum  string    `json:"checksum" example:"abc123..." validate:"required"`
	FileTags  []string  `json:"filetags" example:"agenda,work"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordEntry pairs an identifier with its assembled record.
type RecordEntry struct {
	Seq    int             `json:"seq" example:"0" validate:"required"`
	Slug   string          `json:"slug" example:"Inbox_Errand" validate:"required"`
	Record *extract.Record `json:"record" validate:"required"`
}

// DocumentRecordsResponse wraps the records extracted from one document.
type DocumentRecordsResponse struct {
	Path    string        `json:"path" validate:"required"`
	Records []RecordEntry `json:"records" validate:"required"`
}

// ExtractRequest is the request body for ad-hoc extraction from inline content.
type ExtractRequest struct {
	Content  string `json:"content" example:"* Heading :tag:\nBody" validate:"required"`
	Position int    `json:"position" example:"5"`
	Inherit  bool   `json:"inherit"`
	Subtree  bool   `json:"subtree"`
}

// ExportRequest is the request body for a batch export run.
type ExportRequest struct {
	Path             string `json:"path" example:"agenda/tasks.org" validate:"required"`
	OutPrefix        string `json:"out_prefix" example:"tasks"`
	Matcher          string `json:"matcher" example:"work|TODO=DONE"`
	Inherit          bool   `json:"inherit"`
	Subtree          bool   `json:"subtree"`
	Pretty           bool   `json:"pretty"`
	FilenameTemplate string `json:"filename_template" example:"%03d-%s.json"`
}

// ExportResponse wraps the artifacts written by one export run.
type ExportResponse struct {
	Path      string              `json:"path" validate:"required"`
	Count     int                 `json:"count" example:"3" validate:"required"`
	Artifacts []exporter.Artifact `json:"artifacts" validate:"required"`
}

// SearchResult is a single search hit (aliased from the index layer).
type SearchResult = index.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
