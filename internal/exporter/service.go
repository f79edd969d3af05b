// Package exporter renders batch extraction results into JSON artifacts
// on disk and keeps the record index in step.
package exporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/extract"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/org"
	"github.com/starford/ansuz/internal/storage"
)

// DefaultFilenameTemplate formats the zero-padded counter and the slug.
const DefaultFilenameTemplate = "%03d-%s.json"

// Options controls one batch export run.
type Options struct {
	// Matcher selects participating headings; nil selects all.
	Matcher extract.Matcher
	// Extract is threaded into every record assembly.
	Extract extract.Options
	// Pretty indents the JSON output.
	Pretty bool
	// FilenameTemplate is a fmt template applied to (seq, slug).
	// Empty means DefaultFilenameTemplate.
	FilenameTemplate string
}

// Artifact describes one written export file.
type Artifact struct {
	Filename string `json:"filename"`
	Seq      int    `json:"seq"`
	Slug     string `json:"slug"`
}

// Service coordinates document reading, record extraction, artifact
// writing, and indexing.
type Service struct {
	docs storage.Provider
	out  storage.Provider
	db   *index.DB // optional; nil disables indexing
}

// NewService creates a new export service. db may be nil.
func NewService(docs, out storage.Provider, db *index.DB) *Service {
	return &Service{docs: docs, out: out, db: db}
}

// ExportDocument runs a batch export for one document. Artifacts are
// written under outPrefix (relative to the output root, empty for the
// root itself) and the document's records are re-indexed when an index
// is attached.
func (s *Service) ExportDocument(docPath, outPrefix string, opts Options) ([]Artifact, error) {
	data, err := s.docs.Read(docPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	tree := org.Parse(string(data))
	artifacts := []Artifact{}
	for id, rec := range extract.Batch(tree, opts.Matcher, opts.Extract) {
		payload, err := Render(rec, opts.Pretty)
		if err != nil {
			return nil, fmt.Errorf("exporter: render %s seq %d: %w", docPath, id.Seq, err)
		}
		name := Filename(opts.FilenameTemplate, id)
		if outPrefix != "" {
			name = filepath.Join(outPrefix, name)
		}
		if err := s.out.Write(name, payload); err != nil {
			return nil, fmt.Errorf("exporter: write %s: %w", name, err)
		}
		artifacts = append(artifacts, Artifact{Filename: name, Seq: id.Seq, Slug: id.Slug})
	}

	if s.db != nil {
		if err := index.IndexDocument(s.db, docPath, data, opts.Extract); err != nil {
			return nil, fmt.Errorf("exporter: index %s: %w", docPath, err)
		}
	}

	return artifacts, nil
}

// Render serializes a record to JSON.
func Render(rec *extract.Record, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(rec, "", "  ")
	}
	return json.Marshal(rec)
}

// Filename applies the template to an identifier. An empty template
// falls back to DefaultFilenameTemplate.
func Filename(tmpl string, id extract.Identifier) string {
	if tmpl == "" {
		tmpl = DefaultFilenameTemplate
	}
	return fmt.Sprintf(tmpl, id.Seq, id.Slug)
}
