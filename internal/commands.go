package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/exporter"
	"github.com/starford/ansuz/internal/extract"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/match"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/org"
	"github.com/starford/ansuz/internal/storage"
)

// openServices builds the storage providers and the SQLite index shared
// by the one-shot commands.
func openServices(cfg *Config) (docs, out storage.Provider, db *index.DB, err error) {
	if err := os.MkdirAll(cfg.Docs.Path, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create docs dir: %w", err)
	}
	if err := os.MkdirAll(cfg.Export.Dir, 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create export dir: %w", err)
	}

	docs, err = storage.NewFS(cfg.Docs.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init docs storage: %w", err)
	}
	out, err = storage.NewFS(cfg.Export.Dir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init export storage: %w", err)
	}
	db, err = index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init index: %w", err)
	}
	return docs, out, db, nil
}

// ExportParams holds the arguments of a one-shot export run.
type ExportParams struct {
	DocPath   string
	OutPrefix string
	Matcher   string
	Pretty    bool
}

// RunExport performs a single batch export and writes the resulting
// artifact list as JSON to w.
func RunExport(cfg *Config, params ExportParams, w io.Writer) error {
	docs, out, db, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := exporter.Options{
		Extract:          extractOptions(cfg),
		Pretty:           params.Pretty || cfg.Export.Pretty,
		FilenameTemplate: cfg.Export.FilenameTemplate,
	}
	if params.Matcher != "" {
		compiled, err := match.Compile(params.Matcher)
		if err != nil {
			return fmt.Errorf("invalid matcher: %w", err)
		}
		opts.Matcher = compiled
	}

	artifacts, err := exporter.NewService(docs, out, db).ExportDocument(params.DocPath, params.OutPrefix, opts)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("document not found: %s", params.DocPath)
		}
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(artifacts)
}

// ExtractParams holds the arguments of a one-shot extraction.
type ExtractParams struct {
	DocPath  string
	Position int
	Inherit  bool
	Subtree  bool
}

// RunExtract assembles the record at a byte position in a document and
// writes it as JSON to w.
func RunExtract(cfg *Config, params ExtractParams, w io.Writer) error {
	docs, _, db, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	data, err := docs.Read(params.DocPath)
	if err != nil {
		return fmt.Errorf("document not found: %s", params.DocPath)
	}
	if params.Position < 0 || params.Position > len(data) {
		return fmt.Errorf("position %d out of range [0, %d]", params.Position, len(data))
	}

	tree := org.Parse(string(data))
	rec := extract.Assemble(tree, tree.NodeAt(params.Position), extract.Options{
		InheritTags:  params.Inherit,
		WholeSubtree: params.Subtree,
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// RunMCP syncs the index and serves the MCP tools over stdio.
func RunMCP(cfg *Config) error {
	docs, out, db, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// MCP talks JSON-RPC on stdout; keep logs on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	if err := index.Sync(db, docs, extractOptions(cfg), logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	srv := mcpserver.New(docs, db, exporter.NewService(docs, out, db))
	return srv.ServeStdio()
}
