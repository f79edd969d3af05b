// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ansuz extraction tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/exporter"
	"github.com/starford/ansuz/internal/extract"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/match"
	"github.com/starford/ansuz/internal/org"
	"github.com/starford/ansuz/internal/storage"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	db    *index.DB
	exp   *exporter.Service
}

// New creates a new MCP server with all Ansuz tools registered.
func New(store storage.Provider, db *index.DB, exp *exporter.Service) *Server {
	s := &Server{store: store, db: db, exp: exp}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all outline documents or documents in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full source of an outline document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. agenda/tasks.org)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("search_records",
		mcp.WithDescription("Full-text search through extracted record titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchRecords)

	s.mcp.AddTool(mcp.NewTool("extract_records",
		mcp.WithDescription("Extract structured records from a document's headings. "+
			"Each record follows the canonical record format; read it first via the "+
			"get_record_contract tool or the ansuz://record-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("matcher", mcp.Description("Optional tag match expression (e.g. work|TODO=DONE)")),
		mcp.WithBoolean("inherit", mcp.Description("Inherit ancestor and file tags")),
		mcp.WithBoolean("subtree", mcp.Description("Select the whole subtree as content")),
	), s.extractRecords)

	s.mcp.AddTool(mcp.NewTool("export_document",
		mcp.WithDescription("Run a batch export: write one JSON artifact per matching heading."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("out_prefix", mcp.Description("Optional directory prefix under the export root")),
		mcp.WithString("matcher", mcp.Description("Optional tag match expression")),
	), s.exportDocument)

	s.mcp.AddTool(mcp.NewTool("get_record_contract",
		mcp.WithDescription("Returns the canonical record JSON format. "+
			"Call this before consuming extraction results."),
	), s.getRecordContract)

	// Resource: record format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://record-format", "Record Format",
			mcp.WithResourceDescription("Canonical JSON shape of extracted records."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := req.GetString("folder", "")

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) searchRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) extractRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var m extract.Matcher
	if expr := req.GetString("matcher", ""); expr != "" {
		compiled, compileErr := match.Compile(expr)
		if compileErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid matcher: %v", compileErr)), nil
		}
		m = compiled
	}

	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}

	tree := org.Parse(string(data))
	opts := extract.Options{
		InheritTags:  req.GetBool("inherit", false),
		WholeSubtree: req.GetBool("subtree", false),
	}
	entries := extract.Collect(extract.Batch(tree, m, opts))
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) exportDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := exporter.Options{}
	if expr := req.GetString("matcher", ""); expr != "" {
		compiled, compileErr := match.Compile(expr)
		if compileErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid matcher: %v", compileErr)), nil
		}
		opts.Matcher = compiled
	}

	artifacts, err := s.exp.ExportDocument(path, req.GetString("out_prefix", ""), opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(artifacts, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRecordContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readRecordFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://record-format",
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
