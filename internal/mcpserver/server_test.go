package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/exporter"
	"github.com/starford/ansuz/internal/extract"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider, *index.DB) {
	t.Helper()

	_, store := testutil.TestDocs(t)
	_, out := testutil.TestDocs(t)
	db := testutil.TestDB(t)

	srv := New(store, db, exporter.NewService(store, out, db))
	return srv, store, db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we invoke
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "search_records":
		result, err = srv.searchRecords(ctx, req)
	case "extract_records":
		result, err = srv.extractRecords(ctx, req)
	case "export_document":
		result, err = srv.exportDocument(ctx, req)
	case "get_record_contract":
		result, err = srv.getRecordContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListAndReadDocument(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("a.org", []byte("* Alpha\n"))
	_ = store.Write("sub/b.org", []byte("* Beta\n"))

	r := callTool(t, srv, "list_documents", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "a.org") || !strings.Contains(text, "sub/b.org") {
		t.Errorf("list = %q", text)
	}

	r = callTool(t, srv, "read_document", map[string]interface{}{"path": "a.org"})
	if resultText(r) != "* Alpha\n" {
		t.Errorf("read = %q", resultText(r))
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]interface{}{"path": "nope.org"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestExtractRecords(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("t.org", []byte("* Inbox :home:\n** TODO Errand :work:\n"))

	r := callTool(t, srv, "extract_records", map[string]interface{}{
		"path":    "t.org",
		"matcher": "work",
		"inherit": true,
	})
	if r.IsError {
		t.Fatalf("extract errored: %s", resultText(r))
	}
	var entries []extract.Entry
	if err := json.Unmarshal([]byte(resultText(r)), &entries); err != nil {
		t.Fatalf("not valid JSON: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].ID.Slug != "Inbox_Errand" {
		t.Errorf("slug = %q", entries[0].ID.Slug)
	}
}

func TestExtractRecords_InvalidMatcher(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("t.org", []byte("* A\n"))

	r := callTool(t, srv, "extract_records", map[string]interface{}{
		"path":    "t.org",
		"matcher": "a||b",
	})
	if !r.IsError {
		t.Error("expected error for malformed matcher")
	}
}

func TestExportDocumentTool(t *testing.T) {
	srv, store, db := testServer(t)
	_ = store.Write("t.org", []byte("* Alpha\nbody\n* Beta\n"))

	r := callTool(t, srv, "export_document", map[string]interface{}{"path": "t.org"})
	if r.IsError {
		t.Fatalf("export errored: %s", resultText(r))
	}
	var artifacts []exporter.Artifact
	if err := json.Unmarshal([]byte(resultText(r)), &artifacts); err != nil {
		t.Fatalf("not valid JSON: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("artifacts = %d, want 2", len(artifacts))
	}
	if artifacts[0].Filename != "000-Alpha.json" {
		t.Errorf("filename = %q", artifacts[0].Filename)
	}

	// Export also indexed the document, so search finds it.
	results, err := db.Search("body", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Slug != "Alpha" {
		t.Errorf("search results = %v", results)
	}
}

func TestGetRecordContract(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_record_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "outline_path") {
		t.Error("contract should describe the record keys")
	}
}
