package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/exporter"
	"github.com/starford/ansuz/internal/extract"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/testutil"
)

const apiDoc = `* Inbox :home:
Inbox body.
** TODO Errand :work:
* Plain
`

// recordingPublisher captures export events for assertions.
type recordingPublisher struct {
	paths  []string
	counts []int
}

func (p *recordingPublisher) PublishExportEvent(path string, count int) {
	p.paths = append(p.paths, path)
	p.counts = append(p.counts, count)
}

type testEnv struct {
	docs   storage.Provider
	out    storage.Provider
	db     *index.DB
	events *recordingPublisher
	router http.Handler
}

func newTestEnv(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) *testEnv {
	t.Helper()
	_, docs := testutil.TestDocs(t)
	_, out := testutil.TestDocs(t)
	db := testutil.TestDB(t)
	events := &recordingPublisher{}
	exp := exporter.NewService(docs, out, db)
	router := NewRouter(docs, db, exp, events, authEnabled, token, sseHandler)
	return &testEnv{docs: docs, out: out, db: db, events: events, router: router}
}

func (e *testEnv) seed(t *testing.T, path, content string) {
	t.Helper()
	if err := e.docs.Write(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := index.IndexDocument(e.db, path, []byte(content), extract.Options{InheritTags: true}); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) do(method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestListDocuments(t *testing.T) {
	env := newTestEnv(t, false, "", nil)
	env.seed(t, "tasks.org", apiDoc)
	env.seed(t, "notes/journal.org", "* Entry\n")

	w := env.do(http.MethodGet, "/documents", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if total := resp["total"].(float64); total != 2 {
		t.Errorf("total = %v, want 2", total)
	}
}

func TestGetDocumentRecords(t *testing.T) {
	env := newTestEnv(t, false, "", nil)
	env.seed(t, "tasks.org", apiDoc)

	w := env.do(http.MethodGet, "/documents/tasks.org", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d, body = %s", w.Code, w.Body.String())
	}
	var resp DocumentRecordsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(resp.Records))
	}
	if resp.Records[1].Slug != "Inbox_Errand" {
		t.Errorf("slug = %q", resp.Records[1].Slug)
	}
	if resp.Records[1].Record.Todo == nil || *resp.Records[1].Record.Todo != "TODO" {
		t.Errorf("todo = %v", resp.Records[1].Record.Todo)
	}
}

func TestGetDocumentRecords_Matcher(t *testing.T) {
	env := newTestEnv(t, false, "", nil)
	env.seed(t, "tasks.org", apiDoc)

	w := env.do(http.MethodGet, "/documents/tasks.org?matcher=work&inherit=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	var resp DocumentRecordsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(resp.Records))
	}
	if resp.Records[0].Record.Title == nil || *resp.Records[0].Record.Title != "Errand" {
		t.Errorf("title = %v", resp.Records[0].Record.Title)
	}
}

func TestGetDocumentRecords_InvalidMatcher(t *testing.T) {
	env := newTestEnv(t, false, "", nil)
	env.seed(t, "tasks.org", apiDoc)

	w := env.do(http.MethodGet, "/documents/tasks.org?matcher=a||b", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad matcher = %d, want 400", w.Code)
	}
}

func TestGetDocumentRecords_NotFound(t *testing.T) {
	env := newTestEnv(t, false, "", nil)

	w := env.do(http.MethodGet, "/documents/nope.org", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing doc = %d, want 404", w.Code)
	}
}

func TestExtractEndpoint(t *testing.T) {
	env := newTestEnv(t, false, "", nil)

	content := "* Inbox :home:\nBody text.\n"
	body, _ := json.Marshal(ExtractRequest{
		Content:  content,
		Position: 16, // inside "Body text."
		Inherit:  true,
	})
	w := env.do(http.MethodPost, "/extract", body)
	if w.Code != http.StatusOK {
		t.Fatalf("extract = %d, body = %s", w.Code, w.Body.String())
	}
	var rec extract.Record
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Title == nil || *rec.Title != "Inbox" {
		t.Errorf("title = %v", rec.Title)
	}
	if len(rec.Tags) != 1 || rec.Tags[0] != "home" {
		t.Errorf("tags = %v", rec.Tags)
	}
}

func TestExtractEndpoint_Validation(t *testing.T) {
	env := newTestEnv(t, false, "", nil)

	// Missing content.
	body, _ := json.Marshal(ExtractRequest{Position: 0})
	if w := env.do(http.MethodPost, "/extract", body); w.Code != http.StatusBadRequest {
		t.Errorf("empty content = %d, want 400", w.Code)
	}

	// Position past the end.
	body, _ = json.Marshal(ExtractRequest{Content: "* A\n", Position: 99})
	if w := env.do(http.MethodPost, "/extract", body); w.Code != http.StatusBadRequest {
		t.Errorf("out of range = %d, want 400", w.Code)
	}

	// Invalid JSON.
	if w := env.do(http.MethodPost, "/extract", []byte("{")); w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv(t, false, "", nil)
	env.seed(t, "find.org", "* Target\nuniquetoken here\n")

	w := env.do(http.MethodGet, "/search?q=uniquetoken", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(resp.Results))
	}
	if resp.Results[0].Title != "Target" {
		t.Errorf("title = %q", resp.Results[0].Title)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	env := newTestEnv(t, false, "", nil)

	w := env.do(http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	env := newTestEnv(t, false, "", nil)
	if err := env.docs.Write("tasks.org", []byte(apiDoc)); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(ExportRequest{Path: "tasks.org", OutPrefix: "tasks"})
	w := env.do(http.MethodPost, "/export", body)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ExportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 3 {
		t.Fatalf("count = %d, want 3", resp.Count)
	}
	if _, err := env.out.Read("tasks/000-Inbox.json"); err != nil {
		t.Errorf("artifact missing: %v", err)
	}

	// Export event was published.
	if len(env.events.paths) != 1 || env.events.paths[0] != "tasks.org" || env.events.counts[0] != 3 {
		t.Errorf("events = %v %v", env.events.paths, env.events.counts)
	}
}

func TestExportEndpoint_Errors(t *testing.T) {
	env := newTestEnv(t, false, "", nil)

	body, _ := json.Marshal(ExportRequest{Path: "absent.org"})
	if w := env.do(http.MethodPost, "/export", body); w.Code != http.StatusNotFound {
		t.Errorf("missing doc = %d, want 404", w.Code)
	}

	body, _ = json.Marshal(ExportRequest{})
	if w := env.do(http.MethodPost, "/export", body); w.Code != http.StatusBadRequest {
		t.Errorf("missing path = %d, want 400", w.Code)
	}

	body, _ = json.Marshal(ExportRequest{Path: "x.org", Matcher: "a||b"})
	if w := env.do(http.MethodPost, "/export", body); w.Code != http.StatusBadRequest {
		t.Errorf("bad matcher = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	env := newTestEnv(t, true, "secret123", nil)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	env := newTestEnv(t, true, "secret123", nil)

	w := env.do(http.MethodGet, "/documents", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	env := newTestEnv(t, true, "secret123", nil)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	env := newTestEnv(t, false, "", nil)

	w := env.do(http.MethodGet, "/documents", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func blockingSSEHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	env := newTestEnv(t, true, "secret", blockingSSEHandler())

	w := env.do(http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	env := newTestEnv(t, false, "", blockingSSEHandler())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}
