package index

import (
	"io"
	"log/slog"
	"testing"

	"github.com/starford/ansuz/internal/extract"
	"github.com/starford/ansuz/internal/storage"
)

func syncTestEnv(t *testing.T) (storage.Provider, *DB) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store, testDB(t)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSync_IndexesNewDocuments(t *testing.T) {
	store, db := syncTestEnv(t)
	_ = store.Write("tasks.org", []byte("* Inbox :home:\nSome text.\n** TODO Errand\n"))

	if err := Sync(db, store, extract.Options{InheritTags: true}, discard()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	recs, err := db.ListRecords("tasks.org")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].Slug != "Inbox" || recs[1].Slug != "Inbox_Errand" {
		t.Errorf("slugs = %q, %q", recs[0].Slug, recs[1].Slug)
	}
	if recs[1].Todo != "TODO" {
		t.Errorf("todo = %q", recs[1].Todo)
	}
	// Inherited tag made it into the index.
	if len(recs[1].Tags) != 1 || recs[1].Tags[0] != "home" {
		t.Errorf("tags = %v", recs[1].Tags)
	}
}

func TestSync_SkipsUnchangedAndRemovesStale(t *testing.T) {
	store, db := syncTestEnv(t)
	_ = store.Write("keep.org", []byte("* Keep\n"))
	_ = store.Write("gone.org", []byte("* Gone\n"))

	if err := Sync(db, store, extract.Options{}, discard()); err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	if err := store.Delete("gone.org"); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, store, extract.Options{}, discard()); err != nil {
		t.Fatalf("second Sync: %v", err)
	}

	if cs, _ := db.GetChecksum("gone.org"); cs != "" {
		t.Error("stale document should be removed from index")
	}
	if cs, _ := db.GetChecksum("keep.org"); cs == "" {
		t.Error("unchanged document should stay indexed")
	}
}

func TestSync_FileTagsStored(t *testing.T) {
	store, db := syncTestEnv(t)
	_ = store.Write("d.org", []byte("#+FILETAGS: :alpha:beta:\n* H\n"))

	if err := Sync(db, store, extract.Options{}, discard()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	docs, err := db.ListDocuments()
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("docs = %d", len(docs))
	}
	if len(docs[0].FileTags) != 2 || docs[0].FileTags[0] != "alpha" {
		t.Errorf("filetags = %v", docs[0].FileTags)
	}
}
