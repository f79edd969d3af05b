package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/extract"
	"github.com/starford/ansuz/internal/storage"
)

// watcherTestEnv sets up a docs dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	docsDir := t.TempDir()
	store, err := storage.NewFS(docsDir)
	if err != nil {
		t.Fatal(err)
	}
	return docsDir, store, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewDocumentIndexed(t *testing.T) {
	docsDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, docsDir, extract.Options{}, discard(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	// Give the watcher a moment to register the root.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(docsDir, "new.org"), []byte("* Fresh heading\nbody\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		recs, err := db.ListRecords("new.org")
		return err == nil && len(recs) == 1
	}, "new document was not indexed")

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) > 0
	}, "no watcher event delivered")
}

func TestWatcher_RemovedDocumentDeleted(t *testing.T) {
	docsDir, store, db := watcherTestEnv(t)
	_ = store.Write("doomed.org", []byte("* Doomed\n"))
	if err := Sync(db, store, extract.Options{}, discard()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, docsDir, extract.Options{}, discard(), nil)
	time.Sleep(100 * time.Millisecond)

	if err := os.Remove(filepath.Join(docsDir, "doomed.org")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("doomed.org")
		return cs == ""
	}, "removed document was not deleted from index")
}
