package index

import (
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/extract"
	"github.com/starford/ansuz/internal/org"
	"github.com/starford/ansuz/internal/storage"
)

// Sync walks the documents root and brings the index up to date:
//   - new/changed documents are parsed, extracted, and replaced
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, opts extract.Options, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, m.Path, data, opts); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexDocument parses data, runs a full batch extraction with a nil
// matcher, and replaces the document's records.
func IndexDocument(db *DB, path string, data []byte, opts extract.Options) error {
	tree := org.Parse(string(data))

	var records []RecordRow
	for id, rec := range extract.Batch(tree, nil, opts) {
		records = append(records, recordRow(path, id, rec))
	}

	doc := DocumentRow{
		Path:      path,
		Checksum:  checksum.Sum(data),
		FileTags:  tree.FileTags,
		UpdatedAt: time.Now(),
	}
	return db.ReplaceDocument(doc, records)
}

func recordRow(docPath string, id extract.Identifier, rec *extract.Record) RecordRow {
	row := RecordRow{
		DocPath:     docPath,
		Seq:         id.Seq,
		Slug:        id.Slug,
		Tags:        rec.Tags,
		OutlinePath: rec.OutlinePath,
	}
	if rec.Title != nil {
		row.Title = *rec.Title
	}
	if rec.Todo != nil {
		row.Todo = *rec.Todo
	}
	if rec.Content != nil {
		row.Content = *rec.Content
	}
	return row
}
