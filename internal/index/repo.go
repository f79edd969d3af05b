package index

import (
	"encoding/json"
	"fmt"
	"time"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	Checksum  string
	FileTags  []string
	UpdatedAt time.Time
}

// RecordRow represents one exported record in the records table.
type RecordRow struct {
	DocPath     string
	Seq         int
	Slug        string
	Title       string
	Todo        string
	Tags        []string
	OutlinePath []string
	Content     string
}

// SearchResult represents one search hit.
type SearchResult struct {
	DocPath string `json:"doc_path"`
	Seq     int    `json:"seq"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ReplaceDocument upserts the document row and replaces its records and
// FTS entries within a transaction.
func (db *DB) ReplaceDocument(doc DocumentRow, records []RecordRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	filetagsJSON, _ := json.Marshal(nonNil(doc.FileTags))
	_, err = tx.Exec(`
		INSERT INTO documents (path, checksum, filetags, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			filetags   = excluded.filetags,
			updated_at = excluded.updated_at
	`, doc.Path, doc.Checksum, string(filetagsJSON), doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	_, _ = tx.Exec(`DELETE FROM records WHERE doc_path = ?`, doc.Path)
	ftsDeleteDoc(tx, doc.Path)

	if len(records) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO records (doc_path, seq, slug, title, todo, tags, outline_path, content)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare record insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range records {
			tagsJSON, _ := json.Marshal(nonNil(r.Tags))
			pathJSON, _ := json.Marshal(nonNil(r.OutlinePath))
			if _, err := stmt.Exec(doc.Path, r.Seq, r.Slug, r.Title, r.Todo,
				string(tagsJSON), string(pathJSON), r.Content); err != nil {
				return fmt.Errorf("index: insert record: %w", err)
			}
			if err := ftsUpsert(tx, doc.Path, r.Seq, r.Slug, r.Title, r.Content, r.Tags); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document and all its records and FTS entries.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDeleteDoc(tx, path)
	_, _ = tx.Exec(`DELETE FROM records WHERE doc_path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string
// if not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns every indexed document path mapped to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListDocuments returns every indexed document.
func (db *DB) ListDocuments() ([]DocumentRow, error) {
	rows, err := db.conn.Query(`SELECT path, checksum, filetags, updated_at FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var d DocumentRow
		var filetags string
		if err := rows.Scan(&d.Path, &d.Checksum, &filetags, &d.UpdatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(filetags), &d.FileTags)
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListRecords returns a document's records in sequence order.
func (db *DB) ListRecords(docPath string) ([]RecordRow, error) {
	rows, err := db.conn.Query(`
		SELECT doc_path, seq, slug, title, todo, tags, outline_path, content
		FROM records WHERE doc_path = ? ORDER BY seq
	`, docPath)
	if err != nil {
		return nil, fmt.Errorf("index: list records: %w", err)
	}
	defer rows.Close()

	var out []RecordRow
	for rows.Next() {
		var r RecordRow
		var tags, path string
		if err := rows.Scan(&r.DocPath, &r.Seq, &r.Slug, &r.Title, &r.Todo, &tags, &path, &r.Content); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tags), &r.Tags)
		_ = json.Unmarshal([]byte(path), &r.OutlinePath)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
