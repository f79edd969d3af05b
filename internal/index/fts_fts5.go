//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
			doc_path UNINDEXED,
			seq UNINDEXED,
			slug,
			title,
			content,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, docPath string, seq int, slug, title, content string, tags []string) error {
	_, err := tx.Exec(`INSERT INTO records_fts (doc_path, seq, slug, title, content, tags) VALUES (?, ?, ?, ?, ?, ?)`,
		docPath, seq, slug, title, content, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDeleteDoc(tx *sql.Tx, docPath string) {
	_, _ = tx.Exec(`DELETE FROM records_fts WHERE doc_path = ?`, docPath)
}

// Search performs an FTS5 full-text search over exported records.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT doc_path,
		       seq,
		       slug,
		       title,
		       snippet(records_fts, 4, '<b>', '</b>', '...', 64)
		FROM records_fts
		WHERE records_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocPath, &r.Seq, &r.Slug, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
