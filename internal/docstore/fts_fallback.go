//go:build !sqlite_fts5

package docstore

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search falls back to LIKE on documents.body.
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _ Row) error {
	// Body is already stored in the documents table.
	return nil
}

func ftsDelete(_ context.Context, _ *sql.Tx, _, _ string) {}

// Search performs a LIKE-based search over title and body (fallback when
// FTS5 is not compiled in).
func (db *DB) Search(ctx context.Context, collection, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT collection, id, title, substr(body, 1, 200)
		FROM documents
		WHERE collection = ? AND (title LIKE ? OR body LIKE ?)
		ORDER BY updated_at DESC
		LIMIT ?
	`, collection, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("docstore: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Collection, &r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
