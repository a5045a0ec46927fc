//go:build sqlite_fts5

package docstore

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			collection UNINDEXED,
			id UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, tx *sql.Tx, r Row) error {
	ftsDelete(ctx, tx, r.Collection, r.ID)
	_, err := tx.ExecContext(ctx, `INSERT INTO documents_fts (collection, id, title, body) VALUES (?, ?, ?, ?)`,
		r.Collection, r.ID, r.Title, r.Body)
	if err != nil {
		return fmt.Errorf("docstore: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(ctx context.Context, tx *sql.Tx, collection, id string) {
	_, _ = tx.ExecContext(ctx, `DELETE FROM documents_fts WHERE collection = ? AND id = ?`, collection, id)
}

// Search performs an FTS5 full-text search and returns matches with snippets.
func (db *DB) Search(ctx context.Context, collection, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT collection,
		       id,
		       title,
		       snippet(documents_fts, 3, '<b>', '</b>', '...', 64)
		FROM documents_fts
		WHERE documents_fts MATCH ? AND collection = ?
		ORDER BY rank
		LIMIT ?
	`, query, collection, limit)
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
