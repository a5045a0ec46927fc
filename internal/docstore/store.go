package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/starford/folio/internal/apperr"
)

// Row is one stored document. Data is the document JSON; the other columns
// are denormalised from it for lookups, sorting and search.
type Row struct {
	Collection  string
	ID          string
	Handle      string // unique per collection: slug, email or filename
	Title       string
	Status      string
	PublishedAt *time.Time
	Data        json.RawMessage
	Body        string // plain text for search
	Checksum    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Collection string
	ID         string
	Title      string
	Snippet    string
}

const selectColumns = `collection, id, handle, title, status, published_at, data, body, checksum, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*Row, error) {
	var (
		r         Row
		published sql.NullTime
		data      string
	)
	if err := s.Scan(&r.Collection, &r.ID, &r.Handle, &r.Title, &r.Status, &published,
		&data, &r.Body, &r.Checksum, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if published.Valid {
		t := published.Time
		r.PublishedAt = &t
	}
	r.Data = json.RawMessage(data)
	return &r, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// Insert stores a new document. A duplicate id or handle yields
// apperr.ErrAlreadyExists.
func (db *DB) Insert(ctx context.Context, r Row) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("docstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Collection, r.ID, r.Handle, r.Title, r.Status, nullTime(r.PublishedAt),
		string(r.Data), r.Body, r.Checksum, r.CreatedAt.UTC(), r.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("docstore: insert %s/%s: %w", r.Collection, r.ID, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("docstore: insert: %w", err)
	}

	if err := ftsUpsert(ctx, tx, r); err != nil {
		return err
	}
	return tx.Commit()
}

// Update replaces a stored document. When ifChecksum is non-empty it must
// match the stored checksum, otherwise apperr.ErrConflict is returned.
func (db *DB) Update(ctx context.Context, r Row, ifChecksum string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("docstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var current string
	err = tx.QueryRowContext(ctx, `SELECT checksum FROM documents WHERE collection = ? AND id = ?`,
		r.Collection, r.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("docstore: update %s/%s: %w", r.Collection, r.ID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("docstore: update lookup: %w", err)
	}
	if ifChecksum != "" && ifChecksum != current {
		return fmt.Errorf("docstore: update %s/%s: %w", r.Collection, r.ID, apperr.ErrConflict)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE documents SET
			handle       = ?,
			title        = ?,
			status       = ?,
			published_at = ?,
			data         = ?,
			body         = ?,
			checksum     = ?,
			updated_at   = ?
		WHERE collection = ? AND id = ?
	`, r.Handle, r.Title, r.Status, nullTime(r.PublishedAt), string(r.Data), r.Body, r.Checksum,
		r.UpdatedAt.UTC(), r.Collection, r.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("docstore: update %s/%s: %w", r.Collection, r.ID, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("docstore: update: %w", err)
	}

	if err := ftsUpsert(ctx, tx, r); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns one document or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, collection, id string) (*Row, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM documents WHERE collection = ? AND id = ?`, collection, id)
	r, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("docstore: %s/%s: %w", collection, id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: get: %w", err)
	}
	return r, nil
}

// GetByHandle looks a document up by its unique handle.
func (db *DB) GetByHandle(ctx context.Context, collection, handle string) (*Row, error) {
	if handle == "" {
		return nil, fmt.Errorf("docstore: empty handle: %w", apperr.ErrNotFound)
	}
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM documents WHERE collection = ? AND handle = ?`, collection, handle)
	r, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("docstore: %s handle %q: %w", collection, handle, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: get by handle: %w", err)
	}
	return r, nil
}

// GetMany returns the documents found for ids, keyed by id. Missing ids are
// simply absent from the result.
func (db *DB) GetMany(ctx context.Context, collection string, ids []string) (map[string]*Row, error) {
	out := make(map[string]*Row, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, collection)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM documents WHERE collection = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("docstore: get many: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out[r.ID] = r
	}
	return out, rows.Err()
}

// Delete removes a document and its search entry.
func (db *DB) Delete(ctx context.Context, collection, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("docstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("docstore: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, apperr.ErrNotFound)
	}
	ftsDelete(ctx, tx, collection, id)
	return tx.Commit()
}

// Handles maps every non-empty handle in collection to its document id.
func (db *DB) Handles(ctx context.Context, collection string) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT handle, id FROM documents WHERE collection = ? AND handle <> ''`, collection)
	if err != nil {
		return nil, fmt.Errorf("docstore: handles: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var h, id string
		if err := rows.Scan(&h, &id); err != nil {
			return nil, err
		}
		out[h] = id
	}
	return out, rows.Err()
}
