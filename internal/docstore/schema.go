// Package docstore is a SQLite-backed JSON document store with optional
// FTS5 full-text search.
package docstore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	collection   TEXT NOT NULL,
	id           TEXT NOT NULL,
	handle       TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	published_at DATETIME,
	data         TEXT NOT NULL DEFAULT '{}',
	body         TEXT NOT NULL DEFAULT '',
	checksum     TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (collection, id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_handle
	ON documents(collection, handle) WHERE handle <> '';
CREATE INDEX IF NOT EXISTS idx_documents_status
	ON documents(collection, status, published_at);
`

// DB wraps a sql.DB with document operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("docstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("docstore: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("docstore: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("docstore: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Ping checks the connection; used by the readiness probe.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
