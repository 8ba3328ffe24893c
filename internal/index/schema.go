// Package index provides a SQLite-backed search index over case studies with
// optional FTS5 full-text search. Listings never read from it; it only
// answers search queries and change detection.
package index

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS cases (
	slug       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	sector     TEXT NOT NULL DEFAULT '[]',
	category   TEXT NOT NULL DEFAULT '[]',
	role       TEXT NOT NULL DEFAULT '[]',
	body       TEXT NOT NULL DEFAULT '',
	draft      INTEGER NOT NULL DEFAULT 0,
	sort_key   INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cases_sort ON cases(draft, sort_key DESC);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
	sb   sq.StatementBuilderType
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(conn),
	}, nil
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
