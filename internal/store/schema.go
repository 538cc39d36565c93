// Package store provides the SQLite-backed item, tag and import store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// driverName is go-sqlite3 with the contains_fold scalar function registered
// on every connection.
const driverName = "sqlite3_recall"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("contains_fold", containsFold, true)
		},
	})
}

// containsFold reports (as 0/1) whether needle occurs in haystack ignoring case.
func containsFold(haystack, needle string) int {
	if strings.Contains(strings.ToLower(haystack), strings.ToLower(needle)) {
		return 1
	}
	return 0
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT,
	kind       TEXT NOT NULL CHECK (kind IN ('note', 'link', 'insight')),
	title      TEXT NOT NULL CHECK (title <> ''),
	body       TEXT NOT NULL CHECK (body <> ''),
	source_url TEXT,
	summary    TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_owner_created ON items(owner_id, created_at);

CREATE TABLE IF NOT EXISTS tags (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS item_tags (
	item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	tag_id  TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (item_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_item_tags_tag ON item_tags(tag_id);

CREATE TABLE IF NOT EXISTS imports (
	path     TEXT PRIMARY KEY,
	item_id  TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	checksum TEXT NOT NULL
);
`

// DB wraps a sql.DB with store-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open(driverName, dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
