// Package warehouse is the record source/sink the core engines are loaded
// from and persisted to (spec.md §6). It is the only package in this module
// that speaks SQL; every other package works in terms of internal/domain
// values. Tables are addressed the way the teacher's internal/database
// addresses its on-disk databases: one *sql.DB, schema applied at startup,
// thin repositories on top.
package warehouse

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, same as the teacher's internal/database

	"github.com/mbicorp/adbid-engine/internal/engineerr"
)

// DB wraps the warehouse connection.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (creating if necessary) the SQLite-backed warehouse at path.
func New(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("warehouse: create data dir: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "<open>", Cause: err}
	}
	if err := conn.Ping(); err != nil {
		return nil, &engineerr.SinkError{Kind: engineerr.SinkRead, Table: "<ping>", Cause: err}
	}

	conn.SetMaxOpenConns(1) // modernc.org/sqlite + WAL: single writer keeps this simple, matches the teacher's ProfileLedger caution
	conn.SetMaxIdleConns(1)

	return &DB{conn: conn, path: path}, nil
}

// Conn exposes the underlying *sql.DB for repositories in this package.
func (db *DB) Conn() *sql.DB { return db.conn }

// Path returns the on-disk file path, used by internal/reliability to back
// up the warehouse.
func (db *DB) Path() string { return db.path }

// Close closes the connection.
func (db *DB) Close() error { return db.conn.Close() }

// Migrate applies the warehouse schema. It is idempotent: every statement is
// CREATE TABLE IF NOT EXISTS / CREATE INDEX IF NOT EXISTS.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return &engineerr.SinkError{Kind: engineerr.SinkWrite, Table: "<schema>", Cause: err}
	}
	return nil
}
