package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer holding the library-part index.
type Store struct {
	db *sql.DB
}

// NewStore opens a private in-memory database. Every new connection to
// ":memory:" is a fresh database, so the pool is pinned to one connection.
func NewStore() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the part tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS library_parts (
  id              INTEGER PRIMARY KEY,
  root            TEXT NOT NULL UNIQUE,
  name            TEXT NOT NULL,
  guid            TEXT NOT NULL DEFAULT '',
  marker          TEXT NOT NULL,
  workspace_root  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS part_scripts (
  part_id         INTEGER NOT NULL REFERENCES library_parts(id) ON DELETE CASCADE,
  script_type     INTEGER NOT NULL,
  path            TEXT NOT NULL,
  PRIMARY KEY (part_id, script_type)
);

CREATE INDEX IF NOT EXISTS idx_library_parts_name ON library_parts(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_library_parts_guid ON library_parts(guid COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_library_parts_workspace ON library_parts(workspace_root);
`
