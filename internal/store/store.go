// Package store provides SQLite-backed persistence for sir state.
//
// The database at .sir/sir.db holds JSON documents in a key/value table under
// fixed keys, mirroring the single-slot storage model of the incident form:
// one in-progress draft, one history collection, the session gate flag, and
// the recent search terms. Each key has exactly one logical owner, so no
// locking beyond SQLite's own is needed.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Fixed storage keys.
const (
	KeyDraft              = "draft"
	KeyHistory            = "history"
	KeyHistoryInitialized = "history_initialized"
	KeySession            = "session"
	KeyRecentSearches     = "recent_searches"
)

// schemaSQL defines the SQLite schema. A single key/value table of JSON
// documents keeps the storage model identical to the form's original
// fixed-key layout.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// Store manages the .sir/sir.db database.
type Store struct {
	db     *sql.DB
	dbPath string
	nowFn  func() time.Time
}

// Open opens or creates the store database in the given .sir directory,
// creating the directory if needed and initializing the schema.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sir.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath, nowFn: time.Now}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// SetNow overrides the store's clock. Intended for tests.
func (s *Store) SetNow(fn func() time.Time) {
	s.nowFn = fn
}

// Get retrieves the raw JSON document stored under key.
// Returns sql.ErrNoRows if the key is absent.
func (s *Store) Get(key string) ([]byte, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), nil
}

// Set stores a raw JSON document under key, replacing any previous value.
func (s *Store) Set(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)`,
		key, string(value), s.nowFn().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes the document stored under key. Deleting an absent key is
// not an error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Has reports whether a document exists under key.
func (s *Store) Has(key string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM kv WHERE key = ?", key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", key, err)
	}
	return n > 0, nil
}
