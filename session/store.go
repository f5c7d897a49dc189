package session

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// Schema for the session_state table. Call Store.Init() or apply manually.
const Schema = `
CREATE TABLE IF NOT EXISTS session_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is a small key-value layer over SQLite: one row per key. It is
// the local persistence analog of a browser key-value store, and like
// one it must be treated as attacker-writable: callers validate
// everything they read back.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the session database at path.
// Use ":memory:" for tests.
func Open(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path)
}

// NewStore creates a store backed by the given database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the session_state table if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}

// Get returns the value for key, and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set writes the value for key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO session_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Delete removes the key if present.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM session_state WHERE key = ?`, key)
	return err
}
