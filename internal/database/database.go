package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultDataDir is used when no data directory is configured
const DefaultDataDir = "data"

// DBPath returns the path to the client database inside dataDir
func DBPath(dataDir string) string {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	return filepath.Join(dataDir, "tripscan.db")
}

// EnsureClientSchema ensures that the client_state table exists.
func EnsureClientSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS client_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating client_state table: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the client database at dbPath
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps :memory: databases shared between calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil && dbPath != ":memory:" {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	_, _ = db.Exec("PRAGMA synchronous=NORMAL")

	return db, nil
}
