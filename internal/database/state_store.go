package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StateStore is a small key/value store for client-local state
type StateStore struct {
	db *sql.DB
}

// OpenStateStore opens the store backed by the database at dbPath
func OpenStateStore(dbPath string) (*StateStore, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	store, err := NewStateStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStateStore wraps an already open database
func NewStateStore(db *sql.DB) (*StateStore, error) {
	if err := EnsureClientSchema(db); err != nil {
		return nil, err
	}
	return &StateStore{db: db}, nil
}

// Get returns the value stored under key. ok is false when the key is absent.
func (s *StateStore) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, "SELECT value FROM client_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (s *StateStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO client_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now()); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *StateStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM client_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying database
func (s *StateStore) Close() error {
	return s.db.Close()
}
