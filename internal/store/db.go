package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotInitialized is returned when the journal tables are missing.
var ErrNotInitialized = errors.New("docksort journal not initialized: run 'docksort organize' or 'docksort watch' first")

// Store provides SQLite database operations for the move journal.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the specified database path.
// Use ":memory:" for in-memory databases (useful for testing).
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool defaults
	db.SetMaxOpenConns(1) // SQLite only allows one writer at a time
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// WAL lets status and history read while a watcher writes.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &Store{db: db}, nil
}

// Open opens the journal at dbPath and creates its schema if needed.
func Open(dbPath string) (*Store, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.CreateSchema(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateSchema creates all tables and indexes.
func (s *Store) CreateSchema() error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// wrapErr annotates err and maps a missing table to ErrNotInitialized.
func wrapErr(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%s: %w", msg, ErrNotInitialized)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
