// Package kv is the device-local key/value slot, stored in SQLite.
package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stwalsh4118/grownby/internal/backend"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Store implements backend.KeyValue. Every failure wraps
// backend.ErrStorageUnavailable.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, unavailable("create data dir", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable("open", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, unavailable("create schema", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get "+key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return unavailable("set "+key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return unavailable("remove "+key, err)
	}
	return nil
}

// Unavailable stands in for a store that could not be opened. Every call
// fails with an error wrapping backend.ErrStorageUnavailable.
type Unavailable struct {
	Err error
}

func (u Unavailable) Get(context.Context, string) (string, bool, error) {
	return "", false, u.fail("get")
}

func (u Unavailable) Set(context.Context, string, string) error {
	return u.fail("set")
}

func (u Unavailable) Remove(context.Context, string) error {
	return u.fail("remove")
}

func (u Unavailable) fail(op string) error {
	if errors.Is(u.Err, backend.ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w", op, u.Err)
	}
	return unavailable(op, u.Err)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", backend.ErrStorageUnavailable, op, err)
}
