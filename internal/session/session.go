// Package session keeps the persistent "logged in" marker on the device.
package session

import (
	"context"

	"github.com/stwalsh4118/grownby/internal/backend"
	"github.com/stwalsh4118/grownby/internal/logger"
)

// Key is the key/value slot holding the signed-in email.
const Key = "loginStatus"

// Store reads and writes the session marker.
type Store struct {
	kv  backend.KeyValue
	log *logger.Logger
}

// NewStore creates a Store over kv.
func NewStore(kv backend.KeyValue, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{kv: kv, log: log.WithComponent("session")}
}

// Set records email as the signed-in user.
func (s *Store) Set(ctx context.Context, email string) error {
	return s.kv.Set(ctx, Key, email)
}

// Get returns the signed-in email, if any.
func (s *Store) Get(ctx context.Context) (string, bool, error) {
	email, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return "", false, err
	}
	if !ok || email == "" {
		return "", false, nil
	}
	return email, true, nil
}

// Clear removes the marker.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Remove(ctx, Key)
}

// Exists reports whether a session is recorded. A storage failure counts as
// no session, so the user is sent to login.
func (s *Store) Exists(ctx context.Context) (string, bool) {
	email, ok, err := s.Get(ctx)
	if err != nil {
		s.log.Warn("Session marker unreadable, treating as signed out", map[string]interface{}{
			"error": err.Error(),
		})
		return "", false
	}
	return email, ok
}
