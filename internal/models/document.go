package models

import (
	"encoding/json"
	"regexp"
	"time"
)

// collectionPattern restricts collection names to lowercase identifiers such
// as "farms".
var collectionPattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9_]{0,62}$`)

// keyPattern restricts document keys to URL-safe characters.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidCollection reports whether name can be used as a collection name.
func ValidCollection(name string) bool {
	return collectionPattern.MatchString(name)
}

// ValidKey reports whether key can be used as a document key.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// Document is one JSON record in a collection. Seq is drawn from a global
// sequence on every write, so the highest Seq in a collection identifies the
// collection's current state.
type Document struct {
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Collection string          `json:"collection"`
	Key        string          `json:"key"`
	Data       json.RawMessage `json:"data"`
	Seq        int64           `json:"seq"`
}

// Snapshot is the full content of a collection at Version.
type Snapshot struct {
	Collection string     `json:"collection"`
	Documents  []Document `json:"documents"`
	Version    int64      `json:"version"`
}
