// Package backend defines the client contract between the grownby app and
// its backend: identity, documents, blobs and the device key/value slot.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrStorageUnavailable wraps every failure of the device key/value slot.
var ErrStorageUnavailable = errors.New("storage unavailable")

// AuthErrorKind classifies identity failures.
type AuthErrorKind int

const (
	AuthOther AuthErrorKind = iota
	AuthEmailInUse
	AuthInvalidEmail
	AuthWrongPassword
	AuthUserNotFound
)

func (k AuthErrorKind) String() string {
	switch k {
	case AuthEmailInUse:
		return "email-already-in-use"
	case AuthInvalidEmail:
		return "invalid-email"
	case AuthWrongPassword:
		return "wrong-password"
	case AuthUserNotFound:
		return "user-not-found"
	default:
		return "other"
	}
}

// AuthError is returned by Identity operations.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth/%s: %v", e.Kind, e.Err)
	}
	return "auth/" + e.Kind.String()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// AuthErrorKindOf returns the kind of an *AuthError anywhere in err's chain,
// or AuthOther.
func AuthErrorKindOf(err error) AuthErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return AuthOther
}

// Identity is the signed-in user.
type Identity struct {
	UserID string
	Email  string
}

// IdentityService creates accounts and manages the SDK's signed-in session.
type IdentityService interface {
	CreateAccount(ctx context.Context, email, password string) (Identity, error)
	Authenticate(ctx context.Context, email, password string) (Identity, error)
	EndSession(ctx context.Context) error
}

// Document is one record of a collection.
type Document struct {
	Key  string
	Data json.RawMessage
}

// Snapshot is the full content of a collection. Version grows with every
// write, so a larger Version is always the newer state.
type Snapshot struct {
	Documents []Document
	Version   int64
}

// Unsubscribe releases a watch. Once it returns no more callbacks run.
// Calling it more than once is safe; calling it from inside a callback
// deadlocks.
type Unsubscribe func()

// DocumentStore reads and writes JSON documents grouped in collections.
type DocumentStore interface {
	// Put creates or replaces the document at key. record is encoded as JSON.
	Put(ctx context.Context, collection, key string, record any) error

	// GetAll returns every document in the collection.
	GetAll(ctx context.Context, collection string) (Snapshot, error)

	// Watch calls onChange with the full collection now and after every
	// change, until the returned Unsubscribe is called or ctx ends.
	// onError reports a broken feed; no further callbacks follow it.
	Watch(ctx context.Context, collection string, onChange func(Snapshot), onError func(error)) (Unsubscribe, error)

	// NextID atomically allocates the next sequential identifier.
	NextID(ctx context.Context, collection string) (int64, error)
}

// Progress reports bytes sent during an upload.
type Progress struct {
	Transferred int64
	Total       int64
}

// Percent returns the rounded share of bytes sent, 0..100.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return int((p.Transferred*100 + p.Total/2) / p.Total)
}

// BlobStore uploads binary objects.
type BlobStore interface {
	// PutStream uploads size bytes from r under key and returns the
	// permanent public download URL. onProgress may be nil.
	PutStream(ctx context.Context, key string, r io.Reader, size int64, onProgress func(Progress)) (string, error)
}

// KeyValue is the device-local persistent slot.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Client bundles the backend services the app consumes.
type Client struct {
	Identity  IdentityService
	Documents DocumentStore
	Blobs     BlobStore
}
