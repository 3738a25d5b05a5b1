// Package memory is an in-process implementation of the backend contract.
// The app uses it in offline mode and the tests use it as a fake with fault
// injection.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stwalsh4118/grownby/internal/backend"
	"github.com/stwalsh4118/grownby/internal/broker"
)

// Operation names accepted by SetFault.
const (
	OpCreateAccount = "createAccount"
	OpAuthenticate  = "authenticate"
	OpEndSession    = "endSession"
	OpPut           = "put"
	OpGetAll        = "getAll"
	OpWatch         = "watch"
	OpNextID        = "nextId"
	OpPutStream     = "putStream"
)

// minPasswordLength matches the server's identity rules.
const minPasswordLength = 6

// uploadChunk is the progress granularity of PutStream.
const uploadChunk = 32 << 10

// BlobURLPrefix prefixes every download URL handed out by Backend.
const BlobURLPrefix = "memory://blobs/"

type account struct {
	id       string
	password string
}

type document struct {
	data json.RawMessage
	seq  int64
	// order is the insertion position; updates keep it.
	order int64
}

// Backend implements backend.IdentityService, backend.DocumentStore and
// backend.BlobStore in memory.
type Backend struct {
	mu       sync.Mutex
	accounts map[string]account
	current  *backend.Identity
	docs     map[string]map[string]*document
	counters map[string]int64
	seq      int64
	inserted int64
	blobs    map[string][]byte
	faults   map[string]error

	changes  *broker.Broker
	validate *validator.Validate
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		accounts: make(map[string]account),
		docs:     make(map[string]map[string]*document),
		counters: make(map[string]int64),
		blobs:    make(map[string][]byte),
		faults:   make(map[string]error),
		changes:  broker.New(),
		validate: validator.New(),
	}
}

// Client returns the backend wired as a backend.Client.
func (b *Backend) Client() *backend.Client {
	return &backend.Client{Identity: b, Documents: b, Blobs: b}
}

// SetFault makes every later call of op fail with err. A nil err clears it.
func (b *Backend) SetFault(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.faults, op)
		return
	}
	b.faults[op] = err
}

func (b *Backend) fault(op string) error {
	return b.faults[op]
}

// CurrentUser returns the signed-in identity, if any.
func (b *Backend) CurrentUser() (backend.Identity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return backend.Identity{}, false
	}
	return *b.current, true
}

// Blob returns the stored bytes of key.
func (b *Backend) Blob(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[key]
	return data, ok
}

// Close ends every open watch.
func (b *Backend) Close() {
	b.changes.Close()
}

func (b *Backend) CreateAccount(ctx context.Context, email, password string) (backend.Identity, error) {
	if err := ctx.Err(); err != nil {
		return backend.Identity{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpCreateAccount); err != nil {
		return backend.Identity{}, err
	}

	email = normalizeEmail(email)
	if b.validate.Var(email, "required,email") != nil {
		return backend.Identity{}, &backend.AuthError{Kind: backend.AuthInvalidEmail}
	}
	if _, exists := b.accounts[email]; exists {
		return backend.Identity{}, &backend.AuthError{Kind: backend.AuthEmailInUse}
	}
	if len(password) < minPasswordLength {
		return backend.Identity{}, &backend.AuthError{Kind: backend.AuthOther, Err: errors.New("weak password")}
	}

	acct := account{id: uuid.NewString(), password: password}
	b.accounts[email] = acct
	b.current = &backend.Identity{UserID: acct.id, Email: email}
	return *b.current, nil
}

func (b *Backend) Authenticate(ctx context.Context, email, password string) (backend.Identity, error) {
	if err := ctx.Err(); err != nil {
		return backend.Identity{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpAuthenticate); err != nil {
		return backend.Identity{}, err
	}

	email = normalizeEmail(email)
	if b.validate.Var(email, "required,email") != nil {
		return backend.Identity{}, &backend.AuthError{Kind: backend.AuthInvalidEmail}
	}
	acct, exists := b.accounts[email]
	if !exists {
		return backend.Identity{}, &backend.AuthError{Kind: backend.AuthUserNotFound}
	}
	if acct.password != password {
		return backend.Identity{}, &backend.AuthError{Kind: backend.AuthWrongPassword}
	}

	b.current = &backend.Identity{UserID: acct.id, Email: email}
	return *b.current, nil
}

func (b *Backend) EndSession(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpEndSession); err != nil {
		return err
	}
	b.current = nil
	return nil
}

func (b *Backend) Put(ctx context.Context, collection, key string, record any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, key, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return fmt.Errorf("document %s/%s must be a JSON object", collection, key)
	}

	b.mu.Lock()
	if err := b.fault(OpPut); err != nil {
		b.mu.Unlock()
		return err
	}
	col, ok := b.docs[collection]
	if !ok {
		col = make(map[string]*document)
		b.docs[collection] = col
	}
	b.seq++
	if existing, ok := col[key]; ok {
		existing.data = data
		existing.seq = b.seq
	} else {
		b.inserted++
		col[key] = &document{data: data, seq: b.seq, order: b.inserted}
	}
	version := b.seq
	b.mu.Unlock()

	b.changes.Publish(collection, version)
	return nil
}

func (b *Backend) GetAll(ctx context.Context, collection string) (backend.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return backend.Snapshot{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpGetAll); err != nil {
		return backend.Snapshot{}, err
	}
	return b.snapshotLocked(collection), nil
}

func (b *Backend) snapshotLocked(collection string) backend.Snapshot {
	col := b.docs[collection]
	keys := make([]string, 0, len(col))
	for k := range col {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return col[keys[i]].order < col[keys[j]].order })

	snap := backend.Snapshot{Documents: make([]backend.Document, 0, len(keys))}
	for _, k := range keys {
		d := col[k]
		snap.Documents = append(snap.Documents, backend.Document{
			Key:  k,
			Data: append(json.RawMessage(nil), d.data...),
		})
		if d.seq > snap.Version {
			snap.Version = d.seq
		}
	}
	return snap
}

func (b *Backend) Watch(ctx context.Context, collection string, onChange func(backend.Snapshot), onError func(error)) (backend.Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	if err := b.fault(OpWatch); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	b.mu.Unlock()

	ch := b.changes.Subscribe(collection)
	if ch == nil {
		return nil, errors.New("backend closed")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer b.changes.Unsubscribe(collection, ch)

		sent := int64(-1)
		deliver := func() bool {
			b.mu.Lock()
			err := b.fault(OpWatch)
			snap := b.snapshotLocked(collection)
			b.mu.Unlock()
			if watchCtx.Err() != nil {
				return false
			}
			if err != nil {
				if onError != nil {
					onError(err)
				}
				return false
			}
			if snap.Version > sent {
				sent = snap.Version
				onChange(snap)
			}
			return true
		}

		if !deliver() {
			return
		}
		for {
			select {
			case <-watchCtx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				if !deliver() {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (b *Backend) NextID(ctx context.Context, collection string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.fault(OpNextID); err != nil {
		return 0, err
	}

	next := b.counters[collection]
	for key := range b.docs[collection] {
		if n, err := strconv.ParseInt(key, 10, 64); err == nil && n > next {
			next = n
		}
	}
	next++
	b.counters[collection] = next
	return next, nil
}

func (b *Backend) PutStream(ctx context.Context, key string, r io.Reader, size int64, onProgress func(backend.Progress)) (string, error) {
	b.mu.Lock()
	err := b.fault(OpPutStream)
	b.mu.Unlock()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	chunk := make([]byte, uploadChunk)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, readErr := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if onProgress != nil {
				onProgress(backend.Progress{Transferred: int64(buf.Len()), Total: size})
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("failed to read upload %s: %w", key, readErr)
		}
	}
	if size >= 0 && int64(buf.Len()) != size {
		return "", fmt.Errorf("upload %s: got %d bytes, expected %d", key, buf.Len(), size)
	}

	b.mu.Lock()
	b.blobs[key] = buf.Bytes()
	b.mu.Unlock()
	return BlobURLPrefix + key, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
