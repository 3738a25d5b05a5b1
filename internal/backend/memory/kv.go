package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/stwalsh4118/grownby/internal/backend"
)

// KeyValue is an in-memory backend.KeyValue.
type KeyValue struct {
	mu     sync.Mutex
	values map[string]string
	fail   error
}

// NewKeyValue returns an empty key/value slot.
func NewKeyValue() *KeyValue {
	return &KeyValue{values: make(map[string]string)}
}

// SetFailure makes every later call fail with err wrapped as
// backend.ErrStorageUnavailable. A nil err clears it.
func (kv *KeyValue) SetFailure(err error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.fail = err
}

func (kv *KeyValue) Get(_ context.Context, key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.fail != nil {
		return "", false, fmt.Errorf("%w: %v", backend.ErrStorageUnavailable, kv.fail)
	}
	v, ok := kv.values[key]
	return v, ok, nil
}

func (kv *KeyValue) Set(_ context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.fail != nil {
		return fmt.Errorf("%w: %v", backend.ErrStorageUnavailable, kv.fail)
	}
	kv.values[key] = value
	return nil
}

func (kv *KeyValue) Remove(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.fail != nil {
		return fmt.Errorf("%w: %v", backend.ErrStorageUnavailable, kv.fail)
	}
	delete(kv.values, key)
	return nil
}
