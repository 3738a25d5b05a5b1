package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/grownby/internal/backend"
	"github.com/stwalsh4118/grownby/internal/backend/memory"
	"github.com/stwalsh4118/grownby/internal/logger"
)

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValue()
	store := NewStore(kv, logger.Nop())

	_, ok := store.Exists(ctx)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "ann@example.com"))
	raw, _, err := kv.Get(ctx, Key)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", raw)

	email, ok := store.Exists(ctx)
	assert.True(t, ok)
	assert.Equal(t, "ann@example.com", email)

	require.NoError(t, store.Clear(ctx))
	_, ok = store.Exists(ctx)
	assert.False(t, ok)
}

func TestStore_EmptyValueIsNoSession(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValue()
	require.NoError(t, kv.Set(ctx, Key, ""))

	_, ok, err := NewStore(kv, nil).Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_StorageFailureFailsOpen(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValue()
	require.NoError(t, kv.Set(ctx, Key, "ann@example.com"))
	kv.SetFailure(errors.New("disk gone"))
	store := NewStore(kv, logger.Nop())

	_, _, err := store.Get(ctx)
	assert.ErrorIs(t, err, backend.ErrStorageUnavailable)

	_, ok := store.Exists(ctx)
	assert.False(t, ok)

	assert.ErrorIs(t, store.Set(ctx, "bob@example.com"), backend.ErrStorageUnavailable)
}
