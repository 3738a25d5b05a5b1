package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/models"
)

func newTestDocumentService() (DocumentService, *MockDocumentRepository, *MockCounterRepository, *MockPublisher) {
	docs := new(MockDocumentRepository)
	counters := new(MockCounterRepository)
	pub := new(MockPublisher)
	return NewDocumentService(docs, counters, pub, logger.Nop()), docs, counters, pub
}

func TestDocumentPut(t *testing.T) {
	ctx := context.Background()
	data := json.RawMessage(`{"farmId":1,"farmName":"Acres Co"}`)

	t.Run("writes and publishes the new version", func(t *testing.T) {
		svc, docs, _, pub := newTestDocumentService()
		docs.On("Put", ctx, "farms", "1", data).Return(&models.Document{Collection: "farms", Key: "1", Data: data, Seq: 9}, nil)
		pub.On("Publish", "farms", int64(9)).Return()

		doc, err := svc.Put(ctx, "farms", "1", data)
		require.NoError(t, err)
		assert.Equal(t, int64(9), doc.Seq)
		docs.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("failed write publishes nothing", func(t *testing.T) {
		svc, docs, _, pub := newTestDocumentService()
		docs.On("Put", ctx, "farms", "1", data).Return(nil, errors.New("db down"))

		_, err := svc.Put(ctx, "farms", "1", data)
		assert.Error(t, err)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	tests := []struct {
		name       string
		collection string
		key        string
		data       string
		wantErr    error
	}{
		{"bad collection", "Farms!", "1", `{}`, ErrInvalidCollection},
		{"bad key", "farms", "../1", `{}`, ErrInvalidKey},
		{"array body", "farms", "1", `[1,2]`, ErrInvalidDocument},
		{"broken json", "farms", "1", `{"a":`, ErrInvalidDocument},
		{"empty body", "farms", "1", ``, ErrInvalidDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, docs, _, _ := newTestDocumentService()

			_, err := svc.Put(ctx, tt.collection, tt.key, json.RawMessage(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
			docs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDocumentGetAll(t *testing.T) {
	ctx := context.Background()

	t.Run("returns snapshot", func(t *testing.T) {
		svc, docs, _, _ := newTestDocumentService()
		snap := &models.Snapshot{Collection: "farms", Version: 3, Documents: []models.Document{{Key: "1"}}}
		docs.On("GetAll", ctx, "farms").Return(snap, nil)

		got, err := svc.GetAll(ctx, "farms")
		require.NoError(t, err)
		assert.Equal(t, snap, got)
	})

	t.Run("rejects invalid collection", func(t *testing.T) {
		svc, _, _, _ := newTestDocumentService()

		_, err := svc.GetAll(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidCollection)
	})
}

func TestDocumentNextID(t *testing.T) {
	ctx := context.Background()

	t.Run("delegates to allocator", func(t *testing.T) {
		svc, _, counters, _ := newTestDocumentService()
		counters.On("NextID", ctx, "farms").Return(int64(5), nil)

		id, err := svc.NextID(ctx, "farms")
		require.NoError(t, err)
		assert.Equal(t, int64(5), id)
	})

	t.Run("wraps allocator failure", func(t *testing.T) {
		svc, _, counters, _ := newTestDocumentService()
		cause := errors.New("deadlock")
		counters.On("NextID", ctx, "farms").Return(int64(0), cause)

		_, err := svc.NextID(ctx, "farms")
		assert.ErrorIs(t, err, cause)
	})
}
