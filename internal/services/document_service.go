package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/metrics"
	"github.com/stwalsh4118/grownby/internal/models"
	"github.com/stwalsh4118/grownby/internal/repository"
)

// Document errors.
var (
	ErrInvalidCollection = errors.New("invalid collection name")
	ErrInvalidKey        = errors.New("invalid key")
	ErrInvalidDocument   = errors.New("document must be a JSON object")
)

// ChangePublisher is notified after every successful write to a collection.
type ChangePublisher interface {
	Publish(collection string, version int64)
}

// DocumentService defines document store operations.
type DocumentService interface {
	// Put creates or replaces a document and notifies watchers.
	Put(ctx context.Context, collection, key string, data json.RawMessage) (*models.Document, error)

	// GetAll returns the current snapshot of a collection.
	GetAll(ctx context.Context, collection string) (*models.Snapshot, error)

	// NextID allocates the next sequential identifier in a collection.
	NextID(ctx context.Context, collection string) (int64, error)
}

type documentService struct {
	docs      repository.DocumentRepository
	counters  repository.CounterRepository
	publisher ChangePublisher
	log       *logger.Logger
}

// NewDocumentService creates a new instance of DocumentService.
func NewDocumentService(
	docs repository.DocumentRepository,
	counters repository.CounterRepository,
	publisher ChangePublisher,
	log *logger.Logger,
) DocumentService {
	return &documentService{
		docs:      docs,
		counters:  counters,
		publisher: publisher,
		log:       log.WithComponent("documents"),
	}
}

func (s *documentService) Put(ctx context.Context, collection, key string, data json.RawMessage) (*models.Document, error) {
	if !models.ValidCollection(collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	if !models.ValidKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if !isJSONObject(data) {
		return nil, ErrInvalidDocument
	}

	doc, err := s.docs.Put(ctx, collection, key, data)
	metrics.IncDocumentWrite(collection, err)
	if err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}

	s.log.Debug("Document written", map[string]interface{}{
		"collection": collection,
		"key":        key,
		"seq":        doc.Seq,
	})
	if s.publisher != nil {
		s.publisher.Publish(collection, doc.Seq)
	}
	return doc, nil
}

func (s *documentService) GetAll(ctx context.Context, collection string) (*models.Snapshot, error) {
	if !models.ValidCollection(collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}

	snapshot, err := s.docs.GetAll(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}
	return snapshot, nil
}

func (s *documentService) NextID(ctx context.Context, collection string) (int64, error) {
	if !models.ValidCollection(collection) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}

	id, err := s.counters.NextID(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id: %w", err)
	}
	metrics.IncIDAllocation(collection)
	s.log.Debug("Identifier allocated", map[string]interface{}{
		"collection": collection,
		"id":         id,
	})
	return id, nil
}

func isJSONObject(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Valid(trimmed)
}
