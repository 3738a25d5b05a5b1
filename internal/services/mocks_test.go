package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/grownby/internal/models"
)

// MockUserRepository is a mock implementation of UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) RevokeTokens(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockDocumentRepository is a mock implementation of DocumentRepository for testing
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Put(ctx context.Context, collection, key string, data json.RawMessage) (*models.Document, error) {
	args := m.Called(ctx, collection, key, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentRepository) GetAll(ctx context.Context, collection string) (*models.Snapshot, error) {
	args := m.Called(ctx, collection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Snapshot), args.Error(1)
}

// MockCounterRepository is a mock implementation of CounterRepository for testing
type MockCounterRepository struct {
	mock.Mock
}

func (m *MockCounterRepository) NextID(ctx context.Context, collection string) (int64, error) {
	args := m.Called(ctx, collection)
	return args.Get(0).(int64), args.Error(1)
}

// MockBlobRepository is a mock implementation of BlobRepository for testing
type MockBlobRepository struct {
	mock.Mock
}

func (m *MockBlobRepository) Save(ctx context.Context, blob *models.Blob) error {
	args := m.Called(ctx, blob)
	return args.Error(0)
}

func (m *MockBlobRepository) FindByKey(ctx context.Context, key string) (*models.Blob, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Blob), args.Error(1)
}

// MockPublisher records published changes.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(collection string, version int64) {
	m.Called(collection, version)
}
