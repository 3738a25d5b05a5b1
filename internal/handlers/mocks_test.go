package handlers

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/grownby/internal/models"
	"github.com/stwalsh4118/grownby/internal/services"
)

// MockIdentityService is a mock implementation of IdentityService for testing
type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) CreateAccount(ctx context.Context, email, password string) (*services.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Session), args.Error(1)
}

func (m *MockIdentityService) Authenticate(ctx context.Context, email, password string) (*services.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Session), args.Error(1)
}

func (m *MockIdentityService) EndSession(ctx context.Context, principal *models.Principal) error {
	return m.Called(ctx, principal).Error(0)
}

func (m *MockIdentityService) VerifyToken(ctx context.Context, token string) (*models.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Principal), args.Error(1)
}

// MockDocumentService is a mock implementation of DocumentService for testing
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Put(ctx context.Context, collection, key string, data json.RawMessage) (*models.Document, error) {
	args := m.Called(ctx, collection, key, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentService) GetAll(ctx context.Context, collection string) (*models.Snapshot, error) {
	args := m.Called(ctx, collection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Snapshot), args.Error(1)
}

func (m *MockDocumentService) NextID(ctx context.Context, collection string) (int64, error) {
	args := m.Called(ctx, collection)
	return args.Get(0).(int64), args.Error(1)
}

// MockBlobService is a mock implementation of BlobService for testing
type MockBlobService struct {
	mock.Mock
}

func (m *MockBlobService) Upload(ctx context.Context, key string, r io.Reader) (*models.Blob, error) {
	args := m.Called(ctx, key, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Blob), args.Error(1)
}

func (m *MockBlobService) Open(ctx context.Context, key string) (*models.Blob, afero.File, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Blob), args.Get(1).(afero.File), args.Error(2)
}

func (m *MockBlobService) DownloadURL(key string) string {
	return m.Called(key).String(0)
}
