package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/afero"
	"github.com/stwalsh4118/grownby/internal/blobstore"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/metrics"
	"github.com/stwalsh4118/grownby/internal/models"
	"github.com/stwalsh4118/grownby/internal/repository"
)

// Blob errors.
var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrBlobTooLarge = errors.New("blob too large")
)

// BlobStore holds blob bytes.
type BlobStore interface {
	Put(key string, r io.Reader) (*blobstore.Stored, error)
	Open(key string) (afero.File, int64, error)
	Delete(key string) error
}

// BlobService defines blob upload and download operations.
type BlobService interface {
	// Upload stores r under key and returns its metadata.
	Upload(ctx context.Context, key string, r io.Reader) (*models.Blob, error)

	// Open returns the blob metadata and a reader for its bytes. The caller
	// closes the reader.
	Open(ctx context.Context, key string) (*models.Blob, afero.File, error)

	// DownloadURL is the permanent public URL of the blob at key.
	DownloadURL(key string) string
}

type blobService struct {
	store         BlobStore
	blobs         repository.BlobRepository
	publicBaseURL string
	log           *logger.Logger
}

// NewBlobService creates a new instance of BlobService.
func NewBlobService(store BlobStore, blobs repository.BlobRepository, publicBaseURL string, log *logger.Logger) BlobService {
	return &blobService{
		store:         store,
		blobs:         blobs,
		publicBaseURL: publicBaseURL,
		log:           log.WithComponent("blobs"),
	}
}

func (s *blobService) Upload(ctx context.Context, key string, r io.Reader) (*models.Blob, error) {
	if !models.ValidKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	stored, err := s.store.Put(key, r)
	if err != nil {
		metrics.ObserveBlobUpload(0, err)
		if errors.Is(err, blobstore.ErrTooLarge) {
			return nil, ErrBlobTooLarge
		}
		return nil, fmt.Errorf("failed to store blob: %w", err)
	}

	blob := &models.Blob{
		Key:         stored.Key,
		ContentType: stored.ContentType,
		Size:        stored.Size,
	}
	if err := s.blobs.Save(ctx, blob); err != nil {
		metrics.ObserveBlobUpload(0, err)
		if delErr := s.store.Delete(key); delErr != nil {
			s.log.Error("Failed to remove orphaned blob", delErr, map[string]interface{}{
				"key": key,
			})
		}
		return nil, fmt.Errorf("failed to record blob: %w", err)
	}

	metrics.ObserveBlobUpload(blob.Size, nil)
	s.log.Info("Blob stored", map[string]interface{}{
		"key":          key,
		"size":         blob.Size,
		"content_type": blob.ContentType,
	})
	return blob, nil
}

func (s *blobService) Open(ctx context.Context, key string) (*models.Blob, afero.File, error) {
	if !models.ValidKey(key) {
		return nil, nil, ErrBlobNotFound
	}

	blob, err := s.blobs.FindByKey(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up blob: %w", err)
	}
	if blob == nil {
		return nil, nil, ErrBlobNotFound
	}

	f, _, err := s.store.Open(key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return blob, f, nil
}

func (s *blobService) DownloadURL(key string) string {
	return s.publicBaseURL + "/blobs/" + url.PathEscape(key)
}
