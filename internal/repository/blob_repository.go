package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/grownby/internal/database"
	"github.com/stwalsh4118/grownby/internal/models"
)

// BlobRepository stores blob metadata. The bytes live in the blob store.
type BlobRepository interface {
	// Save records or replaces the metadata for blob.Key.
	Save(ctx context.Context, blob *models.Blob) error

	// FindByKey returns nil, nil when no blob has the key.
	FindByKey(ctx context.Context, key string) (*models.Blob, error)
}

type blobRepository struct {
	db *database.Database
}

// NewBlobRepository creates a new instance of BlobRepository.
func NewBlobRepository(db *database.Database) BlobRepository {
	return &blobRepository{db: db}
}

func (r *blobRepository) Save(ctx context.Context, blob *models.Blob) error {
	query := `
		INSERT INTO blobs (key, content_type, size)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET content_type = EXCLUDED.content_type,
		    size = EXCLUDED.size
		RETURNING created_at
	`
	if err := r.db.Pool.QueryRow(ctx, query, blob.Key, blob.ContentType, blob.Size).Scan(&blob.CreatedAt); err != nil {
		return fmt.Errorf("failed to save blob %s: %w", blob.Key, err)
	}
	return nil
}

func (r *blobRepository) FindByKey(ctx context.Context, key string) (*models.Blob, error) {
	query := `
		SELECT key, content_type, size, created_at
		FROM blobs
		WHERE key = $1
	`

	var blob models.Blob
	err := r.db.Pool.QueryRow(ctx, query, key).Scan(
		&blob.Key,
		&blob.ContentType,
		&blob.Size,
		&blob.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query blob %s: %w", key, err)
	}
	return &blob, nil
}
