package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stwalsh4118/grownby/internal/database"
	"github.com/stwalsh4118/grownby/internal/models"
)

// DocumentRepository defines data access for collection documents.
type DocumentRepository interface {
	// Put creates or replaces the document at (collection, key). Every call
	// draws a fresh seq, so the collection version always advances.
	Put(ctx context.Context, collection, key string, data json.RawMessage) (*models.Document, error)

	// GetAll returns every document in the collection, oldest first, with
	// Version set to the highest seq (0 for an empty collection).
	GetAll(ctx context.Context, collection string) (*models.Snapshot, error)
}

type documentRepository struct {
	db *database.Database
}

// NewDocumentRepository creates a new instance of DocumentRepository.
func NewDocumentRepository(db *database.Database) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Put(ctx context.Context, collection, key string, data json.RawMessage) (*models.Document, error) {
	query := `
		INSERT INTO documents (collection, key, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, key) DO UPDATE
		SET data = EXCLUDED.data,
		    seq = nextval('document_seq'),
		    updated_at = now()
		RETURNING collection, key, data, seq, created_at, updated_at
	`

	var doc models.Document
	var raw []byte
	err := r.db.Pool.QueryRow(ctx, query, collection, key, []byte(data)).Scan(
		&doc.Collection,
		&doc.Key,
		&raw,
		&doc.Seq,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to put document %s/%s: %w", collection, key, err)
	}
	doc.Data = json.RawMessage(raw)
	return &doc, nil
}

func (r *documentRepository) GetAll(ctx context.Context, collection string) (*models.Snapshot, error) {
	query := `
		SELECT collection, key, data, seq, created_at, updated_at
		FROM documents
		WHERE collection = $1
		ORDER BY created_at, key
	`

	rows, err := r.db.Pool.Query(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	defer rows.Close()

	snapshot := &models.Snapshot{
		Collection: collection,
		Documents:  []models.Document{},
	}
	for rows.Next() {
		var doc models.Document
		var raw []byte
		if err := rows.Scan(
			&doc.Collection,
			&doc.Key,
			&raw,
			&doc.Seq,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document in %s: %w", collection, err)
		}
		doc.Data = json.RawMessage(raw)
		if doc.Seq > snapshot.Version {
			snapshot.Version = doc.Seq
		}
		snapshot.Documents = append(snapshot.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection %s: %w", collection, err)
	}

	return snapshot, nil
}
