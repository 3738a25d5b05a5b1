package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/grownby/internal/database"
)

// CounterRepository hands out sequential identifiers per collection.
type CounterRepository interface {
	// NextID returns max(last allocated, largest numeric document key) + 1.
	// Concurrent callers never receive the same value.
	NextID(ctx context.Context, collection string) (int64, error)
}

type counterRepository struct {
	db *database.Database
}

// NewCounterRepository creates a new instance of CounterRepository.
func NewCounterRepository(db *database.Database) CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) NextID(ctx context.Context, collection string) (int64, error) {
	var next int64
	err := r.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO counters (collection, value) VALUES ($1, 0) ON CONFLICT (collection) DO NOTHING`,
			collection,
		); err != nil {
			return fmt.Errorf("failed to seed counter: %w", err)
		}

		// The row lock serializes allocators for this collection until commit.
		var last int64
		if err := tx.QueryRow(ctx,
			`SELECT value FROM counters WHERE collection = $1 FOR UPDATE`,
			collection,
		).Scan(&last); err != nil {
			return fmt.Errorf("failed to lock counter: %w", err)
		}

		// Documents written without the allocator still push the counter.
		var maxKey int64
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(key::bigint), 0)
			FROM documents
			WHERE collection = $1 AND key ~ '^[0-9]{1,18}$'`,
			collection,
		).Scan(&maxKey); err != nil {
			return fmt.Errorf("failed to read max key: %w", err)
		}

		next = max(last, maxKey) + 1

		if _, err := tx.Exec(ctx,
			`UPDATE counters SET value = $2 WHERE collection = $1`,
			collection, next,
		); err != nil {
			return fmt.Errorf("failed to advance counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id in %s: %w", collection, err)
	}
	return next, nil
}
