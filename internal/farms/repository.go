// Package farms reads and writes farm records in the backend's document
// store.
package farms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/stwalsh4118/grownby/internal/backend"
	"github.com/stwalsh4118/grownby/internal/logger"
)

// Collection is the document collection holding farms.
const Collection = "farms"

var (
	// ErrRead wraps failures to list or subscribe to farms.
	ErrRead = errors.New("failed to read farms")
	// ErrWrite wraps failures to allocate an id or store a farm.
	ErrWrite = errors.New("failed to save farm")
)

// Snapshot is every farm at Version, sorted by ID.
type Snapshot struct {
	Farms   []Farm
	Version int64
}

// Repository is the farm store.
type Repository struct {
	docs backend.DocumentStore
	log  *logger.Logger
}

// NewRepository creates a Repository over docs.
func NewRepository(docs backend.DocumentStore, log *logger.Logger) *Repository {
	if log == nil {
		log = logger.Nop()
	}
	return &Repository{docs: docs, log: log.WithComponent("farms")}
}

// ListAll reads the whole collection once.
func (r *Repository) ListAll(ctx context.Context) (Snapshot, error) {
	snap, err := r.docs.GetAll(ctx, Collection)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return r.decode(snap), nil
}

// Subscription is a live listener on the farms collection.
type Subscription struct {
	once        sync.Once
	unsubscribe backend.Unsubscribe
}

// Close releases the listener. No callback runs after Close returns.
// Calling it more than once is safe.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(s.unsubscribe)
}

// Subscribe calls onChange with every farm now and after each change.
func (r *Repository) Subscribe(ctx context.Context, onChange func(Snapshot), onError func(error)) (*Subscription, error) {
	unsubscribe, err := r.docs.Watch(ctx, Collection,
		func(snap backend.Snapshot) {
			onChange(r.decode(snap))
		},
		func(err error) {
			r.log.Error("Farm feed broke", err, nil)
			if onError != nil {
				onError(fmt.Errorf("%w: %w", ErrRead, err))
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return &Subscription{unsubscribe: unsubscribe}, nil
}

// NextIdentifier allocates the id for a new farm: one more than the largest
// id that exists or was handed out before.
func (r *Repository) NextIdentifier(ctx context.Context) (int64, error) {
	id, err := r.docs.NextID(ctx, Collection)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return id, nil
}

// Create stores farm under its id. Writing the same farm twice is harmless.
func (r *Repository) Create(ctx context.Context, farm Farm) error {
	key := strconv.FormatInt(farm.ID, 10)
	if err := r.docs.Put(ctx, Collection, key, farm); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	r.log.Info("Farm created", map[string]interface{}{
		"farm_id":   farm.ID,
		"has_image": farm.ImageURL != "",
	})
	return nil
}

func (r *Repository) decode(snap backend.Snapshot) Snapshot {
	out := Snapshot{Farms: make([]Farm, 0, len(snap.Documents)), Version: snap.Version}
	for _, doc := range snap.Documents {
		var farm Farm
		if err := json.Unmarshal(doc.Data, &farm); err != nil {
			r.log.Warn("Skipping malformed farm", map[string]interface{}{
				"key":   doc.Key,
				"error": err.Error(),
			})
			continue
		}
		out.Farms = append(out.Farms, farm)
	}
	sort.SliceStable(out.Farms, func(i, j int) bool { return out.Farms[i].ID < out.Farms[j].ID })
	return out
}
