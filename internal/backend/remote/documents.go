package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/stwalsh4118/grownby/internal/backend"
)

type documentData struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
	Seq  int64           `json:"seq"`
}

type snapshotResponse struct {
	Documents []documentData `json:"documents"`
	Version   int64          `json:"version"`
}

func (s snapshotResponse) toSnapshot() backend.Snapshot {
	snap := backend.Snapshot{
		Documents: make([]backend.Document, 0, len(s.Documents)),
		Version:   s.Version,
	}
	for _, d := range s.Documents {
		snap.Documents = append(snap.Documents, backend.Document{Key: d.Key, Data: d.Data})
	}
	return snap
}

func collectionPath(collection string) string {
	return "/api/v1/collections/" + url.PathEscape(collection)
}

func (c *Client) Put(ctx context.Context, collection, key string, record any) error {
	path := collectionPath(collection) + "/documents/" + url.PathEscape(key)
	if err := c.doJSON(ctx, "PUT", path, record, nil); err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, key, err)
	}
	return nil
}

func (c *Client) GetAll(ctx context.Context, collection string) (backend.Snapshot, error) {
	var resp snapshotResponse
	if err := c.doJSON(ctx, "GET", collectionPath(collection)+"/documents", nil, &resp); err != nil {
		return backend.Snapshot{}, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	return resp.toSnapshot(), nil
}

func (c *Client) NextID(ctx context.Context, collection string) (int64, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.doJSON(ctx, "POST", collectionPath(collection)+"/next-id", nil, &resp); err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", collection, err)
	}
	return resp.ID, nil
}
