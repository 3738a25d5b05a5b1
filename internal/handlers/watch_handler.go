package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/grownby/internal/errors"
	"github.com/stwalsh4118/grownby/internal/metrics"
	"github.com/stwalsh4118/grownby/internal/middleware"
	"github.com/stwalsh4118/grownby/internal/models"
	"github.com/stwalsh4118/grownby/internal/services"
)

// SnapshotEvent is the SSE event name carrying a full collection snapshot.
const SnapshotEvent = "snapshot"

// DefaultHeartbeat is how often an idle watch stream sends a comment line.
const DefaultHeartbeat = 15 * time.Second

// ChangeFeed hands out per-collection change signals.
type ChangeFeed interface {
	Subscribe(collection string) chan int64
	Unsubscribe(collection string, ch chan int64)
}

// WatchHandler streams collection snapshots over server-sent events.
type WatchHandler struct {
	documents services.DocumentService
	feed      ChangeFeed
	heartbeat time.Duration
}

// NewWatchHandler creates a new WatchHandler instance.
func NewWatchHandler(documents services.DocumentService, feed ChangeFeed, heartbeat time.Duration) *WatchHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &WatchHandler{documents: documents, feed: feed, heartbeat: heartbeat}
}

// Watch handles GET /api/v1/collections/:collection/watch.
// The first event is the current snapshot; every change signal sends the
// full snapshot again. Versions on the stream never go backwards.
func (h *WatchHandler) Watch(c *gin.Context) {
	collection := c.Param("collection")
	if !models.ValidCollection(collection) {
		apierrors.BadRequest(c, "invalid collection name", nil)
		return
	}

	// Subscribe before the first read so no change between the two is lost.
	ch := h.feed.Subscribe(collection)
	if ch == nil {
		apierrors.Respond(c, http.StatusServiceUnavailable, apierrors.ErrInternalServer, "Server is shutting down")
		return
	}
	defer h.feed.Unsubscribe(collection, ch)

	ctx := c.Request.Context()
	snapshot, err := h.documents.GetAll(ctx, collection)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	metrics.AddWatchSubscribers(1)
	defer metrics.AddWatchSubscribers(-1)

	log := middleware.GetLogger(c)
	if log != nil {
		log.Debug("Watch stream opened", map[string]interface{}{
			"collection": collection,
			"version":    snapshot.Version,
		})
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sent := snapshot.Version
	c.SSEvent(SnapshotEvent, toSnapshotResponse(snapshot))
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			snapshot, err := h.documents.GetAll(ctx, collection)
			if err != nil {
				if log != nil && ctx.Err() == nil {
					log.Error("Watch stream reload failed", err, map[string]interface{}{
						"collection": collection,
					})
				}
				return
			}
			// Sequence values are taken before commit, so a change can land
			// without raising the max version. Only older snapshots are skipped.
			if snapshot.Version < sent {
				continue
			}
			sent = snapshot.Version
			c.SSEvent(SnapshotEvent, toSnapshotResponse(snapshot))
			c.Writer.Flush()
		case <-ticker.C:
			if _, err := c.Writer.WriteString(": keep-alive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
