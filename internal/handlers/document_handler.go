package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/grownby/internal/errors"
	"github.com/stwalsh4118/grownby/internal/models"
	"github.com/stwalsh4118/grownby/internal/services"
)

// maxDocumentBytes bounds a single document body.
const maxDocumentBytes = 1 << 20

// DocumentHandler handles collection document endpoints.
type DocumentHandler struct {
	service services.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler instance.
func NewDocumentHandler(service services.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// DocumentData is one document in a snapshot response.
type DocumentData struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
	Seq  int64           `json:"seq"`
}

// SnapshotResponse is the full content of a collection.
type SnapshotResponse struct {
	Documents []DocumentData `json:"documents"`
	Version   int64          `json:"version"`
}

// NextIDResponse carries a freshly allocated identifier.
type NextIDResponse struct {
	ID int64 `json:"id"`
}

// List handles GET /api/v1/collections/:collection/documents.
func (h *DocumentHandler) List(c *gin.Context) {
	snapshot, err := h.service.GetAll(c.Request.Context(), c.Param("collection"))
	if err != nil {
		respondDocumentError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSnapshotResponse(snapshot))
}

// Put handles PUT /api/v1/collections/:collection/documents/:key.
func (h *DocumentHandler) Put(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentBytes+1))
	if err != nil {
		apierrors.BadRequest(c, "Failed to read request body", nil)
		return
	}
	if len(body) > maxDocumentBytes {
		apierrors.Respond(c, http.StatusRequestEntityTooLarge, apierrors.ErrPayloadTooLarge, "Document exceeds 1 MiB")
		return
	}

	doc, err := h.service.Put(c.Request.Context(), c.Param("collection"), c.Param("key"), json.RawMessage(body))
	if err != nil {
		respondDocumentError(c, err)
		return
	}
	c.JSON(http.StatusOK, DocumentData{Key: doc.Key, Data: doc.Data, Seq: doc.Seq})
}

// NextID handles POST /api/v1/collections/:collection/next-id.
func (h *DocumentHandler) NextID(c *gin.Context) {
	id, err := h.service.NextID(c.Request.Context(), c.Param("collection"))
	if err != nil {
		respondDocumentError(c, err)
		return
	}
	c.JSON(http.StatusOK, NextIDResponse{ID: id})
}

func respondDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCollection),
		errors.Is(err, services.ErrInvalidKey),
		errors.Is(err, services.ErrInvalidDocument):
		apierrors.BadRequest(c, err.Error(), nil)
	default:
		apierrors.InternalServerError(c, "Document store failure", err)
	}
}

func toSnapshotResponse(s *models.Snapshot) SnapshotResponse {
	docs := make([]DocumentData, 0, len(s.Documents))
	for _, d := range s.Documents {
		docs = append(docs, DocumentData{Key: d.Key, Data: d.Data, Seq: d.Seq})
	}
	return SnapshotResponse{Documents: docs, Version: s.Version}
}
