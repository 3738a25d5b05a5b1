package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/grownby/internal/errors"
	"github.com/stwalsh4118/grownby/internal/services"
)

// BlobHandler handles blob upload and download.
type BlobHandler struct {
	service  services.BlobService
	maxBytes int64
}

// NewBlobHandler creates a new BlobHandler instance.
func NewBlobHandler(service services.BlobService, maxBytes int64) *BlobHandler {
	return &BlobHandler{service: service, maxBytes: maxBytes}
}

// UploadResponse describes a stored blob.
type UploadResponse struct {
	Key         string `json:"key"`
	DownloadURL string `json:"downloadUrl"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Upload handles PUT /api/v1/blobs/:key. The body is the raw blob bytes.
func (h *BlobHandler) Upload(c *gin.Context) {
	if c.Request.ContentLength > h.maxBytes {
		apierrors.Respond(c, http.StatusRequestEntityTooLarge, apierrors.ErrPayloadTooLarge,
			"Blob exceeds "+strconv.FormatInt(h.maxBytes, 10)+" bytes")
		return
	}

	blob, err := h.service.Upload(c.Request.Context(), c.Param("key"), c.Request.Body)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBlobTooLarge):
			apierrors.Respond(c, http.StatusRequestEntityTooLarge, apierrors.ErrPayloadTooLarge,
				"Blob exceeds "+strconv.FormatInt(h.maxBytes, 10)+" bytes")
		case errors.Is(err, services.ErrInvalidKey):
			apierrors.BadRequest(c, err.Error(), nil)
		default:
			apierrors.InternalServerError(c, "Failed to store blob", err)
		}
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{
		Key:         blob.Key,
		DownloadURL: h.service.DownloadURL(blob.Key),
		ContentType: blob.ContentType,
		Size:        blob.Size,
	})
}

// Download handles GET /blobs/:key.
func (h *BlobHandler) Download(c *gin.Context) {
	blob, f, err := h.service.Open(c.Request.Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, services.ErrBlobNotFound) {
			apierrors.NotFound(c, "Blob not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to read blob", err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", blob.ContentType)
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(c.Writer, c.Request, blob.Key, blob.CreatedAt, f)
}
