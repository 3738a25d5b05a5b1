package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/middleware"
	"github.com/stwalsh4118/grownby/internal/services"
)

// RouterDeps are the collaborators the HTTP surface is built from.
type RouterDeps struct {
	Log            *logger.Logger
	DB             Pinger
	BlobStore      Pinger
	Env            string
	CORSOrigins    []string
	Identity       services.IdentityService
	Documents      services.DocumentService
	Blobs          services.BlobService
	Feed           ChangeFeed
	MaxUploadBytes int64
	Heartbeat      time.Duration
}

// NewRouter registers every route on a new gin engine.
func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()

	// Middleware order: RequestID -> Logger -> Recovery -> Metrics -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.Recovery(d.Log))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(d.CORSOrigins))

	checks := []Check{{Name: "database", Pinger: d.DB}}
	if d.BlobStore != nil {
		checks = append(checks, Check{Name: "blobs", Pinger: d.BlobStore})
	}
	healthHandler := NewHealthHandler(d.Env, checks...)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := NewAuthHandler(d.Identity)
	documentHandler := NewDocumentHandler(d.Documents)
	watchHandler := NewWatchHandler(d.Documents, d.Feed, d.Heartbeat)
	blobHandler := NewBlobHandler(d.Blobs, d.MaxUploadBytes)
	requireAuth := middleware.RequireAuth(d.Identity)

	router.GET("/blobs/:key", blobHandler.Download)
	router.HEAD("/blobs/:key", blobHandler.Download)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", healthHandler.Info)

		v1.POST("/accounts", authHandler.CreateAccount)
		v1.POST("/sessions", authHandler.CreateSession)
		v1.DELETE("/sessions", requireAuth, authHandler.DeleteSession)

		collections := v1.Group("/collections/:collection")
		{
			collections.GET("/documents", documentHandler.List)
			collections.PUT("/documents/:key", requireAuth, documentHandler.Put)
			collections.POST("/next-id", requireAuth, documentHandler.NextID)
			collections.GET("/watch", watchHandler.Watch)
		}

		v1.PUT("/blobs/:key", requireAuth, blobHandler.Upload)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":       "NOT_FOUND",
				"message":    "Route not found",
				"request_id": middleware.GetRequestID(c),
			},
		})
	})

	return router
}
