package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/grownby/internal/blobstore"
	"github.com/stwalsh4118/grownby/internal/broker"
	"github.com/stwalsh4118/grownby/internal/config"
	"github.com/stwalsh4118/grownby/internal/database"
	"github.com/stwalsh4118/grownby/internal/handlers"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/metrics"
	"github.com/stwalsh4118/grownby/internal/repository"
	"github.com/stwalsh4118/grownby/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting GrownBy backend", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	applied, err := db.Migrate(ctx)
	if err != nil {
		log.Fatal("Failed to migrate database", err, nil)
	}
	log.Info("Database schema up to date", map[string]interface{}{
		"applied": applied,
	})

	store, err := blobstore.NewOS(cfg.Blobs.Dir, cfg.Blobs.MaxUploadBytes)
	if err != nil {
		log.Fatal("Failed to open blob store", err, map[string]interface{}{
			"dir": cfg.Blobs.Dir,
		})
	}

	metrics.Init(nil)
	changes := broker.New()

	identity := services.NewIdentityService(repository.NewUserRepository(db), cfg.Auth, log)
	documents := services.NewDocumentService(
		repository.NewDocumentRepository(db),
		repository.NewCounterRepository(db),
		changes,
		log,
	)
	blobs := services.NewBlobService(store, repository.NewBlobRepository(db), cfg.Blobs.PublicBaseURL, log)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterDeps{
		Log:            log,
		DB:             db,
		BlobStore:      store,
		Env:            cfg.Server.Env,
		CORSOrigins:    cfg.CORS.Origins,
		Identity:       identity,
		Documents:      documents,
		Blobs:          blobs,
		Feed:           changes,
		MaxUploadBytes: cfg.Blobs.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	// Watch streams never finish on their own; end them first.
	changes.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
