package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/grownby/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "1.0.0"
	// ServiceName identifies this backend in the info response
	ServiceName = "grownby-backend"
	// HealthCheckTimeout bounds every dependency check of a readiness request.
	HealthCheckTimeout = 2 * time.Second
)

const (
	checkUp   = "up"
	checkDown = "down"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is a named dependency the service needs before it can take traffic.
type Check struct {
	Name   string
	Pinger Pinger
}

// HealthHandler serves liveness, readiness and build info.
type HealthHandler struct {
	checks    []Check
	startTime time.Time
	env       string
}

// NewHealthHandler returns a handler probing checks on readiness.
func NewHealthHandler(env string, checks ...Check) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse lists the state of every dependency check.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
	Service     string `json:"service"`
}

// Health handles GET /health. It never touches dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready. Checks run concurrently; any failure
// answers 503.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	errs := make([]error, len(h.checks))
	var wg sync.WaitGroup
	for i, check := range h.checks {
		i, check := i, check
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = check.Pinger.Ping(ctx)
		}()
	}
	wg.Wait()

	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(h.checks))}
	for i, check := range h.checks {
		if errs[i] == nil {
			resp.Checks[check.Name] = checkUp
			continue
		}
		resp.Status = "not_ready"
		resp.Checks[check.Name] = checkDown
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Readiness check failed", errs[i], map[string]interface{}{
				"check":   check.Name,
				"timeout": HealthCheckTimeout.String(),
			})
		}
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Service:     ServiceName,
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(time.Since(h.startTime)),
	})
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
