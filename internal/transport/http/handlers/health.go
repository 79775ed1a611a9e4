package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker verifies connectivity of a backing dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	startedAt time.Time
	checkers  map[string]HealthChecker
}

// NewHealthHandler builds a new health handler instance. checkers maps a
// dependency name to its connectivity probe; nil entries are skipped.
func NewHealthHandler(checkers map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now().UTC(),
		checkers:  checkers,
	}
}

// Status reports that the process is alive.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	})
}

// Ready probes the backing dependencies and reports per-dependency status.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checkers))
	healthy := true

	for name, checker := range h.checkers {
		if checker == nil {
			continue
		}
		if err := checker.HealthCheck(ctx); err != nil {
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": results,
	})
}
