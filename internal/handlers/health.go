package handlers

import (
	"context"
	"net/http"
	"time"

	"catalog-service/internal/workers"

	"github.com/gin-gonic/gin"
)

const serviceName = "catalog-service"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	readyCheck func(ctx context.Context) error
	workers    map[string]*workers.JobWorker
}

// NewHealthHandler creates a new health handler. readyCheck may be nil.
func NewHealthHandler(readyCheck func(ctx context.Context) error, pools map[string]*workers.JobWorker) *HealthHandler {
	return &HealthHandler{readyCheck: readyCheck, workers: pools}
}

// Health handles the health check endpoint
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

// Ready reports whether the database answers and the worker pools run
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.readyCheck != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.readyCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"service": serviceName,
				"error":   "database unavailable",
			})
			return
		}
	}

	stats := make(gin.H, len(h.workers))
	for kind, w := range h.workers {
		if !w.IsRunning() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"service": serviceName,
				"error":   kind + " workers are not running",
			})
			return
		}
		stats[kind] = w.Stats()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": serviceName,
		"workers": stats,
	})
}
