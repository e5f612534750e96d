// Package handlers contains HTTP handler functions for the API.
//
// Go Pattern: Handlers in Gin receive a *gin.Context which provides:
// - Request data (params, query, body, headers)
// - Response methods (JSON, String, Status)
// - Middleware data (c.Get/c.Set)
//
// Handlers are plain methods on a struct (Handler) holding shared dependencies.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/credential"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/models"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/services/worker"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/session"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/study"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// HealthChecker is satisfied by *database.DB.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all HTTP handlers.
// Go Pattern: Dependency injection via struct fields. Tests build a Handler
// with stub generators and an in-memory credential store.
type Handler struct {
	Sessions    *session.Manager
	Study       *study.Service
	Credentials *credential.Service
	DB          HealthChecker // nil when running without a database
	Workers     *worker.Pool  // nil when generation calls are not pooled

	Provider      string
	JWTSecret     string
	TokenTTL      time.Duration
	OwnerTokenTTL time.Duration // lifetime of the token issued on credential save
	MaxUploadSize int64
}

// HealthCheck returns the API health status.
// GET /api/v1/health
func (h *Handler) HealthCheck(c *gin.Context) {
	dbStatus := "not configured"
	if h.DB != nil {
		dbStatus = "healthy"
		if err := h.DB.HealthCheck(c.Request.Context()); err != nil {
			dbStatus = "unhealthy: " + err.Error()
		}
	}

	workers := 0
	if h.Workers != nil {
		workers = h.Workers.WorkerCount()
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:               "ok",
		Version:              Version,
		Database:             dbStatus,
		CredentialConfigured: h.Credentials.Configured(),
		Provider:             h.Provider,
		Sessions:             h.Sessions.Count(),
		Workers:              workers,
	})
}
