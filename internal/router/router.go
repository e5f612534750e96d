// Package router sets up all HTTP routes for the API.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/handlers"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/middleware"
)

// Setup creates and configures the Gin router with all routes.
func Setup(h *handlers.Handler, rateLimiter *middleware.RateLimiter, allowedOrigins []string) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORS(allowedOrigins))

	// --- Public Routes ---
	r.GET("/api/v1/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API Documentation
	r.GET("/api/docs", h.ServeDocsPage)
	r.GET("/api/docs/openapi.yaml", h.ServeOpenAPIDocument)

	// Credential entry is the only thing available before a key is saved.
	// Once saved, replacing it needs the token issued with the first save.
	r.GET("/api/v1/credential", h.GetCredential)
	r.PUT("/api/v1/credential", middleware.CredentialAuth(h.JWTSecret), h.SaveCredential)

	gated := middleware.RequireCredential(h.Credentials)

	r.POST("/api/v1/sessions", gated, h.CreateSession)

	// --- Session Routes (bearer token for :id, credential, rate limit) ---
	s := r.Group("/api/v1/sessions/:id")
	s.Use(middleware.SessionAuth(h.Sessions, h.JWTSecret))
	s.Use(gated)
	s.Use(rateLimiter.RateLimit())
	{
		s.GET("", h.GetSession)
		s.DELETE("", h.DeleteSession)
		s.POST("/reset", h.ResetSession)

		s.POST("/files", h.UploadFiles)
		s.DELETE("/files/:index", h.RemoveFile)

		s.POST("/notes", h.GenerateNotes)
		s.GET("/notes/export", h.ExportNotes)

		s.POST("/questions", h.AskQuestion)
		s.POST("/speech", h.ToggleSpeech)
	}

	return r
}
