// Package middleware provides HTTP middleware for the API.
//
// Go Pattern: Middleware in Go is a function that wraps an HTTP handler.
// In Gin, middleware is a gin.HandlerFunc that calls c.Next() to continue
// the chain, or c.Abort() to stop processing.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
// Go Pattern: unexported key types keep other packages from overwriting values.
type contextKey string

const (
	sessionContextKey  contextKey = "session"
	credentialOwnerKey contextKey = "credential_owner"
)

// CredentialChecker reports whether the generation API key is configured.
type CredentialChecker interface {
	Configured() bool
}

// RequireCredential rejects requests with 403 until an API key is saved.
// Everything behind it needs the text-generation service.
func RequireCredential(creds CredentialChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !creds.Configured() {
			abortWithError(c, http.StatusForbidden, "credential_required",
				"No API key configured. Save one with PUT /api/v1/credential")
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}
