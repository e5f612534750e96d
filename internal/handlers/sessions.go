// sessions.go handles the study session lifecycle.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/middleware"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/models"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/session"
)

// CreateSession starts an empty study session and returns its bearer token.
// POST /api/v1/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	s, err := h.Sessions.Create()
	if errors.Is(err, session.ErrCapacity) {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "capacity_exceeded",
			Message: "Too many active sessions. Try again later.",
			Code:    http.StatusServiceUnavailable,
		})
		return
	}
	if err != nil {
		respondError(c, "Create session", err)
		return
	}

	token, expires, err := middleware.GenerateSessionToken(s.ID, h.JWTSecret, h.TokenTTL)
	if err != nil {
		_ = h.Sessions.Delete(s.ID)
		respondError(c, "Create session", err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateSessionResponse{
		SessionID: s.ID,
		Token:     token,
		ExpiresAt: expires,
	})
}

// GetSession returns a snapshot of the session.
// GET /api/v1/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	s := middleware.GetSession(c)
	c.JSON(http.StatusOK, s.Snapshot())
}

// DeleteSession tears the session down.
// DELETE /api/v1/sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	s := middleware.GetSession(c)
	if err := h.Sessions.Delete(s.ID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Session not found",
			Code:    http.StatusNotFound,
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetSession clears files, text, notes and transcript and stops speech.
// POST /api/v1/sessions/:id/reset
func (h *Handler) ResetSession(c *gin.Context) {
	s := middleware.GetSession(c)
	h.Study.Reset(s)
	log.Printf("🔄 Session %s reset", s.ID)
	c.JSON(http.StatusOK, s.Snapshot())
}
