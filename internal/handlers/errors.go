package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/models"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/services/llm"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/services/worker"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/study"
)

// respondError writes err as a models.ErrorResponse. It is the single place
// where pipeline errors are logged and mapped to HTTP statuses.
func respondError(c *gin.Context, op string, err error) {
	status, code, message := classify(err)
	if status >= http.StatusInternalServerError || status == http.StatusUnprocessableEntity {
		log.Printf("❌ %s failed: %v", op, err)
	}
	c.JSON(status, models.ErrorResponse{Error: code, Message: message, Code: status})
}

func classify(err error) (status int, code, message string) {
	var extractErr *study.ExtractionError
	switch {
	case errors.As(err, &extractErr):
		return http.StatusUnprocessableEntity, "extraction_failed",
			"Failed to read " + extractErr.File + ". Make sure it is a valid PDF."
	case errors.Is(err, study.ErrBusy):
		return http.StatusConflict, "request_in_flight", err.Error()
	case errors.Is(err, study.ErrSessionReset):
		return http.StatusConflict, "session_reset", err.Error()
	case errors.Is(err, study.ErrFileIndex):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, study.ErrNoFiles), errors.Is(err, study.ErrNoText):
		return http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrStopped):
		return http.StatusServiceUnavailable, "generation_busy", err.Error()
	case errors.Is(err, context.Canceled):
		return 499, "client_closed_request", "Request cancelled"
	}

	if se, ok := llm.AsServiceError(err); ok {
		if se.Kind == llm.KindCredential {
			return http.StatusForbidden, "credential_required", se.Message
		}
		return http.StatusBadGateway, "generation_failed", se.Message
	}

	return http.StatusInternalServerError, "internal_error", "Something went wrong"
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: message,
		Code:    http.StatusBadRequest,
	})
}
