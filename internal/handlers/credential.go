// credential.go lets the user check and save the generation API key.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/credential"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/middleware"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/models"
)

// GetCredential reports whether an API key is configured.
// GET /api/v1/credential
func (h *Handler) GetCredential(c *gin.Context) {
	c.JSON(http.StatusOK, models.CredentialStatusResponse{Configured: h.Credentials.Configured()})
}

// SaveCredential stores the API key and opens the rest of the API.
// PUT /api/v1/credential
//
// The first save needs no token. Replacing a saved key needs the bearer
// token returned by an earlier save.
//
// Request body:
//
//	{"api_key": "AIza..."}
func (h *Handler) SaveCredential(c *gin.Context) {
	var req models.SaveCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Provide 'api_key' in the request body")
		return
	}

	save := h.Credentials.Claim
	if middleware.IsCredentialOwner(c) {
		save = h.Credentials.Save
	}

	if err := save(c.Request.Context(), req.APIKey); err != nil {
		switch {
		case errors.Is(err, credential.ErrEmpty):
			badRequest(c, "Please enter a valid API key")
		case errors.Is(err, credential.ErrAlreadyConfigured):
			log.Printf("⚠️  Refused unauthenticated credential change from %s", c.ClientIP())
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthorized",
				Message: "An API key is already saved. Send the token from the first save to replace it",
				Code:    http.StatusUnauthorized,
			})
		default:
			respondError(c, "Save credential", err)
		}
		return
	}

	token, expiresAt, err := middleware.GenerateCredentialToken(h.JWTSecret, h.OwnerTokenTTL)
	if err != nil {
		respondError(c, "Issue credential token", err)
		return
	}

	c.JSON(http.StatusOK, models.SaveCredentialResponse{
		Configured: true,
		Token:      token,
		ExpiresAt:  expiresAt,
	})
}
