// notes.go handles note regeneration, questions and the speech toggle.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/middleware"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/models"
)

// GenerateNotes runs the note generator again over the current text.
// POST /api/v1/sessions/:id/notes
func (h *Handler) GenerateNotes(c *gin.Context) {
	s := middleware.GetSession(c)

	out, err := h.Study.GenerateNotes(c.Request.Context(), s)
	if err != nil {
		respondError(c, "Generate notes", err)
		return
	}
	c.JSON(http.StatusOK, models.NotesResponse{NewNotes: out, Notes: s.Notes()})
}

// AskQuestion answers a follow-up question about the uploaded documents.
// POST /api/v1/sessions/:id/questions
//
// Request body:
//
//	{"question": "What is F=ma?"}
//
// An empty question, or a session with no extracted text, is a no-op and
// returns 204 No Content.
func (h *Handler) AskQuestion(c *gin.Context) {
	s := middleware.GetSession(c)

	var req models.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Provide 'question' in the request body")
		return
	}

	res, err := h.Study.Ask(c.Request.Context(), s, req.Question)
	if err != nil {
		respondError(c, "Question", err)
		return
	}
	if res.Skipped {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, models.AskResponse{
		Turns:      []models.ConversationTurn{res.Question, res.Answer},
		Transcript: res.Transcript,
	})
}

// ToggleSpeech starts or stops reading the notes aloud. The client does the
// actual speech synthesis; the server tracks the state so reset can stop it.
// POST /api/v1/sessions/:id/speech
func (h *Handler) ToggleSpeech(c *gin.Context) {
	s := middleware.GetSession(c)
	state := h.Study.ToggleSpeech(s)
	c.JSON(http.StatusOK, models.SpeechResponse{Speaking: state.Speaking, Text: state.Text})
}
