// Package models defines the data structures used throughout the application.
//
// Go Pattern: Models are plain structs with JSON tags for serialization.
// The study package owns the mutable session state; these types are the
// values it hands out and the request/response shapes of the HTTP API.
package models

import "time"

// Role identifies who authored a conversation turn.
// Go Pattern: We use string constants instead of enums (Go doesn't have enums).
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UploadedFile is one file selected by the user. Files are kept in upload
// order and never deduplicated; two files with the same name are both kept.
type UploadedFile struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Content []byte `json:"-"` // Raw bytes are never echoed back
}

// ConversationTurn is one question or one answer in a session transcript.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// FileInfo describes an uploaded file by its position in the session.
type FileInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
}

// SessionSnapshot is a consistent, read-only copy of a session's state.
type SessionSnapshot struct {
	ID              string             `json:"id"`
	Files           []FileInfo         `json:"files"`
	ExtractedLength int                `json:"extracted_length"` // In characters
	Notes           string             `json:"notes"`
	Transcript      []ConversationTurn `json:"transcript"`
	Speaking        bool               `json:"speaking"`
	Busy            bool               `json:"busy"`
	CreatedAt       time.Time          `json:"created_at"`
	LastAccessedAt  time.Time          `json:"last_accessed_at"`
}

// --- Request/Response DTOs (Data Transfer Objects) ---
// Go Pattern: Separate structs for API input/output vs internal state.

// SaveCredentialRequest is the JSON body for PUT /api/v1/credential.
type SaveCredentialRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// CredentialStatusResponse reports whether an API key is stored.
// The key itself is never returned.
type CredentialStatusResponse struct {
	Configured bool `json:"configured"`
}

// SaveCredentialResponse is returned by PUT /api/v1/credential. Token must be
// sent as a bearer token to replace the key later.
type SaveCredentialResponse struct {
	Configured bool      `json:"configured"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// CreateSessionResponse is returned by POST /api/v1/sessions.
type CreateSessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"` // Bearer token for all /sessions/:id routes
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadResponse is returned after a batch of files was extracted and notes generated.
type UploadResponse struct {
	Files      []FileInfo `json:"files"`
	NewNotes   string     `json:"new_notes"`   // Notes produced by this batch only
	Notes      string     `json:"notes"`       // Full accumulated notes
	AddedChars int        `json:"added_chars"` // Extracted characters this batch committed
}

// NotesResponse is returned by POST /api/v1/sessions/:id/notes.
type NotesResponse struct {
	NewNotes string `json:"new_notes"`
	Notes    string `json:"notes"`
}

// AskRequest is the JSON body for POST /api/v1/sessions/:id/questions.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries the pair of turns a successful question added.
type AskResponse struct {
	Turns      []ConversationTurn `json:"turns"`
	Transcript []ConversationTurn `json:"transcript"`
}

// SpeechResponse reports the playback state after a toggle.
type SpeechResponse struct {
	Speaking bool   `json:"speaking"`
	Text     string `json:"text,omitempty"` // Notes to read aloud when speaking starts
}

// ErrorResponse is a standard error format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status               string `json:"status"`
	Version              string `json:"version"`
	Database             string `json:"database"`
	CredentialConfigured bool   `json:"credential_configured"`
	Provider             string `json:"provider"`
	Sessions             int    `json:"sessions"`
	Workers              int    `json:"workers"`
}
