package study

import (
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/models"
)

// Session is the state of one study session: the uploaded files, the text
// extracted from them, the accumulated notes and the Q&A transcript.
//
// A Session is created per client session and torn down on reset or when the
// session manager evicts it. All mutation goes through Service.
type Session struct {
	ID        string
	CreatedAt time.Time

	// busy is set while an operation that calls the generation service is
	// outstanding. A second such operation is rejected rather than queued.
	busy atomic.Bool

	mu           sync.Mutex // guards everything below
	files        []models.UploadedFile
	extracted    string
	notes        string
	turns        []models.ConversationTurn
	speaking     bool
	epoch        uint64 // bumped on reset; results from older epochs are dropped
	lastAccessed time.Time
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		CreatedAt:    now,
		lastAccessed: now,
	}
}

func (s *Session) begin() bool { return s.busy.CompareAndSwap(false, true) }
func (s *Session) end()        { s.busy.Store(false) }

// Busy reports whether a generation call is in flight.
func (s *Session) Busy() bool { return s.busy.Load() }

// Touch records activity so idle eviction skips the session.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastAccessed = time.Now()
	s.mu.Unlock()
}

// LastAccessed returns the time of the last recorded activity.
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

// ExtractedText returns the accumulated extracted text.
func (s *Session) ExtractedText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extracted
}

// Notes returns the accumulated notes.
func (s *Session) Notes() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes
}

// Transcript returns a copy of the conversation turns.
func (s *Session) Transcript() []models.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ConversationTurn(nil), s.turns...)
}

// Files returns the uploaded files in upload order.
func (s *Session) Files() []models.FileInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileInfosLocked()
}

// Speaking reports whether notes playback is on.
func (s *Session) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// Snapshot returns a consistent copy of the whole session.
func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SessionSnapshot{
		ID:              s.ID,
		Files:           s.fileInfosLocked(),
		ExtractedLength: utf8.RuneCountInString(s.extracted),
		Notes:           s.notes,
		Transcript:      append([]models.ConversationTurn{}, s.turns...),
		Speaking:        s.speaking,
		Busy:            s.busy.Load(),
		CreatedAt:       s.CreatedAt,
		LastAccessedAt:  s.lastAccessed,
	}
}

func (s *Session) fileInfosLocked() []models.FileInfo {
	infos := make([]models.FileInfo, len(s.files))
	for i, f := range s.files {
		infos[i] = models.FileInfo{Index: i, Name: f.Name, Size: f.Size}
	}
	return infos
}

// resetLocked empties the session. Caller holds s.mu.
func (s *Session) resetLocked() {
	s.files = nil
	s.extracted = ""
	s.notes = ""
	s.turns = nil
	s.speaking = false
	s.epoch++
}
