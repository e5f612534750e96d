// Package study implements the notes pipeline: PDF text goes in, study notes
// come out, and follow-up questions are answered against the same text.
//
// The pipeline is strictly sequential per session. Each operation makes at
// most one call to the text-generation service and never retries.
package study

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/metrics"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/models"
)

// Generator turns a prompt into generated text.
// Implementations live in services/llm; tests use stubs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TextExtractor converts a document's bytes into page-ordered plain text.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

var (
	// ErrBusy is returned when an operation is already in flight on the session.
	ErrBusy = errors.New("another request is still being processed for this session")

	// ErrSessionReset is returned when the session was reset while the
	// operation waited on the generation service. Its result is dropped.
	ErrSessionReset = errors.New("session was reset while the request was in flight")

	// ErrNoFiles is returned by Upload when called with an empty batch.
	ErrNoFiles = errors.New("no files provided")

	// ErrNoText is returned when notes are requested before any text was extracted.
	ErrNoText = errors.New("no extracted text; upload a document first")

	// ErrFileIndex is returned by RemoveFile for an index outside the file list.
	ErrFileIndex = errors.New("file index out of range")
)

// ExtractionError reports which file in a batch could not be read.
type ExtractionError struct {
	File  string
	Index int // Position within the batch
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %q: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// RollbackPolicy names what happens to session state when an operation's
// generation call fails.
type RollbackPolicy int

const (
	// NoRollback keeps every change made before the call; only the failed
	// result is discarded.
	NoRollback RollbackPolicy = iota
	// FullRollback undoes the changes the operation made before the call,
	// so a failed attempt leaves no trace.
	FullRollback
)

func (p RollbackPolicy) String() string {
	if p == FullRollback {
		return "full"
	}
	return "none"
}

// ParseRollbackPolicy reads "none" or "full".
func ParseRollbackPolicy(s string) (RollbackPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return NoRollback, nil
	case "full":
		return FullRollback, nil
	}
	return NoRollback, fmt.Errorf("unknown rollback policy %q", s)
}

// Config holds the pipeline limits and failure policies.
type Config struct {
	NotesCharBudget int // Max characters of extracted text in a notes prompt
	ChatCharBudget  int // Max characters of extracted text in a question prompt

	// NotesOnFailure applies when note generation fails after an upload.
	// With FullRollback the batch's files and extracted text are removed too.
	NotesOnFailure RollbackPolicy
	// QuestionOnFailure applies when answering a question fails.
	// With FullRollback the user's turn is retracted.
	QuestionOnFailure RollbackPolicy
}

// DefaultConfig returns the budgets and policies the service ships with.
func DefaultConfig() Config {
	return Config{
		NotesCharBudget:   30000,
		ChatCharBudget:    25000,
		NotesOnFailure:    NoRollback,
		QuestionOnFailure: FullRollback,
	}
}

// Service runs pipeline operations against sessions.
type Service struct {
	gen       Generator
	extractor TextExtractor
	cfg       Config
}

// NewService creates a pipeline service.
func NewService(gen Generator, extractor TextExtractor, cfg Config) *Service {
	return &Service{gen: gen, extractor: extractor, cfg: cfg}
}

// Config returns the service configuration.
func (svc *Service) Config() Config { return svc.cfg }

// UploadResult describes a successfully processed batch.
type UploadResult struct {
	Files      []models.FileInfo
	AddedChars int
	NewNotes   string
	Notes      string
}

// Upload adds a batch of files to the session, extracts their text and
// generates notes for the session.
//
// Extraction is staged: if any file fails, none of the batch's text is
// committed and an *ExtractionError is returned. The files themselves stay
// in the session's file list. If note generation fails the extracted text
// stays committed unless NotesOnFailure is FullRollback.
func (svc *Service) Upload(ctx context.Context, s *Session, files []models.UploadedFile) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if !s.begin() {
		metrics.ObserveBusyRejection()
		return nil, ErrBusy
	}
	defer s.end()

	s.mu.Lock()
	epoch := s.epoch
	filesBefore := len(s.files)
	s.files = append(s.files, files...)
	s.lastAccessed = time.Now()
	s.mu.Unlock()

	var staged strings.Builder
	for i, f := range files {
		text, err := svc.extractor.ExtractText(f.Content)
		metrics.ObserveExtraction(err)
		if err != nil {
			log.Printf("📄 Session %s: extraction failed for %q: %v", s.ID, f.Name, err)
			return nil, &ExtractionError{File: f.Name, Index: i, Err: err}
		}
		staged.WriteString(SectionHeader(f.Name))
		staged.WriteString(text)
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil, ErrSessionReset
	}
	textBefore := len(s.extracted)
	s.extracted += staged.String()
	s.mu.Unlock()

	log.Printf("📄 Session %s: extracted %d file(s), %d bytes", s.ID, len(files), staged.Len())

	newNotes, err := svc.generateNotes(ctx, s, epoch)
	if err != nil {
		if svc.cfg.NotesOnFailure == FullRollback {
			s.mu.Lock()
			if s.epoch == epoch && len(s.files) >= filesBefore {
				s.extracted = s.extracted[:textBefore]
				s.files = s.files[:filesBefore]
			}
			s.mu.Unlock()
		}
		return nil, err
	}

	snap := s.Snapshot()
	return &UploadResult{
		Files:      snap.Files,
		AddedChars: len([]rune(staged.String())),
		NewNotes:   newNotes,
		Notes:      snap.Notes,
	}, nil
}

// GenerateNotes runs the note generator over the session's current text and
// appends the result to its notes.
func (svc *Service) GenerateNotes(ctx context.Context, s *Session) (string, error) {
	if !s.begin() {
		metrics.ObserveBusyRejection()
		return "", ErrBusy
	}
	defer s.end()

	s.mu.Lock()
	epoch := s.epoch
	empty := s.extracted == ""
	s.mu.Unlock()
	if empty {
		return "", ErrNoText
	}

	return svc.generateNotes(ctx, s, epoch)
}

// generateNotes makes the single notes call. The caller holds the session's
// in-flight guard. On failure the notes are left exactly as they were.
func (svc *Service) generateNotes(ctx context.Context, s *Session, epoch uint64) (string, error) {
	s.mu.Lock()
	prompt := BuildNotesPrompt(s.extracted, svc.cfg.NotesCharBudget)
	s.mu.Unlock()

	start := time.Now()
	out, err := svc.gen.Generate(ctx, prompt)
	metrics.ObserveGeneration(metrics.OpNotes, err, time.Since(start))
	if err != nil {
		log.Printf("❌ Session %s: note generation failed: %v", s.ID, err)
		return "", fmt.Errorf("note generation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return "", ErrSessionReset
	}
	s.notes += NotesSeparator + out
	s.lastAccessed = time.Now()

	log.Printf("🤖 Session %s: generated %d characters of notes", s.ID, len(out))
	return out, nil
}

// AskResult is the outcome of a question.
type AskResult struct {
	// Skipped is true when the question was empty or there was no text to
	// ask about. Nothing was sent and the transcript is unchanged.
	Skipped    bool
	Question   models.ConversationTurn
	Answer     models.ConversationTurn
	Transcript []models.ConversationTurn
}

// Ask answers a question about the session's extracted text.
//
// A successful call appends exactly one user turn and one assistant turn.
// With the default FullRollback policy a failed call leaves the transcript
// as it was before the question.
func (svc *Service) Ask(ctx context.Context, s *Session, question string) (*AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" || s.ExtractedText() == "" {
		return &AskResult{Skipped: true, Transcript: s.Transcript()}, nil
	}

	if !s.begin() {
		metrics.ObserveBusyRejection()
		return nil, ErrBusy
	}
	defer s.end()

	userTurn := models.ConversationTurn{Role: models.RoleUser, Content: question}

	s.mu.Lock()
	if s.extracted == "" {
		// Reset between the precondition check and taking the guard.
		s.mu.Unlock()
		return &AskResult{Skipped: true, Transcript: s.Transcript()}, nil
	}
	epoch := s.epoch
	s.turns = append(s.turns, userTurn)
	prompt := BuildQuestionPrompt(s.extracted, question, svc.cfg.ChatCharBudget)
	s.lastAccessed = time.Now()
	s.mu.Unlock()

	start := time.Now()
	answer, err := svc.gen.Generate(ctx, prompt)
	metrics.ObserveGeneration(metrics.OpQuestion, err, time.Since(start))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return nil, ErrSessionReset
	}

	if err != nil {
		if svc.cfg.QuestionOnFailure == FullRollback {
			// The in-flight guard guarantees our turn is still the last one.
			s.turns = s.turns[:len(s.turns)-1]
		}
		log.Printf("❌ Session %s: question failed (rollback: %s): %v", s.ID, svc.cfg.QuestionOnFailure, err)
		return nil, fmt.Errorf("question failed: %w", err)
	}

	assistantTurn := models.ConversationTurn{Role: models.RoleAssistant, Content: answer}
	s.turns = append(s.turns, assistantTurn)

	return &AskResult{
		Question:   userTurn,
		Answer:     assistantTurn,
		Transcript: append([]models.ConversationTurn(nil), s.turns...),
	}, nil
}

// Reset empties the session: files, extracted text, notes and transcript are
// cleared and speech stops. Calling it repeatedly has the same effect as
// calling it once. An operation in flight during a reset drops its result.
func (svc *Service) Reset(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.lastAccessed = time.Now()
}

// RemoveFile drops the file at index from the session's file list.
// Text already extracted from it stays in the extracted text. It returns
// ErrBusy while an upload or question is in flight, since a failed upload
// may still roll back its batch by position.
func (svc *Service) RemoveFile(s *Session, index int) ([]models.FileInfo, error) {
	if !s.begin() {
		metrics.ObserveBusyRejection()
		return nil, ErrBusy
	}
	defer s.end()

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.files) {
		return nil, ErrFileIndex
	}
	s.files = append(s.files[:index], s.files[index+1:]...)
	s.lastAccessed = time.Now()
	return s.fileInfosLocked(), nil
}

// SpeechState is the playback state after a toggle.
type SpeechState struct {
	Speaking bool
	Text     string // The notes to play; set only when playback starts
}

// ToggleSpeech starts or stops notes playback. It does nothing while the
// session has no notes.
func (svc *Service) ToggleSpeech(s *Session) SpeechState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notes == "" {
		s.speaking = false
		return SpeechState{}
	}
	s.speaking = !s.speaking
	if s.speaking {
		return SpeechState{Speaking: true, Text: s.notes}
	}
	return SpeechState{}
}
