// export.go handles notes export in multiple formats.
//
// Supported formats:
//   - txt   The notes as plain text
//   - md    Markdown with a source-file header and the Q&A transcript
//   - json  Notes, files and transcript with metadata
//
// Go Pattern: Each export format is its own function. Adding a format is a
// new case in the switch and a new formatter.
package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/middleware"
	"github.com/Shimizu-Technology/lecture-notes-api/internal/models"
)

// ExportNotes downloads the session's notes in the requested format.
// GET /api/v1/sessions/:id/notes/export?format=txt|md|json
//
// Response headers are set for file download:
//   - Content-Type: appropriate MIME type
//   - Content-Disposition: attachment with filename
func (h *Handler) ExportNotes(c *gin.Context) {
	format := c.DefaultQuery("format", "txt")

	validFormats := map[string]bool{"txt": true, "md": true, "json": true}
	if !validFormats[format] {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_format",
			Message: "Supported formats: txt, md, json",
			Code:    http.StatusBadRequest,
		})
		return
	}

	snap := middleware.GetSession(c).Snapshot()
	notes := strings.TrimSpace(snap.Notes)
	if notes == "" {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_ready",
			Message: "No notes yet. Upload a document first.",
			Code:    http.StatusNotFound,
		})
		return
	}

	filename := exportFilename(snap.Files)

	switch format {
	case "txt":
		exportTXT(c, notes, filename)
	case "md":
		exportMarkdown(c, snap, notes, filename)
	case "json":
		exportJSON(c, snap, notes, filename)
	}
}

// exportTXT returns the notes as plain text.
func exportTXT(c *gin.Context, notes, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.txt"`, filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(notes+"\n"))
}

// exportMarkdown returns the notes with a header listing the source files,
// followed by the Q&A transcript when there is one.
func exportMarkdown(c *gin.Context, snap models.SessionSnapshot, notes, filename string) {
	var sb strings.Builder

	sb.WriteString("# Lecture Notes\n\n")
	if len(snap.Files) > 0 {
		sb.WriteString("| # | Source | Size |\n")
		sb.WriteString("|---|--------|------|\n")
		for _, f := range snap.Files {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", f.Index+1, f.Name, formatSize(f.Size)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("_%d words · %s_\n\n", wordCount(notes), readingTime(notes)))
	sb.WriteString("---\n\n")
	sb.WriteString(notes)
	sb.WriteString("\n")

	if len(snap.Transcript) > 0 {
		sb.WriteString("\n---\n\n## Questions\n\n")
		for _, turn := range snap.Transcript {
			if turn.Role == models.RoleUser {
				sb.WriteString(fmt.Sprintf("**Q:** %s\n\n", turn.Content))
			} else {
				sb.WriteString(fmt.Sprintf("%s\n\n", turn.Content))
			}
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.md"`, filename))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(sb.String()))
}

// exportJSON returns the notes with files, transcript and metadata.
func exportJSON(c *gin.Context, snap models.SessionSnapshot, notes, filename string) {
	exportData := map[string]interface{}{
		"session_id":   snap.ID,
		"files":        snap.Files,
		"notes":        notes,
		"word_count":   wordCount(notes),
		"reading_time": readingTime(notes),
		"transcript":   snap.Transcript,
		"created_at":   snap.CreatedAt,
	}

	jsonBytes, err := json.MarshalIndent(exportData, "", "  ")
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "export_error",
			Message: "Failed to generate JSON export",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", jsonBytes)
}

// --- Helper Functions ---

// exportFilename names the download after the first source file.
func exportFilename(files []models.FileInfo) string {
	if len(files) == 0 {
		return "lecture-notes"
	}
	base := strings.TrimSuffix(files[0].Name, filepath.Ext(files[0].Name))
	name := sanitizeFilename(base)
	if name == "" {
		return "lecture-notes"
	}
	return name + "-notes"
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// readingTime estimates reading time at 200 words per minute.
func readingTime(s string) string {
	return fmt.Sprintf("%d min", int(math.Ceil(float64(wordCount(s))/200.0)))
}

// formatSize converts a byte count to a human-readable size.
func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/(1<<10))
	}
	return fmt.Sprintf("%d B", bytes)
}

const maxFilenameBytes = 100

// sanitizeFilename removes characters that aren't safe for filenames.
// Go Pattern: Keep it simple. Unsafe characters become hyphens and the
// result is trimmed; this only feeds the Content-Disposition header.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-",
		"|", "-", "\n", " ", "\r", "",
	)
	name = replacer.Replace(name)

	// Collapse multiple hyphens/spaces
	for strings.Contains(name, "  ") {
		name = strings.ReplaceAll(name, "  ", " ")
	}
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}

	name = strings.TrimSpace(name)

	// Limit length to 100 bytes without splitting a multi-byte character.
	if len(name) > maxFilenameBytes {
		cut := maxFilenameBytes
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}

	return name
}
