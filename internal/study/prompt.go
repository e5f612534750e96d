package study

import "fmt"

// Fixed instruction templates. The document context is always a prefix of
// the session's extracted text, cut to the configured character budget.
const (
	notesInstruction = "Create detailed lecture notes from the following text. " +
		"Format them with clear headings, bullet points, and key concepts. Make it easy to study:\n\n"

	tutorPrefix = "Based on this document content:\n\n"
	tutorSuffix = "\n\nProvide a clear, accurate answer as a helpful tutor."
)

// NotesSeparator is written before each generated notes section.
const NotesSeparator = "\n\n"

// SectionHeader delimits one file's text inside the extracted text buffer.
func SectionHeader(fileName string) string {
	return fmt.Sprintf("\n\n=== %s ===\n\n", fileName)
}

// BuildNotesPrompt wraps the first budget characters of text in the notes instruction.
func BuildNotesPrompt(text string, budget int) string {
	return notesInstruction + truncate(text, budget)
}

// BuildQuestionPrompt embeds the first budget characters of text and the
// question in the tutor template.
func BuildQuestionPrompt(text, question string, budget int) string {
	return tutorPrefix + truncate(text, budget) + "\n\nQuestion: " + question + tutorSuffix
}

// truncate returns the longest prefix of s holding at most n characters.
// Characters are runes, so multi-byte text is never cut mid-character.
// A non-positive n yields the empty string.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
