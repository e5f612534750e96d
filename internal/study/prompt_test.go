package study

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{"shorter than budget", "hello", 10, "hello"},
		{"exactly budget", "hello", 5, "hello"},
		{"cut to budget", "hello world", 5, "hello"},
		{"multi-byte runes", "héllo wörld", 7, "héllo w"},
		{"zero budget", "hello", 0, ""},
		{"negative budget", "hello", -5, ""},
		{"empty input", "", 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.n); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
			}
		})
	}
}

func TestSectionHeader(t *testing.T) {
	if got := SectionHeader("notes.pdf"); got != "\n\n=== notes.pdf ===\n\n" {
		t.Errorf("SectionHeader = %q", got)
	}
}

func TestBuildQuestionPrompt(t *testing.T) {
	got := BuildQuestionPrompt(strings.Repeat("a", 50), "Why?", 20)
	want := "Based on this document content:\n\n" + strings.Repeat("a", 20) +
		"\n\nQuestion: Why?\n\nProvide a clear, accurate answer as a helpful tutor."
	if got != want {
		t.Errorf("BuildQuestionPrompt = %q, want %q", got, want)
	}
}

func TestBuildNotesPrompt_NeverExceedsBudget(t *testing.T) {
	text := strings.Repeat("x", 100000)
	for _, budget := range []int{-5, 0, 1, 30000} {
		got := BuildNotesPrompt(text, budget)
		docText := strings.TrimPrefix(got, notesInstruction)
		want := budget
		if want < 0 {
			want = 0
		}
		if len(docText) != want {
			t.Errorf("budget %d: context length = %d, want %d", budget, len(docText), want)
		}
	}
}

func TestParseRollbackPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    RollbackPolicy
		wantErr bool
	}{
		{"none", NoRollback, false},
		{"FULL", FullRollback, false},
		{" full ", FullRollback, false},
		{"partial", NoRollback, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRollbackPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRollbackPolicy(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRollbackPolicy(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if !tt.wantErr && got.String() != strings.ToLower(strings.TrimSpace(tt.in)) {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}
