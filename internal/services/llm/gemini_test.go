package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeminiServer(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGemini(StaticKey("test-key"), GeminiOptions{BaseURL: srv.URL, Model: "gemini-pro"})
}

func TestGemini_Generate_Success(t *testing.T) {
	var gotPrompt, gotKey, gotPath string
	g := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")

		var body geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil &&
			len(body.Contents) == 1 && len(body.Contents[0].Parts) == 1 {
			gotPrompt = body.Contents[0].Parts[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Notes: gravity, F=ma"},{"text":"ignored"}]}}]}`))
	})

	text, err := g.Generate(context.Background(), "summarize this")
	require.NoError(t, err)

	assert.Equal(t, "Notes: gravity, F=ma", text)
	assert.Equal(t, "summarize this", gotPrompt)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "/v1beta/models/gemini-pro:generateContent", gotPath)
}

func TestGemini_Generate_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    ErrorKind
		wantMessage string
	}{
		{
			name:        "service error with message",
			status:      http.StatusBadRequest,
			body:        `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`,
			wantKind:    KindService,
			wantMessage: "API key not valid.",
		},
		{
			name:        "service error without body",
			status:      http.StatusInternalServerError,
			body:        `oops`,
			wantKind:    KindService,
			wantMessage: "API request failed",
		},
		{
			name:        "malformed json",
			status:      http.StatusOK,
			body:        `{"candidates":`,
			wantKind:    KindMalformed,
			wantMessage: genericFailure,
		},
		{
			name:        "no candidates",
			status:      http.StatusOK,
			body:        `{"candidates":[]}`,
			wantKind:    KindMalformed,
			wantMessage: genericFailure,
		},
		{
			name:        "candidate without parts",
			status:      http.StatusOK,
			body:        `{"candidates":[{"content":{"parts":[]}}]}`,
			wantKind:    KindMalformed,
			wantMessage: genericFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := g.Generate(context.Background(), "prompt")
			require.Error(t, err)

			se, ok := AsServiceError(err)
			require.True(t, ok, "expected *ServiceError, got %T", err)
			assert.Equal(t, tt.wantKind, se.Kind)
			assert.Equal(t, tt.wantMessage, se.Message)
		})
	}
}

func TestGemini_Generate_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := NewGemini(StaticKey("secret-key"), GeminiOptions{BaseURL: srv.URL})
	_, err := g.Generate(context.Background(), "prompt")

	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, se.Kind)
	assert.Equal(t, genericFailure, se.Message)
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestGemini_Generate_NoCredential(t *testing.T) {
	calls := 0
	g := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) { calls++ })
	g.creds = StaticKey("")

	_, err := g.Generate(context.Background(), "prompt")

	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, KindCredential, se.Kind)
	assert.Zero(t, calls, "no request should be sent without a key")
}
