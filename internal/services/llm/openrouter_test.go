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

func TestOpenRouter_Generate(t *testing.T) {
	var got chatRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"content":"an answer"}}]}`))
	}))
	defer srv.Close()

	o := NewOpenRouter(StaticKey("or-key"), OpenRouterOptions{BaseURL: srv.URL, Model: "test/model"})
	text, err := o.Generate(context.Background(), "a question")
	require.NoError(t, err)

	assert.Equal(t, "an answer", text)
	assert.Equal(t, "Bearer or-key", auth)
	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "test/model", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "a question", got.Messages[0].Content)
}

func TestOpenRouter_Generate_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    ErrorKind
		wantMessage string
	}{
		{"non-200 with error", http.StatusUnauthorized, `{"error":{"message":"No auth credentials found","code":401}}`, KindService, "No auth credentials found"},
		{"non-200 plain", http.StatusBadGateway, `bad gateway`, KindService, "API request failed"},
		{"error inside 200", http.StatusOK, `{"error":{"message":"upstream overloaded","code":502}}`, KindService, "upstream overloaded"},
		{"no choices", http.StatusOK, `{"choices":[]}`, KindMalformed, genericFailure},
		{"not json", http.StatusOK, `<html>`, KindMalformed, genericFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			o := NewOpenRouter(StaticKey("k"), OpenRouterOptions{BaseURL: srv.URL})
			_, err := o.Generate(context.Background(), "p")

			se, ok := AsServiceError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, se.Kind)
			assert.Equal(t, tt.wantMessage, se.Message)
		})
	}
}
