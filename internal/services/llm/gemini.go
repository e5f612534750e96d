package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGeminiBaseURL is the public Generative Language API endpoint.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Gemini calls the generateContent method of the Generative Language API.
type Gemini struct {
	baseURL    string
	model      string
	creds      CredentialSource
	httpClient *http.Client
}

// GeminiOptions configures a Gemini client.
type GeminiOptions struct {
	BaseURL string        // Defaults to DefaultGeminiBaseURL
	Model   string        // Defaults to "gemini-pro"
	Timeout time.Duration // Defaults to 120s
}

// NewGemini creates a Gemini client that reads its key from creds on every call.
func NewGemini(creds CredentialSource, opts GeminiOptions) *Gemini {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGeminiBaseURL
	}
	if opts.Model == "" {
		opts.Model = "gemini-pro"
	}
	return &Gemini{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
		creds:      creds,
		httpClient: newHTTPClient(opts.Timeout),
	}
}

// Model returns the model name used for requests.
func (g *Gemini) Model() string { return g.model }

// --- Generative Language API types ---

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorBody struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends a single prompt and returns the first candidate's first text part.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	key := g.creds.APIKey()
	if key == "" {
		return "", credentialError()
	}

	jsonBody, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", malformedError(0, fmt.Errorf("failed to marshal request: %w", err))
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", transportError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// The URL carries the key; don't let it leak into logs via *url.Error.
		return "", transportError(redactURLError(err))
	}
	defer resp.Body.Close() // Go Pattern: ALWAYS close response bodies!

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody geminiErrorBody
		message := ""
		if json.Unmarshal(body, &errBody) == nil && errBody.Error != nil {
			message = errBody.Error.Message
		}
		return "", serviceError(resp.StatusCode, message)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", malformedError(resp.StatusCode, fmt.Errorf("failed to parse response: %w", err))
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", malformedError(resp.StatusCode, fmt.Errorf("response has no candidate text"))
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func redactURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return fmt.Errorf("%s request failed: %w", ue.Op, ue.Err)
	}
	return err
}
