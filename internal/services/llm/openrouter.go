package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultOpenRouterBaseURL is the OpenRouter API root.
//
// OpenRouter provides a unified API for multiple LLM providers (OpenAI,
// Anthropic, Google, etc.) using a single API key. The request format
// follows the OpenAI chat completions standard.
const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouter is an alternative provider for deployments that route through
// OpenRouter instead of calling Gemini directly.
type OpenRouter struct {
	baseURL    string
	model      string
	creds      CredentialSource
	httpClient *http.Client
}

// OpenRouterOptions configures an OpenRouter client.
type OpenRouterOptions struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewOpenRouter creates a new OpenRouter client.
func NewOpenRouter(creds CredentialSource, opts OpenRouterOptions) *OpenRouter {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenRouterBaseURL
	}
	if opts.Model == "" {
		opts.Model = "google/gemini-2.0-flash-001"
	}
	return &OpenRouter{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
		creds:      creds,
		httpClient: newHTTPClient(opts.Timeout),
	}
}

// Model returns the model name used for requests.
func (o *OpenRouter) Model() string { return o.model }

// --- OpenRouter API types ---
// These match the OpenAI chat completions format used by OpenRouter.

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Generate sends the prompt as a single user message.
func (o *OpenRouter) Generate(ctx context.Context, prompt string) (string, error) {
	key := o.creds.APIKey()
	if key == "" {
		return "", credentialError()
	}

	jsonBody, err := json.Marshal(chatRequest{
		Model:    o.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", malformedError(0, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", transportError(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", "https://github.com/Shimizu-Technology/lecture-notes-api")
	req.Header.Set("X-Title", "Lecture Notes API")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", transportError(fmt.Errorf("OpenRouter request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(fmt.Errorf("failed to read response: %w", err))
	}

	var chatResp chatResponse
	parseErr := json.Unmarshal(body, &chatResp)

	if resp.StatusCode != http.StatusOK {
		message := ""
		if parseErr == nil && chatResp.Error != nil {
			message = chatResp.Error.Message
		}
		return "", serviceError(resp.StatusCode, message)
	}

	if parseErr != nil {
		return "", malformedError(resp.StatusCode, fmt.Errorf("failed to parse response: %w", parseErr))
	}

	// OpenRouter sometimes reports upstream failures inside a 200 body.
	if chatResp.Error != nil {
		return "", serviceError(resp.StatusCode, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", malformedError(resp.StatusCode, fmt.Errorf("no response from model"))
	}

	return chatResp.Choices[0].Message.Content, nil
}
