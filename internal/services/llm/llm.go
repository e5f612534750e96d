// Package llm wraps the hosted text-generation services behind a single
// prompt-in, text-out call.
//
// Every call is at-most-once: there is no retry and no rate-limit handling.
// Failures come back as *ServiceError so callers can decide how to present
// them without knowing which provider produced them.
package llm

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies why a generation call failed.
type ErrorKind string

const (
	KindCredential ErrorKind = "credential" // No API key is configured
	KindTransport  ErrorKind = "transport"  // The request never got a response
	KindService    ErrorKind = "service"    // Non-2xx status from the service
	KindMalformed  ErrorKind = "malformed"  // 2xx with a body we can't read
)

// genericFailure is shown for transport and format errors, where the most
// common cause is a bad or revoked key.
const genericFailure = "Failed to connect to the generation service. Please check your API key."

// ServiceError is returned by every provider in this package.
type ServiceError struct {
	Kind    ErrorKind
	Status  int    // HTTP status, 0 when no response was received
	Message string // Human-readable, safe to show to the user
	Err     error  // Underlying cause, if any
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// AsServiceError reports whether err is (or wraps) a *ServiceError.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func credentialError() *ServiceError {
	return &ServiceError{
		Kind:    KindCredential,
		Message: "No API key configured. Save an API key before generating notes.",
	}
}

func transportError(err error) *ServiceError {
	return &ServiceError{Kind: KindTransport, Message: genericFailure, Err: err}
}

func malformedError(status int, err error) *ServiceError {
	return &ServiceError{Kind: KindMalformed, Status: status, Message: genericFailure, Err: err}
}

func serviceError(status int, message string) *ServiceError {
	if message == "" {
		message = "API request failed"
	}
	return &ServiceError{Kind: KindService, Status: status, Message: message}
}

// CredentialSource supplies the API key at call time. The key is entered by
// the user at runtime, so providers must not capture it at construction.
type CredentialSource interface {
	APIKey() string
}

// StaticKey is a CredentialSource with a fixed key.
type StaticKey string

// APIKey returns the key.
func (k StaticKey) APIKey() string { return string(k) }

// newHTTPClient builds the shared client for a provider.
// Go Pattern: Always configure timeouts on HTTP clients.
// The default http.Client has NO timeout; requests can hang forever!
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 120 * time.Second // LLMs can be slow
	}
	return &http.Client{Timeout: timeout}
}
