// Package completion defines the remote text-completion contract the
// assistant consumes, and the fixed fallback replies used when a
// completion fails. Backends: an OpenAI-compatible chat client (Groq by
// default) and an Anthropic client.
package completion

import (
	"context"
	"errors"
	"fmt"
)

// Default generation parameters.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 512
)

// Config holds the generation parameters shared by all backends.
type Config struct {
	// Model is the backend-specific model identifier.
	Model string

	// Temperature controls sampling randomness (default 0.7).
	Temperature float32

	// MaxTokens caps the generated reply length (default 512).
	MaxTokens int
}

// WithDefaults fills zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// Client produces a text completion for a fully composed prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// APIError reports a non-success response from a completion backend, as
// opposed to a transport-level failure.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion API error (status %d): %s", e.StatusCode, e.Message)
}

// Fixed user-visible replies for failed completions. The conversation
// turn never fails on a completion error; it answers with one of these.
const (
	ReplyBadRequest   = "⚠️ Error: Bad request to the completion API."
	ReplyNetworkError = "⚠️ Network error. Please check your connection."
)

// FallbackReply maps a completion failure to the fixed reply shown to the
// user: API-level rejections read differently from unreachable backends.
func FallbackReply(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return ReplyBadRequest
	}
	return ReplyNetworkError
}
