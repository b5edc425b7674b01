// Package openai provides a completion.Client for any OpenAI-compatible
// chat completions endpoint. Groq is the default target.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/recallware/recall-go/completion"
)

// GroqBaseURL is the OpenAI-compatible endpoint of the Groq API.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// DefaultModel is a small, fast Groq-hosted model.
const DefaultModel = "llama-3.1-8b-instant"

// DefaultSystemPrompt frames the assistant for every completion call.
const DefaultSystemPrompt = "You are a helpful AI voice and text assistant."

// requestTimeout bounds a single completion call. Timed-out calls are
// failures, not retried, not cancelled mid-flight by anyone else.
const requestTimeout = 60 * time.Second

// Config configures the client.
type Config struct {
	// APIKey authenticates against the provider. Required.
	APIKey string

	// BaseURL selects the provider endpoint (default: Groq).
	BaseURL string

	// SystemPrompt overrides DefaultSystemPrompt when non-empty.
	SystemPrompt string

	completion.Config
}

// Client calls the chat completions API.
type Client struct {
	client *openai.Client
	cfg    Config
}

// New creates a client. The API key is the only required field.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("completion client: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = GroqBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	cfg.Config = cfg.Config.WithDefaults()

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Complete sends the composed prompt as a single user message and returns
// the assistant's text. API-level rejections come back as
// *completion.APIError; anything else is a transport failure.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &completion.APIError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", &completion.APIError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", &completion.APIError{Message: "no choices in completion response"}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
