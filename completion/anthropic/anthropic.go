// Package anthropic provides a completion.Client backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/recallware/recall-go/completion"
)

// DefaultModel is a small, fast Claude model.
const DefaultModel = string(anthropic.ModelClaude3_5HaikuLatest)

const requestTimeout = 60 * time.Second

// Client calls the Anthropic Messages API.
type Client struct {
	client anthropic.Client
	cfg    completion.Config
	system string
}

// New creates a client authenticated with apiKey.
func New(apiKey string, cfg completion.Config, systemPrompt string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("completion client: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cfg = cfg.WithDefaults()

	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		cfg:    cfg,
		system: systemPrompt,
	}, nil
}

// Complete sends the composed prompt as a single user message and returns
// the concatenated text blocks of the reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.cfg.Model),
		MaxTokens:   int64(c.cfg.MaxTokens),
		Temperature: anthropic.Float(float64(c.cfg.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: c.system},
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &completion.APIError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return "", err
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
