// Package openai provides an Embedder backed by any OpenAI-compatible
// embeddings endpoint (OpenAI, SiliconFlow, Ollama, and friends).
package openai

import (
	"context"
	"errors"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// Config configures the API embedder.
type Config struct {
	// APIKey authenticates against the provider. Required.
	APIKey string

	// BaseURL overrides the OpenAI endpoint for compatible providers.
	BaseURL string

	// Model is the embedding model name (default: text-embedding-3-small).
	Model string

	// Dimensions optionally requests a reduced vector size from models
	// that support it. 0 uses the model default.
	Dimensions int
}

// Embedder calls the embeddings API. Vectors are re-normalized locally so
// the unit-norm contract holds regardless of provider behavior.
type Embedder struct {
	client     *openai.Client
	model      string
	requestDim int
	dimensions int
}

// New creates the embedder and probes the backend once with the empty
// string. A dead backend therefore fails at startup, not mid-conversation,
// and the probe establishes the actual vector dimensionality.
func New(ctx context.Context, cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai embedder: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	e := &Embedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		requestDim: cfg.Dimensions,
	}

	probe, err := e.Embed(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("openai embedder: backend unavailable: %w", err)
	}
	e.dimensions = len(probe)
	return e, nil
}

// Embed converts a single text to a unit-normalized vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.requestDim,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return normalize(resp.Data[0].Embedding), nil
}

// Dimensions returns the vector size observed at startup.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	n := float32(math.Sqrt(norm))
	for i, v := range vec {
		vec[i] = v / n
	}
	return vec
}
