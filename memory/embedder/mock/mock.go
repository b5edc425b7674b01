// Package mock provides a deterministic embedder for tests and offline
// development. Vectors are generated from a hash of the text, so the same
// text always embeds to the same unit vector, but there is no real
// semantic similarity between different texts.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// DefaultDimensions matches all-MiniLM-L6-v2, the model the local ONNX
// embedder runs.
const DefaultDimensions = 384

// MockEmbedder generates deterministic pseudo-random unit vectors.
type MockEmbedder struct {
	dimensions int
}

// New creates a mock embedder with DefaultDimensions.
func New() *MockEmbedder {
	return NewWithDimensions(DefaultDimensions)
}

// NewWithDimensions creates a mock embedder with an explicit vector size.
func NewWithDimensions(dims int) *MockEmbedder {
	return &MockEmbedder{dimensions: dims}
}

// Embed creates a deterministic embedding from a hash of text. The empty
// string embeds like any other input; it never fails.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, m.dimensions)
	for i := 0; i < m.dimensions; i++ {
		// LCG seeded by the text hash.
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (m *MockEmbedder) Dimensions() int {
	return m.dimensions
}

// normalize converts the vector to unit length.
func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}
