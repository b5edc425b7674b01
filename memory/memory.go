package memory

import (
	"context"
	"errors"
	"fmt"
)

// ErrStoreUnavailable indicates the store backend could not be reached.
// Store implementations wrap it into read/write failures so callers can
// distinguish backend unavailability from corrupt data with errors.Is.
// There is no retry at the store layer; the failure propagates up as a
// hard failure of the current conversation turn.
var ErrStoreUnavailable = errors.New("memory store unavailable")

// DimensionMismatchError reports an attempt to store an embedding whose
// length differs from the dimensionality the store already holds. The
// store never mixes dimensions: changing the embedder invalidates the
// whole store, and this error makes the skew explicit.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: store holds %d, got %d", e.Want, e.Got)
}

// Embedder converts text to a fixed-dimensionality, L2-normalized vector.
// Implementations: MockEmbedder (testing), OpenAIEmbedder (API-based),
// ONNXEmbedder (local model, build tag "onnx").
//
// Embedding is deterministic for a fixed model version: same text, same
// vector (up to numeric noise). Empty input must not fail; it produces the
// model's canonical embedding for the empty string. Backend unavailability
// surfaces at construction time and aborts startup, not per call.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Store is the durable record persistence backend.
// Implementations: RedisStore (production), MemStore (tests, local dev).
//
// The contract is deliberately create-and-read-all only: records are
// append-only and the full corpus is small enough to scan per query.
type Store interface {
	// Put assigns a fresh unique ID to rec, writes the record and its
	// index entry together, and returns the ID. The record and the index
	// mutation happen in a single transaction where the backend supports
	// one; otherwise the record is written first so that the recoverable
	// failure mode is a dangling index entry, which GetAll ignores.
	Put(ctx context.Context, rec *Record) (string, error)

	// GetAll loads the full index and every indexed record. Records that
	// are missing or fail to deserialize are skipped, not errors: a single
	// corrupt record must never fail retrieval for the whole conversation.
	// Backend unavailability wraps ErrStoreUnavailable.
	GetAll(ctx context.Context) ([]*Record, error)

	// Close releases backend resources.
	Close() error
}

// Retriever ranks stored records by semantic similarity to a query.
//
// Retrieve returns up to k records ordered most-relevant first. k = 0 and
// an empty store both yield an empty result, never an error. Ranking is
// cosine similarity descending; zero-norm vectors score 0.0 against
// anything; ties break deterministically by newer timestamp, then ID.
// Any implementation (linear scan or index-backed) must preserve this
// contract.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]*Record, error)
}

// Indexer is implemented by retrievers that maintain their own index next
// to the Store (e.g. the chromem-backed retriever). Callers that write
// records mirror each Put into the index via Index.
type Indexer interface {
	Index(ctx context.Context, rec *Record) error
}
