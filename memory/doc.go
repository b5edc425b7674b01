// Package memory provides the conversational memory engine: durable storage
// of embedded utterances and similarity-ranked retrieval over them.
//
// The memory system persists every conversation turn (user utterance and
// assistant reply) together with a fixed-dimensionality, L2-normalized
// embedding, and ranks stored records by cosine similarity against the
// current query.
//
// Architecture:
//   - Store: durable append-only record persistence (Redis for production,
//     an in-memory store for tests and local development)
//   - Embedder: text-to-vector conversion (OpenAI-compatible API, local
//     ONNX model, or a deterministic mock)
//   - Retriever: similarity ranking (linear scan over the Store, or a
//     chromem-go backed index preserving the same ranking contract)
//
// Records are append-only: created once, read many times, never updated or
// deleted by this package. The Store is the only shared resource between
// concurrent conversation turns; implementations must support concurrent
// Put and GetAll.
package memory
