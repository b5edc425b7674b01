package memory

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
)

// LinearRetriever ranks records by a full scan over the Store: embed the
// query, load everything, score each record, sort, take the top k.
// O(N*D) per query, which is acceptable for a single-assistant memory
// pool. An index-backed Retriever can substitute transparently as long as
// the ranking contract holds.
type LinearRetriever struct {
	store    Store
	embedder Embedder
}

// NewLinearRetriever creates a retriever over the given store and embedder.
func NewLinearRetriever(store Store, embedder Embedder) *LinearRetriever {
	return &LinearRetriever{
		store:    store,
		embedder: embedder,
	}
}

// Retrieve returns up to k records ordered most-relevant first.
func (r *LinearRetriever) Retrieve(ctx context.Context, query string, k int) ([]*Record, error) {
	if k <= 0 {
		return nil, nil
	}

	queryEmb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	records, err := r.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}

	type scored struct {
		rec   *Record
		score float64
	}
	ranked := make([]scored, 0, len(records))
	for _, rec := range records {
		ranked = append(ranked, scored{rec: rec, score: Cosine(queryEmb, rec.Embedding)})
	}

	// Deterministic order regardless of store iteration order: score
	// descending, then newer first, then ID.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if !ranked[i].rec.Timestamp.Equal(ranked[j].rec.Timestamp) {
			return ranked[i].rec.Timestamp.After(ranked[j].rec.Timestamp)
		}
		return ranked[i].rec.ID < ranked[j].rec.ID
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]*Record, len(ranked))
	for i, s := range ranked {
		out[i] = s.rec
	}

	log.Printf("[MEMORY] Retrieved %d of %d memories for query: %q", len(out), len(records), truncateLog(query, 50))
	return out, nil
}

// Cosine returns the cosine similarity of a and b in [-1, 1]. If either
// vector has zero norm, or the lengths differ, the similarity is 0.0:
// degenerate vectors never rank, and never divide by zero.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// truncateLog truncates text for logging.
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
