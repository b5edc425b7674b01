// Package chromem provides an index-backed Retriever over chromem-go, an
// embedded pure-Go vector database. It preserves the linear retriever's
// ranking contract (cosine descending, recency-then-ID tie-break) while
// avoiding the full corpus scan per query.
//
// The index lives next to the Store, not instead of it: callers mirror
// every Put into Index, and can Backfill from an existing store at startup.
package chromem

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/recallware/recall-go/memory"
)

const collectionName = "memories"

// Reserved metadata keys used to round-trip Record fields through chromem
// documents. Record metadata with these names would collide, so Index
// rejects it.
const (
	metaRole      = "_role"
	metaTimestamp = "_timestamp"
)

// Retriever is a chromem-backed memory.Retriever and memory.Indexer.
type Retriever struct {
	col      *chromem.Collection
	embedder memory.Embedder
}

// New creates an empty in-process index.
func New(embedder memory.Embedder) (*Retriever, error) {
	db := chromem.NewDB()
	// No embedding func and no distance func: embeddings are always
	// provided explicitly and the default cosine distance applies.
	col, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem index: create collection: %w", err)
	}
	return &Retriever{col: col, embedder: embedder}, nil
}

// Index mirrors a stored record into the vector index.
func (r *Retriever) Index(ctx context.Context, rec *memory.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("chromem index: record has no ID (not stored yet?)")
	}

	meta := map[string]string{
		metaRole:      string(rec.Role),
		metaTimestamp: rec.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range rec.Metadata {
		if k == metaRole || k == metaTimestamp {
			return fmt.Errorf("chromem index: reserved metadata key %q", k)
		}
		meta[k] = v
	}

	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Text,
		Embedding: rec.Embedding,
		Metadata:  meta,
	}
	if err := r.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("chromem index: add document: %w", err)
	}
	return nil
}

// Backfill indexes every record the store already holds. Called once at
// startup so the index catches up with history written by earlier runs.
func (r *Retriever) Backfill(ctx context.Context, store memory.Store) error {
	records, err := store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("chromem index: backfill: %w", err)
	}
	for _, rec := range records {
		if err := r.Index(ctx, rec); err != nil {
			return err
		}
	}
	log.Printf("[CHROMEM] Backfilled %d memories", len(records))
	return nil
}

// Retrieve returns up to k records ordered most-relevant first.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]*memory.Record, error) {
	if k <= 0 || r.col.Count() == 0 {
		return nil, nil
	}

	queryEmb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// chromem caps nResults at the collection size.
	n := k
	if count := r.col.Count(); n > count {
		n = count
	}

	results, err := r.col.QueryEmbedding(ctx, queryEmb, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem index: query: %w", err)
	}

	records := make([]*memory.Record, 0, len(results))
	for _, res := range results {
		rec, err := documentToRecord(res)
		if err != nil {
			log.Printf("[CHROMEM] Skipping unreadable index entry %s: %v", res.ID, err)
			continue
		}
		records = append(records, rec)
	}

	// chromem orders by similarity but leaves ties unspecified; re-apply
	// the deterministic tie-break.
	sort.SliceStable(records, func(i, j int) bool {
		si := memory.Cosine(queryEmb, records[i].Embedding)
		sj := memory.Cosine(queryEmb, records[j].Embedding)
		if si != sj {
			return si > sj
		}
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

func documentToRecord(res chromem.Result) (*memory.Record, error) {
	ts, err := time.Parse(time.RFC3339Nano, res.Metadata[metaTimestamp])
	if err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}
	role := memory.Role(res.Metadata[metaRole])
	if role != memory.RoleUser && role != memory.RoleAssistant {
		return nil, fmt.Errorf("unknown role %q", res.Metadata[metaRole])
	}

	metadata := map[string]string{}
	for k, v := range res.Metadata {
		if k == metaRole || k == metaTimestamp {
			continue
		}
		metadata[k] = v
	}

	return &memory.Record{
		ID:        res.ID,
		Text:      res.Content,
		Embedding: res.Embedding,
		Role:      role,
		Timestamp: ts,
		Metadata:  metadata,
	}, nil
}
