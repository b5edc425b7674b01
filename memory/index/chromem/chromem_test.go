package chromem_test

import (
	"context"
	"testing"

	"github.com/recallware/recall-go/memory"
	chromemindex "github.com/recallware/recall-go/memory/index/chromem"
	"github.com/recallware/recall-go/memory/store/memstore"
)

type vecEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
}

func (e *vecEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return e.fallback, nil
}

func (e *vecEmbedder) Dimensions() int {
	return len(e.fallback)
}

func TestRetriever_EmptyIndex(t *testing.T) {
	ctx := context.Background()
	embedder := &vecEmbedder{fallback: []float32{1, 0, 0}}
	retriever, err := chromemindex.New(embedder)
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}

	got, err := retriever.Retrieve(ctx, "anything", 5)
	if err != nil {
		t.Fatalf("Retrieve on empty index returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty result, got %d records", len(got))
	}
}

func TestRetriever_IndexAndRetrieve(t *testing.T) {
	ctx := context.Background()
	embedder := &vecEmbedder{
		vectors:  map[string][]float32{"query": {1, 0, 0}},
		fallback: []float32{1, 0, 0},
	}
	retriever, err := chromemindex.New(embedder)
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}

	near := memory.NewRecord("near", memory.RoleUser, []float32{0.9, 0.436, 0}, map[string]string{"source": memory.SourceConversation})
	near.ID = "id-near"
	far := memory.NewRecord("far", memory.RoleAssistant, []float32{0.2, 0.98, 0}, nil)
	far.ID = "id-far"
	if err := retriever.Index(ctx, near); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if err := retriever.Index(ctx, far); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	got, err := retriever.Retrieve(ctx, "query", 1)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 record for k=1, got %d", len(got))
	}
	if got[0].Text != "near" || got[0].Role != memory.RoleUser {
		t.Errorf("Expected the near record, got %+v", got[0])
	}
	if got[0].Metadata["source"] != memory.SourceConversation {
		t.Errorf("Metadata lost through the index: %v", got[0].Metadata)
	}

	// k beyond the index size returns everything.
	got, err = retriever.Retrieve(ctx, "query", 10)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 records, got %d", len(got))
	}
}

func TestRetriever_RejectsUnstoredRecord(t *testing.T) {
	ctx := context.Background()
	retriever, err := chromemindex.New(&vecEmbedder{fallback: []float32{1, 0}})
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	rec := memory.NewRecord("no id yet", memory.RoleUser, []float32{1, 0}, nil)
	if err := retriever.Index(ctx, rec); err == nil {
		t.Error("Expected error indexing a record without an ID")
	}
}

func TestRetriever_Backfill(t *testing.T) {
	ctx := context.Background()
	embedder := &vecEmbedder{fallback: []float32{1, 0, 0}}
	store := memstore.New()
	for _, text := range []string{"a", "b", "c"} {
		if _, err := store.Put(ctx, memory.NewRecord(text, memory.RoleUser, []float32{1, 0, 0}, nil)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	retriever, err := chromemindex.New(embedder)
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	if err := retriever.Backfill(ctx, store); err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}

	got, err := retriever.Retrieve(ctx, "query", 10)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Expected 3 backfilled records, got %d", len(got))
	}
}
