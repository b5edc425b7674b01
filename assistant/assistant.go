// Package assistant ties the memory engine to a completion backend: each
// conversation turn retrieves relevant memories, composes a prompt, calls
// the completion client, and persists both sides of the exchange.
package assistant

import (
	"context"
	"fmt"
	"log"

	"github.com/recallware/recall-go/completion"
	"github.com/recallware/recall-go/memory"
)

// DefaultRetrieveLimit is how many memories a turn retrieves (K).
const DefaultRetrieveLimit = 5

// Assistant is the conversation orchestrator. It holds no mutable state
// between turns; the Store is the only shared resource, so concurrent
// Handle calls interleave freely.
type Assistant struct {
	store        memory.Store
	embedder     memory.Embedder
	retriever    memory.Retriever
	client       completion.Client
	indexer      memory.Indexer
	instructions string
	k            int
}

// Option configures the assistant.
type Option func(*Assistant)

// WithRetrieveLimit overrides the number of memories retrieved per turn.
func WithRetrieveLimit(k int) Option {
	return func(a *Assistant) {
		a.k = k
	}
}

// WithInstructions overrides the default prompt instructions.
func WithInstructions(instructions string) Option {
	return func(a *Assistant) {
		a.instructions = instructions
	}
}

// New creates an assistant. Dependencies are passed explicitly; there is
// no ambient store, which keeps test doubles and multiple independent
// instances straightforward. When the retriever maintains its own index
// (memory.Indexer), every persisted record is mirrored into it.
func New(store memory.Store, embedder memory.Embedder, retriever memory.Retriever, client completion.Client, opts ...Option) *Assistant {
	a := &Assistant{
		store:     store,
		embedder:  embedder,
		retriever: retriever,
		client:    client,
		k:         DefaultRetrieveLimit,
	}
	if ix, ok := retriever.(memory.Indexer); ok {
		a.indexer = ix
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle runs one conversation turn: retrieve, compose, complete,
// persist. It returns the reply and the memories that informed it.
//
// A completion failure never aborts the turn; the reply becomes the fixed
// fallback string and the turn is persisted as usual. Store or embedder
// failure is a hard failure of the turn. When persist is false nothing is
// written (dry-run turns, replays).
func (a *Assistant) Handle(ctx context.Context, userText string, persist bool) (string, []*memory.Record, error) {
	retrieved, err := a.retriever.Retrieve(ctx, userText, a.k)
	if err != nil {
		return "", nil, fmt.Errorf("retrieve memories: %w", err)
	}

	prompt := ComposePrompt(userText, retrieved, a.instructions)

	reply, err := a.client.Complete(ctx, prompt)
	if err != nil {
		log.Printf("[ASSISTANT] Completion failed: %v", err)
		reply = completion.FallbackReply(err)
	}

	if persist {
		// Two separate writes: a crash in between loses only the reply
		// half of the turn, which is acceptable for this design.
		if err := a.remember(ctx, userText, memory.RoleUser); err != nil {
			return "", nil, err
		}
		if err := a.remember(ctx, reply, memory.RoleAssistant); err != nil {
			return "", nil, err
		}
	}

	return reply, retrieved, nil
}

func (a *Assistant) remember(ctx context.Context, text string, role memory.Role) error {
	emb, err := a.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed %s utterance: %w", role, err)
	}

	rec := memory.NewRecord(text, role, emb, map[string]string{"source": memory.SourceConversation})
	if _, err := a.store.Put(ctx, rec); err != nil {
		return fmt.Errorf("persist %s utterance: %w", role, err)
	}

	if a.indexer != nil {
		// The store is the source of truth; an index miss only costs
		// recall until the next backfill.
		if err := a.indexer.Index(ctx, rec); err != nil {
			log.Printf("[ASSISTANT] Index write failed for %s: %v", rec.ID, err)
		}
	}
	return nil
}
