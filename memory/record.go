package memory

import (
	"time"
)

// Role identifies the author of a recorded utterance.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SourceConversation is the metadata "source" tag applied to records
// persisted by the conversation loop. The two records of a turn share it
// and are linked only implicitly by adjacent timestamps.
const SourceConversation = "conversation"

// Record is the unit of persisted conversational state. All fields are
// immutable after creation except ID, which the Store assigns on Put.
type Record struct {
	// ID is an opaque unique identifier, assigned by the Store, never reused.
	ID string

	// Text is the original utterance or reply.
	Text string

	// Embedding is the L2-normalized vector for Text. Its length is
	// constant across all records in a store; changing the embedder
	// invalidates the whole store rather than being silently mixed.
	Embedding []float32

	// Role is who produced Text.
	Role Role

	// Timestamp is the UTC creation time.
	Timestamp time.Time

	// Metadata is an open string mapping, possibly empty.
	Metadata map[string]string
}

// NewRecord creates an unstored record stamped with the current UTC time.
// The ID stays empty until Store.Put assigns one.
func NewRecord(text string, role Role, embedding []float32, metadata map[string]string) *Record {
	return &Record{
		Text:      text,
		Embedding: embedding,
		Role:      role,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}
