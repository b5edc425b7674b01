// Package memstore provides an in-memory Store for tests and local
// development. It honors the same contract as the Redis store: append-only
// records, IDs assigned on Put, safe concurrent Put/GetAll.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/recallware/recall-go/memory"
)

// MemStore keeps records in process memory. Nothing survives a restart.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*memory.Record
	dim     int
}

// New creates an empty in-memory store.
func New() *MemStore {
	return &MemStore{
		records: make(map[string]*memory.Record),
	}
}

// Put assigns a fresh ID and keeps the record.
func (s *MemStore) Put(ctx context.Context, rec *memory.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim == 0 {
		s.dim = len(rec.Embedding)
	} else if len(rec.Embedding) != s.dim {
		return "", &memory.DimensionMismatchError{Want: s.dim, Got: len(rec.Embedding)}
	}

	rec.ID = uuid.New().String()
	stored := *rec
	s.records[rec.ID] = &stored
	return rec.ID, nil
}

// GetAll returns every stored record.
func (s *MemStore) GetAll(ctx context.Context) ([]*memory.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*memory.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

// Len reports the number of stored records.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op.
func (s *MemStore) Close() error {
	return nil
}
