// Package redis provides the production Store backed by Redis.
//
// Layout follows one hash per record plus a set of all record keys:
//
//	memory:<uuid>  -> hash {id, text, embedding, role, timestamp, metadata}
//	memory_index   -> set of record keys
//
// Embedding and metadata are stored JSON-encoded. Put writes the hash and
// the index entry in a single MULTI/EXEC transaction, so record and index
// never diverge on the write path. GetAll is best-effort: dangling index
// entries and undecodable hashes are skipped, never batch failures.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/recallware/recall-go/memory"
)

const (
	keyPrefix     = "memory:"
	indexKey      = "memory_index"
	dimensionsKey = "memory_dimensions"
)

// Store is a Redis-backed memory.Store.
type Store struct {
	client *goredis.Client

	mu  sync.Mutex
	dim int // established embedding dimensionality, 0 until known
}

// Open connects to a Redis-compatible URL and verifies the connection.
// An unreachable backend fails here, before the first conversation turn.
func Open(ctx context.Context, redisURL string) (*Store, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis store: invalid URL: %w", err)
	}
	return OpenWithOptions(ctx, opts)
}

// OpenWithOptions connects with explicit go-redis options.
func OpenWithOptions(ctx context.Context, opts *goredis.Options) (*Store, error) {
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis store: ping failed: %w: %w", err, memory.ErrStoreUnavailable)
	}

	s := &Store{client: client}
	// Pick up the dimensionality established by earlier runs, if any.
	if v, err := client.Get(ctx, dimensionsKey).Result(); err == nil {
		if dim, err := strconv.Atoi(v); err == nil {
			s.dim = dim
		}
	}
	return s, nil
}

// Put writes the record hash and its index entry transactionally and
// returns the freshly assigned ID.
func (s *Store) Put(ctx context.Context, rec *memory.Record) (string, error) {
	if err := s.checkDimensions(ctx, len(rec.Embedding)); err != nil {
		return "", err
	}

	rec.ID = uuid.New().String()
	key := keyPrefix + rec.ID

	fields, err := encodeRecord(rec)
	if err != nil {
		return "", fmt.Errorf("redis store: encode record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.SAdd(ctx, indexKey, key)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis store: put %s: %w: %w", key, err, memory.ErrStoreUnavailable)
	}
	return rec.ID, nil
}

// GetAll loads the index and every indexed record. Corrupt or missing
// records are logged and skipped.
func (s *Store) GetAll(ctx context.Context) ([]*memory.Record, error) {
	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis store: load index: %w: %w", err, memory.ErrStoreUnavailable)
	}

	records := make([]*memory.Record, 0, len(keys))
	for _, key := range keys {
		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("redis store: load %s: %w: %w", key, err, memory.ErrStoreUnavailable)
		}
		if len(fields) == 0 {
			// Dangling index entry: the record never landed or expired.
			continue
		}
		rec, err := decodeRecord(fields)
		if err != nil {
			log.Printf("[REDIS] Skipping corrupt record %s: %v", key, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close releases the client connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// checkDimensions establishes the store dimensionality on first write and
// rejects skewed embeddings afterwards.
func (s *Store) checkDimensions(ctx context.Context, got int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim == 0 {
		set, err := s.client.SetNX(ctx, dimensionsKey, strconv.Itoa(got), 0).Result()
		if err != nil {
			return fmt.Errorf("redis store: record dimensions: %w: %w", err, memory.ErrStoreUnavailable)
		}
		if set {
			s.dim = got
			return nil
		}
		// Another writer got there first; read what it established.
		v, err := s.client.Get(ctx, dimensionsKey).Result()
		if err != nil {
			return fmt.Errorf("redis store: read dimensions: %w: %w", err, memory.ErrStoreUnavailable)
		}
		dim, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("redis store: corrupt dimensions key %q", v)
		}
		s.dim = dim
	}
	if got != s.dim {
		return &memory.DimensionMismatchError{Want: s.dim, Got: got}
	}
	return nil
}

func encodeRecord(rec *memory.Record) (map[string]any, error) {
	emb, err := json.Marshal(rec.Embedding)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding: %w", err)
	}
	meta := rec.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return map[string]any{
		"id":        rec.ID,
		"text":      rec.Text,
		"embedding": string(emb),
		"role":      string(rec.Role),
		"timestamp": rec.Timestamp.UTC().Format(time.RFC3339Nano),
		"metadata":  string(metaJSON),
	}, nil
}

func decodeRecord(fields map[string]string) (*memory.Record, error) {
	id, ok := fields["id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("missing id field")
	}

	var embedding []float32
	if err := json.Unmarshal([]byte(fields["embedding"]), &embedding); err != nil {
		return nil, fmt.Errorf("unmarshal embedding: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, fields["timestamp"])
	if err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}

	metadata := map[string]string{}
	if raw := fields["metadata"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	role := memory.Role(fields["role"])
	if role != memory.RoleUser && role != memory.RoleAssistant {
		return nil, fmt.Errorf("unknown role %q", fields["role"])
	}

	return &memory.Record{
		ID:        id,
		Text:      fields["text"],
		Embedding: embedding,
		Role:      role,
		Timestamp: ts,
		Metadata:  metadata,
	}, nil
}
