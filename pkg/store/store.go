// Package store provides the Program Store: a mapping from world id to the
// ordered list of serialized lines compiled for that world.
//
// Backends:
//   - MemoryStore: in-process map, used by tests and scenario replays
//   - FileStore: a YAML document holding every program under "worlds.<id>"
//   - RedisStore: one Redis list per world
//   - SQLiteStore: one row per line
//
// Stores serialize their own reads and writes; callers do not need to
// coordinate a compile with concurrent interpreter reads.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ProgramStore is the read/write contract the compiler and interpreter use.
type ProgramStore interface {
	// Lines returns the program for worldID. An unknown world has no lines.
	Lines(ctx context.Context, worldID string) ([]string, error)
	// SetLines replaces the whole program for worldID.
	SetLines(ctx context.Context, worldID string, lines []string) error
	// Save flushes pending writes to the backing medium.
	Save(ctx context.Context) error
}

// Closer is implemented by stores holding external resources.
type Closer interface {
	Close() error
}

// Open creates a store from a URI:
//
//	memory:
//	file:<path.yaml>
//	redis://host:port/db
//	sqlite:<path.db>
func Open(uri string) (ProgramStore, error) {
	scheme, rest, _ := strings.Cut(uri, ":")
	switch scheme {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		if rest == "" {
			return nil, fmt.Errorf("file store requires a path: %q", uri)
		}
		return OpenFileStore(rest)
	case "redis", "rediss":
		opts, err := redis.ParseURL(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid redis uri: %w", err)
		}
		return NewRedisStore(*opts, DefaultRedisPrefix), nil
	case "sqlite":
		if rest == "" {
			return nil, fmt.Errorf("sqlite store requires a path: %q", uri)
		}
		return OpenSQLiteStore(rest)
	default:
		return nil, fmt.Errorf("unknown store scheme %q", scheme)
	}
}

// MemoryStore keeps programs in a map.
type MemoryStore struct {
	mu     sync.RWMutex
	worlds map[string][]string
	saves  int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{worlds: make(map[string][]string)}
}

func (s *MemoryStore) Lines(_ context.Context, worldID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines, ok := s.worlds[worldID]
	if !ok {
		return nil, nil
	}
	return append([]string(nil), lines...), nil
}

func (s *MemoryStore) SetLines(_ context.Context, worldID string, lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worlds[worldID] = append([]string(nil), lines...)
	return nil
}

func (s *MemoryStore) Save(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
