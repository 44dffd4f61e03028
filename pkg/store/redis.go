package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces program keys: "<prefix><world-id>".
const DefaultRedisPrefix = "worlds:"

// RedisStore keeps each program as a Redis list.
type RedisStore struct {
	Client *redis.Client
	prefix string
}

// RedisOptions aliases the client options so callers need not import
// go-redis themselves.
type RedisOptions = redis.Options

// NewRedisStore connects lazily using options.
func NewRedisStore(options RedisOptions, prefix string) *RedisStore {
	return &RedisStore{
		Client: redis.NewClient(&options),
		prefix: prefix,
	}
}

func (s *RedisStore) key(worldID string) string {
	return s.prefix + worldID
}

func (s *RedisStore) Lines(ctx context.Context, worldID string) ([]string, error) {
	lines, err := s.Client.LRange(ctx, s.key(worldID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read program %s: %w", worldID, err)
	}
	if len(lines) == 0 {
		return nil, nil
	}
	return lines, nil
}

// SetLines replaces the list in one MULTI/EXEC transaction so readers never
// observe a half-written program.
func (s *RedisStore) SetLines(ctx context.Context, worldID string, lines []string) error {
	key := s.key(worldID)
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(lines) > 0 {
			values := make([]any, len(lines))
			for i, l := range lines {
				values[i] = l
			}
			pipe.RPush(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write program %s: %w", worldID, err)
	}
	return nil
}

// Save is a no-op: every SetLines is already committed.
func (s *RedisStore) Save(_ context.Context) error {
	return nil
}

func (s *RedisStore) Close() error {
	if err := s.Client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}
