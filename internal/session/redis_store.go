package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore backs the session mapping with redis so correlations survive
// process restarts.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a redis client. Returns nil for a nil client so the
// caller can fall through to the in-memory store.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		return nil
	}
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

// Get fetches a mapping entry. A missing key is not an error.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.client == nil {
		return "", false, nil
	}
	value, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session: redis get %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes a mapping entry with no TTL; the mapping has process-lifetime
// semantics and redis merely lets it outlive restarts.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("session: redis set %q: %w", key, err)
	}
	return nil
}
