package kv

import (
	"context"
	"time"

	"shorts-web/internal/redis"
)

// RedisClient is the subset of *redis.Client the Redis backend needs.
type RedisClient interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisStore keeps values in Redis under a fixed key prefix and relies on
// Redis expiry for ttl handling.
type RedisStore struct {
	client RedisClient
	prefix string
}

// NewRedisStore namespaces every key with prefix, e.g. "shorts:session:".
func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.GetBytes(ctx, s.prefix+key)
	if err != nil {
		if redis.IsNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Delete(ctx, s.prefix+key)
}
