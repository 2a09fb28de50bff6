package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	idempotencyPending = "pending"
	IdempotencyTTL     = 24 * time.Hour
)

// IdempotencyStore remembers the outcome of a request key so client retries
// return the first result instead of running the operation again.
type IdempotencyStore interface {
	// Acquire claims key for a new attempt. When the key already finished,
	// result holds the stored outcome; when it is still running, both are empty.
	Acquire(ctx context.Context, key string) (result string, acquired bool, err error)
	Complete(ctx context.Context, key, result string) error
	Release(ctx context.Context, key string) error
}

type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client, prefix string) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: prefix, ttl: IdempotencyTTL}
}

func (s *RedisIdempotencyStore) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RedisIdempotencyStore) Acquire(ctx context.Context, key string) (string, bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), idempotencyPending, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if val == idempotencyPending {
		return "", false, nil
	}
	return val, false, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, result string) error {
	if err := s.client.Set(ctx, s.key(key), result, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency result: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// NoopIdempotencyStore treats every request as new. Used when Redis is not configured.
type NoopIdempotencyStore struct{}

func (NoopIdempotencyStore) Acquire(context.Context, string) (string, bool, error) {
	return "", true, nil
}

func (NoopIdempotencyStore) Complete(context.Context, string, string) error { return nil }

func (NoopIdempotencyStore) Release(context.Context, string) error { return nil }
