package state

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"atrium/config"
	"atrium/internal/domain/service"
)

// RedisStore is a StateStore on a shared Redis instance so rate-limit
// windows and OAuth tickets survive restarts and span replicas.
type RedisStore struct {
	client *redis.Client
}

// NewRedisClient builds the underlying client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ service.StateStore = (*RedisStore)(nil)

// Incr increments the counter under key, attaching the window TTL on the
// first increment.
func (s *RedisStore) Incr(ctx context.Context, key string, windowMillis int64) (int64, int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, errors.Wrap(err, "redis incr")
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, key, time.Duration(windowMillis)*time.Millisecond).Err(); err != nil {
			return 0, 0, errors.Wrap(err, "redis pexpire")
		}

		return count, windowMillis, nil
	}

	remaining, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, errors.Wrap(err, "redis pttl")
	}
	if remaining < 0 {
		// Key lost its TTL (eviction race); re-arm the window.
		if err := s.client.PExpire(ctx, key, time.Duration(windowMillis)*time.Millisecond).Err(); err != nil {
			return 0, 0, errors.Wrap(err, "redis pexpire")
		}
		remaining = time.Duration(windowMillis) * time.Millisecond
	}

	return count, remaining.Milliseconds(), nil
}

// Get returns the value stored under key, if present and unexpired.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis get")
	}

	return value, true, nil
}

// Set stores value under key with a TTL in milliseconds.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttlMillis int64) error {
	if err := s.client.Set(ctx, key, value, time.Duration(ttlMillis)*time.Millisecond).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}

	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}

	return nil
}
