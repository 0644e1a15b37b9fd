package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefix for stored tokens
const tokenKeyPrefix = "sprache:session:"

// RedisStore keeps the token in Redis so several processes on one host can share
// a login. JWT tokens expire from Redis together with their exp claim.
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed store under the given key.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    tokenKeyPrefix + key,
		now:    time.Now,
	}
}

// Token implements TokenSource.
func (s *RedisStore) Token(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token from redis: %w", err)
	}
	return val, nil
}

// SetToken implements Store. A single SET replaces the value atomically.
func (s *RedisStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}

	var ttl time.Duration
	if exp, ok := Expiry(token); ok {
		ttl = exp.Sub(s.now())
		if ttl <= 0 {
			// Already expired: the next call would 401 anyway.
			return s.Clear(ctx)
		}
	}

	if err := s.client.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write token to redis: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete token from redis: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
