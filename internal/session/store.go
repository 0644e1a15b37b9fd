// Package session holds the current bearer token. The authentication flow is
// the single writer; API clients only read through TokenSource.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/windfall/sprache/internal/config"
)

// TokenSource yields the current bearer token, or "" when signed out.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Store is a single-slot token store.
type Store interface {
	TokenSource

	// SetToken replaces the current token as one atomic write.
	SetToken(ctx context.Context, token string) error

	// Clear removes the current token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Open builds the store selected by cfg.TokenStore.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.TokenStore {
	case config.TokenStoreMemory:
		return NewMemoryStore(), nil
	case config.TokenStoreFile:
		return NewFileStore(cfg.TokenFile, cfg.TokenKey), nil
	case config.TokenStoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisStore(client, cfg.TokenKey), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

// Expiry reads the exp claim of a JWT without verifying its signature.
// Opaque tokens report ok=false.
func Expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
