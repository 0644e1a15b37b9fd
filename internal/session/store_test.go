package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/windfall/sprache/internal/config"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	tok, err := s.Token(ctx)
	if err != nil || tok != "" {
		t.Fatalf("empty store Token() = %q, %v", tok, err)
	}

	if err := s.SetToken(ctx, "first"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := s.SetToken(ctx, "second"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if tok, _ := s.Token(ctx); tok != "second" {
		t.Fatalf("Token() = %q, want second", tok)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if tok, _ := s.Token(ctx); tok != "" {
		t.Fatalf("Token() after Clear = %q", tok)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())

	s := NewMemoryStoreWithToken("seed")
	if tok, _ := s.Token(context.Background()); tok != "seed" {
		t.Fatalf("seeded token = %q", tok)
	}
}

func TestMemoryStoreConcurrentWriters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	tokens := []string{"aaaaaaaa", "bbbbbbbb", "cccccccc"}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.SetToken(ctx, tokens[i%len(tokens)])
		}(i)
		go func() {
			defer wg.Done()
			tok, _ := s.Token(ctx)
			if tok != "" && tok != tokens[0] && tok != tokens[1] && tok != tokens[2] {
				t.Errorf("observed partial token %q", tok)
			}
		}()
	}
	wg.Wait()
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseStore(t, NewFileStore(path, "token"))
}

func TestFileStorePreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewFileStore(path, "token")
	if err := s.SetToken(context.Background(), "abc"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		t.Fatal(err)
	}
	if values["theme"] != "dark" || values["token"] != "abc" {
		t.Fatalf("unexpected file contents %v", values)
	}

	// A second store on the same file sees the persisted token.
	if tok, _ := NewFileStore(path, "token").Token(context.Background()); tok != "abc" {
		t.Fatalf("reopened Token() = %q", tok)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path, "token").Token(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisStore(t *testing.T) {
	_, client := newRedis(t)
	s := NewRedisStore(client, "token")
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisStoreTTLFollowsJWTExpiry(t *testing.T) {
	mr, client := newRedis(t)
	s := NewRedisStore(client, "token")
	defer s.Close()
	ctx := context.Background()

	tok := signedToken(t, time.Now().Add(time.Hour))
	if err := s.SetToken(ctx, tok); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	ttl := mr.TTL(tokenKeyPrefix + "token")
	if ttl <= 50*time.Minute || ttl > time.Hour {
		t.Fatalf("TTL = %v, want about one hour", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if got, _ := s.Token(ctx); got != "" {
		t.Fatalf("token survived its expiry: %q", got)
	}

	// Opaque tokens are stored without expiry.
	if err := s.SetToken(ctx, "opaque"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if ttl := mr.TTL(tokenKeyPrefix + "token"); ttl != 0 {
		t.Fatalf("opaque TTL = %v", ttl)
	}
}

func TestRedisStoreExpiredTokenIsCleared(t *testing.T) {
	_, client := newRedis(t)
	s := NewRedisStore(client, "token")
	defer s.Close()
	ctx := context.Background()

	_ = s.SetToken(ctx, "opaque")
	if err := s.SetToken(ctx, signedToken(t, time.Now().Add(-time.Minute))); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if got, _ := s.Token(ctx); got != "" {
		t.Fatalf("expired token stored: %q", got)
	}
}

func TestExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	got, ok := Expiry(signedToken(t, exp))
	if !ok || !got.Equal(exp) {
		t.Fatalf("Expiry() = %v, %v; want %v", got, ok, exp)
	}
	if _, ok := Expiry("not-a-jwt"); ok {
		t.Fatal("opaque token reported an expiry")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, &config.Config{TokenStore: config.TokenStoreMemory})
	if err != nil {
		t.Fatalf("Open(memory): %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("Open(memory) = %T", s)
	}

	path := filepath.Join(t.TempDir(), "s.json")
	s, err = Open(ctx, &config.Config{TokenStore: config.TokenStoreFile, TokenFile: path, TokenKey: "token"})
	if err != nil {
		t.Fatalf("Open(file): %v", err)
	}
	if fs, ok := s.(*FileStore); !ok || fs.Path() != path {
		t.Fatalf("Open(file) = %#v", s)
	}

	mr := miniredis.RunT(t)
	s, err = Open(ctx, &config.Config{TokenStore: config.TokenStoreRedis, RedisURL: "redis://" + mr.Addr(), TokenKey: "token"})
	if err != nil {
		t.Fatalf("Open(redis): %v", err)
	}
	defer s.Close()
	if _, ok := s.(*RedisStore); !ok {
		t.Fatalf("Open(redis) = %T", s)
	}

	if _, err := Open(ctx, &config.Config{TokenStore: "cookie"}); err == nil {
		t.Fatal("expected error for unknown store")
	}
}
