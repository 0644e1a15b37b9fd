package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultAPIURL is the local development backend.
const DefaultAPIURL = "http://localhost:8000"

// Token store drivers.
const (
	TokenStoreMemory = "memory"
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
)

// Config holds all configuration for the client.
type Config struct {
	// Backend
	APIURL     string        `envconfig:"API_URL" default:"http://localhost:8000"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"30s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	// Session token storage
	TokenStore string `envconfig:"TOKEN_STORE" default:"file"`
	TokenFile  string `envconfig:"TOKEN_FILE"`
	TokenKey   string `envconfig:"TOKEN_KEY" default:"token"`

	// Redis
	RedisURL string `envconfig:"REDIS_URL"`

	// Speaking practice
	PracticeMaxDuration time.Duration `envconfig:"PRACTICE_MAX_DURATION" default:"60s"`
	PracticeTick        time.Duration `envconfig:"PRACTICE_TICK" default:"1s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if cfg.TokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.TokenFile = filepath.Join(home, ".sprache", "session.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields that have no safe fallback.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("API_URL must not be empty")
	}
	switch c.TokenStore {
	case TokenStoreMemory, TokenStoreFile:
	case TokenStoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when TOKEN_STORE=redis")
		}
	default:
		return fmt.Errorf("unknown TOKEN_STORE %q", c.TokenStore)
	}
	if c.TokenKey == "" {
		return fmt.Errorf("TOKEN_KEY must not be empty")
	}
	if c.PracticeMaxDuration <= 0 || c.PracticeTick <= 0 {
		return fmt.Errorf("practice durations must be positive")
	}
	return nil
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Config) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
}
