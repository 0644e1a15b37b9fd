package apiclient

import (
	"context"
	"net/http"

	"github.com/windfall/sprache/internal/errors"
)

// WordService covers the /words endpoints.
type WordService struct {
	c *Client
}

// Decks lists vocabulary decks.
func (s *WordService) Decks(ctx context.Context) ([]Deck, error) {
	var out []Deck
	err := s.c.do(ctx, request{method: http.MethodGet, path: "/words/", fallback: "Failed to fetch decks"}, &out)
	return out, err
}

// ByLevel lists the words of one deck, addressed by its level code.
func (s *WordService) ByLevel(ctx context.Context, level string) ([]Word, error) {
	if level == "" {
		return nil, errors.Validation("level is required")
	}

	var out []Word
	err := s.c.do(ctx, request{method: http.MethodGet, path: "/words/" + escape(level), fallback: "Failed to fetch words"}, &out)
	return out, err
}
