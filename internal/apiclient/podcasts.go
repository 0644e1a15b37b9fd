package apiclient

import (
	"context"
	"net/http"

	"github.com/windfall/sprache/internal/errors"
)

// PodcastService covers the /podcasts endpoints.
type PodcastService struct {
	c *Client
}

// Contexts lists the situations a podcast can be generated for.
func (s *PodcastService) Contexts(ctx context.Context) ([]string, error) {
	var out []string
	err := s.c.do(ctx, request{method: http.MethodGet, path: "/podcasts/contexts", fallback: "Failed to fetch contexts"}, &out)
	return out, err
}

// Levels lists the CEFR levels podcasts can target.
func (s *PodcastService) Levels(ctx context.Context) ([]string, error) {
	var out []string
	err := s.c.do(ctx, request{method: http.MethodGet, path: "/podcasts/levels", fallback: "Failed to fetch levels"}, &out)
	return out, err
}

// Voices lists the available text-to-speech voices.
func (s *PodcastService) Voices(ctx context.Context) ([]Voice, error) {
	var out []Voice
	err := s.c.do(ctx, request{method: http.MethodGet, path: "/podcasts/voices", fallback: "Failed to fetch voices"}, &out)
	return out, err
}

// List lists podcasts matching filter.
func (s *PodcastService) List(ctx context.Context, filter PodcastFilter) ([]PodcastListItem, error) {
	var out []PodcastListItem
	err := s.c.do(ctx, request{
		method: http.MethodGet,
		path:   "/podcasts/",
		query: params(
			"level", string(filter.Level),
			"context", filter.Context,
			"limit", positive(filter.Limit),
			"skip", positive(filter.Skip),
		),
		fallback: "Failed to fetch podcasts",
	}, &out)
	return out, err
}

// Get fetches one podcast.
func (s *PodcastService) Get(ctx context.Context, id string) (*Podcast, error) {
	if id == "" {
		return nil, errors.Validation("podcast id is required")
	}

	var out Podcast
	err := s.c.do(ctx, request{method: http.MethodGet, path: "/podcasts/" + escape(id), fallback: "Failed to fetch podcast"}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create asks the backend to generate a podcast. Generation is slow and is
// never retried here.
func (s *PodcastService) Create(ctx context.Context, in PodcastCreate) (*Podcast, error) {
	if len(in.Words) == 0 {
		return nil, errors.Validation("at least one word is required")
	}
	if in.CEFRLevel != "" && !in.CEFRLevel.Valid() {
		return nil, errors.Validation("invalid CEFR level")
	}

	var out Podcast
	err := s.c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/podcasts/",
		body:     in,
		fallback: "Failed to create podcast",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes one podcast.
func (s *PodcastService) Delete(ctx context.Context, id string) (*MessageResult, error) {
	if id == "" {
		return nil, errors.Validation("podcast id is required")
	}

	var out MessageResult
	err := s.c.do(ctx, request{method: http.MethodDelete, path: "/podcasts/" + escape(id), fallback: "Failed to delete podcast"}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
