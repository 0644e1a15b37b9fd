package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/windfall/sprache/internal/errors"
)

const defaultHistoryLimit = 20

// SpeakingService covers the /speaking endpoints.
type SpeakingService struct {
	c *Client
}

// PracticeSession fetches a prompt with target words.
func (s *SpeakingService) PracticeSession(ctx context.Context, filter PracticeFilter) (*PracticeSession, error) {
	var out PracticeSession
	err := s.c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/speaking/practice",
		query:    params("theme", filter.Theme, "level", string(filter.Level)),
		fallback: "Failed to fetch practice session",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Themes lists question themes, optionally for one level.
func (s *SpeakingService) Themes(ctx context.Context, level Level) ([]string, error) {
	var out []string
	err := s.c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/speaking/questions/themes",
		query:    params("level", string(level)),
		fallback: "Failed to fetch themes",
	}, &out)
	return out, err
}

// Levels lists the levels the question bank covers.
func (s *SpeakingService) Levels(ctx context.Context) ([]string, error) {
	var out []string
	err := s.c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/speaking/questions/levels",
		fallback: "Failed to fetch levels",
	}, &out)
	return out, err
}

// RandomQuestion fetches one question from the bank.
func (s *SpeakingService) RandomQuestion(ctx context.Context, filter PracticeFilter) (*Question, error) {
	var out Question
	err := s.c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/speaking/questions/random",
		query:    params("theme", filter.Theme, "level", string(filter.Level)),
		fallback: "Failed to fetch random question",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitRecording uploads a recording for analysis. It is never retried here.
func (s *SpeakingService) SubmitRecording(ctx context.Context, sub Submission) (*Analysis, error) {
	if len(sub.Audio.Data) == 0 {
		return nil, errors.Validation("recording is empty")
	}

	mimeType := sub.Audio.MIMEType
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	words := sub.TargetWords
	if words == nil {
		words = []TargetWord{}
	}
	wordsJSON, err := json.Marshal(words)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal target words: %w", err)
	}

	var out Analysis
	err = s.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/speaking/analyze",
		form: &form{
			fileField:   "audio",
			filename:    recordingFilename(mimeType),
			contentType: mimeType,
			data:        sub.Audio.Data,
			fields: [][2]string{
				{"questionText", sub.QuestionText},
				{"targetWords", string(wordsJSON)},
			},
		},
		fallback: "Failed to analyze recording",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// History lists past sessions. A zero limit asks for the default page size.
func (s *SpeakingService) History(ctx context.Context, page Page) (*History, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var out History
	err := s.c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/speaking/history",
		query:    params("skip", positive(page.Skip), "limit", positive(limit)),
		fallback: "Failed to fetch speaking history",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Session fetches one past session with its analysis.
func (s *SpeakingService) Session(ctx context.Context, id string) (*SessionDetail, error) {
	if id == "" {
		return nil, errors.Validation("session id is required")
	}

	var out SessionDetail
	err := s.c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/speaking/session/" + escape(id),
		fallback: "Failed to fetch session",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
