// Package apitest is an in-process fake of the learning backend, serving the
// REST surface from mock data. It exists for tests only.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RecordedRequest is what the fake saw of one incoming request.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

type user struct {
	email    string
	password string
	name     string
	localID  string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the fake's request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	log      zerolog.Logger
	secret   []byte
	tokenTTL time.Duration

	mu         sync.Mutex
	users      map[string]user
	requests   []RecordedRequest
	recoveries []string
	gate       chan struct{}

	sessions *InMemoryRepository[*sessionRecord]
	podcasts *InMemoryRepository[*podcastRecord]
}

// New starts a fake backend. Close it when done.
func New(opts ...Option) *Server {
	s := &Server{
		log:      zerolog.Nop(),
		secret:   []byte("apitest-secret"),
		tokenTTL: time.Hour,
		users:    make(map[string]user),
		sessions: NewInMemoryRepository[*sessionRecord](),
		podcasts: NewInMemoryRepository[*podcastRecord](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.record)
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(recovery(s.log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/register", s.register)
		r.Post("/firebase-login", s.firebaseLogin)
		r.Post("/recover", s.recoverPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/speaking/practice", s.practiceSession)
		r.Get("/speaking/questions/themes", s.themes)
		r.Get("/speaking/questions/levels", s.questionLevels)
		r.Get("/speaking/questions/random", s.randomQuestion)
		r.Post("/speaking/analyze", s.analyze)
		r.Get("/speaking/history", s.history)
		r.Get("/speaking/session/{id}", s.session)
	})

	r.Get("/podcasts/contexts", s.listContexts)
	r.Get("/podcasts/levels", s.listLevels)
	r.Get("/podcasts/voices", s.listVoices)
	r.Get("/podcasts/", s.listPodcasts)
	r.Post("/podcasts/", s.createPodcast)
	r.Get("/podcasts/{id}", s.getPodcast)
	r.Delete("/podcasts/{id}", s.deletePodcast)

	r.Get("/words/", s.decks)
	r.Get("/words/{level}", s.levelWords)

	return r
}

// Requests returns every request received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request for path.
func (s *Server) LastRequest(path string) (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Path == path {
			return s.requests[i], true
		}
	}
	return RecordedRequest{}, false
}

// Recoveries returns the emails password recovery was requested for.
func (s *Server) Recoveries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.recoveries...)
}

// HoldAnalysis makes /speaking/analyze block until release is called or the
// request is abandoned.
func (s *Server) HoldAnalysis() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gate == gate {
				s.gate = nil
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

func (s *Server) analysisGate() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate
}
