package apitest

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

// decks handles GET /words/
func (s *Server) decks(w http.ResponseWriter, r *http.Request) {
	out := make([]deck, 0, len(wordsByLevel))
	for level, words := range wordsByLevel {
		out = append(out, deck{
			ID:        strings.ToLower(level),
			Title:     deckTitles[level],
			Level:     level,
			WordCount: len(words),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	writeJSON(w, http.StatusOK, out)
}

// levelWords handles GET /words/{level}
func (s *Server) levelWords(w http.ResponseWriter, r *http.Request) {
	words, ok := wordsByLevel[strings.ToUpper(chi.URLParam(r, "level"))]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Level not found")
		return
	}
	writeJSON(w, http.StatusOK, words)
}
