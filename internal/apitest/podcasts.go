package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type podcastCreate struct {
	Words     []string `json:"words"`
	CEFRLevel string   `json:"cefr_level"`
	Context   string   `json:"context"`
	VoiceIDs  []string `json:"voice_ids"`
}

// listContexts handles GET /podcasts/contexts
func (s *Server) listContexts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, podcastContexts)
}

// listLevels handles GET /podcasts/levels
func (s *Server) listLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, levels)
}

// listVoices handles GET /podcasts/voices
func (s *Server) listVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, voices)
}

// listPodcasts handles GET /podcasts/
func (s *Server) listPodcasts(w http.ResponseWriter, r *http.Request) {
	skip, ok := intParam(w, r, "skip", 0)
	if !ok {
		return
	}
	limit, ok := intParam(w, r, "limit", 50)
	if !ok {
		return
	}
	level := r.URL.Query().Get("level")
	podcastContext := r.URL.Query().Get("context")

	matches := []*podcastRecord{}
	for _, p := range s.podcasts.GetAll() {
		if level != "" && !strings.EqualFold(p.CEFRLevel, level) {
			continue
		}
		if podcastContext != "" && p.Context != podcastContext {
			continue
		}
		matches = append(matches, p)
	}

	if skip >= len(matches) {
		writeJSON(w, http.StatusOK, []*podcastRecord{})
		return
	}
	writeJSON(w, http.StatusOK, matches[skip:min(skip+limit, len(matches))])
}

// getPodcast handles GET /podcasts/{id}
func (s *Server) getPodcast(w http.ResponseWriter, r *http.Request) {
	p, err := s.podcasts.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Podcast not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// createPodcast handles POST /podcasts/
func (s *Server) createPodcast(w http.ResponseWriter, r *http.Request) {
	var req podcastCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, ValidationIssue{Loc: []string{"body"}, Msg: "Invalid JSON body", Type: "value_error.jsondecode"})
		return
	}

	var issues []ValidationIssue
	if len(req.Words) == 0 {
		issues = append(issues, ValidationIssue{Loc: []string{"body", "words"}, Msg: "ensure this value has at least 1 items", Type: "value_error.list.min_items"})
	}
	if !slices.Contains(levels, req.CEFRLevel) {
		issues = append(issues, ValidationIssue{Loc: []string{"body", "cefr_level"}, Msg: "value is not a valid enumeration member", Type: "type_error.enum"})
	}
	if len(issues) > 0 {
		writeValidation(w, issues...)
		return
	}
	if !slices.Contains(podcastContexts, req.Context) {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Invalid context. Must be one of: %s", strings.Join(podcastContexts, ", ")))
		return
	}

	voiceIDs := req.VoiceIDs
	if len(voiceIDs) == 0 {
		voiceIDs = []string{voices[0].VoiceID, voices[1].VoiceID}
	}

	id := uuid.NewString()
	p := &podcastRecord{
		ID:            id,
		Title:         fmt.Sprintf("%s: %s", strings.ReplaceAll(req.Context, "_", " "), strings.Join(req.Words, ", ")),
		Words:         req.Words,
		CEFRLevel:     req.CEFRLevel,
		Context:       req.Context,
		VoiceIDs:      voiceIDs,
		AudioURL:      "/static/podcasts/" + id + ".mp3",
		AudioFilename: id + ".mp3",
		Duration:      float64(30 + 10*len(req.Words)),
		Transcript:    transcriptFor(req.Words),
		CreatedAt:     time.Now().UTC(),
	}
	for _, word := range req.Words {
		p.Quiz.Questions = append(p.Quiz.Questions, quizQuestion{
			Question:      fmt.Sprintf("Which word did the speakers use: %s?", word),
			Options:       []string{word, "vielleicht", "niemals"},
			CorrectAnswer: word,
		})
	}

	if err := s.podcasts.Create(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func transcriptFor(words []string) string {
	var b strings.Builder
	for i, word := range words {
		speaker := "Anna"
		if i%2 == 1 {
			speaker = "Max"
		}
		fmt.Fprintf(&b, "%s: Heute sprechen wir über %s.\n", speaker, word)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// deletePodcast handles DELETE /podcasts/{id}
func (s *Server) deletePodcast(w http.ResponseWriter, r *http.Request) {
	if err := s.podcasts.Delete(chi.URLParam(r, "id")); err != nil {
		writeDetail(w, http.StatusNotFound, "Podcast not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Podcast deleted successfully"})
}
