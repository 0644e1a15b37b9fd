package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxUploadSize       = 10 << 20
	practiceMaxDuration = 60
)

type practicePrompt struct {
	Text   string `json:"text"`
	TextEn string `json:"text_en"`
	Theme  string `json:"theme"`
	Level  string `json:"level"`
}

type practiceSession struct {
	Question    practicePrompt `json:"question"`
	TargetWords []targetWord   `json:"targetWords"`
	MaxDuration int            `json:"maxDuration"`
}

type historyPage struct {
	Sessions []historyEntry `json:"sessions"`
	Total    int            `json:"total"`
}

func matchQuestions(theme, level string) []question {
	var out []question
	for _, q := range questionBank {
		if theme != "" && !strings.EqualFold(q.Theme, theme) {
			continue
		}
		if level != "" && !strings.EqualFold(q.Level, level) {
			continue
		}
		out = append(out, q)
	}
	return out
}

func pickQuestion(r *http.Request) (question, bool) {
	q := r.URL.Query()
	matches := matchQuestions(q.Get("theme"), q.Get("level"))
	if len(matches) == 0 {
		return question{}, false
	}
	return matches[rand.IntN(len(matches))], true
}

// practiceSession handles GET /speaking/practice
func (s *Server) practiceSession(w http.ResponseWriter, r *http.Request) {
	q, ok := pickQuestion(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "No questions found for the given filters")
		return
	}

	words := make([]targetWord, 0, len(q.TargetWords))
	for i, tw := range q.TargetWords {
		words = append(words, targetWord{ID: fmt.Sprintf("tw-%d-%d", q.ID, i+1), Word: tw})
	}
	writeJSON(w, http.StatusOK, practiceSession{
		Question:    practicePrompt{Text: q.Question, TextEn: q.QuestionEn, Theme: q.Theme, Level: q.Level},
		TargetWords: words,
		MaxDuration: practiceMaxDuration,
	})
}

// themes handles GET /speaking/questions/themes
func (s *Server) themes(w http.ResponseWriter, r *http.Request) {
	seen := make(map[string]bool)
	themes := []string{}
	for _, q := range matchQuestions("", r.URL.Query().Get("level")) {
		if !seen[q.Theme] {
			seen[q.Theme] = true
			themes = append(themes, q.Theme)
		}
	}
	sort.Strings(themes)
	writeJSON(w, http.StatusOK, themes)
}

// questionLevels handles GET /speaking/questions/levels
func (s *Server) questionLevels(w http.ResponseWriter, r *http.Request) {
	seen := make(map[string]bool)
	out := []string{}
	for _, q := range questionBank {
		if !seen[q.Level] {
			seen[q.Level] = true
			out = append(out, q.Level)
		}
	}
	sort.Strings(out)
	writeJSON(w, http.StatusOK, out)
}

// randomQuestion handles GET /speaking/questions/random
func (s *Server) randomQuestion(w http.ResponseWriter, r *http.Request) {
	q, ok := pickQuestion(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "No questions found for the given filters")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// analyze handles POST /speaking/analyze
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeValidation(w, ValidationIssue{Loc: []string{"body"}, Msg: "Invalid multipart body", Type: "value_error"})
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		writeValidation(w, ValidationIssue{Loc: []string{"body", "audio"}, Msg: "field required", Type: "value_error.missing"})
		return
	}
	defer file.Close()
	audio, err := io.ReadAll(file)
	if err != nil || len(audio) == 0 {
		writeDetail(w, http.StatusBadRequest, "Audio file is empty")
		return
	}

	var words []targetWord
	if raw := r.FormValue("targetWords"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &words); err != nil {
			writeValidation(w, ValidationIssue{Loc: []string{"body", "targetWords"}, Msg: "Invalid JSON", Type: "value_error.json"})
			return
		}
	}
	questionText := r.FormValue("questionText")

	if gate := s.analysisGate(); gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	result := score(audio, words)
	email, _ := r.Context().Value(userEmailKey).(string)
	rec := &sessionRecord{
		historyEntry: historyEntry{
			ID:       result.ID,
			Topic:    topicFor(questionText),
			Question: questionText,
			Date:     time.Now().UTC(),
			Score:    result.OverallScore,
			Duration: result.AudioDuration,
		},
		TargetWords: words,
		Analysis:    result,
		owner:       email,
	}
	if err := s.sessions.Create(rec); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// score produces a deterministic mock assessment in [0, 100].
func score(audio []byte, words []targetWord) *analysis {
	used := make([]string, 0, len(words))
	for _, w := range words {
		used = append(used, w.Word)
	}

	overall := clamp(50 + min(len(audio)/512, 30) + 5*len(used))
	secs := max(1, len(audio)/4000)

	transcript := "Ich finde diese Frage sehr interessant."
	if len(used) > 0 {
		transcript = fmt.Sprintf("Ich denke an %s und erkläre meine Meinung.", strings.Join(used, ", "))
	}

	return &analysis{
		ID:            "sess_" + uuid.NewString()[:8],
		OverallScore:  overall,
		AudioDuration: fmt.Sprintf("%d:%02d", secs/60, secs%60),
		Metrics: metrics{
			Fluency:       clamp(overall + 4),
			Grammar:       clamp(overall - 6),
			Vocabulary:    clamp(overall + 2),
			Pronunciation: clamp(overall - 2),
		},
		Transcript: transcript,
		Corrections: []correction{{
			Original:    "Ich habe gegangen",
			Correction:  "Ich bin gegangen",
			Type:        "grammar",
			Explanation: "Verbs of motion form the perfect tense with sein.",
		}},
		UsedWords: used,
	}
}

func clamp(n int) int {
	return min(max(n, 0), 100)
}

func topicFor(questionText string) string {
	for _, q := range questionBank {
		if q.Question == questionText || q.QuestionEn == questionText {
			return q.Theme
		}
	}
	return "Free Practice"
}

// history handles GET /speaking/history
func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	skip, ok := intParam(w, r, "skip", 0)
	if !ok {
		return
	}
	limit, ok := intParam(w, r, "limit", 20)
	if !ok {
		return
	}

	email, _ := r.Context().Value(userEmailKey).(string)
	var mine []historyEntry
	for _, rec := range s.sessions.GetAll() {
		if rec.owner == email {
			mine = append(mine, rec.historyEntry)
		}
	}

	page := historyPage{Sessions: []historyEntry{}, Total: len(mine)}
	if skip < len(mine) {
		end := min(skip+limit, len(mine))
		page.Sessions = mine[skip:end]
	}
	writeJSON(w, http.StatusOK, page)
}

// session handles GET /speaking/session/{id}
func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	email, _ := r.Context().Value(userEmailKey).(string)
	rec, err := s.sessions.GetByID(chi.URLParam(r, "id"))
	if err != nil || rec.owner != email {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// intParam reads a non-negative integer query parameter, writing a 422 on bad input.
func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeValidation(w, ValidationIssue{Loc: []string{"query", name}, Msg: "value is not a valid integer", Type: "type_error.integer"})
		return 0, false
	}
	return n, true
}
