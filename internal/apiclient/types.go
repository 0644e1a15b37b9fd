package apiclient

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Level is a CEFR proficiency code.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// Levels lists every CEFR level in ascending order.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// ParseLevel accepts a CEFR code in any case. An empty string is the zero Level.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return "", nil
	}
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("invalid CEFR level %q (want one of A1, A2, B1, B2, C1, C2)", s)
	}
	return l, nil
}

// Valid reports whether l is one of the six CEFR codes.
func (l Level) Valid() bool {
	for _, v := range Levels {
		if l == v {
			return true
		}
	}
	return false
}

// ---- auth ----

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// AuthToken is the identity-provider token response returned by login and register.
type AuthToken struct {
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

// OAuth2 converts the response into an oauth2 bearer token. ExpiresIn is in
// seconds; an unparsable value leaves Expiry zero.
func (t AuthToken) OAuth2(now time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.IDToken,
		TokenType:    "Bearer",
		RefreshToken: t.RefreshToken,
	}
	if secs, err := strconv.Atoi(t.ExpiresIn); err == nil && secs > 0 {
		tok.Expiry = now.Add(time.Duration(secs) * time.Second)
	}
	return tok
}

// RecoverResult is the password recovery response.
type RecoverResult struct {
	Message string `json:"message"`
}

// ---- speaking ----

// PracticeFilter selects a speaking prompt. Zero fields are omitted from the query.
type PracticeFilter struct {
	Theme string
	Level Level
}

// TargetWord is a vocabulary item the learner should use in the answer.
type TargetWord struct {
	ID          string `json:"id,omitempty"`
	Word        string `json:"word"`
	Translation string `json:"translation,omitempty"`
	Article     string `json:"article,omitempty"`
	Example     string `json:"example,omitempty"`
}

// PracticePrompt is the question part of a practice session.
type PracticePrompt struct {
	Text     string `json:"text"`
	TextEn   string `json:"text_en,omitempty"`
	Theme    string `json:"theme,omitempty"`
	Level    string `json:"level,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// PracticeSession is a prompt with its target words.
type PracticeSession struct {
	Question    PracticePrompt `json:"question"`
	TargetWords []TargetWord   `json:"targetWords"`
	// MaxDuration is the recording limit in seconds; zero means the client default.
	MaxDuration int `json:"maxDuration,omitempty"`
}

// Question is one entry of the speaking question bank.
type Question struct {
	ID          int      `json:"id"`
	Level       string   `json:"level"`
	Theme       string   `json:"theme"`
	Question    string   `json:"question"`
	QuestionEn  string   `json:"question_en,omitempty"`
	TargetWords []string `json:"target_words"`
}

// Audio is a recorded answer.
type Audio struct {
	Data     []byte
	MIMEType string
}

// Submission is one recorded attempt sent for analysis.
type Submission struct {
	Audio        Audio
	QuestionText string
	TargetWords  []TargetWord
}

// Metrics are the per-category scores of an analysis.
type Metrics struct {
	Fluency       int `json:"fluency"`
	Grammar       int `json:"grammar"`
	Vocabulary    int `json:"vocabulary"`
	Pronunciation int `json:"pronunciation"`
}

// Correction is one grammar or vocabulary fix in the transcript.
type Correction struct {
	Original    string `json:"original"`
	Correction  string `json:"correction"`
	Type        string `json:"type"`
	Explanation string `json:"explanation"`
}

// VocabularySuggestion proposes a richer alternative for a word.
type VocabularySuggestion struct {
	Word        string `json:"word"`
	Alternative string `json:"alternative"`
}

// Analysis is the backend's assessment of a recording.
type Analysis struct {
	ID                    string                 `json:"id,omitempty"`
	OverallScore          int                    `json:"overallScore"`
	AudioDuration         string                 `json:"audioDuration,omitempty"`
	Metrics               Metrics                `json:"metrics"`
	Transcript            string                 `json:"transcript"`
	Corrections           []Correction           `json:"corrections"`
	VocabularySuggestions []VocabularySuggestion `json:"vocabulary_suggestions,omitempty"`
	UsedWords             []string               `json:"usedWords,omitempty"`
}

// Page selects a window of a paginated listing. Zero fields are omitted.
type Page struct {
	Skip  int
	Limit int
}

// HistoryEntry summarizes one past practice session.
type HistoryEntry struct {
	ID       string    `json:"id"`
	Topic    string    `json:"topic"`
	Question string    `json:"question"`
	Date     time.Time `json:"date"`
	Score    int       `json:"score"`
	Duration string    `json:"duration"`
	Tags     []string  `json:"tags,omitempty"`
}

// History is one page of past sessions.
type History struct {
	Sessions []HistoryEntry `json:"sessions"`
	Total    int            `json:"total"`
}

// SessionDetail is one past session with its full analysis.
type SessionDetail struct {
	HistoryEntry
	TargetWords []TargetWord `json:"targetWords,omitempty"`
	Analysis    *Analysis    `json:"analysis,omitempty"`
}

// ---- podcasts ----

// PodcastFilter narrows the podcast listing. Zero fields are omitted.
type PodcastFilter struct {
	Level   Level
	Context string
	Limit   int
	Skip    int
}

// PodcastCreate is the podcast generation request.
type PodcastCreate struct {
	Words     []string `json:"words"`
	CEFRLevel Level    `json:"cefr_level"`
	Context   string   `json:"context"`
	VoiceIDs  []string `json:"voice_ids,omitempty"`
}

// PodcastListItem is a podcast in listings.
type PodcastListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CEFRLevel string    `json:"cefr_level"`
	Context   string    `json:"context"`
	Duration  float64   `json:"duration,omitempty"`
	AudioURL  string    `json:"audio_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// QuizQuestion is a comprehension question attached to a podcast.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// Podcast is a full podcast with transcript and quiz.
type Podcast struct {
	PodcastListItem
	Words         []string `json:"words"`
	VoiceIDs      []string `json:"voice_ids,omitempty"`
	AudioFilename string   `json:"audio_filename,omitempty"`
	Transcript    string   `json:"transcript,omitempty"`
	Quiz          *struct {
		Questions []QuizQuestion `json:"questions"`
	} `json:"quiz,omitempty"`
}

// Voice is a text-to-speech voice offered for podcast generation.
type Voice struct {
	VoiceID     string `json:"voice_id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// MessageResult is a bare acknowledgement body.
type MessageResult struct {
	Message string `json:"message"`
}

// ---- words ----

// Deck is a vocabulary deck summary.
type Deck struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Level     string `json:"level,omitempty"`
	WordCount int    `json:"wordCount"`
}

// Word is one flashcard.
type Word struct {
	ID          string `json:"id,omitempty"`
	Word        string `json:"word"`
	Translation string `json:"translation,omitempty"`
	Article     string `json:"article,omitempty"`
	Example     string `json:"example,omitempty"`
	Level       string `json:"level,omitempty"`
	Category    string `json:"category,omitempty"`
	Audio       string `json:"audio,omitempty"`
}
