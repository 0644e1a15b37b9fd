package apitest

import "time"

type question struct {
	ID          int      `json:"id"`
	Level       string   `json:"level"`
	Theme       string   `json:"theme"`
	Question    string   `json:"question"`
	QuestionEn  string   `json:"question_en"`
	TargetWords []string `json:"target_words"`
}

type targetWord struct {
	ID          string `json:"id,omitempty"`
	Word        string `json:"word"`
	Translation string `json:"translation,omitempty"`
}

type word struct {
	ID          string `json:"id"`
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Article     string `json:"article,omitempty"`
	Example     string `json:"example,omitempty"`
	Level       string `json:"level"`
	Category    string `json:"category,omitempty"`
}

type deck struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Level     string `json:"level"`
	WordCount int    `json:"wordCount"`
}

type voice struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

var levels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

var podcastContexts = []string{"daily_life", "travel", "work", "restaurant", "shopping", "health"}

var voices = []voice{
	{VoiceID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Category: "premade"},
	{VoiceID: "29vD33N1CtxCmqQRPOHJ", Name: "Drew", Category: "premade"},
	{VoiceID: "zrHiDhphv9ZnVXBqCLjz", Name: "Mimi", Category: "premade"},
}

var questionBank = []question{
	{ID: 1, Level: "A2", Theme: "Daily Routine", Question: "Beschreiben Sie Ihre typische Morgenroutine.", QuestionEn: "Describe your typical morning routine.", TargetWords: []string{"aufstehen", "frühstücken", "die Dusche"}},
	{ID: 2, Level: "B1", Theme: "Travel & Lifestyle", Question: "Beschreiben Sie eine unvergessliche Reise.", QuestionEn: "Describe a memorable trip you took recently.", TargetWords: []string{"die Reise", "besichtigen", "unvergesslich"}},
	{ID: 3, Level: "B1", Theme: "Food & Culture", Question: "Was ist ein traditionelles Gericht aus Ihrem Land?", QuestionEn: "What is a traditional dish from your country?", TargetWords: []string{"das Gericht", "die Zutat", "kochen"}},
	{ID: 4, Level: "B2", Theme: "Business", Question: "Wie gehen Sie mit Konflikten am Arbeitsplatz um?", QuestionEn: "How do you handle conflict in the workplace?", TargetWords: []string{"der Konflikt", "die Lösung", "verhandeln"}},
	{ID: 5, Level: "B2", Theme: "Business", Question: "Welche Eigenschaften braucht eine gute Führungskraft?", QuestionEn: "What qualities does a good leader need?", TargetWords: []string{"die Führungskraft", "die Verantwortung", "motivieren"}},
	{ID: 6, Level: "B2", Theme: "Environment", Question: "Was kann jeder Einzelne gegen den Klimawandel tun?", QuestionEn: "What can individuals do to help climate change?", TargetWords: []string{"der Klimawandel", "nachhaltig", "verzichten"}},
	{ID: 7, Level: "C1", Theme: "Technology", Question: "Welchen Einfluss hat KI auf die Bildung?", QuestionEn: "What impact does AI have on education?", TargetWords: []string{"der Einfluss", "die Bildung", "künstliche Intelligenz"}},
}

var wordsByLevel = map[string][]word{
	"A1": {
		{ID: "a1-1", Word: "Hallo", Translation: "Hello", Level: "A1", Category: "Greetings"},
		{ID: "a1-2", Word: "Haus", Translation: "House", Article: "das", Example: "Das Haus ist groß.", Level: "A1", Category: "Home"},
		{ID: "a1-3", Word: "Wasser", Translation: "Water", Article: "das", Level: "A1", Category: "Food"},
	},
	"A2": {
		{ID: "a2-1", Word: "Reise", Translation: "Trip", Article: "die", Level: "A2", Category: "Travel"},
		{ID: "a2-2", Word: "Bahnhof", Translation: "Station", Article: "der", Level: "A2", Category: "Travel"},
	},
	"B1": {
		{ID: "b1-1", Word: "Erfahrung", Translation: "Experience", Article: "die", Level: "B1", Category: "Work"},
		{ID: "b1-2", Word: "Umwelt", Translation: "Environment", Article: "die", Level: "B1", Category: "Nature"},
	},
	"B2": {
		{ID: "b2-1", Word: "Verantwortung", Translation: "Responsibility", Article: "die", Level: "B2", Category: "Work"},
		{ID: "b2-2", Word: "verhandeln", Translation: "to negotiate", Level: "B2", Category: "Business"},
	},
}

var deckTitles = map[string]string{
	"A1": "Beginner Basics",
	"A2": "Everyday German",
	"B1": "Intermediate Topics",
	"B2": "Professional Vocabulary",
}

type historyEntry struct {
	ID       string    `json:"id"`
	Topic    string    `json:"topic"`
	Question string    `json:"question"`
	Date     time.Time `json:"date"`
	Score    int       `json:"score"`
	Duration string    `json:"duration"`
	Tags     []string  `json:"tags,omitempty"`
}

type metrics struct {
	Fluency       int `json:"fluency"`
	Grammar       int `json:"grammar"`
	Vocabulary    int `json:"vocabulary"`
	Pronunciation int `json:"pronunciation"`
}

type correction struct {
	Original    string `json:"original"`
	Correction  string `json:"correction"`
	Type        string `json:"type"`
	Explanation string `json:"explanation"`
}

type analysis struct {
	ID            string       `json:"id"`
	OverallScore  int          `json:"overallScore"`
	AudioDuration string       `json:"audioDuration"`
	Metrics       metrics      `json:"metrics"`
	Transcript    string       `json:"transcript"`
	Corrections   []correction `json:"corrections"`
	UsedWords     []string     `json:"usedWords"`
}

// sessionRecord is a stored practice attempt.
type sessionRecord struct {
	historyEntry
	TargetWords []targetWord `json:"targetWords"`
	Analysis    *analysis    `json:"analysis"`
	owner       string
}

func (s *sessionRecord) GetID() string           { return s.ID }
func (s *sessionRecord) GetCreatedAt() time.Time { return s.Date }

type quizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// podcastRecord is a stored podcast.
type podcastRecord struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Words         []string  `json:"words"`
	CEFRLevel     string    `json:"cefr_level"`
	Context       string    `json:"context"`
	VoiceIDs      []string  `json:"voice_ids,omitempty"`
	AudioURL      string    `json:"audio_url"`
	AudioFilename string    `json:"audio_filename"`
	Duration      float64   `json:"duration"`
	Transcript    string    `json:"transcript"`
	CreatedAt     time.Time `json:"created_at"`
	Quiz          struct {
		Questions []quizQuestion `json:"questions"`
	} `json:"quiz"`
}

func (p *podcastRecord) GetID() string           { return p.ID }
func (p *podcastRecord) GetCreatedAt() time.Time { return p.CreatedAt }
