// Package practice drives one speaking-practice attempt: a countdown while
// recording, an asynchronous analysis, and the feedback that follows.
package practice

import (
	"context"
	"time"

	"github.com/windfall/sprache/internal/apiclient"
)

// State is the phase of a practice attempt.
type State int

const (
	Idle State = iota
	Recording
	Processing
	Feedback
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	case Feedback:
		return "feedback"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	// DefaultMaxDuration is the recording limit when the prompt sets none.
	DefaultMaxDuration = 60 * time.Second
	// DefaultTick is the countdown resolution.
	DefaultTick = time.Second
	// BarCount is the number of amplitude bars shown while recording.
	BarCount = 12
	// BarRest is the height of every bar outside Recording.
	BarRest = 10
)

// DefaultTips are shown next to every prompt.
var DefaultTips = []string{
	"Use past tense verbs",
	"Include sensory details",
	"Mention who you were with",
}

// Snapshot is a copy of the machine's observable state.
type Snapshot struct {
	State       State
	Remaining   time.Duration
	MaxDuration time.Duration
	Bars        []int
	Prompt      *apiclient.PracticeSession
	Result      *apiclient.Analysis
	// Err and Message are set in Failed.
	Err     error
	Message string
	Attempt string
	// Seq grows with every emitted change. A higher Seq is a newer state.
	Seq uint64
}

// Recorder captures the learner's answer.
type Recorder interface {
	// Start begins capturing. It must not block.
	Start(ctx context.Context) error
	// Stop ends capturing and returns the recording.
	Stop(ctx context.Context) (apiclient.Audio, error)
	// Discard drops a recording in progress.
	Discard()
}

// Analyzer submits a recording for assessment. *apiclient.SpeakingService implements it.
type Analyzer interface {
	SubmitRecording(ctx context.Context, sub apiclient.Submission) (*apiclient.Analysis, error)
}

// PromptSource fetches practice prompts. *apiclient.SpeakingService implements it.
type PromptSource interface {
	PracticeSession(ctx context.Context, filter apiclient.PracticeFilter) (*apiclient.PracticeSession, error)
}

// Ticker delivers countdown ticks.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) Chan() <-chan time.Time { return t.C }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}
