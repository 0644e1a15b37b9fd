package practice

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/windfall/sprache/internal/apiclient"
	"github.com/windfall/sprache/internal/errors"
)

const analyzeFallback = "Failed to analyze recording"

var (
	// ErrInvalidTransition is returned when an operation does not apply to the current state.
	ErrInvalidTransition = stderrors.New("invalid practice transition")
	// ErrClosed is returned after Close.
	ErrClosed = stderrors.New("practice session closed")
)

// Option configures a Machine.
type Option func(*Machine)

// WithMaxDuration sets the default recording limit.
func WithMaxDuration(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.defaultMax = d
		}
	}
}

// WithTick sets the countdown resolution.
func WithTick(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.tick = d
		}
	}
}

// WithTicker replaces the ticker constructor.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(m *Machine) {
		if newTicker != nil {
			m.newTicker = newTicker
		}
	}
}

// WithPromptSource enables LoadPrompt.
func WithPromptSource(p PromptSource) Option {
	return func(m *Machine) { m.prompts = p }
}

// WithLogger sets the machine's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Machine) { m.log = log }
}

// WithBarHeight replaces the random amplitude source. fn returns a height in [10, 50).
func WithBarHeight(fn func() int) Option {
	return func(m *Machine) {
		if fn != nil {
			m.barHeight = fn
		}
	}
}

// Machine is the state machine for one practice view. All methods are safe for
// concurrent use. OnChange callbacks run in order, outside the state lock, and
// must not call back into the Machine synchronously.
type Machine struct {
	recorder  Recorder
	analyzer  Analyzer
	prompts   PromptSource
	newTicker func(time.Duration) Ticker
	barHeight func() int
	log       zerolog.Logger

	defaultMax time.Duration
	tick       time.Duration

	mu          sync.Mutex
	state       State
	maxDuration time.Duration
	remaining   time.Duration
	bars        []int
	prompt      *apiclient.PracticeSession
	result      *apiclient.Analysis
	err         error
	attempt     string
	audio       *apiclient.Audio
	ticker      Ticker
	tickDone    chan struct{}
	cancel      context.CancelFunc
	closed      bool
	seq         uint64

	emitMu   sync.Mutex
	onChange func(Snapshot)

	wg sync.WaitGroup
}

// New creates a machine in Idle.
func New(recorder Recorder, analyzer Analyzer, opts ...Option) *Machine {
	m := &Machine{
		recorder:   recorder,
		analyzer:   analyzer,
		newTicker:  NewTimeTicker,
		barHeight:  func() int { return rand.IntN(40) + BarRest },
		log:        zerolog.Nop(),
		defaultMax: DefaultMaxDuration,
		tick:       DefaultTick,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.maxDuration = m.defaultMax
	m.resetLocked()
	return m
}

// OnChange registers fn to receive a snapshot after every transition and tick.
func (m *Machine) OnChange(fn func(Snapshot)) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	m.onChange = fn
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// SetPrompt replaces the prompt while Idle.
func (m *Machine) SetPrompt(p *apiclient.PracticeSession) error {
	m.mu.Lock()
	if err := m.expectLocked("set prompt", Idle); err != nil {
		m.mu.Unlock()
		return err
	}
	m.applyPromptLocked(p)
	m.unlockAndEmit()
	return nil
}

// LoadPrompt fetches a new prompt while Idle.
func (m *Machine) LoadPrompt(ctx context.Context, filter apiclient.PracticeFilter) error {
	if m.prompts == nil {
		return fmt.Errorf("no prompt source configured")
	}

	m.mu.Lock()
	err := m.expectLocked("load prompt", Idle)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	p, err := m.prompts.PracticeSession(ctx, filter)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if err := m.expectLocked("load prompt", Idle); err != nil {
		m.mu.Unlock()
		return err
	}
	m.applyPromptLocked(p)
	m.unlockAndEmit()
	return nil
}

// Start begins recording and the countdown.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if err := m.expectLocked("start", Idle); err != nil {
		m.mu.Unlock()
		return err
	}
	if err := m.recorder.Start(ctx); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to start recording: %w", err)
	}

	m.attempt = uuid.NewString()
	m.state = Recording
	m.remaining = m.maxDuration
	m.audio = nil
	m.refreshBarsLocked()

	m.ticker = m.newTicker(m.tick)
	m.tickDone = make(chan struct{})
	m.wg.Add(1)
	go m.runTicker(m.attempt, m.ticker, m.tickDone)

	m.log.Debug().Str("attempt", m.attempt).Dur("max_duration", m.maxDuration).Msg("Recording started")
	m.unlockAndEmit()
	return nil
}

// Stop ends recording early and submits the answer.
func (m *Machine) Stop() error {
	m.mu.Lock()
	if err := m.expectLocked("stop", Recording); err != nil {
		m.mu.Unlock()
		return err
	}
	m.finishLocked("stopped")
	m.unlockAndEmit()
	return nil
}

// Cancel abandons the attempt from Recording or Processing and returns to Idle.
// A result arriving later is ignored.
func (m *Machine) Cancel() {
	m.mu.Lock()
	switch m.state {
	case Recording:
		m.stopTickerLocked()
		m.recorder.Discard()
	case Processing:
		m.cancelAnalysisLocked()
	default:
		m.mu.Unlock()
		return
	}
	m.log.Debug().Str("attempt", m.attempt).Msg("Attempt cancelled")
	m.resetLocked()
	m.unlockAndEmit()
}

// Retry leaves Feedback or Failed for a fresh attempt at the same prompt.
func (m *Machine) Retry() error {
	m.mu.Lock()
	if err := m.expectLocked("retry", Feedback, Failed); err != nil {
		m.mu.Unlock()
		return err
	}
	m.resetLocked()
	m.unlockAndEmit()
	return nil
}

// Resubmit sends the captured recording again after a failed analysis.
func (m *Machine) Resubmit() error {
	m.mu.Lock()
	if err := m.expectLocked("resubmit", Failed); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.audio == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: no recording captured", ErrInvalidTransition)
	}
	m.state = Processing
	m.err = nil
	m.startAnalysisLocked()
	m.unlockAndEmit()
	return nil
}

// Close stops timers and in-flight work and waits for background goroutines.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.state == Recording {
		m.stopTickerLocked()
		m.recorder.Discard()
	}
	m.cancelAnalysisLocked()
	m.attempt = ""
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *Machine) runTicker(attempt string, t Ticker, done <-chan struct{}) {
	defer m.wg.Done()
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.Chan():
			if !m.onTick(attempt) {
				return
			}
		}
	}
}

// onTick advances the countdown. It reports whether the ticker should keep running.
func (m *Machine) onTick(attempt string) bool {
	m.mu.Lock()
	if m.attempt != attempt || m.state != Recording {
		m.mu.Unlock()
		return false
	}

	m.remaining -= m.tick
	if m.remaining <= 0 {
		m.remaining = 0
		m.finishLocked("timeout")
		m.unlockAndEmit()
		return false
	}
	m.refreshBarsLocked()
	m.unlockAndEmit()
	return true
}

// finishLocked is the single exit from Recording into Processing.
func (m *Machine) finishLocked(reason string) {
	m.stopTickerLocked()
	m.state = Processing
	m.log.Debug().Str("attempt", m.attempt).Str("reason", reason).Msg("Recording finished")
	m.startAnalysisLocked()
}

func (m *Machine) startAnalysisLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	sub := apiclient.Submission{}
	if m.prompt != nil {
		sub.QuestionText = m.prompt.Question.Text
		sub.TargetWords = m.prompt.TargetWords
	}
	var audio *apiclient.Audio
	if m.audio != nil {
		captured := *m.audio
		audio = &captured
	}

	m.wg.Add(1)
	go m.analyze(ctx, m.attempt, sub, audio)
}

func (m *Machine) analyze(ctx context.Context, attempt string, sub apiclient.Submission, audio *apiclient.Audio) {
	defer m.wg.Done()

	if audio == nil {
		captured, err := m.recorder.Stop(ctx)
		if err != nil {
			m.settle(attempt, nil, fmt.Errorf("failed to capture recording: %w", err))
			return
		}
		if !m.keepAudio(attempt, captured) {
			return
		}
		audio = &captured
	}

	sub.Audio = *audio
	result, err := m.analyzer.SubmitRecording(ctx, sub)
	m.settle(attempt, result, err)
}

func (m *Machine) keepAudio(attempt string, audio apiclient.Audio) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempt != attempt || m.state != Processing {
		return false
	}
	m.audio = &audio
	return true
}

// settle applies an analysis outcome if it still belongs to the current attempt.
func (m *Machine) settle(attempt string, result *apiclient.Analysis, err error) {
	m.mu.Lock()
	if m.attempt != attempt || m.state != Processing {
		m.mu.Unlock()
		m.log.Debug().Str("attempt", attempt).Msg("Discarding stale analysis result")
		return
	}
	m.cancel = nil

	switch {
	case err != nil:
		m.state = Failed
		m.err = err
		m.log.Warn().Err(err).Str("attempt", attempt).Msg("Analysis failed")
	case result == nil:
		m.state = Failed
		m.err = errors.Internal("empty analysis result")
	default:
		m.state = Feedback
		m.result = result
		m.log.Debug().Str("attempt", attempt).Int("score", result.OverallScore).Msg("Analysis complete")
	}
	m.unlockAndEmit()
}

func (m *Machine) stopTickerLocked() {
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
	if m.tickDone != nil {
		close(m.tickDone)
		m.tickDone = nil
	}
}

func (m *Machine) cancelAnalysisLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// resetLocked enters Idle: countdown at maximum, bars at rest, no attempt.
func (m *Machine) resetLocked() {
	m.state = Idle
	m.attempt = ""
	m.remaining = m.maxDuration
	m.result = nil
	m.err = nil
	m.audio = nil
	m.bars = make([]int, BarCount)
	for i := range m.bars {
		m.bars[i] = BarRest
	}
}

func (m *Machine) applyPromptLocked(p *apiclient.PracticeSession) {
	m.prompt = p
	m.maxDuration = m.defaultMax
	if p != nil && p.MaxDuration > 0 {
		m.maxDuration = time.Duration(p.MaxDuration) * time.Second
	}
	m.remaining = m.maxDuration
}

func (m *Machine) refreshBarsLocked() {
	bars := make([]int, BarCount)
	for i := range bars {
		bars[i] = m.barHeight()
	}
	m.bars = bars
}

func (m *Machine) expectLocked(op string, allowed ...State) error {
	if m.closed {
		return ErrClosed
	}
	for _, s := range allowed {
		if m.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, m.state)
}

func (m *Machine) snapshotLocked() Snapshot {
	s := Snapshot{
		State:       m.state,
		Remaining:   m.remaining,
		MaxDuration: m.maxDuration,
		Bars:        append([]int(nil), m.bars...),
		Prompt:      m.prompt,
		Result:      m.result,
		Err:         m.err,
		Attempt:     m.attempt,
		Seq:         m.seq,
	}
	if m.err != nil {
		s.Message = errors.MessageFrom(m.err, analyzeFallback)
	}
	return s
}

// unlockAndEmit releases the state lock and delivers the snapshot taken under
// it. Holding emitMu across the handoff keeps callbacks in transition order.
func (m *Machine) unlockAndEmit() {
	m.seq++
	snap := m.snapshotLocked()
	m.emitMu.Lock()
	m.mu.Unlock()
	defer m.emitMu.Unlock()
	if m.onChange != nil {
		m.onChange(snap)
	}
}
