package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/windfall/sprache/internal/apiclient"
	"github.com/windfall/sprache/internal/practice"
)

type fakePort struct {
	snap  practice.Snapshot
	calls []string
	err   error
}

func (p *fakePort) Snapshot() practice.Snapshot { return p.snap }

func (p *fakePort) LoadPrompt(context.Context, apiclient.PracticeFilter) error {
	p.calls = append(p.calls, "load")
	p.snap.Prompt = &apiclient.PracticeSession{
		Question:    apiclient.PracticePrompt{Text: "Wie gehen Sie mit Konflikten um?", Theme: "Business", Level: "B2"},
		TargetWords: []apiclient.TargetWord{{Word: "der Konflikt", Translation: "conflict"}},
	}
	return p.err
}

func (p *fakePort) Start(context.Context) error {
	p.calls = append(p.calls, "start")
	if p.err != nil {
		return p.err
	}
	p.snap.State = practice.Recording
	p.snap.Remaining = 42 * time.Second
	p.snap.Bars = []int{10, 20, 30, 49, 10, 20, 30, 49, 10, 20, 30, 49}
	return nil
}

func (p *fakePort) Stop() error {
	p.calls = append(p.calls, "stop")
	p.snap.State = practice.Processing
	return nil
}

func (p *fakePort) Cancel() {
	p.calls = append(p.calls, "cancel")
	p.snap.State = practice.Idle
}

func (p *fakePort) Retry() error {
	p.calls = append(p.calls, "retry")
	p.snap.State = practice.Idle
	p.snap.Result = nil
	return nil
}

func (p *fakePort) Resubmit() error {
	p.calls = append(p.calls, "resubmit")
	p.snap.State = practice.Processing
	return nil
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and feeds the resulting command's message back in.
func press(t *testing.T, m tea.Model, k string) tea.Model {
	t.Helper()
	m, cmd := m.Update(key(k))
	if cmd == nil {
		return m
	}
	m, _ = m.Update(cmd())
	return m
}

func newModel(port *fakePort) tea.Model {
	port.snap.MaxDuration = time.Minute
	port.snap.Remaining = time.Minute
	m := New(context.Background(), port, apiclient.PracticeFilter{Theme: "Business", Level: apiclient.LevelB2})
	port.LoadPrompt(context.Background(), apiclient.PracticeFilter{})
	updated, _ := m.Update(SnapshotMsg(port.snap))
	return updated
}

func TestIdleShowsPromptAndTips(t *testing.T) {
	port := &fakePort{}
	view := newModel(port).View()

	for _, want := range []string{"Wie gehen Sie mit Konflikten um?", "der Konflikt", "Business", "B2", practice.DefaultTips[0], "1:00", "space start"} {
		if !strings.Contains(view, want) {
			t.Errorf("idle view missing %q", want)
		}
	}
}

func TestRecordingFlow(t *testing.T) {
	port := &fakePort{}
	m := newModel(port)

	m = press(t, m, " ")
	view := m.View()
	if !strings.Contains(view, "REC") || !strings.Contains(view, "0:42") {
		t.Errorf("recording view = %q", view)
	}
	if !strings.Contains(view, "▁") || !strings.Contains(view, "█") {
		t.Errorf("recording view has no bars: %q", view)
	}

	m = press(t, m, " ")
	if !strings.Contains(m.View(), "Analyzing your answer") {
		t.Errorf("processing view = %q", m.View())
	}

	want := []string{"load", "start", "stop"}
	if strings.Join(port.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", port.calls, want)
	}
}

func TestCancelFromRecording(t *testing.T) {
	port := &fakePort{}
	m := press(t, newModel(port), " ")
	m = press(t, m, "c")

	if port.snap.State != practice.Idle {
		t.Fatalf("state = %s", port.snap.State)
	}
	if !strings.Contains(m.View(), "space start") {
		t.Errorf("view after cancel = %q", m.View())
	}
}

func TestFeedbackView(t *testing.T) {
	port := &fakePort{}
	m := newModel(port)

	port.snap.State = practice.Feedback
	port.snap.Result = &apiclient.Analysis{
		OverallScore: 85,
		Metrics:      apiclient.Metrics{Fluency: 80, Grammar: 90, Vocabulary: 85, Pronunciation: 82},
		Transcript:   "Ich habe gestern mit meinem Team verhandelt.",
		Corrections:  []apiclient.Correction{{Original: "Ich habe gegangen", Correction: "Ich bin gegangen", Explanation: "Perfekt mit sein"}},
	}
	m, _ = m.Update(SnapshotMsg(port.snap))

	view := m.View()
	for _, want := range []string{"85/100", "Fluency", "Pronunciation", "verhandelt", "Ich bin gegangen", "t try again"} {
		if !strings.Contains(view, want) {
			t.Errorf("feedback view missing %q", want)
		}
	}

	m = press(t, m, "t")
	if port.snap.State != practice.Idle || !strings.Contains(m.View(), "space start") {
		t.Errorf("try again did not return to idle")
	}
}

func TestFailedViewAndResubmit(t *testing.T) {
	port := &fakePort{}
	m := newModel(port)

	port.snap.State = practice.Failed
	port.snap.Message = "Analysis service unavailable"
	m, _ = m.Update(SnapshotMsg(port.snap))
	if !strings.Contains(m.View(), "Analysis service unavailable") {
		t.Errorf("failed view = %q", m.View())
	}

	press(t, m, "u")
	if port.calls[len(port.calls)-1] != "resubmit" || port.snap.State != practice.Processing {
		t.Errorf("calls = %v state = %s", port.calls, port.snap.State)
	}
}

func TestActionErrorIsShown(t *testing.T) {
	port := &fakePort{}
	m := newModel(port)
	port.err = context.DeadlineExceeded

	m = press(t, m, " ")
	if !strings.Contains(m.View(), context.DeadlineExceeded.Error()) {
		t.Errorf("view = %q", m.View())
	}
}

func TestKeysIgnoredInWrongState(t *testing.T) {
	port := &fakePort{}
	m := newModel(port)

	_, cmd := m.Update(key("u"))
	if cmd != nil {
		t.Error("resubmit key produced a command while idle")
	}
	_, cmd = m.Update(key("t"))
	if cmd != nil {
		t.Error("retry key produced a command while idle")
	}
}

func TestClock(t *testing.T) {
	tests := map[time.Duration]string{
		0:                "0:00",
		5 * time.Second:  "0:05",
		time.Minute:      "1:00",
		90 * time.Second: "1:30",
		-time.Second:     "0:00",
	}
	for d, want := range tests {
		if got := clock(d); got != want {
			t.Errorf("clock(%v) = %q, want %q", d, got, want)
		}
	}
}

type gatedAnalyzer struct {
	gate chan struct{}
}

func (a gatedAnalyzer) SubmitRecording(ctx context.Context, _ apiclient.Submission) (*apiclient.Analysis, error) {
	select {
	case <-a.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &apiclient.Analysis{OverallScore: 85, Transcript: "Ich habe verhandelt."}, nil
}

func TestStaleActionSnapshotDoesNotOverwriteNewerState(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "answer.webm")
	if err := os.WriteFile(audio, []byte("voice"), 0o600); err != nil {
		t.Fatal(err)
	}
	analyzer := gatedAnalyzer{gate: make(chan struct{})}
	machine := practice.New(practice.NewFileRecorder(audio), analyzer,
		practice.WithMaxDuration(time.Minute), practice.WithTick(time.Hour))
	t.Cleanup(machine.Close)

	changes := make(chan practice.Snapshot, 16)
	machine.OnChange(func(s practice.Snapshot) { changes <- s })

	var m tea.Model = New(context.Background(), machine, apiclient.PracticeFilter{})
	m = press(t, m, " ")
	if !strings.Contains(m.View(), "REC") {
		t.Fatalf("not recording: %q", m.View())
	}

	// The stop action reads its snapshot while analysis is still running.
	_, cmd := m.Update(key(" "))
	stale := cmd()
	if s, ok := stale.(SnapshotMsg); !ok || s.State != practice.Processing {
		t.Fatalf("stop result = %#v", stale)
	}

	close(analyzer.gate)
	var feedback practice.Snapshot
	timeout := time.After(2 * time.Second)
	for feedback.State != practice.Feedback {
		select {
		case feedback = <-changes:
		case <-timeout:
			t.Fatal("no feedback snapshot")
		}
	}

	m, _ = m.Update(SnapshotMsg(feedback))
	m, _ = m.Update(stale)

	view := m.View()
	if !strings.Contains(view, "85/100") || strings.Contains(view, "Analyzing") {
		t.Errorf("view regressed to an older state: %q", view)
	}
}

func TestProcessingSpinnerAdvancesOnTick(t *testing.T) {
	port := &fakePort{}
	port.snap.State = practice.Processing
	m := newModel(port).(Model)

	before := m.View()
	next, cmd := m.Update(m.spinner.Tick())
	if cmd == nil {
		t.Fatal("spinner tick scheduled no follow-up")
	}
	m = next.(Model)
	after := m.View()
	if before == after {
		t.Errorf("spinner frame did not change: %q", after)
	}
	if !strings.Contains(after, "Analyzing your answer") {
		t.Errorf("processing view = %q", after)
	}
}

func TestFeedbackMeterScalesWithScore(t *testing.T) {
	m := newModel(&fakePort{}).(Model)
	low, high := m.renderMeter(10), m.renderMeter(90)
	if low == high {
		t.Error("meters for 10 and 90 render the same")
	}
	if m.renderMeter(-5) != m.renderMeter(0) || m.renderMeter(150) != m.renderMeter(100) {
		t.Error("meter does not clamp to 0..100")
	}
}
