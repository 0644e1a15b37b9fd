// Package tui renders the speaking-practice workflow in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/windfall/sprache/internal/apiclient"
	"github.com/windfall/sprache/internal/errors"
	"github.com/windfall/sprache/internal/practice"
)

// ─── port ────────────────────────────────────────────────────────────────────

// Port is what the view needs from the practice machine.
type Port interface {
	Snapshot() practice.Snapshot
	LoadPrompt(ctx context.Context, filter apiclient.PracticeFilter) error
	Start(ctx context.Context) error
	Stop() error
	Cancel()
	Retry() error
	Resubmit() error
}

// ─── messages ────────────────────────────────────────────────────────────────

// SnapshotMsg carries a machine state change into the program.
type SnapshotMsg practice.Snapshot

// ErrMsg reports a failed user action.
type ErrMsg struct {
	Err error
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the Bubble Tea model for one practice session. Update never calls
// the port directly; every port call runs inside a command.
type Model struct {
	ctx     context.Context
	port    Port
	filter  apiclient.PracticeFilter
	snap    practice.Snapshot
	err     string
	spinner spinner.Model
	meter   progress.Model
	width   int
}

// New creates a practice view.
func New(ctx context.Context, port Port, filter apiclient.PracticeFilter) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = Badge

	return Model{
		ctx:     ctx,
		port:    port,
		filter:  filter,
		snap:    port.Snapshot(),
		spinner: sp,
		meter: progress.New(
			progress.WithSolidFill(string(Indigo)),
			progress.WithWidth(20),
			progress.WithoutPercentage(),
		),
	}
}

// Init loads the first prompt and starts the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadPrompt(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case SnapshotMsg:
		// Action results and pushed changes race; keep the newest.
		if msg.Seq >= m.snap.Seq {
			m.snap = practice.Snapshot(msg)
		}

	case ErrMsg:
		m.err = errors.MessageFrom(msg.Err, "Something went wrong. Please try again.")

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "q" {
		return m, m.quit()
	}

	m.err = ""
	switch m.snap.State {
	case practice.Idle:
		switch key {
		case " ", "enter", "r":
			return m, m.do(func() error { return m.port.Start(m.ctx) })
		case "n":
			return m, m.loadPrompt()
		}
	case practice.Recording:
		switch key {
		case " ", "enter", "s":
			return m, m.do(m.port.Stop)
		case "esc", "c":
			return m, m.do(func() error { m.port.Cancel(); return nil })
		}
	case practice.Processing:
		if key == "esc" || key == "c" {
			return m, m.do(func() error { m.port.Cancel(); return nil })
		}
	case practice.Feedback:
		switch key {
		case "t":
			return m, m.do(m.port.Retry)
		case "n":
			return m, m.next()
		}
	case practice.Failed:
		switch key {
		case "u", "enter":
			return m, m.do(m.port.Resubmit)
		case "t":
			return m, m.do(m.port.Retry)
		case "n":
			return m, m.next()
		}
	}
	return m, nil
}

// do runs a port action and reports the resulting state.
func (m Model) do(action func() error) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		if err := action(); err != nil {
			return ErrMsg{Err: err}
		}
		return SnapshotMsg(port.Snapshot())
	}
}

func (m Model) loadPrompt() tea.Cmd {
	ctx, port, filter := m.ctx, m.port, m.filter
	return m.do(func() error { return port.LoadPrompt(ctx, filter) })
}

// next abandons the current result and fetches a new prompt.
func (m Model) next() tea.Cmd {
	ctx, port, filter := m.ctx, m.port, m.filter
	return m.do(func() error {
		if err := port.Retry(); err != nil {
			return err
		}
		return port.LoadPrompt(ctx, filter)
	})
}

func (m Model) quit() tea.Cmd {
	port := m.port
	return tea.Sequence(func() tea.Msg {
		port.Cancel()
		return nil
	}, tea.Quit)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.snap.State {
	case practice.Idle:
		b.WriteString(m.renderPrompt())
	case practice.Recording:
		b.WriteString(m.renderRecording())
	case practice.Processing:
		b.WriteString(m.renderProcessing())
	case practice.Feedback:
		b.WriteString(m.renderFeedback())
	case practice.Failed:
		b.WriteString(m.renderFailed())
	}

	if m.err != "" {
		b.WriteString("\n\n")
		b.WriteString(Hot.Render(m.err))
	}
	b.WriteString("\n\n")
	b.WriteString(Help.Render(m.help()))
	if m.width > 0 {
		return App.MaxWidth(m.width).Render(b.String())
	}
	return App.Render(b.String())
}

func (m Model) renderHeader() string {
	title := Title.Render("Speaking Practice")
	var tags []string
	if p := m.snap.Prompt; p != nil {
		if p.Question.Theme != "" {
			tags = append(tags, p.Question.Theme)
		}
		if p.Question.Level != "" {
			tags = append(tags, p.Question.Level)
		}
	}
	if len(tags) == 0 {
		return title
	}
	return title + "  " + Badge.Render(strings.Join(tags, " · "))
}

func (m Model) renderPrompt() string {
	p := m.snap.Prompt
	if p == nil {
		return Muted.Render("Loading question…")
	}

	var b strings.Builder
	b.WriteString(p.Question.Text)
	if p.Question.TextEn != "" {
		b.WriteString("\n" + Muted.Render(p.Question.TextEn))
	}
	if len(p.TargetWords) > 0 {
		b.WriteString("\n\n" + Title.Render("Target words") + "\n")
		for _, w := range p.TargetWords {
			line := "• " + w.Word
			if w.Translation != "" {
				line += Muted.Render("  " + w.Translation)
			}
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("\n" + Title.Render("Quick tips") + "\n")
	for i, tip := range practice.DefaultTips {
		fmt.Fprintf(&b, "%d. %s\n", i+1, tip)
	}
	b.WriteString("\n" + Muted.Render("Time limit "+clock(m.snap.MaxDuration)))
	return Card.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderRecording() string {
	rec := Hot.Render("● REC") + "  " + Warn.Render(clock(m.snap.Remaining))
	return CardActive.Render(rec + "\n\n" + bars(m.snap.Bars))
}

func (m Model) renderProcessing() string {
	return Card.Render(m.spinner.View() + " Analyzing your answer…")
}

func (m Model) renderFeedback() string {
	r := m.snap.Result
	if r == nil {
		return ""
	}

	scoreStyle := Good
	switch {
	case r.OverallScore < 50:
		scoreStyle = Hot
	case r.OverallScore < 75:
		scoreStyle = Warn
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", Title.Render("Overall score"), scoreStyle.Render(fmt.Sprintf("%d/100", r.OverallScore)))
	metrics := []struct {
		name  string
		value int
	}{
		{"Fluency", r.Metrics.Fluency},
		{"Grammar", r.Metrics.Grammar},
		{"Vocabulary", r.Metrics.Vocabulary},
		{"Pronunciation", r.Metrics.Pronunciation},
	}
	for _, mt := range metrics {
		fmt.Fprintf(&b, "%-14s %3d  %s\n", mt.name, mt.value, m.renderMeter(mt.value))
	}

	if r.Transcript != "" {
		b.WriteString("\n" + Title.Render("Transcript") + "\n" + r.Transcript + "\n")
	}
	if len(r.Corrections) > 0 {
		b.WriteString("\n" + Title.Render("Corrections") + "\n")
		for _, c := range r.Corrections {
			fmt.Fprintf(&b, "%s → %s\n", Strike.Render(c.Original), Good.Render(c.Correction))
			if c.Explanation != "" {
				b.WriteString(Muted.Render("  "+c.Explanation) + "\n")
			}
		}
	}
	return Card.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderFailed() string {
	msg := m.snap.Message
	if msg == "" {
		msg = "Failed to analyze recording"
	}
	return Card.BorderForeground(Rose).Render(Hot.Render("Analysis failed") + "\n\n" + msg)
}

func (m Model) help() string {
	switch m.snap.State {
	case practice.Idle:
		return "space start · n next question · q quit"
	case practice.Recording:
		return "space stop · esc cancel · q quit"
	case practice.Processing:
		return "esc cancel · q quit"
	case practice.Feedback:
		return "t try again · n next question · q quit"
	case practice.Failed:
		return "u resubmit · t try again · n next question · q quit"
	}
	return "q quit"
}

// ─── helpers ─────────────────────────────────────────────────────────────────

var barGlyphs = []rune("▁▂▃▄▅▆▇█")

// bars draws amplitude heights in [10, 50) as block glyphs.
func bars(heights []int) string {
	var b strings.Builder
	for i, h := range heights {
		if i > 0 {
			b.WriteRune(' ')
		}
		idx := (h - practice.BarRest) * len(barGlyphs) / 40
		idx = min(max(idx, 0), len(barGlyphs)-1)
		b.WriteRune(barGlyphs[idx])
	}
	return lipgloss.NewStyle().Foreground(Indigo).Render(b.String())
}

func (m Model) renderMeter(v int) string {
	return m.meter.ViewAs(float64(min(max(v, 0), 100)) / 100)
}

func clock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
