package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/windfall/sprache/internal/apiclient"
	"github.com/windfall/sprache/internal/practice"
)

// Run shows the practice view until the user quits. It owns machine's change
// notifications for its duration.
func Run(ctx context.Context, machine *practice.Machine, filter apiclient.PracticeFilter, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(New(ctx, machine, filter), opts...)

	machine.OnChange(func(s practice.Snapshot) { p.Send(SnapshotMsg(s)) })
	defer machine.OnChange(nil)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("practice view: %w", err)
	}
	return nil
}
