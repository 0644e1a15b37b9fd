package tui

import "github.com/charmbracelet/lipgloss"

var (
	Indigo   = lipgloss.Color("#4f46e5")
	Slate    = lipgloss.Color("#64748b")
	Surface  = lipgloss.Color("#cbd5e1")
	Text     = lipgloss.Color("#e2e8f0")
	Rose     = lipgloss.Color("#e11d48")
	Emerald  = lipgloss.Color("#10b981")
	Amber    = lipgloss.Color("#f59e0b")
	Lavender = lipgloss.Color("#a5b4fc")

	App = lipgloss.NewStyle().
		Foreground(Text).
		Padding(1, 2)

	Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface).
		Padding(1, 2)

	CardActive = Card.BorderForeground(Indigo)

	Title  = lipgloss.NewStyle().Foreground(Lavender).Bold(true)
	Muted  = lipgloss.NewStyle().Foreground(Slate)
	Hot    = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	Good   = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	Warn   = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	Badge  = lipgloss.NewStyle().Foreground(Indigo).Bold(true)
	Help   = lipgloss.NewStyle().Foreground(Slate).Italic(true)
	Strike = lipgloss.NewStyle().Foreground(Rose).Strikethrough(true)
)
