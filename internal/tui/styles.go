package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/danielpatrickdp/rlhf-playground/internal/prefs"
)

var (
	lightForeground = lipgloss.Color("#101F38")
	lightMuted      = lipgloss.Color("#6b7380")
	lightAccent     = lipgloss.Color("#2f6fb0")

	darkForeground = lipgloss.Color("#f2f2f2")
	darkMuted      = lipgloss.Color("#8a94a6")
	darkAccent     = lipgloss.Color("#8BC34A")

	warning = lipgloss.Color("#FFC107")
	success = lipgloss.Color("#8BC34A")
)

// Styles holds every lipgloss style the playground view uses.
type Styles struct {
	Title     lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Muted     lipgloss.Style
	Label     lipgloss.Style
	Selected  lipgloss.Style
	Value     lipgloss.Style
	Spark     lipgloss.Style
	Status    lipgloss.Style
	StatusOK  lipgloss.Style
	Panel     lipgloss.Style
}

// NewStyles builds styles for theme. ThemeSystem follows the terminal background.
func NewStyles(theme prefs.Theme) Styles {
	dark := theme == prefs.ThemeDark
	if theme == prefs.ThemeSystem {
		dark = lipgloss.HasDarkBackground()
	}
	fg, muted, accent := lightForeground, lightMuted, lightAccent
	if dark {
		fg, muted, accent = darkForeground, darkMuted, darkAccent
	}
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(fg),
		Tab:       lipgloss.NewStyle().Padding(0, 1).Foreground(muted),
		ActiveTab: lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true).Foreground(accent),
		Muted:     lipgloss.NewStyle().Foreground(muted),
		Label:     lipgloss.NewStyle().Foreground(fg).Width(22),
		Selected:  lipgloss.NewStyle().Foreground(accent).Bold(true).Width(22),
		Value:     lipgloss.NewStyle().Foreground(fg).Bold(true),
		Spark:     lipgloss.NewStyle().Foreground(accent),
		Status:    lipgloss.NewStyle().Foreground(warning),
		StatusOK:  lipgloss.NewStyle().Foreground(success),
		Panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1),
	}
}
