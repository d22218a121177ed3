package reporter

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	Primary   = lipgloss.Color("#7C3AED")
	Secondary = lipgloss.Color("#A78BFA")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Danger    = lipgloss.Color("#EF4444")
	Info      = lipgloss.Color("#3B82F6")
	Muted     = lipgloss.Color("#6B7280")
)

// styles are bound to the reporter's writer so color is only emitted when
// that writer is a terminal
type styles struct {
	title    lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	path     lipgloss.Style
	size     lipgloss.Style
	category lipgloss.Style
	success  lipgloss.Style
	warning  lipgloss.Style
	failure  lipgloss.Style
	muted    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)

	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(Primary),
		label: r.NewStyle().
			Foreground(Secondary).
			Width(18),
		value: r.NewStyle().
			Bold(true),
		path: r.NewStyle().
			Foreground(Info),
		size: r.NewStyle().
			Foreground(Warning),
		category: r.NewStyle().
			Foreground(Secondary).
			Italic(true),
		success: r.NewStyle().
			Foreground(Success),
		warning: r.NewStyle().
			Foreground(Warning),
		failure: r.NewStyle().
			Foreground(Danger).
			Bold(true),
		muted: r.NewStyle().
			Foreground(Muted),
	}
}
