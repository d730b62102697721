package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the lipgloss styles of the dashboard.
type Theme struct {
	Banner   lipgloss.Style
	Heading  lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Link     lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Pane     lipgloss.Style
	Focused  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
}

// Default is the name of the built-in dark theme.
const Default = "dark"

func build(accent, heading, body, muted, link, warn, fail lipgloss.Color) Theme {
	pane := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1)
	return Theme{
		Banner:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		Heading:  lipgloss.NewStyle().Bold(true).Foreground(heading).MarginTop(1),
		Body:     lipgloss.NewStyle().Foreground(body),
		Muted:    lipgloss.NewStyle().Foreground(muted),
		Link:     lipgloss.NewStyle().Foreground(link).Underline(true),
		Cursor:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(heading),
		Pane:     pane,
		Focused:  pane.Copy().BorderForeground(accent),
		Warning:  lipgloss.NewStyle().Foreground(warn),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(fail),
	}
}

var themes = map[string]Theme{
	Default:         build("205", "99", "252", "240", "81", "214", "196"),
	"light":         build("162", "25", "235", "245", "27", "130", "160"),
	"high_contrast": build("51", "15", "15", "250", "45", "226", "196"),
}

// Names returns the available theme names, sorted.
func Names() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForName returns the named theme, or the default when unknown.
func ForName(name string) Theme {
	if th, ok := themes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return th
	}
	return themes[Default]
}
