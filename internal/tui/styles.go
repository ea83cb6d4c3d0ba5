// ABOUTME: lipgloss palette and styles for the legisbot TUI
// ABOUTME: Legislative blue/slate palette mirroring the web client's dark theme

package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#38bdf8")
	colorAccent  = lipgloss.Color("#22c55e")
	colorMuted   = lipgloss.Color("#64748b")
	colorText    = lipgloss.Color("#e2e8f0")
	colorError   = lipgloss.Color("#ef4444")
	colorWarning = lipgloss.Color("#f59e0b")
	colorBorder  = lipgloss.Color("#334155")
)

// Styles groups every style the pages use.
type Styles struct {
	Header    lipgloss.Style
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Label     lipgloss.Style
	Focused   lipgloss.Style
	UserMsg   lipgloss.Style
	BotMsg    lipgloss.Style
	Pending   lipgloss.Style
	Bar       lipgloss.Style
	Card      lipgloss.Style
	StatusBar lipgloss.Style
}

// DefaultStyles returns the dark theme.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1),
		Title:     lipgloss.NewStyle().Bold(true).Foreground(colorText).MarginBottom(1),
		Muted:     lipgloss.NewStyle().Foreground(colorMuted),
		Error:     lipgloss.NewStyle().Foreground(colorError),
		Success:   lipgloss.NewStyle().Foreground(colorAccent),
		Warning:   lipgloss.NewStyle().Foreground(colorWarning),
		Label:     lipgloss.NewStyle().Foreground(colorMuted).Width(14),
		Focused:   lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Width(14),
		UserMsg:   lipgloss.NewStyle().Foreground(colorPrimary).Bold(true),
		BotMsg:    lipgloss.NewStyle().Foreground(colorText),
		Pending:   lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
		Bar:       lipgloss.NewStyle().Foreground(colorAccent),
		Card:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1),
		StatusBar: lipgloss.NewStyle().Foreground(colorMuted).BorderTop(true).BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorBorder),
	}
}
