// Package theme holds the lipgloss styles used by the command line output
// and the watch view.
package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for section titles.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// TableHeaderStyle styles table header cells.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue).
	Padding(0, 1)

// CellStyle pads regular table cells.
var CellStyle = lipgloss.NewStyle().Padding(0, 1)

// BorderStyle colors table borders.
var BorderStyle = lipgloss.NewStyle().Foreground(ColorBorder)

// HelpStyle is used for hints and secondary text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// StatusBarStyle is used for the bottom status bar of the watch view.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorBorder).
	Padding(0, 1)

// DetailPanelStyle wraps the movement history panel.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ErrorStyle highlights failures.
var ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)

// OutcomeStyle returns a color-coded style for a reconciliation outcome.
func OutcomeStyle(outcome string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch outcome {
	case "new_movements":
		return base.Foreground(ColorGreen)
	case "first_check":
		return base.Foreground(ColorBlue)
	case "unavailable":
		return base.Foreground(ColorYellow)
	case "no_change":
		return base.Foreground(ColorGray)
	default:
		return base.Foreground(ColorRed)
	}
}

// PriorityStyle returns a color-coded style for a free-form priority label.
func PriorityStyle(priority string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "urgente", "crítica", "critica":
		return base.Foreground(ColorRed)
	case "alta":
		return base.Foreground(ColorOrange)
	case "média", "media":
		return base.Foreground(ColorYellow)
	case "baixa":
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}
