package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/juscheck/internal/theme"
)

// minTableHeight keeps a few process rows visible when the history panel
// is open on a short terminal.
const minTableHeight = 5

// Layout splits the terminal into a header, a content area and a status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentHeight returns the rows left between the header and the status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-2, 0)
}

// Split divides the content area between the process table and the
// history panel. With the panel closed the table takes everything.
func (l Layout) Split(panelOpen bool) (tableHeight, panelHeight int) {
	content := l.ContentHeight()
	if !panelOpen {
		return content, 0
	}
	tableHeight = max(content/2, minTableHeight)
	return tableHeight, max(content-tableHeight, 0)
}

// RenderHeader renders a full-width bar with the title on the left and
// the sweep status on the right.
func (l Layout) RenderHeader(title, status string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Render(status)
	return joinBar(l.Width, left, right, theme.HeaderStyle)
}

// RenderStatusBar renders the bottom bar with keyboard hints or a message.
func (l Layout) RenderStatusBar(text string) string {
	return joinBar(l.Width, theme.StatusBarStyle.Render(text), "", theme.StatusBarStyle)
}

// Frame stacks header, content and status bar.
func (l Layout) Frame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func joinBar(width int, left, right string, style lipgloss.Style) string {
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}
