// Package monitor implements the interactive watch view: a live table of
// tracked processes with on-demand checks and movement history.
package monitor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/juscheck/internal/cnj"
	"github.com/nhle/juscheck/internal/keys"
	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/reconcile"
	"github.com/nhle/juscheck/internal/theme"
	"github.com/nhle/juscheck/internal/ui"
)

// Source is the read/check surface the view needs from the tracking service.
type Source interface {
	List(ctx context.Context) ([]model.ProcessSummary, error)
	History(ctx context.Context, id int64) ([]model.MovementRecord, error)
	Check(ctx context.Context, id int64, firstCheck bool) (reconcile.Result, error)
}

// Sweeper runs a full reconciliation pass.
type Sweeper interface {
	SweepNow(ctx context.Context) reconcile.Summary
}

// TimeFormatter renders timestamps in the display timezone.
type TimeFormatter interface {
	FormatTime(t time.Time) string
}

type processesLoadedMsg struct {
	processes []model.ProcessSummary
	err       error
}

type historyLoadedMsg struct {
	id        int64
	movements []model.MovementRecord
	err       error
}

type checkedMsg struct {
	result reconcile.Result
	err    error
}

type sweptMsg struct {
	summary reconcile.Summary
}

type tickMsg time.Time

// Model is the root Bubble Tea model of the watch view.
type Model struct {
	source  Source
	sweeper Sweeper
	tf      TimeFormatter
	keys    *keys.KeyMap
	refresh time.Duration

	layout    ui.Layout
	table     table.Model
	help      help.Model
	processes []model.ProcessSummary

	historyID int64
	history   []model.MovementRecord
	showPanel bool
	showHelp  bool
	busy      bool
	status    string
	loadedAt  time.Time
}

// New creates the watch model. A positive refresh reloads the list on that
// interval.
func New(source Source, sweeper Sweeper, tf TimeFormatter, refresh time.Duration) Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	styles := table.DefaultStyles()
	styles.Header = theme.TableHeaderStyle
	styles.Selected = styles.Selected.Foreground(theme.ColorWhite).Background(theme.ColorBlue)
	t.SetStyles(styles)

	return Model{
		source:  source,
		sweeper: sweeper,
		tf:      tf,
		keys:    keys.DefaultKeyMap(),
		refresh: refresh,
		layout:  ui.NewLayout(80, 24),
		table:   t,
		help:    help.New(),
	}
}

// Init loads the process list and starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.tick())
}

// Update handles messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.load(), m.tick())

	case processesLoadedMsg:
		if msg.err != nil {
			m.status = "load failed: " + msg.err.Error()
			return m, nil
		}
		m.processes = msg.processes
		m.loadedAt = time.Now()
		m.table.SetRows(m.rows())
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.status = "history failed: " + msg.err.Error()
			return m, nil
		}
		m.historyID = msg.id
		m.history = msg.movements
		m.showPanel = true
		m.resize()
		return m, nil

	case checkedMsg:
		m.busy = false
		m.status = describeResult(msg.result)
		cmds := []tea.Cmd{m.load()}
		if m.showPanel && m.historyID == msg.result.ProcessID {
			cmds = append(cmds, m.loadHistory(m.historyID))
		}
		return m, tea.Batch(cmds...)

	case sweptMsg:
		m.busy = false
		s := msg.summary
		m.status = fmt.Sprintf("sweep: %d processed, %d succeeded, %d failed", s.Total, s.Succeeded, s.Failed)
		return m, m.load()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.showHelp = false
		m.showPanel = false
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()

	case key.Matches(msg, m.keys.Select):
		if p, ok := m.selected(); ok {
			return m, m.loadHistory(p.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Check):
		p, ok := m.selected()
		if !ok || m.busy {
			return m, nil
		}
		m.busy = true
		m.status = "checking " + cnj.Format(p.Number) + "..."
		return m, m.check(p.ID)

	case key.Matches(msg, m.keys.Sweep):
		if m.busy || m.sweeper == nil {
			return m, nil
		}
		m.busy = true
		m.status = "sweeping..."
		return m, m.sweep()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the header, the process table, the optional history panel
// and the status bar.
func (m Model) View() string {
	header := m.layout.RenderHeader("JusCheck", m.headerStatus())

	content := m.table.View()
	if m.showPanel {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.historyView())
	}
	if m.showHelp {
		m.help.ShowAll = true
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.help.View(m.keys))
	}

	bar := m.status
	if bar == "" {
		bar = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	return m.layout.Frame(header, content, m.layout.RenderStatusBar(bar))
}

func (m Model) headerStatus() string {
	if m.loadedAt.IsZero() {
		return "loading..."
	}
	return fmt.Sprintf("%d processes · %s", len(m.processes), m.loadedAt.Format("15:04:05"))
}

func (m Model) historyView() string {
	_, height := m.layout.Split(true)
	lines := []string{theme.TableHeaderStyle.Render(fmt.Sprintf("Movements of #%d", m.historyID))}
	if len(m.history) == 0 {
		lines = append(lines, theme.HelpStyle.Render("No recorded movements."))
	}
	for i, mv := range m.history {
		// Border and title take three rows.
		if height > 0 && i >= height-3 {
			break
		}
		lines = append(lines, m.tf.FormatTime(mv.MovedAt)+"  "+mv.Description)
	}
	return theme.DetailPanelStyle.
		Width(max(m.layout.Width-2, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) resize() {
	tableHeight, _ := m.layout.Split(m.showPanel)
	m.table.SetColumns(columns(m.layout.Width))
	m.table.SetWidth(m.layout.Width)
	m.table.SetHeight(max(tableHeight-1, 1))
}

func (m Model) selected() (model.ProcessSummary, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.processes) {
		return model.ProcessSummary{}, false
	}
	return m.processes[i], true
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.processes))
	for _, p := range m.processes {
		number := cnj.Format(p.Number)
		if p.Favorite {
			number = "★ " + number
		}
		latest := ""
		if p.LastMovementDescription != nil {
			latest = *p.LastMovementDescription
		}
		checked := "-"
		if p.LastCheckedAt != nil {
			checked = m.tf.FormatTime(*p.LastCheckedAt)
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(p.ID, 10),
			number,
			p.Email,
			p.Priority,
			strconv.Itoa(p.LastMovementCount),
			latest,
			checked,
		})
	}
	return rows
}

// columns sizes the table to width, giving the remainder to the latest
// movement description.
func columns(width int) []table.Column {
	cols := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Number", Width: 27},
		{Title: "Email", Width: 24},
		{Title: "Priority", Width: 12},
		{Title: "Mov.", Width: 5},
		{Title: "Latest", Width: 0},
		{Title: "Checked", Width: 20},
	}
	used := 0
	for _, c := range cols {
		// Each cell carries one column of padding on both sides.
		used += c.Width + 2
	}
	cols[5].Width = max(width-used-2, 10)
	return cols
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		processes, err := m.source.List(context.Background())
		return processesLoadedMsg{processes: processes, err: err}
	}
}

func (m Model) loadHistory(id int64) tea.Cmd {
	return func() tea.Msg {
		movements, err := m.source.History(context.Background(), id)
		return historyLoadedMsg{id: id, movements: movements, err: err}
	}
}

func (m Model) check(id int64) tea.Cmd {
	return func() tea.Msg {
		res, err := m.source.Check(context.Background(), id, false)
		return checkedMsg{result: res, err: err}
	}
}

func (m Model) sweep() tea.Cmd {
	return func() tea.Msg {
		return sweptMsg{summary: m.sweeper.SweepNow(context.Background())}
	}
}

func (m Model) tick() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func describeResult(r reconcile.Result) string {
	if !r.Success {
		return fmt.Sprintf("#%d failed: %s", r.ProcessID, r.Error)
	}
	switch r.Outcome {
	case reconcile.OutcomeNewMovements:
		return fmt.Sprintf("#%d: %d new movements", r.ProcessID, r.NewMovements)
	case reconcile.OutcomeUnavailable:
		return fmt.Sprintf("#%d: registry unavailable", r.ProcessID)
	default:
		return fmt.Sprintf("#%d: %s", r.ProcessID, r.Outcome)
	}
}
