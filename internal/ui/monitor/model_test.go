package monitor

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/reconcile"
)

type fakeSource struct {
	processes []model.ProcessSummary
	history   map[int64][]model.MovementRecord
	checked   []int64
}

func (f *fakeSource) List(context.Context) ([]model.ProcessSummary, error) {
	return f.processes, nil
}

func (f *fakeSource) History(_ context.Context, id int64) ([]model.MovementRecord, error) {
	return f.history[id], nil
}

func (f *fakeSource) Check(_ context.Context, id int64, _ bool) (reconcile.Result, error) {
	f.checked = append(f.checked, id)
	return reconcile.Result{ProcessID: id, Success: true, Outcome: reconcile.OutcomeNewMovements, NewMovements: 2}, nil
}

type fakeSweeper struct{ calls int }

func (f *fakeSweeper) SweepNow(context.Context) reconcile.Summary {
	f.calls++
	return reconcile.Summary{Total: 2, Succeeded: 2}
}

type isoFormatter struct{}

func (isoFormatter) FormatTime(t time.Time) string { return t.UTC().Format("2006-01-02") }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func loaded(t *testing.T, src *fakeSource, sw *fakeSweeper) Model {
	t.Helper()
	m := New(src, sw, isoFormatter{}, 0)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})
	m, _ = update(t, m, m.load()())
	return m
}

func sampleSource() *fakeSource {
	desc := "Sentença"
	return &fakeSource{
		processes: []model.ProcessSummary{
			{TrackedProcess: model.TrackedProcess{ID: 3, Number: "00012345620248260100", Email: "ana@example.com", Priority: "Alta", LastMovementCount: 4, LastMovementDescription: &desc}},
			{TrackedProcess: model.TrackedProcess{ID: 5, Number: "00098765420238190001", Email: "bia@example.com", Priority: "Baixa"}},
		},
		history: map[int64][]model.MovementRecord{
			3: {{ProcessID: 3, MovedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Description: "Sentença"}},
		},
	}
}

func TestLoadPopulatesTable(t *testing.T) {
	m := loaded(t, sampleSource(), &fakeSweeper{})

	view := m.View()
	assert.Contains(t, view, "0001234-56.2024.8.26.0100")
	assert.Contains(t, view, "2 processes")
}

func TestCheckSelectedProcess(t *testing.T) {
	src := sampleSource()
	m := loaded(t, src, &fakeSweeper{})

	m, cmd := update(t, m, runes("c"))
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	m, _ = update(t, m, cmd())
	assert.Equal(t, []int64{3}, src.checked)
	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "#3: 2 new movements")
}

func TestSelectOpensHistory(t *testing.T) {
	m := loaded(t, sampleSource(), &fakeSweeper{})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.True(t, m.showPanel)
	assert.Contains(t, m.View(), "Movements of #3")
	assert.Contains(t, m.View(), "2024-03-01  Sentença")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showPanel)
}

func TestSweep(t *testing.T) {
	sw := &fakeSweeper{}
	m := loaded(t, sampleSource(), sw)

	m, cmd := update(t, m, runes("s"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, 1, sw.calls)
	assert.Contains(t, m.status, "2 processed")
}

func TestQuit(t *testing.T) {
	m := loaded(t, sampleSource(), &fakeSweeper{})

	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestColumnsFillWidth(t *testing.T) {
	cols := columns(200)
	total := 0
	for _, c := range cols {
		total += c.Width + 2
	}
	assert.Equal(t, 198, total)
	assert.Equal(t, 10, columns(40)[5].Width)
}
