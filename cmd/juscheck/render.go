package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/juscheck/internal/cnj"
	"github.com/nhle/juscheck/internal/datajud"
	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/reconcile"
	"github.com/nhle/juscheck/internal/theme"
)

// maxDescriptionWidth truncates long movement descriptions in tables.
const maxDescriptionWidth = 60

// timeFormatter renders timestamps in the display timezone.
type timeFormatter interface {
	FormatTime(t time.Time) string
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a bordered table styled with the shared theme. styleCol
// may override the style of individual body cells.
func newTable(headers []string, rows [][]string, styleCol func(row, col int) (lipgloss.Style, bool)) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(theme.BorderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeaderStyle
			}
			if styleCol != nil {
				if s, ok := styleCol(row, col); ok {
					return s.Padding(0, 1)
				}
			}
			return theme.CellStyle
		})
}

func resultsTable(results []reconcile.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ProcessID, 10),
			status,
			string(r.Outcome),
			strconv.Itoa(r.NewMovements),
			yesNo(r.Notified),
			r.Error,
		})
	}
	return newTable(
		[]string{"ID", "Status", "Outcome", "New", "Notified", "Error"},
		rows,
		func(row, col int) (lipgloss.Style, bool) {
			switch col {
			case 1:
				if !results[row].Success {
					return theme.ErrorStyle, true
				}
			case 2:
				return theme.OutcomeStyle(string(results[row].Outcome)), true
			}
			return lipgloss.Style{}, false
		},
	).String()
}

func processTable(processes []model.ProcessSummary, tf timeFormatter) string {
	rows := make([][]string, 0, len(processes))
	for _, p := range processes {
		number := cnj.Format(p.Number)
		if p.Favorite {
			number = "★ " + number
		}
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			number,
			p.Email,
			deref(p.Label),
			p.Priority,
			strconv.Itoa(p.LastMovementCount),
			truncate(deref(p.LastMovementDescription), maxDescriptionWidth),
			formatOptional(tf, p.LastCheckedAt),
		})
	}
	return newTable(
		[]string{"ID", "Number", "Email", "Label", "Priority", "Movements", "Latest", "Checked"},
		rows,
		func(row, col int) (lipgloss.Style, bool) {
			if col == 4 {
				return theme.PriorityStyle(processes[row].Priority), true
			}
			return lipgloss.Style{}, false
		},
	).String()
}

func movementTable(movements []model.MovementRecord, tf timeFormatter) string {
	rows := make([][]string, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, []string{
			tf.FormatTime(m.MovedAt),
			truncate(m.Description, maxDescriptionWidth),
			tf.FormatTime(m.DiscoveredAt),
		})
	}
	return newTable([]string{"Date", "Movement", "Discovered"}, rows, nil).String()
}

func notificationTable(events []model.NotificationEvent, tf timeFormatter) string {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			tf.FormatTime(e.SentAt),
			string(e.Kind),
			e.Subject,
		})
	}
	return newTable([]string{"Sent", "Kind", "Subject"}, rows, nil).String()
}

func snapshotTable(snap *datajud.Snapshot, tf timeFormatter) string {
	movements := snap.Movements()
	rows := make([][]string, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, []string{
			tf.FormatTime(m.At),
			truncate(m.Description, maxDescriptionWidth),
		})
	}
	return newTable([]string{"Date", fmt.Sprintf("Movements (%d)", len(movements))}, rows, nil).String()
}

func formatOptional(tf timeFormatter, t *time.Time) string {
	if t == nil {
		return "-"
	}
	return tf.FormatTime(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
