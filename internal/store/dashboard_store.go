package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nhle/juscheck/internal/model"
)

// dashboardWindows are the trailing windows the dashboard supports.
var dashboardWindows = map[int]bool{7: true, 15: true, 30: true}

// ErrInvalidWindow is returned for dashboard windows other than 7, 15 or 30 days.
var ErrInvalidWindow = errors.New("dashboard window must be 7, 15 or 30 days")

// DashboardMetrics summarizes activity in the trailing window of the given
// number of days ending at now.
func (s *SQLStore) DashboardMetrics(
	ctx context.Context,
	days int,
	now time.Time,
) (*model.DashboardMetrics, error) {
	if !dashboardWindows[days] {
		return nil, ErrInvalidWindow
	}
	since := dbTime(now.AddDate(0, 0, -days))

	m := &model.DashboardMetrics{
		Days:          days,
		Priorities:    []model.PriorityCount{},
		DailyActivity: []model.DailyCount{},
	}

	if err := s.db.GetContext(ctx, &m.TotalProcesses,
		"SELECT COUNT(*) FROM tracked_processes"); err != nil {
		return nil, fmt.Errorf("counting processes: %w", err)
	}
	if err := s.db.GetContext(ctx, &m.NewProcesses,
		s.rebind("SELECT COUNT(*) FROM tracked_processes WHERE created_at >= ?"), since); err != nil {
		return nil, fmt.Errorf("counting new processes: %w", err)
	}
	if err := s.db.GetContext(ctx, &m.NewMovements,
		s.rebind("SELECT COUNT(*) FROM movement_records WHERE discovered_at >= ?"), since); err != nil {
		return nil, fmt.Errorf("counting new movements: %w", err)
	}
	m.PreviousTotal = max(m.TotalProcesses-m.NewProcesses, 0)

	priorities, err := s.priorityBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	m.Priorities = priorities

	activity, err := s.dailyActivity(ctx, since)
	if err != nil {
		return nil, err
	}
	m.DailyActivity = activity

	return m, nil
}

func (s *SQLStore) priorityBreakdown(ctx context.Context) ([]model.PriorityCount, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT priority, COUNT(*) FROM tracked_processes GROUP BY priority")
	if err != nil {
		return nil, fmt.Errorf("querying priorities: %w", err)
	}
	defer rows.Close()

	// Portuguese lower-casing groups "Média" with "MÉDIA". Casers are
	// stateful, so each call gets its own.
	fold := cases.Lower(language.BrazilianPortuguese)
	counts := map[string]int{}
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scanning priority row: %w", err)
		}
		counts[fold.String(strings.TrimSpace(name))] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.PriorityCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, model.PriorityCount{Name: name, Value: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// dailyActivity buckets discovered movements by UTC day. Bucketing happens
// here rather than in SQL so both dialects share one query.
func (s *SQLStore) dailyActivity(ctx context.Context, since time.Time) ([]model.DailyCount, error) {
	rows, err := s.db.QueryxContext(ctx,
		s.rebind("SELECT discovered_at FROM movement_records WHERE discovered_at >= ?"), since)
	if err != nil {
		return nil, fmt.Errorf("querying daily activity: %w", err)
	}
	defer rows.Close()

	byDay := map[string]int{}
	for rows.Next() {
		var at nullTime
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		if at.Valid {
			byDay[at.Time.Format("2006-01-02")]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.DailyCount, 0, len(byDay))
	for day, count := range byDay {
		out = append(out, model.DailyCount{Day: day, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}
