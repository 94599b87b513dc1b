package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/store"
	"github.com/nhle/juscheck/tests/testutil"
)

const (
	numberA = "00012345620248260100"
	numberB = "00098765420238210001"
)

type SQLStoreSuite struct {
	suite.Suite
	store *store.SQLStore
	ctx   context.Context
}

func TestSQLStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLStoreSuite))
}

func (s *SQLStoreSuite) SetupTest() {
	s.store = testutil.NewTestStore(s.T())
	s.ctx = context.Background()
}

// =============================================================================
// Tracked processes
// =============================================================================

func (s *SQLStoreSuite) TestCreateProcess() {
	s.Run("defaults priority and round-trips state", func() {
		at := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
		desc := "Sentença"
		p, inserted, err := s.store.CreateProcess(s.ctx, model.TrackedProcess{
			Number:                  numberA,
			Email:                   "ana@example.com",
			LastMovementCount:       4,
			LastMovementAt:          &at,
			LastMovementDescription: &desc,
		})
		s.Require().NoError(err)

		s.True(inserted)
		s.NotZero(p.ID)
		s.Equal(model.DefaultPriority, p.Priority)
		s.Equal(4, p.LastMovementCount)
		s.Require().NotNil(p.LastMovementAt)
		s.True(at.Equal(*p.LastMovementAt))
		s.Equal("Sentença", *p.LastMovementDescription)
		s.Nil(p.LastCheckedAt)
		s.Nil(p.Label)
		s.False(p.Favorite)
		s.False(p.CreatedAt.IsZero())
	})

	s.Run("same email and number keeps state and refreshes metadata", func() {
		first := testutil.SeedProcess(s.T(), s.store, numberB, "bia@example.com", 7)

		label := "cliente x"
		again, inserted, err := s.store.CreateProcess(s.ctx, model.TrackedProcess{
			Number:            numberB,
			Email:             "bia@example.com",
			Label:             &label,
			Priority:          "Alta",
			LastMovementCount: 12,
		})
		s.Require().NoError(err)

		s.False(inserted)
		s.Equal(first.ID, again.ID)
		s.Equal(7, again.LastMovementCount)
		s.Equal("Alta", again.Priority)
		s.Equal("cliente x", *again.Label)
	})

	s.Run("same number different email is a separate subscription", func() {
		other := testutil.SeedProcess(s.T(), s.store, numberB, "caio@example.com", 0)
		s.NotZero(other.ID)
	})

	s.Run("rejects empty email", func() {
		_, _, err := s.store.CreateProcess(s.ctx, model.TrackedProcess{Number: numberA})
		s.Error(err)
	})
}

func (s *SQLStoreSuite) TestGetProcessNotFound() {
	_, err := s.store.GetProcess(s.ctx, 999)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *SQLStoreSuite) TestMetadataAndFavorites() {
	p := testutil.SeedProcess(s.T(), s.store, numberA, "ana@example.com", 0)

	email := "nova@example.com"
	label := "urgente"
	priority := "Alta"
	s.Require().NoError(s.store.UpdateMetadata(s.ctx, p.ID, store.MetadataUpdate{
		Email: &email, Label: &label, Priority: &priority,
	}))
	s.Require().NoError(s.store.SetFavorite(s.ctx, p.ID, true))

	got, err := s.store.GetProcess(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("nova@example.com", got.Email)
	s.Equal("urgente", *got.Label)
	s.Equal("Alta", got.Priority)
	s.True(got.Favorite)

	blank := ""
	s.Require().NoError(s.store.UpdateMetadata(s.ctx, p.ID, store.MetadataUpdate{Label: &blank, Priority: &blank}))
	got, err = s.store.GetProcess(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Nil(got.Label)
	s.Equal(model.DefaultPriority, got.Priority)

	s.ErrorIs(s.store.SetFavorite(s.ctx, 999, true), store.ErrNotFound)
	s.ErrorIs(s.store.UpdateMetadata(s.ctx, 999, store.MetadataUpdate{Label: &label}), store.ErrNotFound)
}

func (s *SQLStoreSuite) TestListProcesses() {
	a := testutil.SeedProcess(s.T(), s.store, numberA, "ana@example.com", 0)
	b := testutil.SeedProcess(s.T(), s.store, numberB, "bia@example.com", 0)
	s.Require().NoError(s.store.SetFavorite(s.ctx, a.ID, true))

	sentAt := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.CreateNotification(s.ctx, model.NotificationEvent{
		ProcessID: b.ID, Kind: model.NotificationWelcome, Subject: "s", Body: "b", SentAt: sentAt,
	}))

	list, err := s.store.ListProcesses(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)

	s.Equal(a.ID, list[0].ID, "favorites first")
	s.Nil(list[0].LastNotifiedAt)
	s.Equal(b.ID, list[1].ID)
	s.Require().NotNil(list[1].LastNotifiedAt)
	s.True(sentAt.Equal(*list[1].LastNotifiedAt))

	ids, err := s.store.ListProcessIDs(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int64{a.ID, b.ID}, ids)
}

func (s *SQLStoreSuite) TestDeleteProcessesCascades() {
	a := testutil.SeedProcess(s.T(), s.store, numberA, "ana@example.com", 0)
	b := testutil.SeedProcess(s.T(), s.store, numberB, "bia@example.com", 0)

	s.Require().NoError(s.store.CommitReconciliation(s.ctx, store.Commit{
		ProcessID:     a.ID,
		ExpectedCount: 0,
		State:         model.ProcessState{MovementCount: 1, CheckedAt: time.Now()},
		Movements: []model.MovementRecord{
			{MovedAt: time.Now(), Description: "Despacho", DiscoveredAt: time.Now()},
		},
	}))

	n, err := s.store.DeleteProcesses(s.ctx, []int64{a.ID, 12345})
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	movements, err := s.store.ListMovements(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Empty(movements)

	_, err = s.store.GetProcess(s.ctx, b.ID)
	s.NoError(err)

	n, err = s.store.DeleteProcesses(s.ctx, nil)
	s.NoError(err)
	s.Zero(n)
}

// =============================================================================
// Reconciliation writes
// =============================================================================

func (s *SQLStoreSuite) TestCommitReconciliation() {
	p := testutil.SeedProcess(s.T(), s.store, numberA, "ana@example.com", 2)
	checked := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	latest := time.Date(2024, 5, 30, 12, 0, 0, 0, time.UTC)
	desc := "Sentença"

	s.Run("applies state and movements", func() {
		err := s.store.CommitReconciliation(s.ctx, store.Commit{
			ProcessID:     p.ID,
			ExpectedCount: 2,
			State: model.ProcessState{
				MovementCount: 4, LatestAt: &latest, LatestDescription: &desc, CheckedAt: checked,
			},
			Movements: []model.MovementRecord{
				{MovedAt: latest, Description: "Sentença", DiscoveredAt: checked},
				{MovedAt: latest.Add(-time.Hour), Description: "Petição", DiscoveredAt: checked},
			},
		})
		s.Require().NoError(err)

		got, err := s.store.GetProcess(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(4, got.LastMovementCount)
		s.Equal("Sentença", *got.LastMovementDescription)
		s.True(checked.Equal(*got.LastCheckedAt))

		movements, err := s.store.ListMovements(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Require().Len(movements, 2)
		s.Equal("Sentença", movements[0].Description)
		s.Equal("Petição", movements[1].Description)
	})

	s.Run("stale expected count conflicts and writes nothing", func() {
		err := s.store.CommitReconciliation(s.ctx, store.Commit{
			ProcessID:     p.ID,
			ExpectedCount: 2,
			State:         model.ProcessState{MovementCount: 5, CheckedAt: checked},
			Movements: []model.MovementRecord{
				{MovedAt: latest, Description: "Duplicada", DiscoveredAt: checked},
			},
		})
		s.ErrorIs(err, store.ErrConflict)

		got, err := s.store.GetProcess(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(4, got.LastMovementCount)

		movements, err := s.store.ListMovements(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Len(movements, 2)
	})

	s.Run("missing process", func() {
		err := s.store.CommitReconciliation(s.ctx, store.Commit{ProcessID: 999, State: model.ProcessState{CheckedAt: checked}})
		s.ErrorIs(err, store.ErrNotFound)
	})

	s.Run("touch only changes the check time", func() {
		later := checked.Add(time.Hour)
		s.Require().NoError(s.store.TouchChecked(s.ctx, p.ID, later))

		got, err := s.store.GetProcess(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(4, got.LastMovementCount)
		s.True(later.Equal(*got.LastCheckedAt))

		s.ErrorIs(s.store.TouchChecked(s.ctx, 999, later), store.ErrNotFound)
	})
}

func (s *SQLStoreSuite) TestNotifications() {
	p := testutil.SeedProcess(s.T(), s.store, numberA, "ana@example.com", 0)
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.CreateNotification(s.ctx, model.NotificationEvent{
		ProcessID: p.ID, Kind: model.NotificationWelcome, Subject: "bem-vindo", Body: "<p>oi</p>", SentAt: older,
	}))
	s.Require().NoError(s.store.CreateNotification(s.ctx, model.NotificationEvent{
		ProcessID: p.ID, Kind: model.NotificationNewMovements, Subject: "nova", Body: "<p>nova</p>",
	}))

	events, err := s.store.ListNotifications(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(model.NotificationNewMovements, events[0].Kind)
	s.NotEmpty(events[0].ID)
	s.Equal("bem-vindo", events[1].Subject)
}

// =============================================================================
// Dashboard
// =============================================================================

func (s *SQLStoreSuite) TestDashboardMetrics() {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

	old, _, err := s.store.CreateProcess(s.ctx, model.TrackedProcess{
		Number: numberA, Email: "ana@example.com", Priority: "Alta", CreatedAt: now.AddDate(0, 0, -60),
	})
	s.Require().NoError(err)
	_, _, err = s.store.CreateProcess(s.ctx, model.TrackedProcess{
		Number: numberB, Email: "bia@example.com", Priority: "ALTA", CreatedAt: now.AddDate(0, 0, -2),
	})
	s.Require().NoError(err)

	s.Require().NoError(s.store.CommitReconciliation(s.ctx, store.Commit{
		ProcessID: old.ID,
		State:     model.ProcessState{MovementCount: 3, CheckedAt: now},
		Movements: []model.MovementRecord{
			{MovedAt: now, Description: "a", DiscoveredAt: now.AddDate(0, 0, -1)},
			{MovedAt: now, Description: "b", DiscoveredAt: now.AddDate(0, 0, -1)},
			{MovedAt: now, Description: "c", DiscoveredAt: now.AddDate(0, 0, -20)},
		},
	}))

	m, err := s.store.DashboardMetrics(s.ctx, 7, now)
	s.Require().NoError(err)
	s.Equal(2, m.TotalProcesses)
	s.Equal(1, m.NewProcesses)
	s.Equal(1, m.PreviousTotal)
	s.Equal(2, m.NewMovements)
	s.Equal([]model.PriorityCount{{Name: "alta", Value: 2}}, m.Priorities)
	s.Equal([]model.DailyCount{{Day: "2024-06-29", Count: 2}}, m.DailyActivity)

	m, err = s.store.DashboardMetrics(s.ctx, 30, now)
	s.Require().NoError(err)
	s.Equal(3, m.NewMovements)
	s.Len(m.DailyActivity, 2)

	_, err = s.store.DashboardMetrics(s.ctx, 10, now)
	s.ErrorIs(err, store.ErrInvalidWindow)
}
