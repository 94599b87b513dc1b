package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/juscheck/internal/model"
)

func newMockPostgres(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(sqlx.NewDb(db, "postgres"), DialectPostgres), mock
}

func TestPostgresCommitReconciliation(t *testing.T) {
	ctx := context.Background()
	checked := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	t.Run("success uses dollar placeholders", func(t *testing.T) {
		s, mock := newMockPostgres(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("WHERE id = $5 AND last_movement_count = $6")).
			WithArgs(3, nil, nil, checked, int64(42), 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO movement_records")).
			ExpectExec().
			WithArgs(int64(42), checked, "Juntada", checked).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := s.CommitReconciliation(ctx, Commit{
			ProcessID:     42,
			ExpectedCount: 2,
			State:         model.ProcessState{MovementCount: 3, CheckedAt: checked},
			Movements: []model.MovementRecord{
				{MovedAt: checked, Description: "Juntada", DiscoveredAt: checked},
			},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost race rolls back with conflict", func(t *testing.T) {
		s, mock := newMockPostgres(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE tracked_processes SET")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tracked_processes WHERE id = $1")).
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		err := s.CommitReconciliation(ctx, Commit{
			ProcessID:     42,
			ExpectedCount: 2,
			State:         model.ProcessState{MovementCount: 3, CheckedAt: checked},
		})
		assert.ErrorIs(t, err, ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresDeleteProcessesExpandsIDs(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tracked_processes WHERE id IN ($1, $2, $3)")).
		WithArgs(int64(1), int64(2), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := s.DeleteProcesses(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTouchChecked(t *testing.T) {
	s, mock := newMockPostgres(t)
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tracked_processes SET last_checked_at = $1 WHERE id = $2")).
		WithArgs(at, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.TouchChecked(context.Background(), 7, at)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
