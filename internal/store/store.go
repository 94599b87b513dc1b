package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/juscheck/internal/model"
)

var (
	// ErrNotFound is returned when a tracked process does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional state write loses a race:
	// the stored movement count no longer matches the expected prior count.
	ErrConflict = errors.New("conflict")
)

// Commit is the set of writes produced by one reconciliation pass. It is
// applied atomically: either the state update and every movement land, or
// nothing does.
type Commit struct {
	ProcessID int64

	// ExpectedCount is the movement count the pass read before deciding.
	ExpectedCount int

	State     model.ProcessState
	Movements []model.MovementRecord
}

// MetadataUpdate carries user-editable fields. Nil fields are left unchanged.
type MetadataUpdate struct {
	Email    *string
	Label    *string
	Priority *string
}

// Store defines the persistence interface for tracked processes and their
// movement and notification history.
type Store interface {
	// === Tracked processes ===

	// CreateProcess inserts a process, or on an existing (email, number)
	// pair refreshes its label and priority. It returns the stored row and
	// whether it was newly inserted.
	CreateProcess(ctx context.Context, p model.TrackedProcess) (*model.TrackedProcess, bool, error)
	GetProcess(ctx context.Context, id int64) (*model.TrackedProcess, error)
	ListProcesses(ctx context.Context) ([]model.ProcessSummary, error)
	ListProcessIDs(ctx context.Context) ([]int64, error)
	UpdateMetadata(ctx context.Context, id int64, upd MetadataUpdate) error
	SetFavorite(ctx context.Context, id int64, favorite bool) error
	DeleteProcesses(ctx context.Context, ids []int64) (int64, error)

	// === Reconciliation ===

	TouchChecked(ctx context.Context, id int64, at time.Time) error
	CommitReconciliation(ctx context.Context, c Commit) error

	// === History ===

	ListMovements(ctx context.Context, processID int64) ([]model.MovementRecord, error)
	CreateNotification(ctx context.Context, n model.NotificationEvent) error
	ListNotifications(ctx context.Context, processID int64) ([]model.NotificationEvent, error)

	// === Dashboard ===

	DashboardMetrics(ctx context.Context, days int, now time.Time) (*model.DashboardMetrics, error)

	Close() error
}
