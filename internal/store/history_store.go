package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/juscheck/internal/model"
)

// CommitReconciliation applies a reconciliation's state update and appends
// its movement records in one transaction. The update is conditional on the
// stored count still equaling c.ExpectedCount; otherwise ErrConflict is
// returned and nothing is written.
func (s *SQLStore) CommitReconciliation(ctx context.Context, c Commit) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE tracked_processes SET
			last_movement_count = ?,
			last_movement_at = ?,
			last_movement_description = ?,
			last_checked_at = ?
		WHERE id = ? AND last_movement_count = ?`),
		c.State.MovementCount,
		nullableTime(c.State.LatestAt),
		nullableString(c.State.LatestDescription),
		dbTime(c.State.CheckedAt),
		c.ProcessID, c.ExpectedCount,
	)
	if err != nil {
		return fmt.Errorf("updating state of process %d: %w", c.ProcessID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists int
		err := tx.GetContext(ctx, &exists,
			s.rebind("SELECT COUNT(*) FROM tracked_processes WHERE id = ?"), c.ProcessID,
		)
		if err != nil {
			return fmt.Errorf("checking process %d: %w", c.ProcessID, err)
		}
		if exists == 0 {
			return fmt.Errorf("process %d: %w", c.ProcessID, ErrNotFound)
		}
		return fmt.Errorf("process %d changed since count %d was read: %w",
			c.ProcessID, c.ExpectedCount, ErrConflict)
	}

	if len(c.Movements) > 0 {
		stmt, err := tx.PreparexContext(ctx, s.rebind(`
			INSERT INTO movement_records (process_id, moved_at, description, discovered_at)
			VALUES (?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("preparing movement insert: %w", err)
		}
		defer stmt.Close()

		for _, m := range c.Movements {
			if _, err := stmt.ExecContext(ctx,
				c.ProcessID, dbTime(m.MovedAt), m.Description, dbTime(m.DiscoveredAt),
			); err != nil {
				return fmt.Errorf("appending movement to process %d: %w", c.ProcessID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reconciliation of process %d: %w", c.ProcessID, err)
	}
	return nil
}

// ListMovements returns a process's movement history, newest movement first.
func (s *SQLStore) ListMovements(ctx context.Context, processID int64) ([]model.MovementRecord, error) {
	rows, err := s.db.QueryxContext(ctx, s.rebind(`
		SELECT id, process_id, moved_at, description, discovered_at
		FROM movement_records
		WHERE process_id = ?
		ORDER BY moved_at DESC, id ASC`), processID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying movements of process %d: %w", processID, err)
	}
	defer rows.Close()

	var out []model.MovementRecord
	for rows.Next() {
		var (
			m                     model.MovementRecord
			movedAt, discoveredAt nullTime
		)
		if err := rows.Scan(&m.ID, &m.ProcessID, &movedAt, &m.Description, &discoveredAt); err != nil {
			return nil, fmt.Errorf("scanning movement row: %w", err)
		}
		m.MovedAt = movedAt.Time
		m.DiscoveredAt = discoveredAt.Time
		out = append(out, m)
	}

	return out, rows.Err()
}

// CreateNotification inserts a notification event. A missing ID is
// generated and a zero SentAt defaults to now.
func (s *SQLStore) CreateNotification(ctx context.Context, n model.NotificationEvent) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO notification_events (id, process_id, kind, subject, body, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		n.ID, n.ProcessID, string(n.Kind), n.Subject, n.Body, dbTime(n.SentAt),
	)
	if err != nil {
		return fmt.Errorf("creating notification for process %d: %w", n.ProcessID, err)
	}
	return nil
}

// ListNotifications returns a process's notifications, newest first.
func (s *SQLStore) ListNotifications(ctx context.Context, processID int64) ([]model.NotificationEvent, error) {
	rows, err := s.db.QueryxContext(ctx, s.rebind(`
		SELECT id, process_id, kind, subject, body, sent_at
		FROM notification_events
		WHERE process_id = ?
		ORDER BY sent_at DESC`), processID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications of process %d: %w", processID, err)
	}
	defer rows.Close()

	var out []model.NotificationEvent
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanNotification scans a notification event row.
func scanNotification(row rowScanner) (model.NotificationEvent, error) {
	var (
		n      model.NotificationEvent
		kind   string
		sentAt nullTime
	)
	err := row.Scan(&n.ID, &n.ProcessID, &kind, &n.Subject, &n.Body, &sentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NotificationEvent{}, ErrNotFound
	}
	if err != nil {
		return model.NotificationEvent{}, fmt.Errorf("scanning notification row: %w", err)
	}
	n.Kind = model.NotificationKind(kind)
	n.SentAt = sentAt.Time
	return n, nil
}
