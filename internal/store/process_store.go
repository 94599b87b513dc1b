package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/juscheck/internal/model"
)

const processColumns = `
	id, process_number, email, last_movement_count,
	last_movement_at, last_movement_description, last_checked_at,
	label, priority, favorite, created_at`

// CreateProcess inserts a tracked process and reports whether a new row was
// created. When the (email, number) pair is already tracked, only label and
// priority are refreshed; reconciliation state is never overwritten by
// registration.
func (s *SQLStore) CreateProcess(
	ctx context.Context,
	p model.TrackedProcess,
) (*model.TrackedProcess, bool, error) {
	if strings.TrimSpace(p.Email) == "" {
		return nil, false, fmt.Errorf("process email must not be empty")
	}
	if p.Priority == "" {
		p.Priority = model.DefaultPriority
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("beginning create for %s: %w", p.Number, err)
	}
	defer tx.Rollback()

	id, inserted, err := s.upsertProcess(ctx, tx, p)
	if err != nil {
		return nil, false, fmt.Errorf("creating process %s: %w", p.Number, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("committing process %s: %w", p.Number, err)
	}

	created, err := s.GetProcess(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return created, inserted, nil
}

const insertProcessSQL = `
	INSERT INTO tracked_processes (
		process_number, email, last_movement_count,
		last_movement_at, last_movement_description, last_checked_at,
		label, priority, favorite, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *SQLStore) upsertProcess(ctx context.Context, tx *sqlx.Tx, p model.TrackedProcess) (int64, bool, error) {
	args := []any{
		p.Number, p.Email, p.LastMovementCount,
		nullableTime(p.LastMovementAt), nullableString(p.LastMovementDescription), nullableTime(p.LastCheckedAt),
		nullableString(p.Label), p.Priority, p.Favorite, dbTime(p.CreatedAt),
	}

	var (
		id       int64
		inserted bool
	)

	if s.dialect == DialectPostgres {
		// xmax is zero only for a freshly inserted tuple.
		err := tx.QueryRowxContext(ctx, s.rebind(insertProcessSQL+`
			ON CONFLICT (email, process_number) DO UPDATE SET
				label = excluded.label,
				priority = excluded.priority
			RETURNING id, (xmax = 0) AS inserted`), args...,
		).Scan(&id, &inserted)
		return id, inserted, err
	}

	// SQLite runs on a single connection, so the lookup and the write below
	// cannot interleave with another writer.
	err := tx.GetContext(ctx, &id,
		"SELECT id FROM tracked_processes WHERE email = ? AND process_number = ?", p.Email, p.Number,
	)
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			"UPDATE tracked_processes SET label = ?, priority = ? WHERE id = ?",
			nullableString(p.Label), p.Priority, id,
		)
		return id, false, err
	case errors.Is(err, sql.ErrNoRows):
		err = tx.QueryRowxContext(ctx, insertProcessSQL+" RETURNING id", args...).Scan(&id)
		return id, err == nil, err
	default:
		return 0, false, err
	}
}

// GetProcess retrieves a single tracked process by ID.
func (s *SQLStore) GetProcess(ctx context.Context, id int64) (*model.TrackedProcess, error) {
	row := s.db.QueryRowxContext(ctx,
		s.rebind("SELECT "+processColumns+" FROM tracked_processes WHERE id = ?"), id,
	)

	p, err := scanProcess(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("process %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting process %d: %w", id, err)
	}
	return &p, nil
}

// ListProcesses returns every tracked process with the time of its latest
// notification, favorites first and then newest first.
func (s *SQLStore) ListProcesses(ctx context.Context) ([]model.ProcessSummary, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT
			p.id, p.process_number, p.email, p.last_movement_count,
			p.last_movement_at, p.last_movement_description, p.last_checked_at,
			p.label, p.priority, p.favorite, p.created_at,
			n.last_sent
		FROM tracked_processes p
		LEFT JOIN (
			SELECT process_id, MAX(sent_at) AS last_sent
			FROM notification_events
			GROUP BY process_id
		) n ON n.process_id = p.id
		ORDER BY p.favorite DESC, p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying processes: %w", err)
	}
	defer rows.Close()

	var out []model.ProcessSummary
	for rows.Next() {
		var (
			r        processRow
			lastSent nullTime
		)
		if err := rows.Scan(append(r.dest(), &lastSent)...); err != nil {
			return nil, fmt.Errorf("scanning process row: %w", err)
		}
		out = append(out, model.ProcessSummary{
			TrackedProcess: r.model(),
			LastNotifiedAt: lastSent.ptr(),
		})
	}

	return out, rows.Err()
}

// ListProcessIDs returns the IDs of all tracked processes in ascending order.
func (s *SQLStore) ListProcessIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, "SELECT id FROM tracked_processes ORDER BY id"); err != nil {
		return nil, fmt.Errorf("listing process ids: %w", err)
	}
	return ids, nil
}

// UpdateMetadata applies a user edit. Nil fields are left unchanged.
func (s *SQLStore) UpdateMetadata(ctx context.Context, id int64, upd MetadataUpdate) error {
	var (
		sets []string
		args []any
	)
	if upd.Email != nil {
		if strings.TrimSpace(*upd.Email) == "" {
			return fmt.Errorf("process email must not be empty")
		}
		sets = append(sets, "email = ?")
		args = append(args, *upd.Email)
	}
	if upd.Label != nil {
		sets = append(sets, "label = ?")
		args = append(args, nullableString(blankToNil(upd.Label)))
	}
	if upd.Priority != nil {
		priority := *upd.Priority
		if strings.TrimSpace(priority) == "" {
			priority = model.DefaultPriority
		}
		sets = append(sets, "priority = ?")
		args = append(args, priority)
	}
	if len(sets) == 0 {
		_, err := s.GetProcess(ctx, id)
		return err
	}

	args = append(args, id)
	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE tracked_processes SET "+strings.Join(sets, ", ")+" WHERE id = ?"),
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating process %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("process %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetFavorite pins or unpins a process.
func (s *SQLStore) SetFavorite(ctx context.Context, id int64, favorite bool) error {
	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE tracked_processes SET favorite = ? WHERE id = ?"), favorite, id,
	)
	if err != nil {
		return fmt.Errorf("setting favorite on process %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("process %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteProcesses removes the given processes and, by cascade, their history.
// It returns how many rows were deleted.
func (s *SQLStore) DeleteProcesses(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In("DELETE FROM tracked_processes WHERE id IN (?)", ids)
	if err != nil {
		return 0, fmt.Errorf("building delete query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("deleting processes: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// TouchChecked records that the registry was consulted, leaving all other
// state untouched.
func (s *SQLStore) TouchChecked(ctx context.Context, id int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE tracked_processes SET last_checked_at = ? WHERE id = ?"), dbTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("touching process %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("process %d: %w", id, ErrNotFound)
	}
	return nil
}

// scanProcess scans a single tracked process from a sqlx.Row.
func scanProcess(row *sqlx.Row) (model.TrackedProcess, error) {
	var r processRow
	if err := row.Scan(r.dest()...); err != nil {
		return model.TrackedProcess{}, err
	}
	return r.model(), nil
}

// processRow holds a tracked process while scanning, with nullable columns
// kept in scanner types.
type processRow struct {
	p              model.TrackedProcess
	lastMovementAt nullTime
	lastDesc       sql.NullString
	lastCheckedAt  nullTime
	label          sql.NullString
	createdAt      nullTime
}

// dest returns scan destinations in processColumns order.
func (r *processRow) dest() []any {
	return []any{
		&r.p.ID, &r.p.Number, &r.p.Email, &r.p.LastMovementCount,
		&r.lastMovementAt, &r.lastDesc, &r.lastCheckedAt,
		&r.label, &r.p.Priority, &r.p.Favorite, &r.createdAt,
	}
}

func (r *processRow) model() model.TrackedProcess {
	p := r.p
	p.LastMovementAt = r.lastMovementAt.ptr()
	if r.lastDesc.Valid {
		p.LastMovementDescription = &r.lastDesc.String
	}
	p.LastCheckedAt = r.lastCheckedAt.ptr()
	if r.label.Valid {
		p.Label = &r.label.String
	}
	p.CreatedAt = r.createdAt.Time
	return p
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
