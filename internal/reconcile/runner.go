package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/juscheck/internal/datajud"
	"github.com/nhle/juscheck/internal/lock"
	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/notify"
	"github.com/nhle/juscheck/internal/store"
)

// Failure stages reported to the Recorder.
const (
	StageLock     = "lock"
	StageLoad     = "load"
	StageFetch    = "fetch"
	StageCompose  = "compose"
	StagePersist  = "persist"
	StageDispatch = "dispatch"
)

const defaultConcurrency = 8

// Store is the subset of the tracking store a Runner needs.
type Store interface {
	GetProcess(ctx context.Context, id int64) (*model.TrackedProcess, error)
	ListProcessIDs(ctx context.Context) ([]int64, error)
	TouchChecked(ctx context.Context, id int64, at time.Time) error
	CommitReconciliation(ctx context.Context, c store.Commit) error
}

// Fetcher returns the registry's current view of a process.
type Fetcher interface {
	Fetch(ctx context.Context, number string) (*datajud.Snapshot, error)
}

// Notifier delivers a composed message.
type Notifier interface {
	Dispatch(ctx context.Context, processID int64, recipients []string, msg notify.Message) error
}

// Recorder observes reconciliation passes.
type Recorder interface {
	ObserveReconciliation(outcome string, elapsed time.Duration)
	IncFailure(stage string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveReconciliation(string, time.Duration) {}
func (noopRecorder) IncFailure(string)                            {}

// Result is the per-record outcome of a reconciliation pass.
type Result struct {
	ProcessID    int64   `json:"id"`
	Success      bool    `json:"success"`
	Outcome      Outcome `json:"outcome,omitempty"`
	NewMovements int     `json:"new_movements,omitempty"`
	Notified     bool    `json:"notified,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Summary counts the results of a batch.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize counts successes and failures.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// Runner performs reconciliation passes: it loads prior state, fetches a
// snapshot, applies the engine's decision and dispatches notifications.
// Each pass holds the process lock from load to commit.
type Runner struct {
	store       Store
	fetcher     Fetcher
	notifier    Notifier
	locker      lock.Locker
	engine      Engine
	recorder    Recorder
	logger      *slog.Logger
	tracer      trace.Tracer
	concurrency int
	now         func() time.Time
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

func WithRecorder(r Recorder) RunnerOption {
	return func(rn *Runner) { rn.recorder = r }
}

// WithConcurrency bounds the fan-out of batch passes.
func WithConcurrency(n int) RunnerOption {
	return func(rn *Runner) {
		if n > 0 {
			rn.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) RunnerOption {
	return func(rn *Runner) { rn.now = now }
}

func NewRunner(
	st Store,
	fetcher Fetcher,
	notifier Notifier,
	locker lock.Locker,
	engine Engine,
	logger *slog.Logger,
	opts ...RunnerOption,
) *Runner {
	r := &Runner{
		store:       st,
		fetcher:     fetcher,
		notifier:    notifier,
		locker:      locker,
		engine:      engine,
		recorder:    noopRecorder{},
		logger:      logger,
		tracer:      otel.Tracer("github.com/nhle/juscheck/internal/reconcile"),
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReconcileOne runs one pass for a tracked process. The returned error is
// non-nil exactly when the result is not successful.
func (r *Runner) ReconcileOne(ctx context.Context, id int64, firstCheck bool) (Result, error) {
	ctx, span := r.tracer.Start(ctx, "reconcile.One", trace.WithAttributes(
		attribute.Int64("process.id", id),
		attribute.Bool("first_check", firstCheck),
	))
	defer span.End()

	start := time.Now()
	res, err := r.reconcile(ctx, id, firstCheck)
	if err != nil {
		res.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		res.Success = true
	}
	if res.Outcome != "" {
		span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
		r.recorder.ObserveReconciliation(string(res.Outcome), time.Since(start))
	}
	return res, err
}

func (r *Runner) reconcile(ctx context.Context, id int64, firstCheck bool) (Result, error) {
	res := Result{ProcessID: id}
	logger := r.logger.With("process_id", id)

	release, err := r.locker.Acquire(ctx, "process:"+strconv.FormatInt(id, 10))
	if err != nil {
		r.recorder.IncFailure(StageLock)
		logger.ErrorContext(ctx, "failed to lock process", "error", err)
		return res, fmt.Errorf("locking process %d: %w", id, err)
	}
	defer release()

	prior, err := r.store.GetProcess(ctx, id)
	if err != nil {
		r.recorder.IncFailure(StageLoad)
		logger.ErrorContext(ctx, "failed to load process", "error", err)
		return res, fmt.Errorf("loading process %d: %w", id, err)
	}
	logger = logger.With("number", prior.Number)

	snap, err := r.fetcher.Fetch(ctx, prior.Number)
	if err != nil && !datajud.IsUnavailable(err) {
		r.recorder.IncFailure(StageFetch)
		logger.ErrorContext(ctx, "failed to fetch registry snapshot", "error", err)
		return res, fmt.Errorf("fetching %s: %w", prior.Number, err)
	}
	if err != nil {
		logger.InfoContext(ctx, "registry unavailable",
			"reason", string(datajud.ReasonOf(err)),
		)
		snap = nil
	}

	now := r.now()
	d, err := r.engine.Decide(*prior, snap, firstCheck, now)
	res.Outcome = d.Outcome
	if err != nil {
		r.recorder.IncFailure(StageCompose)
		logger.ErrorContext(ctx, "failed to compose notification", "error", err)
		return res, fmt.Errorf("reconciling process %d: %w", id, err)
	}

	if d.Outcome == OutcomeUnavailable {
		if err := r.store.TouchChecked(ctx, id, now); err != nil {
			r.recorder.IncFailure(StagePersist)
			logger.ErrorContext(ctx, "failed to record check time", "error", err)
			return res, fmt.Errorf("touching process %d: %w", id, err)
		}
		return res, nil
	}

	records := make([]model.MovementRecord, 0, len(d.NewMovements))
	for _, m := range d.NewMovements {
		records = append(records, model.MovementRecord{
			ProcessID:    id,
			MovedAt:      m.At,
			Description:  m.Description,
			DiscoveredAt: now,
		})
	}

	err = r.store.CommitReconciliation(ctx, store.Commit{
		ProcessID:     id,
		ExpectedCount: prior.LastMovementCount,
		State:         d.State,
		Movements:     records,
	})
	if err != nil {
		r.recorder.IncFailure(StagePersist)
		logger.ErrorContext(ctx, "failed to commit reconciliation", "error", err)
		return res, fmt.Errorf("committing process %d: %w", id, err)
	}
	res.NewMovements = len(records)

	logger.InfoContext(ctx, "process reconciled",
		"outcome", string(d.Outcome),
		"movement_count", d.State.MovementCount,
		"new_movements", len(records),
	)

	if d.Message == nil {
		return res, nil
	}
	if err := r.notifier.Dispatch(ctx, id, []string{prior.Email}, *d.Message); err != nil {
		r.recorder.IncFailure(StageDispatch)
		logger.ErrorContext(ctx, "failed to dispatch notification", "error", err)
		return res, err
	}
	res.Notified = true

	return res, nil
}

// ReconcileMany runs independent passes for ids with bounded concurrency.
// Results are returned in the order of ids; one failure never affects the
// others.
func (r *Runner) ReconcileMany(ctx context.Context, ids []int64) []Result {
	results := make([]Result, len(ids))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i], _ = r.ReconcileOne(ctx, id, false)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ReconcileAll runs a pass for every tracked process.
func (r *Runner) ReconcileAll(ctx context.Context) ([]Result, error) {
	ids, err := r.store.ListProcessIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tracked processes: %w", err)
	}

	started := time.Now()
	results := r.ReconcileMany(ctx, ids)
	sum := Summarize(results)
	r.logger.InfoContext(ctx, "sweep finished",
		"total", sum.Total,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return results, nil
}
