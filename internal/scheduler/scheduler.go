// Package scheduler runs periodic sweeps over every tracked process and
// tracks background reconciliations started by the invocation surface.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/reconcile"
)

// SweepState represents the current state of the sweep loop.
type SweepState int

const (
	SweepIdle SweepState = iota
	SweepRunning
	SweepError
)

func (s SweepState) String() string {
	switch s {
	case SweepRunning:
		return "running"
	case SweepError:
		return "error"
	default:
		return "idle"
	}
}

// SweepStatus describes the most recent sweep.
type SweepStatus struct {
	State     SweepState
	RunID     string
	LastSweep time.Time
	Summary   reconcile.Summary
	Error     error
}

// Sweeper reconciles every tracked process.
type Sweeper interface {
	ReconcileAll(ctx context.Context) ([]reconcile.Result, error)
}

// SweepObserver is told about each finished sweep.
type SweepObserver interface {
	ObserveSweep(tracked int, finished time.Time)
}

// defaultInterval applies when the configured interval is unset.
const defaultInterval = time.Hour

// Scheduler orchestrates the sweep loop and background tasks.
type Scheduler struct {
	sweeper    Sweeper
	observer   SweepObserver
	logger     *slog.Logger
	interval   time.Duration
	runOnStart bool

	triggerCh chan struct{}
	stopCh    chan struct{}
	loopDone  chan struct{}
	tasks     sync.WaitGroup

	stopOnce sync.Once

	mu       sync.Mutex
	started  bool
	draining bool
	status   SweepStatus
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithObserver reports finished sweeps.
func WithObserver(o SweepObserver) Option {
	return func(s *Scheduler) { s.observer = o }
}

// New creates a scheduler for the given sweeper.
func New(sweeper Sweeper, cfg model.SchedulerConfig, logger *slog.Logger, opts ...Option) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	s := &Scheduler{
		sweeper:    sweeper,
		logger:     logger,
		interval:   interval,
		runOnStart: cfg.RunOnStart,
		triggerCh:  make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
		loopDone:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the sweep loop. It returns immediately; the loop ends when
// ctx is cancelled or Stop is called. A scheduler is started at most once.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.loop(ctx)
}

// Stop halts the sweep loop. A sweep in progress is allowed to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Trigger requests an immediate sweep. Requests made while one is already
// pending are coalesced.
func (s *Scheduler) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns a copy of the last sweep status.
func (s *Scheduler) Status() SweepStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Go runs fn in the background, detached from ctx's cancellation but
// keeping its values. Drain waits for every such task; once Drain has begun,
// new tasks are refused.
func (s *Scheduler) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	detached := context.WithoutCancel(ctx)

	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		s.logger.WarnContext(detached, "background task refused while draining", "task", name)
		return
	}
	s.tasks.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.ErrorContext(detached, "background task panicked", "task", name, "panic", r)
			}
		}()
		fn(detached)
	}()
}

// Drain stops the loop and waits for the running sweep and all background
// tasks, or until ctx is done.
func (s *Scheduler) Drain(ctx context.Context) error {
	s.mu.Lock()
	s.draining = true
	started := s.started
	s.mu.Unlock()
	s.Stop()

	done := make(chan struct{})
	go func() {
		if started {
			<-s.loopDone
		}
		s.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.loopDone)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if s.runOnStart {
		s.SweepNow(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.SweepNow(ctx)
		case <-s.triggerCh:
			s.SweepNow(ctx)
		}
	}
}

// SweepNow runs one sweep synchronously and records its status.
func (s *Scheduler) SweepNow(ctx context.Context) reconcile.Summary {
	runID := uuid.NewString()
	s.setStatus(func(st *SweepStatus) {
		st.State = SweepRunning
		st.RunID = runID
	})

	logger := s.logger.With("run_id", runID)
	logger.InfoContext(ctx, "sweep started")

	results, err := s.sweeper.ReconcileAll(ctx)
	finished := time.Now()
	if err != nil {
		logger.ErrorContext(ctx, "sweep failed", "error", err)
		s.setStatus(func(st *SweepStatus) {
			st.State = SweepError
			st.Error = err
		})
		return reconcile.Summary{}
	}

	sum := reconcile.Summarize(results)
	s.setStatus(func(st *SweepStatus) {
		st.State = SweepIdle
		st.LastSweep = finished
		st.Summary = sum
		st.Error = nil
	})
	if s.observer != nil {
		s.observer.ObserveSweep(sum.Total, finished)
	}
	return sum
}

func (s *Scheduler) setStatus(update func(*SweepStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.status)
}
