package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/reconcile"
)

type fakeSweeper struct {
	calls atomic.Int32
	err   error
	swept chan struct{}
}

func (f *fakeSweeper) ReconcileAll(context.Context) ([]reconcile.Result, error) {
	f.calls.Add(1)
	if f.swept != nil {
		select {
		case f.swept <- struct{}{}:
		default:
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return []reconcile.Result{
		{ProcessID: 1, Success: true},
		{ProcessID: 2, Success: false, Error: "boom"},
	}, nil
}

type sweepRecorder struct {
	mu      sync.Mutex
	tracked int
}

func (r *sweepRecorder) ObserveSweep(tracked int, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracked = tracked
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepNowRecordsStatus(t *testing.T) {
	rec := &sweepRecorder{}
	s := New(&fakeSweeper{}, model.SchedulerConfig{}, discard(), WithObserver(rec))

	sum := s.SweepNow(context.Background())

	assert.Equal(t, reconcile.Summary{Total: 2, Succeeded: 1, Failed: 1}, sum)
	st := s.Status()
	assert.Equal(t, SweepIdle, st.State)
	assert.NotEmpty(t, st.RunID)
	assert.False(t, st.LastSweep.IsZero())
	assert.Equal(t, 2, rec.tracked)
}

func TestSweepNowError(t *testing.T) {
	s := New(&fakeSweeper{err: errors.New("db down")}, model.SchedulerConfig{}, discard())

	s.SweepNow(context.Background())

	st := s.Status()
	assert.Equal(t, SweepError, st.State)
	assert.EqualError(t, st.Error, "db down")
	assert.Equal(t, "error", st.State.String())
}

func TestLoopRunsOnStartAndOnTrigger(t *testing.T) {
	sw := &fakeSweeper{swept: make(chan struct{}, 4)}
	s := New(sw, model.SchedulerConfig{Interval: time.Hour, RunOnStart: true}, discard())

	s.Start(context.Background())
	waitSweep(t, sw.swept)

	s.Trigger()
	waitSweep(t, sw.swept)

	require.NoError(t, s.Drain(context.Background()))
	assert.Equal(t, int32(2), sw.calls.Load())
}

func TestLoopTicks(t *testing.T) {
	sw := &fakeSweeper{swept: make(chan struct{}, 4)}
	s := New(sw, model.SchedulerConfig{Interval: 10 * time.Millisecond}, discard())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	waitSweep(t, sw.swept)
	cancel()

	require.NoError(t, s.Drain(context.Background()))
}

func TestGoIsDetachedAndDrained(t *testing.T) {
	s := New(&fakeSweeper{}, model.SchedulerConfig{}, discard())

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	release := make(chan struct{})
	s.Go(ctx, "test", func(ctx context.Context) {
		<-release
		ran.Store(ctx.Err() == nil)
	})
	cancel()
	close(release)

	require.NoError(t, s.Drain(context.Background()))
	assert.True(t, ran.Load())
}

func TestDrainTimesOut(t *testing.T) {
	s := New(&fakeSweeper{}, model.SchedulerConfig{}, discard())
	block := make(chan struct{})
	defer close(block)
	s.Go(context.Background(), "slow", func(context.Context) { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Drain(ctx), context.DeadlineExceeded)
}

func TestGoAfterDrainIsRefused(t *testing.T) {
	s := New(&fakeSweeper{}, model.SchedulerConfig{}, discard())
	require.NoError(t, s.Drain(context.Background()))

	var ran atomic.Bool
	s.Go(context.Background(), "late", func(context.Context) { ran.Store(true) })

	assert.Never(t, ran.Load, 50*time.Millisecond, 5*time.Millisecond)
}

func TestGoConcurrentWithDrain(t *testing.T) {
	s := New(&fakeSweeper{}, model.SchedulerConfig{}, discard())

	var (
		wg       sync.WaitGroup
		started  atomic.Int32
		finished atomic.Int32
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				s.Go(context.Background(), "burst", func(context.Context) {
					started.Add(1)
					defer finished.Add(1)
				})
			}
		}()
	}

	require.NoError(t, s.Drain(context.Background()))
	// Every accepted task has finished and nothing new starts afterwards.
	ranBeforeDrain := started.Load()
	assert.Equal(t, ranBeforeDrain, finished.Load())

	wg.Wait()
	assert.Never(t, func() bool { return started.Load() != ranBeforeDrain }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestGoRecoversPanics(t *testing.T) {
	s := New(&fakeSweeper{}, model.SchedulerConfig{}, discard())
	s.Go(context.Background(), "panics", func(context.Context) { panic("boom") })
	require.NoError(t, s.Drain(context.Background()))
}

func waitSweep(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not run")
	}
}
