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

	"github.com/nao1215/leakwatch/internal/model"
)

// fakeRunner counts runs and optionally blocks or fails.
type fakeRunner struct {
	runs    atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
	err     error
	block   chan struct{}
	started chan struct{}
}

func (r *fakeRunner) Run(ctx context.Context) (model.RunStats, error) {
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		seen := r.maxSeen.Load()
		if n <= seen || r.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	r.runs.Add(1)

	if r.started != nil {
		select {
		case r.started <- struct{}{}:
		default:
		}
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return model.RunStats{}, ctx.Err()
		}
	}
	return model.RunStats{Queries: 1}, r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func stopScheduler(t *testing.T, s *Scheduler) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("stop: %v", err)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("default interval is seven days", func(t *testing.T) {
		t.Parallel()

		s, err := New(&fakeRunner{}, WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Spec() != "@every 168h0m0s" {
			t.Errorf("unexpected spec %q", s.Spec())
		}
	})

	t.Run("non-positive interval", func(t *testing.T) {
		t.Parallel()

		_, err := New(&fakeRunner{}, WithInterval(0))
		if !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("expected ErrInvalidInterval, got %v", err)
		}
	})

	t.Run("cron spec", func(t *testing.T) {
		t.Parallel()

		s, err := New(&fakeRunner{}, WithCronSpec("0 3 * * 1"), WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Spec() != "0 3 * * 1" {
			t.Errorf("unexpected spec %q", s.Spec())
		}
	})

	t.Run("invalid cron spec", func(t *testing.T) {
		t.Parallel()

		if _, err := New(&fakeRunner{}, WithCronSpec("not a spec")); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestRunNow(t *testing.T) {
	t.Parallel()

	t.Run("records last run", func(t *testing.T) {
		t.Parallel()

		s, err := New(&fakeRunner{}, WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if _, ok := s.LastRun(); ok {
			t.Error("expected no last run yet")
		}

		stats, err := s.RunNow(context.Background())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if stats.Queries != 1 {
			t.Errorf("unexpected stats %+v", stats)
		}
		last, ok := s.LastRun()
		if !ok || last.Err != nil || last.Stats.Queries != 1 {
			t.Errorf("unexpected last run %+v", last)
		}
	})

	t.Run("failure is returned and recorded", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("storage down")
		s, err := New(&fakeRunner{err: boom}, WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if _, err := s.RunNow(context.Background()); !errors.Is(err, boom) {
			t.Errorf("expected run error, got %v", err)
		}
		if last, _ := s.LastRun(); !errors.Is(last.Err, boom) {
			t.Errorf("expected recorded error, got %v", last.Err)
		}
	})

	t.Run("concurrent run is rejected", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{block: make(chan struct{}), started: make(chan struct{}, 1)}
		s, err := New(runner, WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("new: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.RunNow(context.Background())
		}()
		<-runner.started

		if _, err := s.RunNow(context.Background()); !errors.Is(err, ErrRunInProgress) {
			t.Errorf("expected ErrRunInProgress, got %v", err)
		}

		close(runner.block)
		wg.Wait()
		if runner.runs.Load() != 1 {
			t.Errorf("expected 1 run, got %d", runner.runs.Load())
		}
	})
}

func TestSchedulerFires(t *testing.T) {
	t.Parallel()

	t.Run("fires repeatedly", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		s, err := New(runner, WithInterval(20*time.Millisecond), WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start: %v", err)
		}
		defer stopScheduler(t, s)

		waitFor(t, func() bool { return runner.runs.Load() >= 3 })
		if s.Next().IsZero() {
			t.Error("expected a next fire time while running")
		}
	})

	t.Run("keeps firing after failed runs", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{err: errors.New("boom")}
		s, err := New(runner, WithInterval(20*time.Millisecond), WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start: %v", err)
		}
		defer stopScheduler(t, s)

		waitFor(t, func() bool { return runner.runs.Load() >= 2 })
	})

	t.Run("never overlaps runs", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{block: make(chan struct{})}
		s, err := New(runner, WithInterval(5*time.Millisecond), WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start: %v", err)
		}

		waitFor(t, func() bool { return runner.runs.Load() >= 1 })
		time.Sleep(50 * time.Millisecond)
		close(runner.block)
		stopScheduler(t, s)

		if runner.maxSeen.Load() != 1 {
			t.Errorf("observed %d concurrent runs", runner.maxSeen.Load())
		}
	})

	t.Run("run on start", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		s, err := New(runner, WithRunOnStart(true), WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start: %v", err)
		}
		defer stopScheduler(t, s)

		waitFor(t, func() bool { return runner.runs.Load() == 1 })
	})
}

func TestSchedulerStop(t *testing.T) {
	t.Parallel()

	t.Run("cancels in-flight run", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{block: make(chan struct{}), started: make(chan struct{}, 1)}
		s, err := New(runner, WithRunOnStart(true), WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start: %v", err)
		}
		<-runner.started

		stopScheduler(t, s)

		last, ok := s.LastRun()
		if !ok || !errors.Is(last.Err, context.Canceled) {
			t.Errorf("expected cancelled run, got %+v", last)
		}
	})

	t.Run("double start and idle stop", func(t *testing.T) {
		t.Parallel()

		s, err := New(&fakeRunner{}, WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if err := s.Stop(context.Background()); err != nil {
			t.Errorf("stop before start: %v", err)
		}
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start: %v", err)
		}
		if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
			t.Errorf("expected ErrAlreadyStarted, got %v", err)
		}
		stopScheduler(t, s)
	})
}
