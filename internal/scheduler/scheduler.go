package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nao1215/leakwatch/internal/model"
)

// DefaultInterval is the spacing between scheduled runs.
const DefaultInterval = 7 * 24 * time.Hour

// Runner executes one crawl run.
type Runner interface {
	Run(ctx context.Context) (model.RunStats, error)
}

// RunRecord describes the most recent completed run.
type RunRecord struct {
	Stats model.RunStats
	Err   error
}

// Scheduler fires a Runner on a schedule and serializes runs.
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	cronSpec   string
	runOnStart bool
	logger     *slog.Logger

	cron    *cron.Cron
	entryID cron.EntryID

	// runMu is held for the whole duration of a run.
	runMu sync.Mutex

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	last    *RunRecord
	wg      sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the spacing between runs.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithCronSpec schedules runs with a standard five-field cron expression
// (or a descriptor such as "@weekly") instead of a fixed interval.
func WithCronSpec(spec string) Option {
	return func(s *Scheduler) {
		s.cronSpec = spec
	}
}

// WithRunOnStart triggers one run immediately when the scheduler starts.
func WithRunOnStart(enabled bool) Option {
	return func(s *Scheduler) {
		s.runOnStart = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates a Scheduler for runner.
// It returns ErrInvalidInterval for a non-positive interval and a parse
// error for an invalid cron expression.
func New(runner Runner, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		runner:   runner,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	schedule, err := s.schedule()
	if err != nil {
		return nil, err
	}

	cl := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.entryID = s.cron.Schedule(schedule, cron.FuncJob(s.trigger))

	return s, nil
}

// schedule builds the cron schedule from the configured spec or interval.
func (s *Scheduler) schedule() (cron.Schedule, error) {
	if s.cronSpec != "" {
		schedule, err := cron.ParseStandard(s.cronSpec)
		if err != nil {
			return nil, fmt.Errorf("invalid cron spec %q: %w", s.cronSpec, err)
		}
		return schedule, nil
	}
	if s.interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, s.interval)
	}
	return intervalSchedule{interval: s.interval}, nil
}

// Spec returns a human-readable description of the schedule.
func (s *Scheduler) Spec() string {
	if s.cronSpec != "" {
		return s.cronSpec
	}
	return "@every " + s.interval.String()
}

// Start begins firing runs. Runs triggered by the scheduler receive a
// context derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.Spec(), "next_run", s.Next())

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.trigger()
		}()
	}
	return nil
}

// Stop halts the schedule, cancels an in-flight run, and waits for it to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running crawl: %w", ctx.Err())
	}
}

// Next returns the next scheduled fire time, or zero if not started.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// LastRun returns the record of the most recent completed run.
func (s *Scheduler) LastRun() (RunRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return RunRecord{}, false
	}
	return *s.last, true
}

// RunNow executes a run synchronously in the caller's goroutine.
// It returns ErrRunInProgress without running if another run holds the lock.
func (s *Scheduler) RunNow(ctx context.Context) (model.RunStats, error) {
	if !s.runMu.TryLock() {
		return model.RunStats{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	stats, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.last = &RunRecord{Stats: stats, Err: err}
	s.mu.Unlock()

	attrs := []any{
		"queries", stats.Queries,
		"candidates", stats.Candidates,
		"fetched", stats.Fetched,
		"stored", stats.Stored,
		"duplicates", stats.Duplicates,
		"duration", stats.Duration(),
	}
	if err != nil {
		s.logger.Error("run failed", append(attrs, "error", err)...)
		return stats, err
	}
	s.logger.Info("run completed", attrs...)
	return stats, nil
}

// trigger is the cron job body.
func (s *Scheduler) trigger() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	if _, err := s.RunNow(ctx); errors.Is(err, ErrRunInProgress) {
		s.logger.Warn("run skipped", "reason", err)
	}
}

// intervalSchedule fires at a fixed spacing. Unlike cron.Every it keeps
// sub-second precision.
type intervalSchedule struct {
	interval time.Duration
}

// Next implements cron.Schedule.
func (s intervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.interval)
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

// Info implements cron.Logger. Cron's own bookkeeping is only useful when debugging.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

// Error implements cron.Logger.
func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
