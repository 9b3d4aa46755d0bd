package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Warmer refreshes a cache ahead of demand.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Scheduler runs the periodic snapshot and weather warm jobs.
type Scheduler struct {
	cron       *cron.Cron
	logger     *slog.Logger
	jobTimeout time.Duration
}

// NewScheduler creates a scheduler whose jobs never overlap themselves.
func NewScheduler(logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:     logger,
		jobTimeout: time.Minute,
	}
}

// ScheduleSnapshots runs p.RunOnce on spec.
func (s *Scheduler) ScheduleSnapshots(spec string, p *Pipeline) error {
	return s.add("snapshot", spec, p.RunOnce)
}

// ScheduleWarm runs w.Warm on spec.
func (s *Scheduler) ScheduleWarm(spec string, w Warmer) error {
	return s.add("weather-warm", spec, w.Warm)
}

func (s *Scheduler) add(name, spec string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		if err := job(ctx); err != nil {
			s.logger.Warn("scheduled job failed", "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s job %q: %w", name, spec, err)
	}
	s.logger.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out; jobs still running")
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
