// Package scheduler runs a job on a cron schedule until its context ends.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler fires a Job on a standard cron expression or descriptor
// ("@daily", "@every 1h"). Overlapping runs are skipped.
type Scheduler struct {
	spec       string
	schedule   cron.Schedule
	job        Job
	runOnStart bool
	logger     *slog.Logger
}

// New validates spec and returns a Scheduler for job.
func New(spec string, job Job, runOnStart bool, log *slog.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("scheduler: job is required")
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: parse %q: %w", spec, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		spec:       spec,
		schedule:   sched,
		job:        job,
		runOnStart: runOnStart,
		logger:     log,
	}, nil
}

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Start runs the cron loop and blocks until ctx is cancelled, then waits
// for an in-flight run to return. Job errors are logged and never stop the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	cl := cronLogger{l: s.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	id := c.Schedule(s.schedule, cron.FuncJob(func() { s.runOnce(ctx) }))

	c.Start()
	s.logger.Info("scheduler started", "spec", s.spec, "next_run", c.Entry(id).Next)

	var initial sync.WaitGroup
	if s.runOnStart {
		// Go through the wrapped job so the skip-if-running guard applies.
		initial.Add(1)
		go func() {
			defer initial.Done()
			c.Entry(id).WrappedJob.Run()
		}()
	}

	<-ctx.Done()
	s.logger.Info("scheduler stopping")
	<-c.Stop().Done()
	initial.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Info("scheduled run finished", "duration", time.Since(start))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
