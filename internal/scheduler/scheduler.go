package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a periodic task. The context is canceled when the scheduler stops.
type Job func(ctx context.Context) error

// Scheduler runs named jobs at fixed intervals. A job that is still running
// when its next tick arrives skips that tick, and a panicking job is logged
// and recovered.
type Scheduler struct {
	cron   *cron.Cron
	log    *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler that logs through log.
func New(log *logrus.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(log)
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(
				cron.Recover(cronLogger),
				cron.SkipIfStillRunning(cronLogger),
			),
		),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every registers job to run every interval. Intervals under a second are
// rounded up to one second.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive, got %v", name, interval)
	}

	_, err := s.cron.AddFunc("@every "+interval.String(), func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	s.log.WithFields(logrus.Fields{
		"job":      name,
		"interval": interval.String(),
	}).Info("job scheduled")
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	if s.ctx.Err() != nil {
		return
	}

	start := time.Now()
	entry := s.log.WithField("job", name)
	if err := job(s.ctx); err != nil {
		entry.WithError(err).Warn("job failed")
		return
	}
	entry.WithField("duration", time.Since(start).String()).Debug("job finished")
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
