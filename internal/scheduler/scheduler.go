package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

var errInvalidInterval = errors.New("scheduler: interval must be positive")

// Scheduler runs a job immediately and then once per interval until its
// context is cancelled. At most one run of the job is in flight at a time.
type Scheduler struct {
	interval time.Duration
	location *time.Location
	logger   *slog.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		interval: interval,
		location: time.Local,
		logger:   logger,
	}
}

// Interval returns the configured tick interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Run schedules job and blocks until ctx is done. On return the scheduler is
// stopped and any in-flight job has finished.
func (s *Scheduler) Run(ctx context.Context, job func(context.Context)) error {
	if s.interval <= 0 {
		return errInvalidInterval
	}

	var (
		mu      sync.Mutex
		stopped bool
		running sync.WaitGroup
	)

	sched := gocron.NewScheduler(s.location)
	sched.SingletonModeAll()

	_, err := sched.Every(s.interval).StartImmediately().Do(func() {
		mu.Lock()
		if stopped || ctx.Err() != nil {
			mu.Unlock()
			return
		}
		running.Add(1)
		mu.Unlock()
		defer running.Done()

		job(ctx)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("scheduler: started", "interval", s.interval)
	sched.StartAsync()

	<-ctx.Done()

	mu.Lock()
	stopped = true
	mu.Unlock()

	sched.Stop()
	running.Wait()
	s.logger.Debug("scheduler: stopped")
	return nil
}
