package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
)

// Scheduler wraps gocron for the daemon's periodic tasks.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler creates a scheduler instance. Jobs do not run until
// Start is called.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, derrors.DaemonError("failed to create scheduler: " + err.Error())
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Every registers a named task to run at a fixed interval. The task
// context carries a per-run timeout shorter than the interval.
func (s *Scheduler) Every(interval time.Duration, name string, task func(ctx context.Context)) error {
	timeout := interval / 2
	if timeout > 30*time.Second {
		timeout = 30 * time.Second
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			task(ctx)
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return derrors.DaemonError("failed to schedule " + name + ": " + err.Error())
	}
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.logger.Debug("starting scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	s.logger.Debug("stopping scheduler")
	return s.scheduler.Shutdown()
}
