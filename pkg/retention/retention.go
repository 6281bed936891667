// Package retention runs the scheduled removal of old stored graphs.
package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the sweep at the top of every hour.
const DefaultSchedule = "@hourly"

var (
	ErrInvalidMaxAge   = errors.New("retention max age must be positive")
	ErrInvalidSchedule = errors.New("invalid retention schedule")
)

// Pruner removes stored graphs older than maxAge.
type Pruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int, error)
}

// Scheduler triggers a Pruner on a cron schedule.
type Scheduler struct {
	pruner   Pruner
	schedule string
	maxAge   time.Duration
	logger   *slog.Logger

	mutex  sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(pruner Pruner, schedule string, maxAge time.Duration, logger *slog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	return &Scheduler{
		pruner:   pruner,
		schedule: schedule,
		maxAge:   maxAge,
		logger:   logger.With("module", "retention"),
	}
}

func (s *Scheduler) Validate() error {
	if s.maxAge <= 0 {
		return ErrInvalidMaxAge
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("%w '%s': %w", ErrInvalidSchedule, s.schedule, err)
	}

	return nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(s.ctx)
	})
	if err != nil {
		s.cancel()

		return fmt.Errorf("failed to add retention job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Started retention scheduler", "schedule", s.schedule, "max_age", s.maxAge, "entry_id", entryID)

	return nil
}

// RunOnce performs a single sweep and returns how many graphs were removed.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	removed, err := s.pruner.Prune(ctx, s.maxAge)
	if err != nil {
		s.logger.ErrorContext(ctx, "Retention sweep failed", "error", err)

		return 0
	}

	s.logger.DebugContext(ctx, "Retention sweep finished", "removed", removed)

	return removed
}

func (s *Scheduler) Stop(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.logger.Info("Stopped retention scheduler")
	}

	return nil
}
