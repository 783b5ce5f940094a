package scheduler

import (
	"context"
	"fmt"
	"time"

	"TopMover/internal/domain/models"
	domrepo "TopMover/internal/domain/repository"
	"TopMover/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Runner executes one invocation.
type Runner interface {
	Run(ctx context.Context, inv models.Invocation) (*models.RunResult, error)
}

// Scheduler triggers the scheduled gap-healing run and the expiry sweep.
type Scheduler struct {
	Cron    *cron.Cron
	runner  Runner
	sweeper domrepo.ExpiringStore
	log     *logger.Logger
	ctx     context.Context
	now     func() time.Time
}

// NewScheduler builds a seconds-resolution cron. sweeper may be nil when the
// store expires records on its own.
func NewScheduler(runner Runner, sweeper domrepo.ExpiringStore, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		runner:  runner,
		sweeper: sweeper,
		log:     log,
		ctx:     context.Background(),
		now:     time.Now,
	}
}

// RegisterAll adds the run and sweep jobs. An empty expression disables that job.
func (s *Scheduler) RegisterAll(runExpr, sweepExpr string) error {
	if runExpr != "" {
		if _, err := s.Cron.AddFunc(runExpr, s.RunNow); err != nil {
			return fmt.Errorf("register scheduled run: %w", err)
		}
	}
	if sweepExpr != "" && s.sweeper != nil {
		if _, err := s.Cron.AddFunc(sweepExpr, s.SweepNow); err != nil {
			return fmt.Errorf("register expiry sweep: %w", err)
		}
	}
	return nil
}

// Start runs the cron in the background. Jobs run under ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.Cron.Start()
	s.log.Info("scheduler started", logger.Int("jobs", len(s.Cron.Entries())))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes the scheduled run immediately.
func (s *Scheduler) RunNow() {
	res, err := s.runner.Run(s.ctx, models.Scheduled())
	if err != nil {
		s.log.Error("scheduled run failed", logger.Error(err))
		return
	}
	s.log.Info("scheduled run finished",
		logger.String("run_id", res.RunID),
		logger.Strings("stored", res.StoredDates),
		logger.Bool("partial", res.Partial),
	)
}

// SweepNow purges expired records.
func (s *Scheduler) SweepNow() {
	if s.sweeper == nil {
		return
	}
	n, err := s.sweeper.PurgeExpired(s.ctx, s.now())
	if err != nil {
		s.log.Error("expiry sweep failed", logger.Error(err))
		return
	}
	s.log.Info("expiry sweep finished", logger.Int64("purged", n))
}
