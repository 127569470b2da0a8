// Package scheduler runs the two recurring background passes §5 requires
// outside the request path: re-running the promotion projector (C10) and
// sweeping stale in_progress loads past their deadline. It follows the
// same robfig/cron/v3 wrapper shape as the teacher's trigger.CronScheduler.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/infrastructure/logger"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/loadstate"
	"github.com/AltimetrikAI/propelus-taxonomy/internal/mapping"
	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// LoadSweepStore is the subset of load persistence the stale-load sweep
// needs: find loads stuck in_progress past a cutoff and close them out.
type LoadSweepStore interface {
	StaleInProgress(ctx context.Context, cutoffExpr string) ([]int64, error)
	GetLoad(ctx context.Context, id int64) (*models.Load, error)
	CloseLoad(ctx context.Context, l *models.Load) error
}

// Config bundles the scheduler's collaborators and cron expressions.
type Config struct {
	Projector *mapping.Projector
	Loads     LoadSweepStore
	Logger    *logger.Logger

	// ProjectorSchedule and SweepSchedule are standard 5-field cron
	// expressions (seconds disabled, matching cron.New's default parser).
	ProjectorSchedule string // default "*/5 * * * *"
	SweepSchedule      string // default "*/15 * * * *"
	StaleCutoff        string // postgres interval literal, default "2 hours"
}

// Scheduler wraps a robfig/cron/v3 instance running the projector rerun
// and stale-load sweep on their own schedules.
type Scheduler struct {
	cron *cron.Cron
	cfg  Config
}

// New builds a Scheduler and registers both jobs, applying Config
// defaults for any blank schedule.
func New(cfg Config) (*Scheduler, error) {
	if cfg.ProjectorSchedule == "" {
		cfg.ProjectorSchedule = "*/5 * * * *"
	}
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = "*/15 * * * *"
	}
	if cfg.StaleCutoff == "" {
		cfg.StaleCutoff = "2 hours"
	}

	c := cron.New(cron.WithLocation(time.UTC))
	s := &Scheduler{cron: c, cfg: cfg}

	if cfg.Projector != nil {
		if _, err := c.AddFunc(cfg.ProjectorSchedule, s.runProjector); err != nil {
			return nil, err
		}
	}
	if cfg.Loads != nil {
		if _, err := c.AddFunc(cfg.SweepSchedule, s.runSweep); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for any in-flight job to finish and stops the scheduler.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runProjector() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.cfg.Projector.Run(ctx)
	if err != nil {
		if s.cfg.Logger != nil {
			s.cfg.Logger.With("error", err).Error("promotion projector run failed")
		}
		return
	}
	if s.cfg.Logger != nil {
		s.cfg.Logger.With("inserted", len(result.Inserted), "deleted", len(result.Deleted)).Info("promotion projector converged")
	}
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ids, err := s.cfg.Loads.StaleInProgress(ctx, s.cfg.StaleCutoff)
	if err != nil {
		if s.cfg.Logger != nil {
			s.cfg.Logger.With("error", err).Error("stale load sweep query failed")
		}
		return
	}

	for _, id := range ids {
		load, err := s.cfg.Loads.GetLoad(ctx, id)
		if err != nil {
			continue
		}
		machine, err := loadstate.New(load)
		if err != nil {
			continue
		}
		now := time.Now()
		if _, err := machine.CloseOnTimeout(loadstate.Tally{}, now); err != nil {
			continue
		}
		if err := s.cfg.Loads.CloseLoad(ctx, load); err != nil && s.cfg.Logger != nil {
			s.cfg.Logger.With("load_id", id, "error", err).Error("failed to close stale load")
		}
	}
}
