package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/internal/roles"
	apperrors "github.com/partnerbot/backend/pkg/errors"
	"github.com/partnerbot/backend/pkg/queue"
)

const (
	// DefaultSweepInterval is used when no positive interval is configured.
	DefaultSweepInterval = 6 * time.Hour

	// pollTimeout bounds one blocking dequeue so ticks are not delayed for long.
	pollTimeout = 5 * time.Second
)

// Organizations lists the organizations to sweep.
type Organizations interface {
	ListWithRole(ctx context.Context) ([]models.OrganizationSettings, error)
	GetSettings(ctx context.Context, org snowflake.ID) (*models.OrganizationSettings, error)
}

// RoleSweeper runs one full sweep.
type RoleSweeper interface {
	Sweep(ctx context.Context, org snowflake.ID, role *snowflake.ID) (roles.Report, error)
}

// ReportSaver keeps the last report of each organization.
type ReportSaver interface {
	Save(ctx context.Context, rep roles.Report) error
}

// JobSource delivers queued sweep requests.
type JobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Sweeper runs the periodic role sweep over every organization and the sweeps requested
// through the queue. Both run on one loop, so a slow pass delays the next one instead of
// overlapping it.
type Sweeper struct {
	orgs     Organizations
	sweeper  RoleSweeper
	reports  ReportSaver
	jobs     JobSource
	interval time.Duration
	backoff  time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a sweeper that runs every interval.
func NewSweeper(orgs Organizations, sweeper RoleSweeper, reports ReportSaver, jobs JobSource, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		orgs:     orgs,
		sweeper:  sweeper,
		reports:  reports,
		jobs:     jobs,
		interval: interval,
		backoff:  queue.RetryBackoff,
		logger:   logger,
	}
}

// Run sweeps once at startup, then on every tick, and processes queued jobs in between.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("role sweeper started", zap.Duration("interval", s.interval))
	s.SweepAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("role sweeper stopping")
			return
		case <-ticker.C:
			s.SweepAll(ctx)
			continue
		default:
		}

		job, err := s.jobs.Dequeue(ctx, pollTimeout)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("dequeue error", zap.Error(err))
				s.wait(ctx)
			}
			continue
		}
		if job == nil {
			continue
		}

		s.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := s.Process(ctx, job); err != nil {
			s.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := s.jobs.Retry(ctx, job); reErr != nil {
				s.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			s.wait(ctx)
		}
	}
}

// SweepAll sweeps every organization with a representative role. A failing organization is
// logged and does not stop the others.
func (s *Sweeper) SweepAll(ctx context.Context) {
	list, err := s.orgs.ListWithRole(ctx)
	if err != nil {
		s.logger.Error("list organizations for sweep failed", zap.Error(err))
		return
	}
	var failed int
	for _, o := range list {
		if ctx.Err() != nil {
			return
		}
		if err := s.sweep(ctx, o.OrganizationID, o.RepresentativeRole); err != nil {
			failed++
		}
	}
	s.logger.Info("role sweep pass finished", zap.Int("organizations", len(list)), zap.Int("failed", failed))
}

// Process runs one queued sweep. Organizations that no longer exist are dropped.
func (s *Sweeper) Process(ctx context.Context, job *queue.Job) error {
	payload, err := queue.DecodeRoleSweep(job)
	if err != nil {
		s.logger.Warn("dropping unreadable job", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	settings, err := s.orgs.GetSettings(ctx, payload.OrganizationID)
	if errors.Is(err, apperrors.ErrNotSetUp) {
		s.logger.Info("dropping sweep for unknown organization",
			zap.String("job_id", job.ID),
			zap.String("organization_id", payload.OrganizationID.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	return s.sweep(ctx, payload.OrganizationID, settings.RepresentativeRole)
}

func (s *Sweeper) sweep(ctx context.Context, org snowflake.ID, role *snowflake.ID) error {
	rep, err := s.sweeper.Sweep(ctx, org, role)
	if saveErr := s.reports.Save(ctx, rep); saveErr != nil {
		s.logger.Warn("save sweep report failed", zap.String("organization_id", org.String()), zap.Error(saveErr))
	}
	if err != nil {
		s.logger.Error("role sweep failed", zap.String("organization_id", org.String()), zap.Error(err))
		return err
	}
	return nil
}

func (s *Sweeper) wait(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(s.backoff):
	}
}
