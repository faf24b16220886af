package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang-insider-scanner/internal/entity"
	"golang-insider-scanner/internal/scheduler/repository"
	"golang-insider-scanner/pkg/common"
	"golang-insider-scanner/pkg/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Job is a batch task run by the scheduler. Execute returns a JSON summary.
type Job interface {
	GetName() string
	Execute(ctx context.Context) (string, error)
}

// Locker guards a job against concurrent runs across processes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// SchedulerService runs a job once or on a cron schedule and records every run.
type SchedulerService interface {
	RunOnce(ctx context.Context) (*entity.JobRun, error)
	Start(ctx context.Context) error
}

// Options configures the scheduler. Locker may be nil.
type Options struct {
	Cron     string
	Location *time.Location
	LockTTL  time.Duration
	Locker   Locker
}

// NewSchedulerService creates a new scheduler service for job.
func NewSchedulerService(job Job, runRepo repository.JobRunRepository, log *logger.Logger, opts Options) SchedulerService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 15 * time.Minute
	}
	return &schedulerService{
		job:        job,
		runRepo:    runRepo,
		logger:     log,
		opts:       opts,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		now:        time.Now,
	}
}

type schedulerService struct {
	job        Job
	runRepo    repository.JobRunRepository
	logger     *logger.Logger
	opts       Options
	cronParser cron.Parser
	now        func() time.Time
}

// RunOnce executes the job a single time. A run that finds the lock held is
// recorded as skipped. Execution errors are recorded and returned.
func (s *schedulerService) RunOnce(ctx context.Context) (*entity.JobRun, error) {
	run := &entity.JobRun{
		RunID:     uuid.NewString(),
		JobName:   s.job.GetName(),
		Status:    entity.JobRunStatusRunning,
		StartedAt: s.now(),
	}
	ctx = logger.WithFields(ctx, logger.StringField("run_id", run.RunID), logger.StringField("job", run.JobName))

	if s.opts.Locker != nil {
		key := fmt.Sprintf(common.RedisKeyJobLock, run.JobName)
		token, ok, err := s.opts.Locker.Acquire(ctx, key, s.opts.LockTTL)
		if err != nil {
			return s.fail(ctx, run, err)
		}
		if !ok {
			s.logger.WarnContext(ctx, "Job is already running elsewhere, skipping")
			run.Status = entity.JobRunStatusSkipped
			run.CompletedAt = sql.NullTime{Time: s.now(), Valid: true}
			if err := s.runRepo.Create(ctx, run); err != nil {
				return nil, fmt.Errorf("record skipped run: %w", err)
			}
			return run, nil
		}
		defer func() {
			// the job context may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := s.opts.Locker.Release(releaseCtx, key, token); err != nil {
				s.logger.ErrorContext(ctx, "Failed to release job lock", logger.ErrorField(err))
			}
		}()
	}

	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("record run start: %w", err)
	}
	s.logger.InfoContext(ctx, "Job started")

	output, err := s.job.Execute(ctx)
	if err != nil {
		return s.fail(ctx, run, err)
	}

	run.Status = entity.JobRunStatusCompleted
	run.CompletedAt = sql.NullTime{Time: s.now(), Valid: true}
	run.Output = sql.NullString{String: output, Valid: output != ""}
	if err := s.runRepo.Update(ctx, run); err != nil {
		return run, fmt.Errorf("record run completion: %w", err)
	}

	s.logger.InfoContext(ctx, "Job completed",
		logger.Field("duration", run.CompletedAt.Time.Sub(run.StartedAt)),
		logger.StringField("output", output),
	)
	return run, nil
}

func (s *schedulerService) fail(ctx context.Context, run *entity.JobRun, cause error) (*entity.JobRun, error) {
	s.logger.ErrorContext(ctx, "Job failed", logger.ErrorField(cause))

	run.Status = entity.JobRunStatusFailed
	run.CompletedAt = sql.NullTime{Time: s.now(), Valid: true}
	run.ErrorMessage = sql.NullString{String: cause.Error(), Valid: true}

	var err error
	if run.ID == 0 {
		err = s.runRepo.Create(ctx, run)
	} else {
		err = s.runRepo.Update(ctx, run)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to record failed run", logger.ErrorField(err))
	}
	return run, fmt.Errorf("%s: %w", run.JobName, cause)
}

// Start runs the job on the cron schedule until ctx is cancelled.
// Overlapping ticks are skipped.
func (s *schedulerService) Start(ctx context.Context) error {
	if _, err := s.cronParser.Parse(s.opts.Cron); err != nil {
		return fmt.Errorf("parse cron expression %q: %w", s.opts.Cron, err)
	}

	c := cron.New(
		cron.WithParser(s.cronParser),
		cron.WithLocation(s.opts.Location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(s.opts.Cron, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Scheduled run failed", logger.ErrorField(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}

	s.logger.Info("Scheduler started",
		logger.StringField("job", s.job.GetName()),
		logger.StringField("cron", s.opts.Cron),
		logger.StringField("time_zone", s.opts.Location.String()),
	)
	c.Start()

	<-ctx.Done()
	s.logger.Info("Scheduler service stopping")
	<-c.Stop().Done()
	return nil
}
