package service

import (
	"context"

	"golang-insider-scanner/internal/entity"
	"golang-insider-scanner/internal/scheduler/dto"
	"golang-insider-scanner/internal/scheduler/repository"
	"golang-insider-scanner/pkg/logger"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

// ExecutionHistoryService defines the interface for reading job run history.
type ExecutionHistoryService interface {
	GetRunByID(ctx context.Context, runID string) (*dto.RunResponse, error)
	GetRuns(ctx context.Context, jobName string, limit int) ([]*dto.RunResponse, error)
}

// NewExecutionHistoryService creates a new execution history service.
func NewExecutionHistoryService(runRepo repository.JobRunRepository, logger *logger.Logger) ExecutionHistoryService {
	return &executionHistoryService{
		runRepo: runRepo,
		logger:  logger,
	}
}

type executionHistoryService struct {
	runRepo repository.JobRunRepository
	logger  *logger.Logger
}

// GetRunByID retrieves a run by its run id.
func (s *executionHistoryService) GetRunByID(ctx context.Context, runID string) (*dto.RunResponse, error) {
	run, err := s.runRepo.FindByRunID(ctx, runID)
	if err != nil {
		s.logger.Error("Failed to find job run", logger.ErrorField(err), logger.StringField("run_id", runID))
		return nil, err
	}
	return mapToRunResponse(run), nil
}

// GetRuns lists recent runs, optionally for a single job.
func (s *executionHistoryService) GetRuns(ctx context.Context, jobName string, limit int) ([]*dto.RunResponse, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	if limit > maxRunLimit {
		limit = maxRunLimit
	}

	var (
		runs []entity.JobRun
		err  error
	)
	if jobName != "" {
		runs, err = s.runRepo.FindAllByJobName(ctx, jobName, limit)
	} else {
		runs, err = s.runRepo.FindAll(ctx, limit)
	}
	if err != nil {
		s.logger.Error("Failed to get job runs", logger.ErrorField(err), logger.StringField("job_name", jobName))
		return nil, err
	}

	responses := make([]*dto.RunResponse, 0, len(runs))
	for i := range runs {
		responses = append(responses, mapToRunResponse(&runs[i]))
	}
	return responses, nil
}

func mapToRunResponse(run *entity.JobRun) *dto.RunResponse {
	resp := &dto.RunResponse{
		RunID:     run.RunID,
		JobName:   run.JobName,
		Status:    string(run.Status),
		StartedAt: run.StartedAt,
		Output:    run.Output.String,
		Error:     run.ErrorMessage.String,
	}
	if run.CompletedAt.Valid {
		completed := run.CompletedAt.Time
		resp.CompletedAt = &completed
		resp.Duration = completed.Sub(run.StartedAt).Milliseconds()
	}
	return resp
}
