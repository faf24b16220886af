package repository

import (
	"context"

	"golang-insider-scanner/internal/entity"

	"gorm.io/gorm"
)

// JobRunRepository defines the data operations for job run history.
type JobRunRepository interface {
	Create(ctx context.Context, run *entity.JobRun) error
	Update(ctx context.Context, run *entity.JobRun) error
	FindByRunID(ctx context.Context, runID string) (*entity.JobRun, error)
	FindAll(ctx context.Context, limit int) ([]entity.JobRun, error)
	FindAllByJobName(ctx context.Context, jobName string, limit int) ([]entity.JobRun, error)
}

// NewJobRunRepository creates a new GORM-based job run repository.
func NewJobRunRepository(db *gorm.DB) JobRunRepository {
	return &jobRunRepository{db: db}
}

type jobRunRepository struct {
	db *gorm.DB
}

func (r *jobRunRepository) Create(ctx context.Context, run *entity.JobRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update saves every column, so a cleared field is written too.
func (r *jobRunRepository) Update(ctx context.Context, run *entity.JobRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *jobRunRepository) FindByRunID(ctx context.Context, runID string) (*entity.JobRun, error) {
	var run entity.JobRun
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// FindAll returns the most recent runs first.
func (r *jobRunRepository) FindAll(ctx context.Context, limit int) ([]entity.JobRun, error) {
	var runs []entity.JobRun
	if err := r.db.WithContext(ctx).Order("started_at desc, id desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *jobRunRepository) FindAllByJobName(ctx context.Context, jobName string, limit int) ([]entity.JobRun, error) {
	var runs []entity.JobRun
	if err := r.db.WithContext(ctx).Where("job_name = ?", jobName).Order("started_at desc, id desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
