package entity

import (
	"database/sql"
	"time"
)

// JobRunStatus defines the status of a job run.
type JobRunStatus string

const (
	JobRunStatusRunning   JobRunStatus = "running"
	JobRunStatusCompleted JobRunStatus = "completed"
	JobRunStatusFailed    JobRunStatus = "failed"
	JobRunStatusSkipped   JobRunStatus = "skipped"
)

// JobRun records one execution of a batch job.
type JobRun struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	RunID        string         `gorm:"type:varchar(36);not null;uniqueIndex" json:"run_id"`
	JobName      string         `gorm:"not null;index" json:"job_name"`
	Status       JobRunStatus   `gorm:"type:varchar(20);not null" json:"status"`
	StartedAt    time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at"`
	Output       sql.NullString `gorm:"type:text" json:"output"`
	ErrorMessage sql.NullString `gorm:"type:text" json:"error_message"`
}

func (JobRun) TableName() string {
	return "job_runs"
}
