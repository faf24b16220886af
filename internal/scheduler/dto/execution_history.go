package dto

import (
	"time"
)

// RunResponse is the DTO for API responses containing job run details.
type RunResponse struct {
	RunID       string     `json:"run_id"`
	JobName     string     `json:"job_name"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Duration    int64      `json:"duration_ms"`
	Output      string     `json:"output,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Job    string `json:"job"`
}
