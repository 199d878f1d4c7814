// Package jobs drives the backend's asynchronous work model: an endpoint
// creates a job and returns its id, and the Poller converts the id plus the
// status endpoint into a single awaitable result.
package jobs

import (
	"encoding/json"
	"time"
)

// Status of a backend job. Completed and Failed are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the job will make no further progress.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Type of background work a job represents.
type Type string

const (
	TypePlanGeneration    Type = "plan_generation"
	TypePlanRecalculation Type = "plan_recalculation"
	TypePlanSimulation    Type = "plan_simulation"
	TypeOCRProcessing     Type = "ocr_processing"
	TypeDebtAnalysis      Type = "debt_analysis"
)

// Job is the full server-side record, including the result payload once the
// job completes. The client never persists jobs; only the most recent poll
// result is held in memory while awaiting.
type Job struct {
	ID          string          `json:"id"`
	JobType     Type            `json:"job_type"`
	Status      Status          `json:"status"`
	Progress    int             `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// StatusInfo is the lightweight poll response; the result payload may be
// omitted for size, which is why a completed job costs one extra fetch.
type StatusInfo struct {
	ID       string          `json:"id"`
	Status   Status          `json:"status"`
	Progress *int            `json:"progress,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// DecodeResult unmarshals the job's result payload into out.
func (j *Job) DecodeResult(out any) error {
	return json.Unmarshal(j.Result, out)
}
