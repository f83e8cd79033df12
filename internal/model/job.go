package model

import (
	"encoding/json"
	"time"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusDLQ        JobStatus = "dlq"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed, JobStatusDLQ:
		return true
	}
	return false
}

type JobCategory string

const (
	JobCategoryIngestion   JobCategory = "ingestion"
	JobCategoryMapping     JobCategory = "mapping"
	JobCategoryMaintenance JobCategory = "maintenance"
)

type JobType string

const (
	JobTypeEmailIngest JobType = "email.ingest"
	JobTypeEmailRemap  JobType = "email.remap"
)

// Category is the queue category a job type is filed under.
func (t JobType) Category() JobCategory {
	switch t {
	case JobTypeEmailIngest:
		return JobCategoryIngestion
	case JobTypeEmailRemap:
		return JobCategoryMapping
	}
	return JobCategoryMaintenance
}

const (
	// Lower numbers are claimed first.
	DefaultJobPriority   int32 = 100
	ReprocessJobPriority int32 = 10
	DefaultMaxAttempts   int32 = 5
)

type Job struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"tenant_id"`
	Category       JobCategory     `json:"category"`
	JobType        JobType         `json:"job_type"`
	Payload        json.RawMessage `json:"payload"`
	IdempotencyKey string          `json:"idempotency_key"`
	Status         JobStatus       `json:"status"`
	Priority       int32           `json:"priority"`
	ScheduledAt    time.Time       `json:"scheduled_at"`
	ClaimedBy      *string         `json:"claimed_by,omitempty"`
	ClaimedAt      *time.Time      `json:"claimed_at,omitempty"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	AttemptCount   int32           `json:"attempt_count"`
	MaxAttempts    int32           `json:"max_attempts"`
	NextRetryAt    *time.Time      `json:"next_retry_at,omitempty"`
	ErrorClass     *ErrorClass     `json:"error_class,omitempty"`
	LastError      *string         `json:"last_error,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	DLQSourceID    *int64          `json:"dlq_source_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Exhausted reports whether the job has used all of its attempts.
func (j *Job) Exhausted() bool {
	return j.AttemptCount >= j.MaxAttempts
}

// RetryCount is the number of runs before the current claim.
func (j *Job) RetryCount() int32 {
	return max(j.AttemptCount-1, 0)
}

// DecodePayload parses the job's payload document.
func (j *Job) DecodePayload() (*JobPayload, error) {
	return DecodeJobPayload(j.Payload)
}
