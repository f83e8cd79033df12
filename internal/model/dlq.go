package model

import (
	"encoding/json"
	"time"
)

type DLQStatus string

const (
	DLQStatusPendingReview DLQStatus = "pending_review"
	DLQStatusReprocessing  DLQStatus = "reprocessing"
	DLQStatusResolved      DLQStatus = "resolved"
	DLQStatusDiscarded     DLQStatus = "discarded"
)

func (s DLQStatus) Valid() bool {
	switch s {
	case DLQStatusPendingReview, DLQStatusReprocessing, DLQStatusResolved, DLQStatusDiscarded:
		return true
	}
	return false
}

// DLQEntry is a frozen copy of a permanently failed job. Payload is never
// rewritten after creation.
type DLQEntry struct {
	ID               int64           `json:"id"`
	TenantID         int64           `json:"tenant_id"`
	OriginalJobID    int64           `json:"original_job_id"`
	Category         JobCategory     `json:"category"`
	JobType          JobType         `json:"job_type"`
	Payload          json.RawMessage `json:"payload"`
	IdempotencyKey   string          `json:"idempotency_key"`
	ErrorClass       ErrorClass      `json:"error_class"`
	ErrorMessage     string          `json:"error_message"`
	AttemptCount     int32           `json:"attempt_count"`
	MaxAttempts      int32           `json:"max_attempts"`
	Status           DLQStatus       `json:"status"`
	ReprocessedBy    *string         `json:"reprocessed_by,omitempty"`
	ReprocessedAt    *time.Time      `json:"reprocessed_at,omitempty"`
	ReprocessNotes   *string         `json:"reprocess_notes,omitempty"`
	ReprocessedJobID *int64          `json:"reprocessed_job_id,omitempty"`
	DiscardedBy      *string         `json:"discarded_by,omitempty"`
	DiscardedAt      *time.Time      `json:"discarded_at,omitempty"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CanReprocess is false once a replay is in flight or has succeeded.
// Discarded entries are closed too.
func (e *DLQEntry) CanReprocess() bool {
	return e.Status == DLQStatusPendingReview
}

func (e *DLQEntry) CanDiscard() bool {
	return e.Status == DLQStatusPendingReview || e.Status == DLQStatusReprocessing
}
