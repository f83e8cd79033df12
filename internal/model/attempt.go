package model

import "time"

type AttemptOperation string

const (
	AttemptOperationFetch AttemptOperation = "fetch"
	AttemptOperationParse AttemptOperation = "parse"
	AttemptOperationStore AttemptOperation = "store"
	AttemptOperationMap   AttemptOperation = "map"
)

type AttemptStatus string

const (
	AttemptStatusSuccess AttemptStatus = "success"
	AttemptStatusFail    AttemptStatus = "fail"
)

// IngestionAttempt is an append-only log row for one phase of ingesting a
// message. ArtifactID is nil when the phase failed before an artifact existed.
type IngestionAttempt struct {
	ID                int64            `json:"id"`
	TenantID          int64            `json:"tenant_id"`
	ConnectionID      int64            `json:"connection_id"`
	ArtifactID        *int64           `json:"artifact_id,omitempty"`
	ExternalMessageID string           `json:"external_message_id"`
	Operation         AttemptOperation `json:"operation"`
	Status            AttemptStatus    `json:"status"`
	ErrorClass        *ErrorClass      `json:"error_class,omitempty"`
	ErrorSummary      *string          `json:"error_summary,omitempty"`
	RetryCount        int32            `json:"retry_count"`
	NextRetryAt       *time.Time       `json:"next_retry_at,omitempty"`
	CorrelationID     string           `json:"correlation_id"`
	DurationMs        int64            `json:"duration_ms"`
	CreatedAt         time.Time        `json:"created_at"`
}
