package worker

import (
	"context"
	"encoding/json"
	"time"

	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/service"
)

// JobQueue is the part of service.JobService the loop drives.
type JobQueue interface {
	ClaimNext(ctx context.Context, workerID string) (*model.Job, error)
	MarkCompleted(ctx context.Context, tenantID, jobID int64, result json.RawMessage) (*model.Job, error)
	MarkFailed(ctx context.Context, tenantID, jobID int64, params service.FailureParams) (*service.FailureOutcome, error)
}

// StaleReclaimer is the part of service.JobService the reclaimer drives.
type StaleReclaimer interface {
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// Handler runs one job. The returned document is stored as the job result.
// Errors should carry a model.ErrorClass; unclassified errors are retried.
type Handler interface {
	Handle(ctx context.Context, job *model.Job, payload *model.JobPayload) (json.RawMessage, error)
}

type HandlerFunc func(ctx context.Context, job *model.Job, payload *model.JobPayload) (json.RawMessage, error)

func (f HandlerFunc) Handle(ctx context.Context, job *model.Job, payload *model.JobPayload) (json.RawMessage, error) {
	return f(ctx, job, payload)
}
