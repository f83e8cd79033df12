package service

import (
	"errors"

	"firmdesk.app/intake/internal/model"
)

var (
	ErrConnectionNotFound  = errors.New("email connection not found")
	ErrConnectionDisabled  = errors.New("email connection is disabled")
	ErrTenantMismatch      = errors.New("resource belongs to another tenant")
	ErrArtifactNotFound    = errors.New("email artifact not found")
	ErrInvalidIngest       = errors.New("invalid ingest request")
	ErrInvalidCorrection   = errors.New("invalid mapping correction")
	ErrStaleVersion        = errors.New("artifact was modified concurrently")
	ErrJobNotFound         = errors.New("job not found")
	ErrDuplicateJob        = errors.New("job with this idempotency key already exists")
	ErrInvalidPayload      = errors.New("invalid job payload")
	ErrJobNotClaimed       = errors.New("job is not being processed")
	ErrDLQNotFound         = errors.New("dlq entry not found")
	ErrDLQNotReprocessable = errors.New("dlq entry cannot be reprocessed")
	ErrDLQNotDiscardable   = errors.New("dlq entry cannot be discarded")
)

// permanent marks a request error that no retry can fix.
func permanent(err error) error {
	return model.NewJobError(model.ErrorClassNonRetryable, err)
}
