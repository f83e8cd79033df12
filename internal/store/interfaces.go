package store

import (
	"context"
	"errors"
	"time"

	"firmdesk.app/intake/internal/model"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an insert violates a unique constraint.
	ErrConflict = errors.New("conflict")

	// ErrVersionMismatch is returned when a compare-and-swap update finds a
	// different row version than the caller expected.
	ErrVersionMismatch = errors.New("version mismatch")

	// ErrStateConflict is returned when a guarded transition finds the row in
	// a state the transition does not accept.
	ErrStateConflict = errors.New("row not in expected state")
)

type EmailConnectionStore interface {
	GetByID(ctx context.Context, id int64) (*model.EmailConnection, error)
	Create(ctx context.Context, conn *model.EmailConnection) (*model.EmailConnection, error)
}

type EmailArtifactStore interface {
	// CreateOrGet inserts the artifact unless (connection, external message id)
	// already exists, in which case the stored row is returned with created=false.
	CreateOrGet(ctx context.Context, artifact *model.EmailArtifact) (*model.EmailArtifact, bool, error)
	GetByID(ctx context.Context, tenantID, id int64) (*model.EmailArtifact, error)
	GetByExternalID(ctx context.Context, connectionID int64, externalMessageID string) (*model.EmailArtifact, error)
	// ListThread returns the tenant's other artifacts in a thread, newest first.
	ListThread(ctx context.Context, tenantID int64, threadID string, excludeID int64) ([]model.EmailArtifact, error)
	UpdateMapping(ctx context.Context, artifact *model.EmailArtifact, expectedVersion int32) (*model.EmailArtifact, error)
	ConfirmMapping(ctx context.Context, tenantID, id int64, targets model.MappingTargets, user string, expectedVersion int32) (*model.EmailArtifact, error)
	MarkIgnored(ctx context.Context, tenantID, id int64, reason, user string, expectedVersion int32) (*model.EmailArtifact, error)
}

// IngestionAttemptStore is append-only.
type IngestionAttemptStore interface {
	Create(ctx context.Context, attempt *model.IngestionAttempt) (*model.IngestionAttempt, error)
	ListForArtifact(ctx context.Context, tenantID, artifactID int64) ([]model.IngestionAttempt, error)
	ListForMessage(ctx context.Context, tenantID, connectionID int64, externalMessageID string) ([]model.IngestionAttempt, error)
	// SetNextRetry stamps the failed attempts of one job run with the time
	// the queue will retry it.
	SetNextRetry(ctx context.Context, tenantID int64, correlationID string, retryCount int32, nextRetryAt time.Time) (int64, error)
}

// CRMStore reads the CRM tables owned by the CRM service.
type CRMStore interface {
	ContactsByEmail(ctx context.Context, tenantID int64, email string) ([]model.Contact, error)
	ContactsByDomain(ctx context.Context, tenantID int64, domain string) ([]model.Contact, error)
	GetEngagement(ctx context.Context, tenantID, id int64) (*model.Engagement, error)
	ActiveEngagementForAccount(ctx context.Context, tenantID, accountID int64) (*model.Engagement, error)
}

type JobStore interface {
	Create(ctx context.Context, job *model.Job) (*model.Job, error)
	GetByID(ctx context.Context, tenantID, id int64) (*model.Job, error)
	GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*model.Job, error)
	// Claim moves one specific pending job to processing, skipping it if
	// another transaction holds its row lock.
	Claim(ctx context.Context, tenantID, id int64, workerID string) (bool, *model.Job, error)
	// ClaimNext claims the highest-priority due job. Returns nil when none is available.
	ClaimNext(ctx context.Context, workerID string) (*model.Job, error)
	Complete(ctx context.Context, tenantID, id int64, result []byte) (*model.Job, error)
	ScheduleRetry(ctx context.Context, tenantID, id int64, nextRetryAt time.Time, class model.ErrorClass, message string) (*model.Job, error)
	MoveToDLQ(ctx context.Context, tenantID, id int64, class model.ErrorClass, message string) (*model.Job, error)
	ListByStatus(ctx context.Context, tenantID int64, status model.JobStatus, limit int32) ([]model.Job, error)
	ListStaleProcessing(ctx context.Context, claimedBefore time.Time, limit int32) ([]model.Job, error)
}

type DLQStore interface {
	Create(ctx context.Context, entry *model.DLQEntry) (*model.DLQEntry, error)
	GetByID(ctx context.Context, tenantID, id int64) (*model.DLQEntry, error)
	GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*model.DLQEntry, error)
	MarkReprocessing(ctx context.Context, tenantID, id int64, user string, notes *string, jobID int64) (*model.DLQEntry, error)
	MarkDiscarded(ctx context.Context, tenantID, id int64, user string, notes *string) (*model.DLQEntry, error)
	// Resolve closes an entry whose replay completed. Returns false when the
	// entry was not reprocessing.
	Resolve(ctx context.Context, tenantID, id int64) (bool, error)
	List(ctx context.Context, tenantID int64, status *model.DLQStatus, limit int32) ([]model.DLQEntry, error)
}

type AuditStore interface {
	Create(ctx context.Context, event *model.AuditEvent) (*model.AuditEvent, error)
	ListForSubject(ctx context.Context, tenantID int64, subjectType model.AuditSubject, subjectID int64) ([]model.AuditEvent, error)
}
