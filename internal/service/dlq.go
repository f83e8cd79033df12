package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"firmdesk.app/intake/common/id"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/queue"
	"firmdesk.app/intake/internal/store"
)

type DLQService interface {
	Reprocess(ctx context.Context, tenantID, dlqID int64, user string, notes *string) (*model.Job, error)
	Discard(ctx context.Context, tenantID, dlqID int64, user string, notes *string) (*model.DLQEntry, error)
	Get(ctx context.Context, tenantID, dlqID int64) (*model.DLQEntry, error)
	List(ctx context.Context, tenantID int64, status *model.DLQStatus, limit int32) ([]model.DLQEntry, error)
}

type dlqService struct {
	stores      StoreProvider
	txRunner    TxRunner
	notifier    queue.Notifier
	maxAttempts int32
	now         func() time.Time
	logger      *slog.Logger
}

func NewDLQService(stores StoreProvider, txRunner TxRunner, notifier queue.Notifier, maxAttempts int32, logger *slog.Logger) DLQService {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = queue.NewNopNotifier()
	}
	if maxAttempts <= 0 {
		maxAttempts = model.DefaultMaxAttempts
	}
	return &dlqService{
		stores:      stores,
		txRunner:    txRunner,
		notifier:    notifier,
		maxAttempts: maxAttempts,
		now:         time.Now,
		logger:      logger,
	}
}

// dlqState is the audited view of an entry; the frozen payload is left out.
type dlqState struct {
	Status           model.DLQStatus  `json:"status"`
	ReprocessedJobID *int64           `json:"reprocessed_job_id,omitempty"`
	AttemptCount     int32            `json:"attempt_count"`
	MaxAttempts      int32            `json:"max_attempts"`
	ErrorClass       model.ErrorClass `json:"error_class"`
}

func stateOf(e *model.DLQEntry) dlqState {
	return dlqState{
		Status:           e.Status,
		ReprocessedJobID: e.ReprocessedJobID,
		AttemptCount:     e.AttemptCount,
		MaxAttempts:      e.MaxAttempts,
		ErrorClass:       e.ErrorClass,
	}
}

// RetryKey derives the idempotency key of a replay job.
func RetryKey(original string, at time.Time) string {
	return fmt.Sprintf("%s_retry_%d", original, at.Unix())
}

func (s *dlqService) Reprocess(ctx context.Context, tenantID, dlqID int64, user string, notes *string) (*model.Job, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user is required", ErrDLQNotReprocessable)
	}

	entry, err := s.stores.DLQ().GetByID(ctx, tenantID, dlqID)
	if err != nil {
		return nil, dlqError(err)
	}
	if !entry.CanReprocess() {
		return nil, fmt.Errorf("%w: status is %s", ErrDLQNotReprocessable, entry.Status)
	}

	// The request is committed on its own so a replay that fails below
	// still leaves a trail.
	if err := recordAudit(ctx, s.stores.Audit(), auditEntry{
		TenantID:    tenantID,
		Actor:       user,
		Action:      model.AuditActionReprocessRequested,
		SubjectType: model.AuditSubjectDLQEntry,
		SubjectID:   dlqID,
		Before:      stateOf(entry),
		Notes:       notes,
	}); err != nil {
		return nil, err
	}

	var job *model.Job
	err = s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		locked, err := sp.DLQ().GetByIDForUpdate(ctx, tenantID, dlqID)
		if err != nil {
			return dlqError(err)
		}
		if !locked.CanReprocess() {
			return fmt.Errorf("%w: status is %s", ErrDLQNotReprocessable, locked.Status)
		}

		now := s.now()
		key := RetryKey(locked.IdempotencyKey, now)
		payload, err := model.WithIdempotencyKey(locked.Payload, key)
		if err != nil {
			return fmt.Errorf("rewriting payload key: %w", err)
		}

		maxAttempts := locked.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = s.maxAttempts
		}
		sourceID := locked.ID
		job, err = sp.Jobs().Create(ctx, &model.Job{
			ID:             id.New(),
			TenantID:       tenantID,
			Category:       locked.Category,
			JobType:        locked.JobType,
			Payload:        payload,
			IdempotencyKey: key,
			Priority:       model.ReprocessJobPriority,
			ScheduledAt:    now,
			MaxAttempts:    maxAttempts,
			DLQSourceID:    &sourceID,
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrDuplicateJob
			}
			return fmt.Errorf("creating replay job: %w", err)
		}

		updated, err := sp.DLQ().MarkReprocessing(ctx, tenantID, dlqID, user, notes, job.ID)
		if err != nil {
			return dlqError(err)
		}

		return recordAudit(ctx, sp.Audit(), auditEntry{
			TenantID:    tenantID,
			Actor:       user,
			Action:      model.AuditActionReprocessSucceeded,
			SubjectType: model.AuditSubjectDLQEntry,
			SubjectID:   dlqID,
			Before:      stateOf(locked),
			After:       stateOf(updated),
			Notes:       notes,
		})
	})
	if err != nil {
		s.logger.WarnContext(ctx, "dlq reprocess failed",
			"tenant_id", tenantID,
			"dlq_id", dlqID,
			"user", user,
			"error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "dlq entry reprocessed",
		"tenant_id", tenantID,
		"dlq_id", dlqID,
		"job_id", job.ID,
		"user", user)

	if err := s.notifier.JobReady(ctx, queue.JobReady{
		JobID:    job.ID,
		TenantID: tenantID,
		JobType:  job.JobType,
		Priority: job.Priority,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish job notification", "job_id", job.ID, "error", err)
	}
	return job, nil
}

func (s *dlqService) Discard(ctx context.Context, tenantID, dlqID int64, user string, notes *string) (*model.DLQEntry, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user is required", ErrDLQNotDiscardable)
	}

	var result *model.DLQEntry
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		entry, err := sp.DLQ().GetByIDForUpdate(ctx, tenantID, dlqID)
		if err != nil {
			return dlqError(err)
		}
		if !entry.CanDiscard() {
			return fmt.Errorf("%w: status is %s", ErrDLQNotDiscardable, entry.Status)
		}

		updated, err := sp.DLQ().MarkDiscarded(ctx, tenantID, dlqID, user, notes)
		if err != nil {
			if errors.Is(err, store.ErrStateConflict) {
				return ErrDLQNotDiscardable
			}
			return dlqError(err)
		}

		if err := recordAudit(ctx, sp.Audit(), auditEntry{
			TenantID:    tenantID,
			Actor:       user,
			Action:      model.AuditActionDLQDiscarded,
			SubjectType: model.AuditSubjectDLQEntry,
			SubjectID:   dlqID,
			Before:      stateOf(entry),
			After:       stateOf(updated),
			Notes:       notes,
		}); err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "dlq entry discarded", "tenant_id", tenantID, "dlq_id", dlqID, "user", user)
	return result, nil
}

func (s *dlqService) Get(ctx context.Context, tenantID, dlqID int64) (*model.DLQEntry, error) {
	entry, err := s.stores.DLQ().GetByID(ctx, tenantID, dlqID)
	if err != nil {
		return nil, dlqError(err)
	}
	return entry, nil
}

func (s *dlqService) List(ctx context.Context, tenantID int64, status *model.DLQStatus, limit int32) ([]model.DLQEntry, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("unknown dlq status %q", *status)
	}
	entries, err := s.stores.DLQ().List(ctx, tenantID, status, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing dlq entries: %w", err)
	}
	return entries, nil
}

func dlqError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrDLQNotFound
	case errors.Is(err, store.ErrStateConflict):
		return ErrDLQNotReprocessable
	default:
		return fmt.Errorf("dlq entry: %w", err)
	}
}
