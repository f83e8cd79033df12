package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"firmdesk.app/intake/common/id"
	"firmdesk.app/intake/common/logger"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/queue"
	"firmdesk.app/intake/internal/store"
)

const (
	DefaultMaxBackoff   = 300 * time.Second
	defaultListLimit    = 50
	maxListLimit        = 500
	defaultReclaimBatch = 100
)

type JobsConfig struct {
	MaxBackoff         time.Duration
	DefaultMaxAttempts int32
	ReclaimBatch       int32
}

type EnqueueParams struct {
	JobType     model.JobType
	Category    model.JobCategory // defaults to the job type's category
	Payload     *model.JobPayload
	Priority    *int32
	ScheduledAt *time.Time
	MaxAttempts int32
}

// FailureParams describes a failed run. ShouldRetry=false dead-letters the
// job regardless of attempts left.
type FailureParams struct {
	ErrorClass  model.ErrorClass
	Message     string
	ShouldRetry bool
	RetryAfter  time.Duration
}

// FailureOutcome reports where MarkFailed left the job.
type FailureOutcome struct {
	Job         *model.Job
	Status      model.JobStatus
	NextRetryAt *time.Time
	DLQEntry    *model.DLQEntry
}

type JobService interface {
	Enqueue(ctx context.Context, tenantID int64, params EnqueueParams) (*model.Job, error)
	ClaimForProcessing(ctx context.Context, tenantID, jobID int64, workerID string) (bool, error)
	ClaimNext(ctx context.Context, workerID string) (*model.Job, error)
	MarkCompleted(ctx context.Context, tenantID, jobID int64, result json.RawMessage) (*model.Job, error)
	MarkFailed(ctx context.Context, tenantID, jobID int64, params FailureParams) (*FailureOutcome, error)
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error)
	Get(ctx context.Context, tenantID, jobID int64) (*model.Job, error)
	ListByStatus(ctx context.Context, tenantID int64, status model.JobStatus, limit int32) ([]model.Job, error)
}

type jobService struct {
	stores   StoreProvider
	txRunner TxRunner
	notifier queue.Notifier
	cfg      JobsConfig
	now      func() time.Time
	jitter   func() float64
	logger   *slog.Logger
}

func NewJobService(stores StoreProvider, txRunner TxRunner, notifier queue.Notifier, cfg JobsConfig, logger *slog.Logger) JobService {
	return newJobService(stores, txRunner, notifier, cfg, logger)
}

func newJobService(stores StoreProvider, txRunner TxRunner, notifier queue.Notifier, cfg JobsConfig, logger *slog.Logger) *jobService {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = queue.NewNopNotifier()
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.DefaultMaxAttempts <= 0 {
		cfg.DefaultMaxAttempts = model.DefaultMaxAttempts
	}
	if cfg.ReclaimBatch <= 0 {
		cfg.ReclaimBatch = defaultReclaimBatch
	}
	return &jobService{
		stores:   stores,
		txRunner: txRunner,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		jitter:   func() float64 { return 0.8 + 0.4*rand.Float64() },
		logger:   logger,
	}
}

func (s *jobService) Enqueue(ctx context.Context, tenantID int64, params EnqueueParams) (*model.Job, error) {
	if params.Payload == nil {
		return nil, fmt.Errorf("%w: payload is required", ErrInvalidPayload)
	}

	payload := *params.Payload
	if payload.Version == 0 {
		payload.Version = model.PayloadVersion
	}
	if payload.Kind == "" {
		payload.Kind = params.JobType
	}
	if payload.CorrelationID == "" {
		payload.CorrelationID = id.NewCorrelationID()
	}
	if payload.Kind != params.JobType {
		return nil, fmt.Errorf("%w: kind %q does not match job type %q", ErrInvalidPayload, payload.Kind, params.JobType)
	}
	key := strings.TrimSpace(payload.IdempotencyKey)
	if key == "" {
		return nil, fmt.Errorf("%w: idempotency_key is required", ErrInvalidPayload)
	}
	if err := payload.Validate(tenantID, key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	if err := model.ValidatePayloadDocument(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	now := s.now()
	job := &model.Job{
		ID:             id.New(),
		TenantID:       tenantID,
		Category:       params.Category,
		JobType:        params.JobType,
		Payload:        raw,
		IdempotencyKey: key,
		Priority:       model.DefaultJobPriority,
		ScheduledAt:    now,
		MaxAttempts:    params.MaxAttempts,
	}
	if job.Category == "" {
		job.Category = params.JobType.Category()
	}
	if params.Priority != nil {
		job.Priority = *params.Priority
	}
	if params.ScheduledAt != nil {
		job.ScheduledAt = *params.ScheduledAt
	}
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = s.cfg.DefaultMaxAttempts
	}

	created, err := s.stores.Jobs().Create(ctx, job)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrDuplicateJob
		}
		return nil, fmt.Errorf("creating job: %w", err)
	}

	s.logger.InfoContext(ctx, "job enqueued",
		"tenant_id", tenantID,
		"job_id", created.ID,
		"job_type", created.JobType,
		"correlation_id", payload.CorrelationID)

	if !created.ScheduledAt.After(now) {
		s.notifyReady(ctx, created)
	}
	return created, nil
}

func (s *jobService) ClaimForProcessing(ctx context.Context, tenantID, jobID int64, workerID string) (bool, error) {
	var claimed bool
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		var err error
		claimed, _, err = sp.Jobs().Claim(ctx, tenantID, jobID, workerID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("claiming job %d: %w", jobID, err)
	}
	return claimed, nil
}

func (s *jobService) ClaimNext(ctx context.Context, workerID string) (*model.Job, error) {
	var job *model.Job
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		var err error
		job, err = sp.Jobs().ClaimNext(ctx, workerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("claiming next job: %w", err)
	}
	return job, nil
}

func (s *jobService) MarkCompleted(ctx context.Context, tenantID, jobID int64, result json.RawMessage) (*model.Job, error) {
	var job *model.Job
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		var err error
		job, err = sp.Jobs().Complete(ctx, tenantID, jobID, result)
		if err != nil {
			if errors.Is(err, store.ErrStateConflict) {
				return ErrJobNotClaimed
			}
			return fmt.Errorf("completing job: %w", err)
		}

		if job.DLQSourceID != nil {
			resolved, err := sp.DLQ().Resolve(ctx, tenantID, *job.DLQSourceID)
			if err != nil {
				return fmt.Errorf("resolving dlq entry %d: %w", *job.DLQSourceID, err)
			}
			if resolved {
				s.logger.InfoContext(ctx, "dlq entry resolved by replay", "dlq_id", *job.DLQSourceID, "job_id", jobID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) MarkFailed(ctx context.Context, tenantID, jobID int64, params FailureParams) (*FailureOutcome, error) {
	class := params.ErrorClass
	if !class.Valid() {
		class = model.ErrorClassRetryable
	}
	message := logger.Redact(params.Message)

	var outcome FailureOutcome
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		job, err := sp.Jobs().GetByIDForUpdate(ctx, tenantID, jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrJobNotFound
			}
			return fmt.Errorf("locking job: %w", err)
		}
		if job.Status != model.JobStatusProcessing {
			return ErrJobNotClaimed
		}

		if !params.ShouldRetry || job.Exhausted() || class == model.ErrorClassNonRetryable {
			entry, err := sp.DLQ().Create(ctx, &model.DLQEntry{
				ID:             id.New(),
				TenantID:       tenantID,
				OriginalJobID:  job.ID,
				Category:       job.Category,
				JobType:        job.JobType,
				Payload:        job.Payload,
				IdempotencyKey: job.IdempotencyKey,
				ErrorClass:     class,
				ErrorMessage:   message,
				AttemptCount:   job.AttemptCount,
				MaxAttempts:    job.MaxAttempts,
			})
			if err != nil {
				return fmt.Errorf("creating dlq entry: %w", err)
			}
			moved, err := sp.Jobs().MoveToDLQ(ctx, tenantID, jobID, class, message)
			if err != nil {
				return fmt.Errorf("moving job to dlq: %w", err)
			}
			outcome = FailureOutcome{Job: moved, Status: model.JobStatusDLQ, DLQEntry: entry}
			return nil
		}

		next := s.now().Add(s.backoff(job.AttemptCount, class, params.RetryAfter))
		retried, err := sp.Jobs().ScheduleRetry(ctx, tenantID, jobID, next, class, message)
		if err != nil {
			return fmt.Errorf("scheduling retry: %w", err)
		}
		outcome = FailureOutcome{Job: retried, Status: model.JobStatusPending, NextRetryAt: &next}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.DLQEntry != nil {
		s.logger.WarnContext(ctx, "job dead-lettered",
			"tenant_id", tenantID,
			"job_id", jobID,
			"dlq_id", outcome.DLQEntry.ID,
			"error_class", class,
			"attempt_count", outcome.DLQEntry.AttemptCount)
		if err := s.notifier.DeadLettered(ctx, queue.DeadLettered{
			DLQID:        outcome.DLQEntry.ID,
			JobID:        jobID,
			TenantID:     tenantID,
			JobType:      outcome.DLQEntry.JobType,
			ErrorClass:   class,
			AttemptCount: outcome.DLQEntry.AttemptCount,
			TraceID:      logger.TraceID(ctx),
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to publish dlq alert", "dlq_id", outcome.DLQEntry.ID, "error", err)
		}
	} else {
		s.logger.InfoContext(ctx, "job scheduled for retry",
			"tenant_id", tenantID,
			"job_id", jobID,
			"error_class", class,
			"next_retry_at", outcome.NextRetryAt)
		s.stampAttempts(ctx, outcome.Job, *outcome.NextRetryAt)
	}
	return &outcome, nil
}

// stampAttempts copies the scheduled retry onto the failed ingestion
// attempts of the run that just ended. The attempt log is informational,
// so errors are only logged.
func (s *jobService) stampAttempts(ctx context.Context, job *model.Job, next time.Time) {
	payload, err := job.DecodePayload()
	if err != nil || payload.CorrelationID == "" {
		return
	}
	if _, err := s.stores.Attempts().SetNextRetry(ctx, job.TenantID, payload.CorrelationID, job.RetryCount(), next); err != nil {
		s.logger.WarnContext(ctx, "failed to stamp retry on ingestion attempts", "job_id", job.ID, "error", err)
	}
}

// backoff is min(2^attempts seconds with ±20% jitter, MaxBackoff). Rate
// limited failures wait at least as long as the provider asked.
func (s *jobService) backoff(attempts int32, class model.ErrorClass, retryAfter time.Duration) time.Duration {
	exp := math.Pow(2, float64(max(attempts, 0)))
	delay := time.Duration(exp * s.jitter() * float64(time.Second))
	if delay > s.cfg.MaxBackoff || delay < 0 {
		delay = s.cfg.MaxBackoff
	}
	if class == model.ErrorClassRateLimited && retryAfter > delay {
		delay = retryAfter
	}
	return delay
}

// ReclaimStale fails jobs whose claim outlived olderThan, so a crashed
// worker's jobs retry or dead-letter like any other transient failure.
func (s *jobService) ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	jobs, err := s.stores.Jobs().ListStaleProcessing(ctx, cutoff, s.cfg.ReclaimBatch)
	if err != nil {
		return 0, fmt.Errorf("listing stale jobs: %w", err)
	}

	reclaimed := 0
	for _, job := range jobs {
		claimedBy := ""
		if job.ClaimedBy != nil {
			claimedBy = *job.ClaimedBy
		}
		_, err := s.MarkFailed(ctx, job.TenantID, job.ID, FailureParams{
			ErrorClass:  model.ErrorClassTransient,
			Message:     fmt.Sprintf("claim by %s expired", claimedBy),
			ShouldRetry: true,
		})
		if err != nil {
			if errors.Is(err, ErrJobNotClaimed) {
				continue
			}
			return reclaimed, fmt.Errorf("reclaiming job %d: %w", job.ID, err)
		}
		reclaimed++
	}

	if reclaimed > 0 {
		s.logger.WarnContext(ctx, "reclaimed stale jobs", "count", reclaimed, "cutoff", cutoff)
	}
	return reclaimed, nil
}

func (s *jobService) Get(ctx context.Context, tenantID, jobID int64) (*model.Job, error) {
	job, err := s.stores.Jobs().GetByID(ctx, tenantID, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("fetching job: %w", err)
	}
	return job, nil
}

func (s *jobService) ListByStatus(ctx context.Context, tenantID int64, status model.JobStatus, limit int32) ([]model.Job, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown job status %q", status)
	}
	jobs, err := s.stores.Jobs().ListByStatus(ctx, tenantID, status, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, nil
}

func (s *jobService) notifyReady(ctx context.Context, job *model.Job) {
	if err := s.notifier.JobReady(ctx, queue.JobReady{
		JobID:    job.ID,
		TenantID: job.TenantID,
		JobType:  job.JobType,
		Priority: job.Priority,
		TraceID:  logger.TraceID(ctx),
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish job notification", "job_id", job.ID, "error", err)
	}
}

func clampLimit(limit int32) int32 {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
