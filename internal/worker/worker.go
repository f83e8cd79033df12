package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"firmdesk.app/intake/common/logger"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/queue"
	"firmdesk.app/intake/internal/service"
)

var ErrUnknownJobType = errors.New("no handler for job type")

type Config struct {
	ID        string
	BatchSize int
	// ErrorBackoff is the pause after a failed claim before polling again.
	ErrorBackoff time.Duration
}

// Worker claims due jobs from the database queue and runs them. Between
// batches it blocks on the listener, which returns early when a job-ready
// notification arrives.
type Worker struct {
	jobs     JobQueue
	listener queue.Listener
	handlers map[model.JobType]Handler
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(jobs JobQueue, listener queue.Listener, handlers map[model.JobType]Handler, cfg Config) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Worker{
		jobs:      jobs,
		listener:  listener,
		handlers:  handlers,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkerID:  &w.cfg.ID,
		Component: "intake.worker",
	})

	// Stop interrupts the wait between batches but never a running job.
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-waitCtx.Done():
		}
	}()

	slog.InfoContext(ctx, "worker started", "batch_size", w.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
		}

		processed, err := w.processOneBatch(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "batch processing error", "error", err)
			w.sleep(waitCtx, w.cfg.ErrorBackoff)
			continue
		}
		if processed == w.cfg.BatchSize {
			continue
		}

		hints, err := w.listener.Wait(waitCtx)
		if err != nil && waitCtx.Err() == nil {
			slog.WarnContext(ctx, "waiting for job notifications failed", "error", err)
			w.sleep(waitCtx, w.cfg.ErrorBackoff)
		}
		if len(hints) > 0 {
			slog.DebugContext(ctx, "job notifications received", "count", len(hints))
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

// processOneBatch claims and runs up to BatchSize jobs, stopping early when
// the queue has nothing due.
func (w *Worker) processOneBatch(ctx context.Context) (int, error) {
	for i := 0; i < w.cfg.BatchSize; i++ {
		job, err := w.jobs.ClaimNext(ctx, w.cfg.ID)
		if err != nil {
			return i, fmt.Errorf("claiming job: %w", err)
		}
		if job == nil {
			return i, nil
		}
		w.ProcessJob(ctx, job)
	}
	return w.cfg.BatchSize, nil
}

// ProcessJob runs a claimed job and records the outcome.
func (w *Worker) ProcessJob(ctx context.Context, job *model.Job) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TenantID: &job.TenantID,
		JobID:    &job.ID,
	})

	payload, err := job.DecodePayload()
	if err == nil {
		err = payload.Validate(job.TenantID, job.IdempotencyKey)
	}
	if err != nil {
		w.fail(ctx, job, model.NewJobError(model.ErrorClassNonRetryable, fmt.Errorf("invalid payload: %w", err)))
		return
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{CorrelationID: &payload.CorrelationID})

	// Correlation ids minted from an HTTP span are trace ids; continue that trace.
	sc := logger.StartSpanFromTraceID(ctx, payload.CorrelationID, "worker.process_job",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()
	sc.Span().SetAttributes(
		attribute.String("intake.job_type", string(job.JobType)),
		attribute.Int64("intake.job_id", job.ID),
		attribute.Int64("intake.attempt", int64(job.AttemptCount)),
	)

	slog.InfoContext(ctx, "processing job",
		"job_type", job.JobType,
		"attempt", job.AttemptCount,
		"max_attempts", job.MaxAttempts)

	ctx = service.WithJobRun(ctx, service.JobRun{JobID: job.ID, RetryCount: job.RetryCount()})
	start := time.Now()
	result, err := w.runSafe(ctx, job, payload)
	if err != nil {
		sc.RecordError(err)
		w.fail(ctx, job, err)
		return
	}

	if _, err := w.jobs.MarkCompleted(ctx, job.TenantID, job.ID, result); err != nil {
		if errors.Is(err, service.ErrJobNotClaimed) {
			slog.WarnContext(ctx, "job was reclaimed before it completed")
			return
		}
		slog.ErrorContext(ctx, "failed to mark job completed", "error", err)
		return
	}

	slog.InfoContext(ctx, "job completed", "duration_ms", time.Since(start).Milliseconds())
}

func (w *Worker) runSafe(ctx context.Context, job *model.Job, payload *model.JobPayload) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in job handler", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	handler, ok := w.handlers[job.JobType]
	if !ok {
		return nil, model.NewJobError(model.ErrorClassNonRetryable, fmt.Errorf("%w: %s", ErrUnknownJobType, job.JobType))
	}
	return handler.Handle(ctx, job, payload)
}

func (w *Worker) fail(ctx context.Context, job *model.Job, cause error) {
	class := model.ClassOf(cause)
	outcome, err := w.jobs.MarkFailed(ctx, job.TenantID, job.ID, service.FailureParams{
		ErrorClass:  class,
		Message:     cause.Error(),
		ShouldRetry: class != model.ErrorClassNonRetryable,
		RetryAfter:  model.RetryAfterOf(cause),
	})
	if err != nil {
		if errors.Is(err, service.ErrJobNotClaimed) {
			slog.WarnContext(ctx, "job was reclaimed before it failed", "cause", cause)
			return
		}
		slog.ErrorContext(ctx, "failed to record job failure", "error", err, "cause", cause)
		return
	}

	slog.WarnContext(ctx, "job failed",
		"error", cause,
		"error_class", class,
		"status", outcome.Status,
		"next_retry_at", outcome.NextRetryAt)
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
