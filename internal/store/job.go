package store

import (
	"context"
	"errors"
	"time"

	"firmdesk.app/intake/core/db/sqlc"
	"firmdesk.app/intake/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type jobStore struct {
	queries *sqlc.Queries
}

func newJobStore(queries *sqlc.Queries) JobStore {
	return &jobStore{queries: queries}
}

func (s *jobStore) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	row, err := s.queries.CreateJob(ctx, sqlc.CreateJobParams{
		ID:             job.ID,
		TenantID:       job.TenantID,
		Category:       string(job.Category),
		JobType:        string(job.JobType),
		Payload:        job.Payload,
		IdempotencyKey: job.IdempotencyKey,
		Priority:       job.Priority,
		ScheduledAt:    timeToPgTimestamptz(&job.ScheduledAt),
		MaxAttempts:    job.MaxAttempts,
		DlqSourceID:    job.DLQSourceID,
	})
	if err != nil {
		return nil, translate(err)
	}
	return toJobModel(row), nil
}

func (s *jobStore) GetByID(ctx context.Context, tenantID, id int64) (*model.Job, error) {
	row, err := s.queries.GetJob(ctx, sqlc.GetJobParams{TenantID: tenantID, ID: id})
	if err != nil {
		return nil, translate(err)
	}
	return toJobModel(row), nil
}

func (s *jobStore) GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*model.Job, error) {
	row, err := s.queries.GetJobForUpdate(ctx, sqlc.GetJobForUpdateParams{TenantID: tenantID, ID: id})
	if err != nil {
		return nil, translate(err)
	}
	return toJobModel(row), nil
}

func (s *jobStore) Claim(ctx context.Context, tenantID, id int64, workerID string) (bool, *model.Job, error) {
	row, err := s.queries.ClaimJob(ctx, sqlc.ClaimJobParams{
		TenantID: tenantID,
		ID:       id,
		WorkerID: workerID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// not pending, or locked by another claimer
			return false, nil, nil
		}
		return false, nil, err
	}
	return true, toJobModel(row), nil
}

func (s *jobStore) ClaimNext(ctx context.Context, workerID string) (*model.Job, error) {
	row, err := s.queries.ClaimNextJob(ctx, workerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return toJobModel(row), nil
}

func (s *jobStore) Complete(ctx context.Context, tenantID, id int64, result []byte) (*model.Job, error) {
	row, err := s.queries.CompleteJob(ctx, sqlc.CompleteJobParams{
		TenantID: tenantID,
		ID:       id,
		Result:   result,
	})
	if err != nil {
		return nil, stateError(err)
	}
	return toJobModel(row), nil
}

func (s *jobStore) ScheduleRetry(ctx context.Context, tenantID, id int64, nextRetryAt time.Time, class model.ErrorClass, message string) (*model.Job, error) {
	row, err := s.queries.ScheduleJobRetry(ctx, sqlc.ScheduleJobRetryParams{
		TenantID:    tenantID,
		ID:          id,
		NextRetryAt: pgtype.Timestamptz{Time: nextRetryAt, Valid: true},
		ErrorClass:  strPtr(string(class)),
		LastError:   strPtr(message),
	})
	if err != nil {
		return nil, stateError(err)
	}
	return toJobModel(row), nil
}

func (s *jobStore) MoveToDLQ(ctx context.Context, tenantID, id int64, class model.ErrorClass, message string) (*model.Job, error) {
	row, err := s.queries.MoveJobToDLQ(ctx, sqlc.MoveJobToDLQParams{
		TenantID:   tenantID,
		ID:         id,
		ErrorClass: strPtr(string(class)),
		LastError:  strPtr(message),
	})
	if err != nil {
		return nil, stateError(err)
	}
	return toJobModel(row), nil
}

func (s *jobStore) ListByStatus(ctx context.Context, tenantID int64, status model.JobStatus, limit int32) ([]model.Job, error) {
	rows, err := s.queries.ListJobsByStatus(ctx, sqlc.ListJobsByStatusParams{
		TenantID: tenantID,
		Status:   string(status),
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	return toJobModels(rows), nil
}

func (s *jobStore) ListStaleProcessing(ctx context.Context, claimedBefore time.Time, limit int32) ([]model.Job, error) {
	rows, err := s.queries.ListStaleProcessingJobs(ctx, sqlc.ListStaleProcessingJobsParams{
		ClaimedBefore: pgtype.Timestamptz{Time: claimedBefore, Valid: true},
		RowLimit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return toJobModels(rows), nil
}

// stateError reports a status-guarded update that matched nothing.
func stateError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStateConflict
	}
	return translate(err)
}

func toJobModel(row sqlc.JobQueue) *model.Job {
	var class *model.ErrorClass
	if row.ErrorClass != nil {
		c := model.ErrorClass(*row.ErrorClass)
		class = &c
	}
	return &model.Job{
		ID:             row.ID,
		TenantID:       row.TenantID,
		Category:       model.JobCategory(row.Category),
		JobType:        model.JobType(row.JobType),
		Payload:        row.Payload,
		IdempotencyKey: row.IdempotencyKey,
		Status:         model.JobStatus(row.Status),
		Priority:       row.Priority,
		ScheduledAt:    row.ScheduledAt.Time,
		ClaimedBy:      row.ClaimedBy,
		ClaimedAt:      pgTimestamptzToPtr(row.ClaimedAt),
		StartedAt:      pgTimestamptzToPtr(row.StartedAt),
		CompletedAt:    pgTimestamptzToPtr(row.CompletedAt),
		AttemptCount:   row.AttemptCount,
		MaxAttempts:    row.MaxAttempts,
		NextRetryAt:    pgTimestamptzToPtr(row.NextRetryAt),
		ErrorClass:     class,
		LastError:      row.LastError,
		Result:         row.Result,
		DLQSourceID:    row.DlqSourceID,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

func toJobModels(rows []sqlc.JobQueue) []model.Job {
	result := make([]model.Job, len(rows))
	for i, row := range rows {
		result[i] = *toJobModel(row)
	}
	return result
}
