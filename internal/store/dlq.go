package store

import (
	"context"

	"firmdesk.app/intake/core/db/sqlc"
	"firmdesk.app/intake/internal/model"
)

type dlqStore struct {
	queries *sqlc.Queries
}

func newDLQStore(queries *sqlc.Queries) DLQStore {
	return &dlqStore{queries: queries}
}

func (s *dlqStore) Create(ctx context.Context, e *model.DLQEntry) (*model.DLQEntry, error) {
	row, err := s.queries.CreateJobDLQEntry(ctx, sqlc.CreateJobDLQEntryParams{
		ID:             e.ID,
		TenantID:       e.TenantID,
		OriginalJobID:  e.OriginalJobID,
		Category:       string(e.Category),
		JobType:        string(e.JobType),
		Payload:        e.Payload,
		IdempotencyKey: e.IdempotencyKey,
		ErrorClass:     string(e.ErrorClass),
		ErrorMessage:   e.ErrorMessage,
		AttemptCount:   e.AttemptCount,
		MaxAttempts:    e.MaxAttempts,
	})
	if err != nil {
		return nil, translate(err)
	}
	return toDLQModel(row), nil
}

func (s *dlqStore) GetByID(ctx context.Context, tenantID, id int64) (*model.DLQEntry, error) {
	row, err := s.queries.GetJobDLQEntry(ctx, sqlc.GetJobDLQEntryParams{TenantID: tenantID, ID: id})
	if err != nil {
		return nil, translate(err)
	}
	return toDLQModel(row), nil
}

func (s *dlqStore) GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*model.DLQEntry, error) {
	row, err := s.queries.GetJobDLQEntryForUpdate(ctx, sqlc.GetJobDLQEntryForUpdateParams{TenantID: tenantID, ID: id})
	if err != nil {
		return nil, translate(err)
	}
	return toDLQModel(row), nil
}

func (s *dlqStore) MarkReprocessing(ctx context.Context, tenantID, id int64, user string, notes *string, jobID int64) (*model.DLQEntry, error) {
	row, err := s.queries.MarkJobDLQReprocessing(ctx, sqlc.MarkJobDLQReprocessingParams{
		TenantID:         tenantID,
		ID:               id,
		ReprocessedBy:    strPtr(user),
		ReprocessNotes:   notes,
		ReprocessedJobID: &jobID,
	})
	if err != nil {
		return nil, stateError(err)
	}
	return toDLQModel(row), nil
}

func (s *dlqStore) MarkDiscarded(ctx context.Context, tenantID, id int64, user string, notes *string) (*model.DLQEntry, error) {
	row, err := s.queries.MarkJobDLQDiscarded(ctx, sqlc.MarkJobDLQDiscardedParams{
		TenantID:       tenantID,
		ID:             id,
		DiscardedBy:    strPtr(user),
		ReprocessNotes: notes,
	})
	if err != nil {
		return nil, stateError(err)
	}
	return toDLQModel(row), nil
}

func (s *dlqStore) Resolve(ctx context.Context, tenantID, id int64) (bool, error) {
	n, err := s.queries.ResolveJobDLQEntry(ctx, sqlc.ResolveJobDLQEntryParams{TenantID: tenantID, ID: id})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *dlqStore) List(ctx context.Context, tenantID int64, status *model.DLQStatus, limit int32) ([]model.DLQEntry, error) {
	var statusFilter *string
	if status != nil {
		statusFilter = strPtr(string(*status))
	}
	rows, err := s.queries.ListJobDLQEntries(ctx, sqlc.ListJobDLQEntriesParams{
		TenantID: tenantID,
		Status:   statusFilter,
		RowLimit: limit,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.DLQEntry, len(rows))
	for i, row := range rows {
		result[i] = *toDLQModel(row)
	}
	return result, nil
}

func toDLQModel(row sqlc.JobDlq) *model.DLQEntry {
	return &model.DLQEntry{
		ID:               row.ID,
		TenantID:         row.TenantID,
		OriginalJobID:    row.OriginalJobID,
		Category:         model.JobCategory(row.Category),
		JobType:          model.JobType(row.JobType),
		Payload:          row.Payload,
		IdempotencyKey:   row.IdempotencyKey,
		ErrorClass:       model.ErrorClass(row.ErrorClass),
		ErrorMessage:     row.ErrorMessage,
		AttemptCount:     row.AttemptCount,
		MaxAttempts:      row.MaxAttempts,
		Status:           model.DLQStatus(row.Status),
		ReprocessedBy:    row.ReprocessedBy,
		ReprocessedAt:    pgTimestamptzToPtr(row.ReprocessedAt),
		ReprocessNotes:   row.ReprocessNotes,
		ReprocessedJobID: row.ReprocessedJobID,
		DiscardedBy:      row.DiscardedBy,
		DiscardedAt:      pgTimestamptzToPtr(row.DiscardedAt),
		ResolvedAt:       pgTimestamptzToPtr(row.ResolvedAt),
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}
}
