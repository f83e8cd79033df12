package store

import (
	"context"
	"time"

	"firmdesk.app/intake/core/db/sqlc"
	"firmdesk.app/intake/internal/model"
)

type ingestionAttemptStore struct {
	queries *sqlc.Queries
}

func newIngestionAttemptStore(queries *sqlc.Queries) IngestionAttemptStore {
	return &ingestionAttemptStore{queries: queries}
}

func (s *ingestionAttemptStore) Create(ctx context.Context, a *model.IngestionAttempt) (*model.IngestionAttempt, error) {
	var class *string
	if a.ErrorClass != nil {
		class = strPtr(string(*a.ErrorClass))
	}
	row, err := s.queries.CreateIngestionAttempt(ctx, sqlc.CreateIngestionAttemptParams{
		ID:                a.ID,
		TenantID:          a.TenantID,
		ConnectionID:      a.ConnectionID,
		ArtifactID:        a.ArtifactID,
		ExternalMessageID: a.ExternalMessageID,
		Operation:         string(a.Operation),
		Status:            string(a.Status),
		ErrorClass:        class,
		ErrorSummary:      a.ErrorSummary,
		RetryCount:        a.RetryCount,
		NextRetryAt:       timeToPgTimestamptz(a.NextRetryAt),
		CorrelationID:     a.CorrelationID,
		DurationMs:        a.DurationMs,
	})
	if err != nil {
		return nil, translate(err)
	}
	return toIngestionAttemptModel(row), nil
}

func (s *ingestionAttemptStore) ListForArtifact(ctx context.Context, tenantID, artifactID int64) ([]model.IngestionAttempt, error) {
	rows, err := s.queries.ListIngestionAttemptsForArtifact(ctx, sqlc.ListIngestionAttemptsForArtifactParams{
		TenantID:   tenantID,
		ArtifactID: &artifactID,
	})
	if err != nil {
		return nil, err
	}
	return toIngestionAttemptModels(rows), nil
}

func (s *ingestionAttemptStore) ListForMessage(ctx context.Context, tenantID, connectionID int64, externalMessageID string) ([]model.IngestionAttempt, error) {
	rows, err := s.queries.ListIngestionAttemptsForMessage(ctx, sqlc.ListIngestionAttemptsForMessageParams{
		TenantID:          tenantID,
		ConnectionID:      connectionID,
		ExternalMessageID: externalMessageID,
	})
	if err != nil {
		return nil, err
	}
	return toIngestionAttemptModels(rows), nil
}

func (s *ingestionAttemptStore) SetNextRetry(ctx context.Context, tenantID int64, correlationID string, retryCount int32, nextRetryAt time.Time) (int64, error) {
	return s.queries.SetIngestionAttemptNextRetry(ctx, sqlc.SetIngestionAttemptNextRetryParams{
		NextRetryAt:   timeToPgTimestamptz(&nextRetryAt),
		TenantID:      tenantID,
		CorrelationID: correlationID,
		RetryCount:    retryCount,
	})
}

func toIngestionAttemptModel(row sqlc.EmailIngestionAttempt) *model.IngestionAttempt {
	var class *model.ErrorClass
	if row.ErrorClass != nil {
		c := model.ErrorClass(*row.ErrorClass)
		class = &c
	}
	return &model.IngestionAttempt{
		ID:                row.ID,
		TenantID:          row.TenantID,
		ConnectionID:      row.ConnectionID,
		ArtifactID:        row.ArtifactID,
		ExternalMessageID: row.ExternalMessageID,
		Operation:         model.AttemptOperation(row.Operation),
		Status:            model.AttemptStatus(row.Status),
		ErrorClass:        class,
		ErrorSummary:      row.ErrorSummary,
		RetryCount:        row.RetryCount,
		NextRetryAt:       pgTimestamptzToPtr(row.NextRetryAt),
		CorrelationID:     row.CorrelationID,
		DurationMs:        row.DurationMs,
		CreatedAt:         row.CreatedAt.Time,
	}
}

func toIngestionAttemptModels(rows []sqlc.EmailIngestionAttempt) []model.IngestionAttempt {
	result := make([]model.IngestionAttempt, len(rows))
	for i, row := range rows {
		result[i] = *toIngestionAttemptModel(row)
	}
	return result
}
