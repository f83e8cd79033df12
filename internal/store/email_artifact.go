package store

import (
	"context"
	"errors"

	"firmdesk.app/intake/core/db/sqlc"
	"firmdesk.app/intake/internal/model"
	"github.com/jackc/pgx/v5"
)

type emailArtifactStore struct {
	queries *sqlc.Queries
}

func newEmailArtifactStore(queries *sqlc.Queries) EmailArtifactStore {
	return &emailArtifactStore{queries: queries}
}

func (s *emailArtifactStore) CreateOrGet(ctx context.Context, a *model.EmailArtifact) (*model.EmailArtifact, bool, error) {
	row, err := s.queries.InsertEmailArtifact(ctx, sqlc.InsertEmailArtifactParams{
		ID:                a.ID,
		TenantID:          a.TenantID,
		ConnectionID:      a.ConnectionID,
		Provider:          string(a.Provider),
		ExternalMessageID: a.ExternalMessageID,
		ThreadID:          a.ThreadID,
		FromAddress:       a.FromAddress,
		ToAddresses:       nonNil(a.ToAddresses),
		CcAddresses:       nonNil(a.CcAddresses),
		Subject:           a.Subject,
		SentAt:            timeToPgTimestamptz(a.SentAt),
		ReceivedAt:        timeToPgTimestamptz(&a.ReceivedAt),
		BodyPreview:       model.TruncatePreview(a.BodyPreview),
	})
	if err == nil {
		return toEmailArtifactModel(row), true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, translate(err)
	}

	// ON CONFLICT DO NOTHING returned no row: somebody else stored it first.
	existing, err := s.GetByExternalID(ctx, a.ConnectionID, a.ExternalMessageID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *emailArtifactStore) GetByID(ctx context.Context, tenantID, id int64) (*model.EmailArtifact, error) {
	row, err := s.queries.GetEmailArtifact(ctx, sqlc.GetEmailArtifactParams{
		TenantID: tenantID,
		ID:       id,
	})
	if err != nil {
		return nil, translate(err)
	}
	return toEmailArtifactModel(row), nil
}

func (s *emailArtifactStore) GetByExternalID(ctx context.Context, connectionID int64, externalMessageID string) (*model.EmailArtifact, error) {
	row, err := s.queries.GetEmailArtifactByExternalID(ctx, sqlc.GetEmailArtifactByExternalIDParams{
		ConnectionID:      connectionID,
		ExternalMessageID: externalMessageID,
	})
	if err != nil {
		return nil, translate(err)
	}
	return toEmailArtifactModel(row), nil
}

func (s *emailArtifactStore) ListThread(ctx context.Context, tenantID int64, threadID string, excludeID int64) ([]model.EmailArtifact, error) {
	rows, err := s.queries.ListThreadArtifacts(ctx, sqlc.ListThreadArtifactsParams{
		TenantID:  tenantID,
		ThreadID:  threadID,
		ExcludeID: excludeID,
	})
	if err != nil {
		return nil, err
	}
	return toEmailArtifactModels(rows), nil
}

func (s *emailArtifactStore) UpdateMapping(ctx context.Context, a *model.EmailArtifact, expectedVersion int32) (*model.EmailArtifact, error) {
	row, err := s.queries.UpdateEmailArtifactMapping(ctx, sqlc.UpdateEmailArtifactMappingParams{
		Status:                string(a.Status),
		SuggestedAccountID:    a.Suggested.AccountID,
		SuggestedEngagementID: a.Suggested.EngagementID,
		SuggestedWorkItemID:   a.Suggested.WorkItemID,
		MappingConfidence:     a.MappingConfidence,
		MappingReasons:        a.MappingReasons,
		ConfirmedAccountID:    a.Confirmed.AccountID,
		ConfirmedEngagementID: a.Confirmed.EngagementID,
		ConfirmedWorkItemID:   a.Confirmed.WorkItemID,
		ConfirmedBy:           a.ConfirmedBy,
		ConfirmedAt:           timeToPgTimestamptz(a.ConfirmedAt),
		TenantID:              a.TenantID,
		ID:                    a.ID,
		ExpectedVersion:       expectedVersion,
	})
	if err != nil {
		return nil, casError(err)
	}
	return toEmailArtifactModel(row), nil
}

func (s *emailArtifactStore) ConfirmMapping(ctx context.Context, tenantID, id int64, targets model.MappingTargets, user string, expectedVersion int32) (*model.EmailArtifact, error) {
	row, err := s.queries.ConfirmEmailArtifactMapping(ctx, sqlc.ConfirmEmailArtifactMappingParams{
		ConfirmedAccountID:    targets.AccountID,
		ConfirmedEngagementID: targets.EngagementID,
		ConfirmedWorkItemID:   targets.WorkItemID,
		ConfirmedBy:           strPtr(user),
		TenantID:              tenantID,
		ID:                    id,
		ExpectedVersion:       expectedVersion,
	})
	if err != nil {
		return nil, casError(err)
	}
	return toEmailArtifactModel(row), nil
}

func (s *emailArtifactStore) MarkIgnored(ctx context.Context, tenantID, id int64, reason, user string, expectedVersion int32) (*model.EmailArtifact, error) {
	row, err := s.queries.IgnoreEmailArtifact(ctx, sqlc.IgnoreEmailArtifactParams{
		IgnoredReason:   strPtr(reason),
		IgnoredBy:       strPtr(user),
		TenantID:        tenantID,
		ID:              id,
		ExpectedVersion: expectedVersion,
	})
	if err != nil {
		return nil, casError(err)
	}
	return toEmailArtifactModel(row), nil
}

// casError reports a missed version-guarded update as ErrVersionMismatch.
// Callers load the row first, so a missing row here means it moved on.
func casError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrVersionMismatch
	}
	return translate(err)
}

func toEmailArtifactModel(row sqlc.EmailArtifact) *model.EmailArtifact {
	return &model.EmailArtifact{
		ID:                row.ID,
		TenantID:          row.TenantID,
		ConnectionID:      row.ConnectionID,
		Provider:          model.Provider(row.Provider),
		ExternalMessageID: row.ExternalMessageID,
		ThreadID:          row.ThreadID,
		FromAddress:       row.FromAddress,
		ToAddresses:       row.ToAddresses,
		CcAddresses:       row.CcAddresses,
		Subject:           row.Subject,
		SentAt:            pgTimestamptzToPtr(row.SentAt),
		ReceivedAt:        row.ReceivedAt.Time,
		BodyPreview:       row.BodyPreview,
		Status:            model.ArtifactStatus(row.Status),
		Suggested: model.MappingTargets{
			AccountID:    row.SuggestedAccountID,
			EngagementID: row.SuggestedEngagementID,
			WorkItemID:   row.SuggestedWorkItemID,
		},
		MappingConfidence: row.MappingConfidence,
		MappingReasons:    row.MappingReasons,
		Confirmed: model.MappingTargets{
			AccountID:    row.ConfirmedAccountID,
			EngagementID: row.ConfirmedEngagementID,
			WorkItemID:   row.ConfirmedWorkItemID,
		},
		ConfirmedBy:   row.ConfirmedBy,
		ConfirmedAt:   pgTimestamptzToPtr(row.ConfirmedAt),
		IgnoredReason: row.IgnoredReason,
		IgnoredBy:     row.IgnoredBy,
		IgnoredAt:     pgTimestamptzToPtr(row.IgnoredAt),
		Version:       row.Version,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}

func toEmailArtifactModels(rows []sqlc.EmailArtifact) []model.EmailArtifact {
	result := make([]model.EmailArtifact, len(rows))
	for i, row := range rows {
		result[i] = *toEmailArtifactModel(row)
	}
	return result
}
