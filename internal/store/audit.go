package store

import (
	"context"

	"firmdesk.app/intake/core/db/sqlc"
	"firmdesk.app/intake/internal/model"
)

type auditStore struct {
	queries *sqlc.Queries
}

func newAuditStore(queries *sqlc.Queries) AuditStore {
	return &auditStore{queries: queries}
}

func (s *auditStore) Create(ctx context.Context, ev *model.AuditEvent) (*model.AuditEvent, error) {
	row, err := s.queries.CreateAuditEvent(ctx, sqlc.CreateAuditEventParams{
		ID:          ev.ID,
		TenantID:    ev.TenantID,
		Actor:       ev.Actor,
		Action:      string(ev.Action),
		SubjectType: string(ev.SubjectType),
		SubjectID:   ev.SubjectID,
		BeforeState: ev.Before,
		AfterState:  ev.After,
		Notes:       ev.Notes,
	})
	if err != nil {
		return nil, translate(err)
	}
	return toAuditModel(row), nil
}

func (s *auditStore) ListForSubject(ctx context.Context, tenantID int64, subjectType model.AuditSubject, subjectID int64) ([]model.AuditEvent, error) {
	rows, err := s.queries.ListAuditEventsForSubject(ctx, sqlc.ListAuditEventsForSubjectParams{
		TenantID:    tenantID,
		SubjectType: string(subjectType),
		SubjectID:   subjectID,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.AuditEvent, len(rows))
	for i, row := range rows {
		result[i] = *toAuditModel(row)
	}
	return result, nil
}

func toAuditModel(row sqlc.AuditEvent) *model.AuditEvent {
	return &model.AuditEvent{
		ID:          row.ID,
		TenantID:    row.TenantID,
		Actor:       row.Actor,
		Action:      model.AuditAction(row.Action),
		SubjectType: model.AuditSubject(row.SubjectType),
		SubjectID:   row.SubjectID,
		Before:      row.BeforeState,
		After:       row.AfterState,
		Notes:       row.Notes,
		CreatedAt:   row.CreatedAt.Time,
	}
}
