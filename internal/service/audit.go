package service

import (
	"context"
	"encoding/json"
	"fmt"

	"firmdesk.app/intake/common/id"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/store"
)

type auditEntry struct {
	TenantID    int64
	Actor       string
	Action      model.AuditAction
	SubjectType model.AuditSubject
	SubjectID   int64
	Before      any
	After       any
	Notes       *string
}

// recordAudit writes an audit event through the given store, usually bound
// to the transaction making the change.
func recordAudit(ctx context.Context, audits store.AuditStore, e auditEntry) error {
	before, err := marshalState(e.Before)
	if err != nil {
		return fmt.Errorf("marshal audit before: %w", err)
	}
	after, err := marshalState(e.After)
	if err != nil {
		return fmt.Errorf("marshal audit after: %w", err)
	}

	if _, err := audits.Create(ctx, &model.AuditEvent{
		ID:          id.New(),
		TenantID:    e.TenantID,
		Actor:       e.Actor,
		Action:      e.Action,
		SubjectType: e.SubjectType,
		SubjectID:   e.SubjectID,
		Before:      before,
		After:       after,
		Notes:       e.Notes,
	}); err != nil {
		return fmt.Errorf("recording audit %s: %w", e.Action, err)
	}
	return nil
}

func marshalState(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
