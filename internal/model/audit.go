package model

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditActionMappingConfirmed   AuditAction = "email.mapping.confirmed"
	AuditActionArtifactIgnored    AuditAction = "email.ignored"
	AuditActionReprocessRequested AuditAction = "dlq.reprocess.requested"
	AuditActionReprocessSucceeded AuditAction = "dlq.reprocess.succeeded"
	AuditActionDLQDiscarded       AuditAction = "dlq.discarded"
)

type AuditSubject string

const (
	AuditSubjectEmailArtifact AuditSubject = "email_artifact"
	AuditSubjectDLQEntry      AuditSubject = "job_dlq"
)

type AuditEvent struct {
	ID          int64           `json:"id"`
	TenantID    int64           `json:"tenant_id"`
	Actor       string          `json:"actor"`
	Action      AuditAction     `json:"action"`
	SubjectType AuditSubject    `json:"subject_type"`
	SubjectID   int64           `json:"subject_id"`
	Before      json.RawMessage `json:"before,omitempty"`
	After       json.RawMessage `json:"after,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
