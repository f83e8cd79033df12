package dto

import (
	"time"

	"firmdesk.app/intake/internal/model"
)

type IngestEmailRequest struct {
	ConnectionID      int64      `json:"connection_id" binding:"required"`
	ExternalMessageID string     `json:"external_message_id" binding:"required"`
	ThreadID          *string    `json:"thread_id,omitempty"`
	From              string     `json:"from_address" binding:"required"`
	To                []string   `json:"to_addresses,omitempty"`
	Cc                []string   `json:"cc_addresses,omitempty"`
	Subject           string     `json:"subject"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	ReceivedAt        time.Time  `json:"received_at" binding:"required"`
	BodyPreview       string     `json:"body_preview"`
	CorrelationID     string     `json:"correlation_id,omitempty"`
}

type ConfirmMappingRequest struct {
	AccountID       int64  `json:"account_id" binding:"required"`
	EngagementID    *int64 `json:"engagement_id,omitempty"`
	WorkItemID      *int64 `json:"work_item_id,omitempty"`
	ExpectedVersion *int32 `json:"expected_version,omitempty"`
}

type IgnoreEmailRequest struct {
	Reason          string `json:"reason" binding:"required"`
	ExpectedVersion *int32 `json:"expected_version,omitempty"`
}

type EmailArtifactResponse struct {
	ID                int64                `json:"id"`
	TenantID          int64                `json:"tenant_id"`
	ConnectionID      int64                `json:"connection_id"`
	Provider          model.Provider       `json:"provider"`
	ExternalMessageID string               `json:"external_message_id"`
	ThreadID          *string              `json:"thread_id,omitempty"`
	FromAddress       string               `json:"from_address"`
	Subject           string               `json:"subject"`
	ReceivedAt        time.Time            `json:"received_at"`
	Status            model.ArtifactStatus `json:"status"`
	Suggested         model.MappingTargets `json:"suggested"`
	MappingConfidence float64              `json:"mapping_confidence"`
	MappingReasons    string               `json:"mapping_reasons"`
	Confirmed         model.MappingTargets `json:"confirmed"`
	ConfirmedBy       *string              `json:"confirmed_by,omitempty"`
	IgnoredReason     *string              `json:"ignored_reason,omitempty"`
	Version           int32                `json:"version"`
}

func NewEmailArtifactResponse(a *model.EmailArtifact) EmailArtifactResponse {
	return EmailArtifactResponse{
		ID:                a.ID,
		TenantID:          a.TenantID,
		ConnectionID:      a.ConnectionID,
		Provider:          a.Provider,
		ExternalMessageID: a.ExternalMessageID,
		ThreadID:          a.ThreadID,
		FromAddress:       a.FromAddress,
		Subject:           a.Subject,
		ReceivedAt:        a.ReceivedAt,
		Status:            a.Status,
		Suggested:         a.Suggested,
		MappingConfidence: a.MappingConfidence,
		MappingReasons:    a.MappingReasons,
		Confirmed:         a.Confirmed,
		ConfirmedBy:       a.ConfirmedBy,
		IgnoredReason:     a.IgnoredReason,
		Version:           a.Version,
	}
}

type RemapEmailResponse struct {
	JobID      int64 `json:"job_id,omitempty"`
	Duplicated bool  `json:"duplicated"`
}
