package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

type ArtifactStatus string

const (
	ArtifactStatusIngested ArtifactStatus = "ingested"
	ArtifactStatusMapped   ArtifactStatus = "mapped"
	ArtifactStatusTriage   ArtifactStatus = "triage"
	ArtifactStatusIgnored  ArtifactStatus = "ignored"
)

// MaxBodyPreviewLen bounds the stored body preview, in characters.
const MaxBodyPreviewLen = 2000

// MappingTargets are the CRM records an artifact is (or may be) filed under.
type MappingTargets struct {
	AccountID    *int64 `json:"account_id,omitempty"`
	EngagementID *int64 `json:"engagement_id,omitempty"`
	WorkItemID   *int64 `json:"work_item_id,omitempty"`
}

func (t MappingTargets) IsEmpty() bool {
	return t.AccountID == nil && t.EngagementID == nil && t.WorkItemID == nil
}

// EmailArtifact is one ingested message. (ConnectionID, ExternalMessageID)
// is unique.
type EmailArtifact struct {
	ID                int64          `json:"id"`
	TenantID          int64          `json:"tenant_id"`
	ConnectionID      int64          `json:"connection_id"`
	Provider          Provider       `json:"provider"`
	ExternalMessageID string         `json:"external_message_id"`
	ThreadID          *string        `json:"thread_id,omitempty"`
	FromAddress       string         `json:"from_address"`
	ToAddresses       []string       `json:"to_addresses"`
	CcAddresses       []string       `json:"cc_addresses"`
	Subject           string         `json:"subject"`
	SentAt            *time.Time     `json:"sent_at,omitempty"`
	ReceivedAt        time.Time      `json:"received_at"`
	BodyPreview       string         `json:"body_preview"`
	Status            ArtifactStatus `json:"status"`

	Suggested         MappingTargets `json:"suggested"`
	MappingConfidence float64        `json:"mapping_confidence"`
	MappingReasons    string         `json:"mapping_reasons"`

	Confirmed   MappingTargets `json:"confirmed"`
	ConfirmedBy *string        `json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time     `json:"confirmed_at,omitempty"`

	IgnoredReason *string    `json:"ignored_reason,omitempty"`
	IgnoredBy     *string    `json:"ignored_by,omitempty"`
	IgnoredAt     *time.Time `json:"ignored_at,omitempty"`

	Version   int32     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsConfirmed reports whether staff or auto-mapping settled the account.
func (a *EmailArtifact) IsConfirmed() bool {
	return a.Status == ArtifactStatusMapped && a.Confirmed.AccountID != nil
}

// Remappable reports whether automatic mapping may still change the artifact.
func (a *EmailArtifact) Remappable() bool {
	return a.Status == ArtifactStatusIngested || a.Status == ArtifactStatusTriage
}

// Unmapped reports whether mapping never completed for the artifact. Every
// mapping run stores a reason, even when no signal matched.
func (a *EmailArtifact) Unmapped() bool {
	return a.Status == ArtifactStatusIngested && a.MappingReasons == ""
}

// MappingState is the audit snapshot of an artifact's mapping.
type MappingState struct {
	Status            ArtifactStatus `json:"status"`
	Suggested         MappingTargets `json:"suggested"`
	MappingConfidence float64        `json:"mapping_confidence"`
	Confirmed         MappingTargets `json:"confirmed"`
	IgnoredReason     *string        `json:"ignored_reason,omitempty"`
	Version           int32          `json:"version"`
}

func (a *EmailArtifact) MappingState() MappingState {
	return MappingState{
		Status:            a.Status,
		Suggested:         a.Suggested,
		MappingConfidence: a.MappingConfidence,
		Confirmed:         a.Confirmed,
		IgnoredReason:     a.IgnoredReason,
		Version:           a.Version,
	}
}

// TruncatePreview cuts s to MaxBodyPreviewLen characters without splitting
// a multi-byte rune.
func TruncatePreview(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxBodyPreviewLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxBodyPreviewLen])
}
