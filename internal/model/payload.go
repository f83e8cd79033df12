package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PayloadVersion is the schema version written by this build.
const PayloadVersion = 1

var ErrPayloadMismatch = errors.New("payload does not match job")

// JobPayload is the versioned document stored in job_queue.payload. Kind
// selects which one of the variant fields is set.
type JobPayload struct {
	Version        int                 `json:"version" jsonschema:"minimum=1"`
	Kind           JobType             `json:"kind" jsonschema:"enum=email.ingest,enum=email.remap"`
	TenantID       int64               `json:"tenant_id" jsonschema:"minimum=1"`
	CorrelationID  string              `json:"correlation_id" jsonschema:"minLength=1"`
	IdempotencyKey string              `json:"idempotency_key" jsonschema:"minLength=1,maxLength=255"`
	EmailIngest    *EmailIngestPayload `json:"email_ingest,omitempty"`
	EmailRemap     *EmailRemapPayload  `json:"email_remap,omitempty"`
}

// EmailIngestPayload asks the worker to fetch a message from the provider,
// or to ingest the attached raw MIME document when RawMIME is set.
type EmailIngestPayload struct {
	ConnectionID      int64  `json:"connection_id" jsonschema:"minimum=1"`
	ExternalMessageID string `json:"external_message_id,omitempty"`
	RawMIME           []byte `json:"raw_mime,omitempty"`
}

type EmailRemapPayload struct {
	ArtifactID int64 `json:"artifact_id" jsonschema:"minimum=1"`
}

// Validate checks the variant matches Kind and that the payload belongs to
// the given tenant and idempotency key.
func (p *JobPayload) Validate(tenantID int64, idempotencyKey string) error {
	if p.Version < 1 || p.Version > PayloadVersion {
		return fmt.Errorf("unsupported payload version %d", p.Version)
	}
	if p.TenantID != tenantID {
		return fmt.Errorf("%w: tenant %d != %d", ErrPayloadMismatch, p.TenantID, tenantID)
	}
	if p.IdempotencyKey == "" || p.IdempotencyKey != idempotencyKey {
		return fmt.Errorf("%w: idempotency key", ErrPayloadMismatch)
	}
	if p.CorrelationID == "" {
		return errors.New("payload correlation_id is required")
	}

	switch p.Kind {
	case JobTypeEmailIngest:
		if p.EmailIngest == nil || p.EmailRemap != nil {
			return fmt.Errorf("payload kind %s requires exactly the email_ingest variant", p.Kind)
		}
		if p.EmailIngest.ExternalMessageID == "" && len(p.EmailIngest.RawMIME) == 0 {
			return errors.New("email_ingest needs external_message_id or raw_mime")
		}
	case JobTypeEmailRemap:
		if p.EmailRemap == nil || p.EmailIngest != nil {
			return fmt.Errorf("payload kind %s requires exactly the email_remap variant", p.Kind)
		}
	default:
		return fmt.Errorf("unknown payload kind %q", p.Kind)
	}
	return nil
}

func DecodeJobPayload(raw json.RawMessage) (*JobPayload, error) {
	var p JobPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode job payload: %w", err)
	}
	return &p, nil
}

// WithIdempotencyKey returns raw with only its idempotency_key replaced.
// Every other member is carried over byte for byte.
func WithIdempotencyKey(raw json.RawMessage, key string) (json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode payload document: %w", err)
	}
	encoded, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}
	doc["idempotency_key"] = encoded
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode payload document: %w", err)
	}
	return out, nil
}
