package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"firmdesk.app/intake/internal/model"
)

// Ingester is the part of service.IngestionService the job handlers use.
type Ingester interface {
	IngestFromProvider(ctx context.Context, tenantID, connectionID int64, externalMessageID, correlationID string) (*model.EmailArtifact, error)
	IngestRaw(ctx context.Context, tenantID, connectionID int64, raw []byte, correlationID string) (*model.EmailArtifact, error)
	Remap(ctx context.Context, tenantID, artifactID int64, correlationID string) (*model.EmailArtifact, error)
}

type artifactResult struct {
	ArtifactID int64                `json:"artifact_id"`
	Status     model.ArtifactStatus `json:"status"`
	Confidence float64              `json:"mapping_confidence"`
}

// Handlers returns the handler for every job type this service runs.
func Handlers(ingestion Ingester) map[model.JobType]Handler {
	return map[model.JobType]Handler{
		model.JobTypeEmailIngest: NewIngestHandler(ingestion),
		model.JobTypeEmailRemap:  NewRemapHandler(ingestion),
	}
}

// NewIngestHandler ingests the attached raw document when present and
// otherwise fetches the message from the connection's provider.
func NewIngestHandler(ingestion Ingester) Handler {
	return HandlerFunc(func(ctx context.Context, job *model.Job, payload *model.JobPayload) (json.RawMessage, error) {
		p := payload.EmailIngest
		var (
			artifact *model.EmailArtifact
			err      error
		)
		if len(p.RawMIME) > 0 {
			artifact, err = ingestion.IngestRaw(ctx, job.TenantID, p.ConnectionID, p.RawMIME, payload.CorrelationID)
		} else {
			artifact, err = ingestion.IngestFromProvider(ctx, job.TenantID, p.ConnectionID, p.ExternalMessageID, payload.CorrelationID)
		}
		if err != nil {
			return nil, fmt.Errorf("ingesting email: %w", err)
		}
		return encodeResult(artifact)
	})
}

func NewRemapHandler(ingestion Ingester) Handler {
	return HandlerFunc(func(ctx context.Context, job *model.Job, payload *model.JobPayload) (json.RawMessage, error) {
		artifact, err := ingestion.Remap(ctx, job.TenantID, payload.EmailRemap.ArtifactID, payload.CorrelationID)
		if err != nil {
			return nil, fmt.Errorf("remapping email: %w", err)
		}
		return encodeResult(artifact)
	})
}

func encodeResult(a *model.EmailArtifact) (json.RawMessage, error) {
	raw, err := json.Marshal(artifactResult{
		ArtifactID: a.ID,
		Status:     a.Status,
		Confidence: a.MappingConfidence,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding job result: %w", err)
	}
	return raw, nil
}
