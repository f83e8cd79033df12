package mapping

import (
	"context"
	"strings"

	"firmdesk.app/intake/internal/model"
)

// Result is the full outcome of mapping one artifact.
type Result struct {
	Suggestion  Suggestion
	Assessment  Assessment
	Status      model.ArtifactStatus
	AutoConfirm bool
}

// Reason is the combined signal and staleness explanation stored on the artifact.
func (r Result) Reason() string {
	if len(r.Assessment.Reasons) == 0 {
		return r.Suggestion.Reason()
	}
	return r.Suggestion.Reason() + reasonSeparator + strings.Join(r.Assessment.Reasons, reasonSeparator)
}

// Mapper runs extraction and staleness detection and decides the status.
type Mapper interface {
	Map(ctx context.Context, tenantID int64, artifact *model.EmailArtifact) (Result, error)
}

type mapper struct {
	extractor  *Extractor
	detector   *Detector
	thresholds ThresholdSource
}

func NewMapper(dir Directory, thresholds ThresholdSource, opts ...DetectorOption) Mapper {
	return &mapper{
		extractor:  NewExtractor(dir),
		detector:   NewDetector(dir, thresholds, opts...),
		thresholds: thresholds,
	}
}

func (m *mapper) Map(ctx context.Context, tenantID int64, artifact *model.EmailArtifact) (Result, error) {
	suggestion, err := m.extractor.Extract(ctx, tenantID, artifact)
	if err != nil {
		return Result{}, err
	}
	assessment, err := m.detector.Detect(ctx, tenantID, artifact, suggestion)
	if err != nil {
		return Result{}, err
	}
	status, auto := Decide(assessment, m.thresholds.For(tenantID))
	return Result{
		Suggestion:  suggestion,
		Assessment:  assessment,
		Status:      status,
		AutoConfirm: auto,
	}, nil
}

// Decide maps an assessment onto an artifact status. autoConfirm is true
// when the suggested targets should be copied to the confirmed ones.
func Decide(a Assessment, t Thresholds) (status model.ArtifactStatus, autoConfirm bool) {
	switch {
	case a.RequiresTriage:
		return model.ArtifactStatusTriage, false
	case a.Confidence >= t.AutoMap:
		return model.ArtifactStatusMapped, true
	case a.Confidence < t.Triage:
		return model.ArtifactStatusTriage, false
	default:
		return model.ArtifactStatusIngested, false
	}
}
