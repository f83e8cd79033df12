package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"firmdesk.app/intake/common/id"
	"firmdesk.app/intake/common/logger"
	"firmdesk.app/intake/internal/mapping"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/provider"
	"firmdesk.app/intake/internal/store"
)

// SystemActor confirms mappings that cleared the auto-map threshold.
const SystemActor = "system"

type IngestParams struct {
	ConnectionID      int64      `json:"connection_id"`
	ExternalMessageID string     `json:"external_message_id"`
	ThreadID          *string    `json:"thread_id,omitempty"`
	From              string     `json:"from_address"`
	To                []string   `json:"to_addresses,omitempty"`
	Cc                []string   `json:"cc_addresses,omitempty"`
	Subject           string     `json:"subject"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	ReceivedAt        time.Time  `json:"received_at"`
	BodyPreview       string     `json:"body_preview"`
	CorrelationID     string     `json:"correlation_id,omitempty"`
}

func (p IngestParams) validate() error {
	switch {
	case p.ConnectionID <= 0:
		return fmt.Errorf("%w: connection_id is required", ErrInvalidIngest)
	case strings.TrimSpace(p.ExternalMessageID) == "":
		return fmt.Errorf("%w: external_message_id is required", ErrInvalidIngest)
	case strings.TrimSpace(p.From) == "":
		return fmt.Errorf("%w: from_address is required", ErrInvalidIngest)
	case p.ReceivedAt.IsZero():
		return fmt.Errorf("%w: received_at is required", ErrInvalidIngest)
	}
	return nil
}

// ConfirmParams is a staff correction. A nil ExpectedVersion means "the
// version I just read".
type ConfirmParams struct {
	Targets         model.MappingTargets
	ExpectedVersion *int32
	User            string
}

type IngestionService interface {
	IngestEmail(ctx context.Context, tenantID int64, params IngestParams) (*model.EmailArtifact, error)
	IngestFromProvider(ctx context.Context, tenantID, connectionID int64, externalMessageID, correlationID string) (*model.EmailArtifact, error)
	IngestRaw(ctx context.Context, tenantID, connectionID int64, raw []byte, correlationID string) (*model.EmailArtifact, error)
	Remap(ctx context.Context, tenantID, artifactID int64, correlationID string) (*model.EmailArtifact, error)
	ConfirmMapping(ctx context.Context, tenantID, artifactID int64, params ConfirmParams) (*model.EmailArtifact, error)
	MarkIgnored(ctx context.Context, tenantID, artifactID int64, reason, user string, expectedVersion *int32) (*model.EmailArtifact, error)
	GetArtifact(ctx context.Context, tenantID, artifactID int64) (*model.EmailArtifact, error)
	ListAttempts(ctx context.Context, tenantID, artifactID int64) ([]model.IngestionAttempt, error)
}

// ProviderRegistry resolves the strategy for a connection's provider.
type ProviderRegistry interface {
	Get(kind model.Provider) (provider.Provider, error)
}

type ingestionService struct {
	stores    StoreProvider
	txRunner  TxRunner
	mapper    mapping.Mapper
	providers ProviderRegistry
	now       func() time.Time
	logger    *slog.Logger
}

func NewIngestionService(stores StoreProvider, txRunner TxRunner, mapper mapping.Mapper, providers ProviderRegistry, logger *slog.Logger) IngestionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ingestionService{
		stores:    stores,
		txRunner:  txRunner,
		mapper:    mapper,
		providers: providers,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *ingestionService) IngestEmail(ctx context.Context, tenantID int64, params IngestParams) (*model.EmailArtifact, error) {
	if err := params.validate(); err != nil {
		return nil, permanent(err)
	}
	if params.CorrelationID == "" {
		params.CorrelationID = id.NewCorrelationID()
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TenantID:      &tenantID,
		ConnectionID:  &params.ConnectionID,
		CorrelationID: &params.CorrelationID,
		Component:     "intake.service.ingestion",
	})

	conn, err := s.ingestConnection(ctx, tenantID, params.ConnectionID)
	if err != nil {
		return nil, err
	}
	return s.ingest(ctx, conn, params)
}

func (s *ingestionService) IngestFromProvider(ctx context.Context, tenantID, connectionID int64, externalMessageID, correlationID string) (*model.EmailArtifact, error) {
	if correlationID == "" {
		correlationID = id.NewCorrelationID()
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TenantID:      &tenantID,
		ConnectionID:  &connectionID,
		CorrelationID: &correlationID,
		Component:     "intake.service.ingestion",
	})

	if strings.TrimSpace(externalMessageID) == "" {
		return nil, permanent(fmt.Errorf("%w: external_message_id is required", ErrInvalidIngest))
	}
	conn, err := s.ingestConnection(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}

	// Already stored messages are not fetched again.
	start := s.now()
	existing, err := s.stores.Artifacts().GetByExternalID(ctx, conn.ID, externalMessageID)
	if err == nil {
		s.logSuccess(ctx, conn, existing, model.AttemptOperationFetch, correlationID, start)
		if existing.Unmapped() {
			return s.resumeMapping(ctx, conn, existing, correlationID), nil
		}
		return existing, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up artifact: %w", err)
	}

	p, err := s.providers.Get(conn.Provider)
	if err != nil {
		s.logFailure(ctx, conn, nil, externalMessageID, model.AttemptOperationFetch, correlationID, start, err)
		return nil, err
	}
	raw, err := p.Fetch(ctx, conn, externalMessageID)
	if err != nil {
		s.logFailure(ctx, conn, nil, externalMessageID, model.AttemptOperationFetch, correlationID, start, err)
		return nil, fmt.Errorf("fetching message: %w", err)
	}

	start = s.now()
	email, err := p.Normalize(raw)
	if err != nil {
		s.logFailure(ctx, conn, nil, externalMessageID, model.AttemptOperationParse, correlationID, start, err)
		return nil, fmt.Errorf("normalizing message: %w", err)
	}

	return s.ingest(ctx, conn, paramsFromInbound(conn.ID, email, correlationID))
}

func (s *ingestionService) IngestRaw(ctx context.Context, tenantID, connectionID int64, raw []byte, correlationID string) (*model.EmailArtifact, error) {
	if correlationID == "" {
		correlationID = id.NewCorrelationID()
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TenantID:      &tenantID,
		ConnectionID:  &connectionID,
		CorrelationID: &correlationID,
		Component:     "intake.service.ingestion",
	})

	if len(raw) == 0 {
		return nil, permanent(fmt.Errorf("%w: raw message is empty", ErrInvalidIngest))
	}
	conn, err := s.ingestConnection(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}

	start := s.now()
	p, err := s.providers.Get(conn.Provider)
	if err != nil {
		s.logFailure(ctx, conn, nil, "", model.AttemptOperationParse, correlationID, start, err)
		return nil, err
	}
	email, err := p.Normalize(raw)
	if err != nil {
		s.logFailure(ctx, conn, nil, "", model.AttemptOperationParse, correlationID, start, err)
		return nil, fmt.Errorf("normalizing message: %w", err)
	}

	return s.ingest(ctx, conn, paramsFromInbound(conn.ID, email, correlationID))
}

// ingest stores the message once and runs mapping on first sight.
func (s *ingestionService) ingest(ctx context.Context, conn *model.EmailConnection, params IngestParams) (*model.EmailArtifact, error) {
	if err := params.validate(); err != nil {
		return nil, permanent(err)
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: &params.ExternalMessageID})

	start := s.now()
	candidate := &model.EmailArtifact{
		ID:                id.New(),
		TenantID:          conn.TenantID,
		ConnectionID:      conn.ID,
		Provider:          conn.Provider,
		ExternalMessageID: params.ExternalMessageID,
		ThreadID:          params.ThreadID,
		FromAddress:       strings.ToLower(strings.TrimSpace(params.From)),
		ToAddresses:       nonNilStrings(params.To),
		CcAddresses:       nonNilStrings(params.Cc),
		Subject:           params.Subject,
		SentAt:            params.SentAt,
		ReceivedAt:        params.ReceivedAt,
		BodyPreview:       model.TruncatePreview(params.BodyPreview),
		Status:            model.ArtifactStatusIngested,
	}

	artifact, created, err := s.stores.Artifacts().CreateOrGet(ctx, candidate)
	if err != nil {
		s.logFailure(ctx, conn, nil, params.ExternalMessageID, model.AttemptOperationFetch, params.CorrelationID, start, err)
		return nil, fmt.Errorf("storing artifact: %w", err)
	}
	// The artifact is committed at this point; a lost log row must not
	// keep it from mapping.
	s.logSuccess(ctx, conn, artifact, model.AttemptOperationFetch, params.CorrelationID, start)
	if !created && !artifact.Unmapped() {
		s.logger.InfoContext(ctx, "duplicate email deduped", "artifact_id", artifact.ID)
		return artifact, nil
	}
	return s.resumeMapping(ctx, conn, artifact, params.CorrelationID), nil
}

// resumeMapping maps an artifact that has never been mapped. A mapping
// failure leaves it ingested, and the next delivery of the same message
// picks it up again.
func (s *ingestionService) resumeMapping(ctx context.Context, conn *model.EmailConnection, artifact *model.EmailArtifact, correlationID string) *model.EmailArtifact {
	mapped, err := s.applyMapping(ctx, conn, artifact, correlationID)
	if err != nil {
		s.logger.WarnContext(ctx, "mapping failed, artifact left ingested", "artifact_id", artifact.ID, "error", err)
		return artifact
	}
	return mapped
}

// applyMapping runs extraction and staleness detection and persists the
// outcome, logging a map attempt either way.
func (s *ingestionService) applyMapping(ctx context.Context, conn *model.EmailConnection, artifact *model.EmailArtifact, correlationID string) (*model.EmailArtifact, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{ArtifactID: &artifact.ID})
	start := s.now()

	updated, err := s.mapArtifact(ctx, artifact)
	if err != nil {
		s.logFailure(ctx, conn, &artifact.ID, artifact.ExternalMessageID, model.AttemptOperationMap, correlationID, start, err)
		return nil, err
	}
	if err := s.recordAttempt(ctx, conn, &updated.ID, updated.ExternalMessageID, model.AttemptOperationMap, correlationID, start, nil); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "email mapped",
		"status", updated.Status,
		"confidence", updated.MappingConfidence)
	return updated, nil
}

func (s *ingestionService) mapArtifact(ctx context.Context, artifact *model.EmailArtifact) (*model.EmailArtifact, error) {
	result, err := s.mapper.Map(ctx, artifact.TenantID, artifact)
	if err != nil {
		return nil, fmt.Errorf("mapping artifact: %w", err)
	}

	next := *artifact
	next.Suggested = result.Suggestion.Targets
	next.MappingConfidence = result.Assessment.Confidence
	next.MappingReasons = result.Reason()
	next.Status = result.Status
	if result.AutoConfirm {
		now := s.now()
		actor := SystemActor
		next.Confirmed = result.Suggestion.Targets
		next.ConfirmedBy = &actor
		next.ConfirmedAt = &now
	}

	updated, err := s.stores.Artifacts().UpdateMapping(ctx, &next, artifact.Version)
	if err != nil {
		if errors.Is(err, store.ErrVersionMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrStaleVersion, err)
		}
		return nil, fmt.Errorf("saving mapping: %w", err)
	}
	return updated, nil
}

func (s *ingestionService) Remap(ctx context.Context, tenantID, artifactID int64, correlationID string) (*model.EmailArtifact, error) {
	if correlationID == "" {
		correlationID = id.NewCorrelationID()
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TenantID:      &tenantID,
		ArtifactID:    &artifactID,
		CorrelationID: &correlationID,
		Component:     "intake.service.ingestion",
	})

	artifact, err := s.GetArtifact(ctx, tenantID, artifactID)
	if err != nil {
		return nil, err
	}
	if !artifact.Remappable() {
		s.logger.DebugContext(ctx, "artifact settled, remap skipped", "status", artifact.Status)
		return artifact, nil
	}

	conn, err := s.connection(ctx, tenantID, artifact.ConnectionID)
	if err != nil {
		return nil, err
	}
	return s.applyMapping(ctx, conn, artifact, correlationID)
}

func (s *ingestionService) ConfirmMapping(ctx context.Context, tenantID, artifactID int64, params ConfirmParams) (*model.EmailArtifact, error) {
	if strings.TrimSpace(params.User) == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidCorrection)
	}
	if params.Targets.IsEmpty() {
		return nil, fmt.Errorf("%w: account, engagement or work item is required", ErrInvalidCorrection)
	}

	var result *model.EmailArtifact
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		before, err := sp.Artifacts().GetByID(ctx, tenantID, artifactID)
		if err != nil {
			return artifactError(err)
		}
		expected := before.Version
		if params.ExpectedVersion != nil {
			expected = *params.ExpectedVersion
		}

		after, err := sp.Artifacts().ConfirmMapping(ctx, tenantID, artifactID, params.Targets, params.User, expected)
		if err != nil {
			return artifactError(err)
		}

		if err := recordAudit(ctx, sp.Audit(), auditEntry{
			TenantID:    tenantID,
			Actor:       params.User,
			Action:      model.AuditActionMappingConfirmed,
			SubjectType: model.AuditSubjectEmailArtifact,
			SubjectID:   artifactID,
			Before:      before.MappingState(),
			After:       after.MappingState(),
		}); err != nil {
			return err
		}

		result = after
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "mapping confirmed", "tenant_id", tenantID, "artifact_id", artifactID, "user", params.User)
	return result, nil
}

func (s *ingestionService) MarkIgnored(ctx context.Context, tenantID, artifactID int64, reason, user string, expectedVersion *int32) (*model.EmailArtifact, error) {
	if strings.TrimSpace(user) == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidCorrection)
	}

	var result *model.EmailArtifact
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		before, err := sp.Artifacts().GetByID(ctx, tenantID, artifactID)
		if err != nil {
			return artifactError(err)
		}
		expected := before.Version
		if expectedVersion != nil {
			expected = *expectedVersion
		}

		after, err := sp.Artifacts().MarkIgnored(ctx, tenantID, artifactID, reason, user, expected)
		if err != nil {
			return artifactError(err)
		}

		var notes *string
		if reason != "" {
			notes = &reason
		}
		if err := recordAudit(ctx, sp.Audit(), auditEntry{
			TenantID:    tenantID,
			Actor:       user,
			Action:      model.AuditActionArtifactIgnored,
			SubjectType: model.AuditSubjectEmailArtifact,
			SubjectID:   artifactID,
			Before:      before.MappingState(),
			After:       after.MappingState(),
			Notes:       notes,
		}); err != nil {
			return err
		}

		result = after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ingestionService) GetArtifact(ctx context.Context, tenantID, artifactID int64) (*model.EmailArtifact, error) {
	artifact, err := s.stores.Artifacts().GetByID(ctx, tenantID, artifactID)
	if err != nil {
		return nil, artifactError(err)
	}
	return artifact, nil
}

func (s *ingestionService) ListAttempts(ctx context.Context, tenantID, artifactID int64) ([]model.IngestionAttempt, error) {
	if _, err := s.GetArtifact(ctx, tenantID, artifactID); err != nil {
		return nil, err
	}
	attempts, err := s.stores.Attempts().ListForArtifact(ctx, tenantID, artifactID)
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	return attempts, nil
}

// connection loads the connection and checks it belongs to the tenant.
func (s *ingestionService) connection(ctx context.Context, tenantID, connectionID int64) (*model.EmailConnection, error) {
	conn, err := s.stores.Connections().GetByID(ctx, connectionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, permanent(ErrConnectionNotFound)
		}
		return nil, fmt.Errorf("fetching connection: %w", err)
	}
	if conn.TenantID != tenantID {
		s.logger.WarnContext(ctx, "connection tenant mismatch", "connection_tenant_id", conn.TenantID)
		return nil, permanent(ErrTenantMismatch)
	}
	return conn, nil
}

// ingestConnection is connection plus the check that the mailbox still
// accepts new mail.
func (s *ingestionService) ingestConnection(ctx context.Context, tenantID, connectionID int64) (*model.EmailConnection, error) {
	conn, err := s.connection(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.IsEnabled {
		return nil, permanent(ErrConnectionDisabled)
	}
	return conn, nil
}

func (s *ingestionService) logSuccess(ctx context.Context, conn *model.EmailConnection, artifact *model.EmailArtifact, op model.AttemptOperation, correlationID string, start time.Time) {
	if err := s.recordAttempt(ctx, conn, &artifact.ID, artifact.ExternalMessageID, op, correlationID, start, nil); err != nil {
		s.logger.ErrorContext(ctx, "failed to record ingestion attempt", "operation", op, "error", err)
	}
}

func (s *ingestionService) logFailure(ctx context.Context, conn *model.EmailConnection, artifactID *int64, externalMessageID string, op model.AttemptOperation, correlationID string, start time.Time, cause error) {
	if err := s.recordAttempt(ctx, conn, artifactID, externalMessageID, op, correlationID, start, cause); err != nil {
		s.logger.ErrorContext(ctx, "failed to record ingestion attempt", "operation", op, "error", err, "cause", cause)
	}
}

func (s *ingestionService) recordAttempt(ctx context.Context, conn *model.EmailConnection, artifactID *int64, externalMessageID string, op model.AttemptOperation, correlationID string, start time.Time, cause error) error {
	attempt := &model.IngestionAttempt{
		ID:                id.New(),
		TenantID:          conn.TenantID,
		ConnectionID:      conn.ID,
		ArtifactID:        artifactID,
		ExternalMessageID: externalMessageID,
		Operation:         op,
		Status:            model.AttemptStatusSuccess,
		CorrelationID:     correlationID,
		DurationMs:        s.now().Sub(start).Milliseconds(),
	}
	if run, ok := JobRunFrom(ctx); ok {
		attempt.RetryCount = run.RetryCount
	}
	if cause != nil {
		class := model.ClassOf(cause)
		summary := logger.Redact(cause.Error())
		attempt.Status = model.AttemptStatusFail
		attempt.ErrorClass = &class
		attempt.ErrorSummary = &summary
		if after := model.RetryAfterOf(cause); after > 0 {
			next := s.now().Add(after)
			attempt.NextRetryAt = &next
		}
	}

	if _, err := s.stores.Attempts().Create(ctx, attempt); err != nil {
		return fmt.Errorf("recording %s attempt: %w", op, err)
	}
	return nil
}

func artifactError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrArtifactNotFound
	case errors.Is(err, store.ErrVersionMismatch):
		return fmt.Errorf("%w: %w", ErrStaleVersion, err)
	default:
		return fmt.Errorf("artifact: %w", err)
	}
}

func paramsFromInbound(connectionID int64, email *provider.InboundEmail, correlationID string) IngestParams {
	return IngestParams{
		ConnectionID:      connectionID,
		ExternalMessageID: email.ExternalMessageID,
		ThreadID:          email.ThreadID,
		From:              email.From,
		To:                email.To,
		Cc:                email.Cc,
		Subject:           email.Subject,
		SentAt:            email.SentAt,
		ReceivedAt:        email.ReceivedAt,
		BodyPreview:       email.BodyPreview,
		CorrelationID:     correlationID,
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
