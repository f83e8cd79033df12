package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"firmdesk.app/intake/internal/http/dto"
	"firmdesk.app/intake/internal/http/middleware"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/service"
)

const maxRawMessageBytes = 10 << 20

type EmailHandler struct {
	ingestion   service.IngestionService
	jobs        service.JobService
	traceHeader string
}

func NewEmailHandler(ingestion service.IngestionService, jobs service.JobService, traceHeader string) *EmailHandler {
	return &EmailHandler{
		ingestion:   ingestion,
		jobs:        jobs,
		traceHeader: traceHeader,
	}
}

func (h *EmailHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID, ok := tenant(c)
	if !ok {
		return
	}

	var req dto.IngestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid ingest request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = h.correlationID(c)
	}

	artifact, err := h.ingestion.IngestEmail(ctx, tenantID, service.IngestParams{
		ConnectionID:      req.ConnectionID,
		ExternalMessageID: req.ExternalMessageID,
		ThreadID:          req.ThreadID,
		From:              req.From,
		To:                req.To,
		Cc:                req.Cc,
		Subject:           req.Subject,
		SentAt:            req.SentAt,
		ReceivedAt:        req.ReceivedAt,
		BodyPreview:       req.BodyPreview,
		CorrelationID:     correlationID,
	})
	if err != nil {
		respondError(c, err, "ingest email")
		return
	}

	c.JSON(http.StatusAccepted, dto.NewEmailArtifactResponse(artifact))
}

func (h *EmailHandler) IngestRaw(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID, ok := tenant(c)
	if !ok {
		return
	}

	connectionID, err := strconv.ParseInt(c.Query("connection_id"), 10, 64)
	if err != nil || connectionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "connection_id query parameter is required"})
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRawMessageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "message too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	artifact, err := h.ingestion.IngestRaw(ctx, tenantID, connectionID, raw, h.correlationID(c))
	if err != nil {
		respondError(c, err, "ingest raw email")
		return
	}

	c.JSON(http.StatusAccepted, dto.NewEmailArtifactResponse(artifact))
}

func (h *EmailHandler) Get(c *gin.Context) {
	tenantID, artifactID, ok := tenantAndID(c)
	if !ok {
		return
	}

	artifact, err := h.ingestion.GetArtifact(c.Request.Context(), tenantID, artifactID)
	if err != nil {
		respondError(c, err, "get email")
		return
	}
	c.JSON(http.StatusOK, dto.NewEmailArtifactResponse(artifact))
}

func (h *EmailHandler) ListAttempts(c *gin.Context) {
	tenantID, artifactID, ok := tenantAndID(c)
	if !ok {
		return
	}

	attempts, err := h.ingestion.ListAttempts(c.Request.Context(), tenantID, artifactID)
	if err != nil {
		respondError(c, err, "list attempts")
		return
	}
	if attempts == nil {
		attempts = []model.IngestionAttempt{}
	}
	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}

func (h *EmailHandler) Confirm(c *gin.Context) {
	tenantID, artifactID, ok := tenantAndID(c)
	if !ok {
		return
	}

	var req dto.ConfirmMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artifact, err := h.ingestion.ConfirmMapping(c.Request.Context(), tenantID, artifactID, service.ConfirmParams{
		Targets: model.MappingTargets{
			AccountID:    &req.AccountID,
			EngagementID: req.EngagementID,
			WorkItemID:   req.WorkItemID,
		},
		ExpectedVersion: req.ExpectedVersion,
		User:            middleware.GetUser(c.Request.Context()),
	})
	if err != nil {
		respondError(c, err, "confirm mapping")
		return
	}
	c.JSON(http.StatusOK, dto.NewEmailArtifactResponse(artifact))
}

func (h *EmailHandler) Ignore(c *gin.Context) {
	tenantID, artifactID, ok := tenantAndID(c)
	if !ok {
		return
	}

	var req dto.IgnoreEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artifact, err := h.ingestion.MarkIgnored(c.Request.Context(), tenantID, artifactID, req.Reason,
		middleware.GetUser(c.Request.Context()), req.ExpectedVersion)
	if err != nil {
		respondError(c, err, "ignore email")
		return
	}
	c.JSON(http.StatusOK, dto.NewEmailArtifactResponse(artifact))
}

// Remap enqueues an email.remap job. Repeat requests for the same artifact
// version collapse onto one job.
func (h *EmailHandler) Remap(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID, artifactID, ok := tenantAndID(c)
	if !ok {
		return
	}

	artifact, err := h.ingestion.GetArtifact(ctx, tenantID, artifactID)
	if err != nil {
		respondError(c, err, "remap email")
		return
	}

	job, err := h.jobs.Enqueue(ctx, tenantID, service.EnqueueParams{
		JobType: model.JobTypeEmailRemap,
		Payload: &model.JobPayload{
			TenantID:       tenantID,
			CorrelationID:  h.correlationID(c),
			IdempotencyKey: fmt.Sprintf("remap:%d:v%d", artifact.ID, artifact.Version),
			EmailRemap:     &model.EmailRemapPayload{ArtifactID: artifact.ID},
		},
	})
	if errors.Is(err, service.ErrDuplicateJob) {
		c.JSON(http.StatusAccepted, dto.RemapEmailResponse{Duplicated: true})
		return
	}
	if err != nil {
		respondError(c, err, "remap email")
		return
	}
	c.JSON(http.StatusAccepted, dto.RemapEmailResponse{JobID: job.ID})
}

// correlationID prefers the caller's trace header and falls back to the
// request span's trace id. Empty lets the service generate one.
func (h *EmailHandler) correlationID(c *gin.Context) string {
	return requestCorrelationID(c, h.traceHeader)
}

func requestCorrelationID(c *gin.Context, header string) string {
	if header != "" {
		if v := c.GetHeader(header); v != "" {
			return v
		}
	}
	if spanCtx := trace.SpanContextFromContext(c.Request.Context()); spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
