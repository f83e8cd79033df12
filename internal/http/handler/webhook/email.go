package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"firmdesk.app/intake/internal/http/dto"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/queue"
	"firmdesk.app/intake/internal/service"
)

// Deduper remembers which provider notifications were already accepted.
type Deduper interface {
	IsNew(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// Enqueuer is the part of service.JobService the webhook needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, tenantID int64, params service.EnqueueParams) (*model.Job, error)
}

type EmailWebhookHandler struct {
	jobs        Enqueuer
	dedup       Deduper
	signer      *Signer
	traceHeader string
}

// NewEmailWebhookHandler builds the push notification endpoint. dedup may
// be nil, in which case the job idempotency key is the only guard. A nil
// signer accepts notifications without a token.
func NewEmailWebhookHandler(jobs Enqueuer, dedup Deduper, signer *Signer, traceHeader string) *EmailWebhookHandler {
	return &EmailWebhookHandler{
		jobs:        jobs,
		dedup:       dedup,
		signer:      signer,
		traceHeader: traceHeader,
	}
}

func (h *EmailWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	kind := model.Provider(c.Param("provider"))
	if !kind.Valid() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}

	var req dto.EmailWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if req.TenantID <= 0 || req.ConnectionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if h.signer != nil && !h.signer.Verify(req.TenantID, req.ConnectionID, c.GetHeader(TokenHeader)) {
		slog.WarnContext(ctx, "email notification with invalid token",
			"provider", kind,
			"tenant_id", req.TenantID,
			"connection_id", req.ConnectionID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook token"})
		return
	}

	key := IngestKey(kind, req.ConnectionID, req.ExternalMessageID)
	if h.dedup != nil {
		isNew, err := h.dedup.IsNew(ctx, key)
		if err != nil {
			// The job idempotency key still catches duplicates.
			slog.WarnContext(ctx, "webhook dedup unavailable", "error", err)
		} else if !isNew {
			slog.InfoContext(ctx, "duplicate email notification dropped",
				"provider", kind,
				"connection_id", req.ConnectionID,
				"event_id", req.EventID)
			c.JSON(http.StatusOK, dto.EmailWebhookResponse{Duplicated: true})
			return
		}
	}

	job, err := h.jobs.Enqueue(ctx, req.TenantID, service.EnqueueParams{
		JobType: model.JobTypeEmailIngest,
		Payload: &model.JobPayload{
			TenantID:       req.TenantID,
			CorrelationID:  c.GetHeader(h.traceHeader),
			IdempotencyKey: key,
			EmailIngest: &model.EmailIngestPayload{
				ConnectionID:      req.ConnectionID,
				ExternalMessageID: req.ExternalMessageID,
			},
		},
	})
	if err != nil {
		if errors.Is(err, service.ErrDuplicateJob) {
			c.JSON(http.StatusOK, dto.EmailWebhookResponse{Duplicated: true})
			return
		}
		if errors.Is(err, service.ErrInvalidPayload) {
			h.forget(ctx, key)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.forget(ctx, key)
		slog.ErrorContext(ctx, "failed to enqueue email notification",
			"error", err,
			"provider", kind,
			"tenant_id", req.TenantID,
			"connection_id", req.ConnectionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue email"})
		return
	}

	c.JSON(http.StatusAccepted, dto.EmailWebhookResponse{JobID: job.ID, Enqueued: true})
}

func (h *EmailWebhookHandler) forget(ctx context.Context, key string) {
	if h.dedup == nil {
		return
	}
	if err := h.dedup.Forget(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to clear webhook dedup key", "error", err)
	}
}

// IngestKey is the idempotency key of the ingest job for one message.
func IngestKey(kind model.Provider, connectionID int64, externalMessageID string) string {
	return fmt.Sprintf("ingest:%s:%d:%s", kind, connectionID, externalMessageID)
}

var _ Deduper = (*queue.Filter)(nil)
