package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"firmdesk.app/intake/internal/http/dto"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/service"
)

type JobHandler struct {
	jobs service.JobService
}

func NewJobHandler(jobs service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

func (h *JobHandler) Enqueue(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID, ok := tenant(c)
	if !ok {
		return
	}

	var req dto.EnqueueJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid enqueue request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.jobs.Enqueue(ctx, tenantID, service.EnqueueParams{
		JobType:     req.JobType,
		Payload:     &req.Payload,
		Priority:    req.Priority,
		ScheduledAt: req.ScheduledAt,
		MaxAttempts: req.MaxAttempts,
	})
	if err != nil {
		respondError(c, err, "enqueue job")
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) Get(c *gin.Context) {
	tenantID, jobID, ok := tenantAndID(c)
	if !ok {
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), tenantID, jobID)
	if err != nil {
		respondError(c, err, "get job")
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) List(c *gin.Context) {
	tenantID, ok := tenant(c)
	if !ok {
		return
	}

	status := model.JobStatus(c.DefaultQuery("status", string(model.JobStatusPending)))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	jobs, err := h.jobs.ListByStatus(c.Request.Context(), tenantID, status, limitQuery(c))
	if err != nil {
		respondError(c, err, "list jobs")
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	c.JSON(http.StatusOK, dto.JobListResponse{Jobs: jobs})
}
