package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"firmdesk.app/intake/internal/http/dto"
	"firmdesk.app/intake/internal/http/middleware"
	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/service"
)

type DLQHandler struct {
	dlq service.DLQService
}

func NewDLQHandler(dlq service.DLQService) *DLQHandler {
	return &DLQHandler{dlq: dlq}
}

func (h *DLQHandler) List(c *gin.Context) {
	tenantID, ok := tenant(c)
	if !ok {
		return
	}

	var status *model.DLQStatus
	if raw := c.Query("status"); raw != "" {
		s := model.DLQStatus(raw)
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		status = &s
	}

	entries, err := h.dlq.List(c.Request.Context(), tenantID, status, limitQuery(c))
	if err != nil {
		respondError(c, err, "list dlq entries")
		return
	}
	if entries == nil {
		entries = []model.DLQEntry{}
	}
	c.JSON(http.StatusOK, dto.DLQListResponse{Entries: entries})
}

func (h *DLQHandler) Get(c *gin.Context) {
	tenantID, dlqID, ok := tenantAndID(c)
	if !ok {
		return
	}

	entry, err := h.dlq.Get(c.Request.Context(), tenantID, dlqID)
	if err != nil {
		respondError(c, err, "get dlq entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *DLQHandler) Reprocess(c *gin.Context) {
	tenantID, dlqID, ok := tenantAndID(c)
	if !ok {
		return
	}
	req, ok := bindAction(c)
	if !ok {
		return
	}

	job, err := h.dlq.Reprocess(c.Request.Context(), tenantID, dlqID, middleware.GetUser(c.Request.Context()), req.Notes)
	if err != nil {
		respondError(c, err, "reprocess dlq entry")
		return
	}
	c.JSON(http.StatusAccepted, dto.ReprocessResponse{DLQID: dlqID, Job: job})
}

func (h *DLQHandler) Discard(c *gin.Context) {
	tenantID, dlqID, ok := tenantAndID(c)
	if !ok {
		return
	}
	req, ok := bindAction(c)
	if !ok {
		return
	}

	entry, err := h.dlq.Discard(c.Request.Context(), tenantID, dlqID, middleware.GetUser(c.Request.Context()), req.Notes)
	if err != nil {
		respondError(c, err, "discard dlq entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// bindAction reads the optional notes body. An empty body is allowed.
func bindAction(c *gin.Context) (dto.DLQActionRequest, bool) {
	var req dto.DLQActionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}
