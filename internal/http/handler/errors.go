package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/service"
)

var errInvalidID = errors.New("invalid id")

// statusFor maps service errors onto HTTP statuses. Unclassified errors are
// server faults.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrArtifactNotFound),
		errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, service.ErrDLQNotFound),
		errors.Is(err, service.ErrConnectionNotFound),
		errors.Is(err, service.ErrTenantMismatch):
		return http.StatusNotFound
	case errors.Is(err, service.ErrStaleVersion),
		errors.Is(err, service.ErrDuplicateJob),
		errors.Is(err, service.ErrJobNotClaimed),
		errors.Is(err, service.ErrDLQNotReprocessable),
		errors.Is(err, service.ErrDLQNotDiscardable):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidIngest),
		errors.Is(err, service.ErrInvalidCorrection),
		errors.Is(err, service.ErrInvalidPayload),
		errors.Is(err, service.ErrConnectionDisabled),
		model.ClassOf(err) == model.ErrorClassNonRetryable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error, action string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "failed to "+action, "error", err)
		c.JSON(status, gin.H{"error": "failed to " + action})
		return
	}
	// Tenant mismatches look like missing rows from the outside.
	if errors.Is(err, service.ErrTenantMismatch) {
		err = service.ErrConnectionNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func int64Param(c *gin.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		return 0, errInvalidID
	}
	return v, nil
}

// tenantAndID parses the tenant and resource ids of a nested route, writing
// a 400 and returning ok=false when either is malformed.
func tenantAndID(c *gin.Context) (tenantID, id int64, ok bool) {
	tenantID, err := int64Param(c, "tenant_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant id"})
		return 0, 0, false
	}
	id, err = int64Param(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, 0, false
	}
	return tenantID, id, true
}

func tenant(c *gin.Context) (int64, bool) {
	tenantID, err := int64Param(c, "tenant_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant id"})
		return 0, false
	}
	return tenantID, true
}

func limitQuery(c *gin.Context) int32 {
	v, err := strconv.ParseInt(c.Query("limit"), 10, 32)
	if err != nil {
		return 0
	}
	return int32(v)
}
