package dto

import (
	"time"

	"firmdesk.app/intake/internal/model"
)

type EnqueueJobRequest struct {
	JobType     model.JobType    `json:"job_type" binding:"required"`
	Payload     model.JobPayload `json:"payload"`
	Priority    *int32           `json:"priority,omitempty"`
	ScheduledAt *time.Time       `json:"scheduled_at,omitempty"`
	MaxAttempts int32            `json:"max_attempts,omitempty"`
}

type JobListResponse struct {
	Jobs []model.Job `json:"jobs"`
}
