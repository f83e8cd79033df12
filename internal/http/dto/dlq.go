package dto

import "firmdesk.app/intake/internal/model"

type DLQActionRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type ReprocessResponse struct {
	DLQID int64      `json:"dlq_id"`
	Job   *model.Job `json:"job"`
}

type DLQListResponse struct {
	Entries []model.DLQEntry `json:"entries"`
}
