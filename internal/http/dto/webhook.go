package dto

// EmailWebhookRequest is a provider push notification relayed by the mail
// gateway. EventID identifies the notification itself and is optional.
type EmailWebhookRequest struct {
	TenantID          int64  `json:"tenant_id" binding:"required"`
	ConnectionID      int64  `json:"connection_id" binding:"required"`
	ExternalMessageID string `json:"external_message_id" binding:"required"`
	EventID           string `json:"event_id,omitempty"`
}

type EmailWebhookResponse struct {
	JobID      int64 `json:"job_id,omitempty"`
	Enqueued   bool  `json:"enqueued"`
	Duplicated bool  `json:"duplicated"`
}
