package model

import "time"

type EngagementStatus string

const (
	EngagementStatusActive EngagementStatus = "active"
	EngagementStatusClosed EngagementStatus = "closed"
)

// Contact is a read-only view of a CRM contact owned by the CRM service.
type Contact struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	AccountID int64     `json:"account_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Engagement is a read-only view of a client engagement.
type Engagement struct {
	ID        int64            `json:"id"`
	TenantID  int64            `json:"tenant_id"`
	AccountID int64            `json:"account_id"`
	Name      string           `json:"name"`
	Status    EngagementStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}
