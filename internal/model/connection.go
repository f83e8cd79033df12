package model

import "time"

// Provider identifies the mail system a connection talks to.
type Provider string

const (
	ProviderGmail   Provider = "gmail"
	ProviderOutlook Provider = "outlook"
	ProviderOther   Provider = "other"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderGmail, ProviderOutlook, ProviderOther:
		return true
	}
	return false
}

// EmailConnection is a mailbox a tenant has linked for ingestion.
type EmailConnection struct {
	ID                int64     `json:"id"`
	TenantID          int64     `json:"tenant_id"`
	Provider          Provider  `json:"provider"`
	MailboxAddress    string    `json:"mailbox_address"`
	ExternalAccountID *string   `json:"external_account_id,omitempty"`
	IsEnabled         bool      `json:"is_enabled"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
