package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firmdesk.app/intake/core/config"
	"firmdesk.app/intake/internal/model"
)

var (
	ErrUnknownProvider  = errors.New("unknown email provider")
	ErrFetchUnsupported = errors.New("provider does not support fetching messages")
	ErrMessageNotFound  = errors.New("message not found at provider")
)

// InboundEmail is a provider message normalised to the artifact shape.
type InboundEmail struct {
	ExternalMessageID string
	ThreadID          *string
	From              string
	To                []string
	Cc                []string
	Subject           string
	SentAt            *time.Time
	ReceivedAt        time.Time
	BodyPreview       string
}

// Provider fetches and normalises messages for one mail system. Fetch
// returns the provider's native document, which Normalize understands.
type Provider interface {
	Kind() model.Provider
	Fetch(ctx context.Context, conn *model.EmailConnection, externalMessageID string) ([]byte, error)
	Normalize(raw []byte) (*InboundEmail, error)
}

type Registry struct {
	providers map[model.Provider]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[model.Provider]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Kind()] = p
	}
	return r
}

// Get returns the provider for kind. A missing provider is a non_retryable
// job error since retrying cannot make it appear.
func (r *Registry) Get(kind model.Provider) (Provider, error) {
	p, ok := r.providers[kind]
	if !ok {
		return nil, model.NewJobError(model.ErrorClassNonRetryable, fmt.Errorf("%w: %q", ErrUnknownProvider, kind))
	}
	return p, nil
}

func parseFailure(kind model.Provider, err error) error {
	return model.NewJobError(model.ErrorClassNonRetryable, fmt.Errorf("normalize %s message: %w", kind, err))
}

// NewRegistryFromConfig registers every provider with credentials configured.
// The raw MIME provider needs none and is always available.
func NewRegistryFromConfig(ctx context.Context, cfg config.ProvidersConfig) *Registry {
	providers := []Provider{NewOther()}
	if cfg.Gmail.Enabled() {
		providers = append(providers, NewGmailFromConfig(ctx, GmailConfig{
			ClientID:     cfg.Gmail.ClientID,
			ClientSecret: cfg.Gmail.ClientSecret,
			RefreshToken: cfg.Gmail.RefreshToken,
			TokenURL:     cfg.Gmail.TokenURL,
			BaseURL:      cfg.Gmail.BaseURL,
		}))
	}
	if cfg.Outlook.Enabled() {
		providers = append(providers, NewOutlookFromConfig(ctx, OutlookConfig{
			ClientID:     cfg.Outlook.ClientID,
			ClientSecret: cfg.Outlook.ClientSecret,
			TokenURL:     cfg.Outlook.Token(),
			BaseURL:      cfg.Outlook.BaseURL,
		}))
	}
	return NewRegistry(providers...)
}
