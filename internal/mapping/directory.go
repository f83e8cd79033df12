package mapping

import (
	"context"
	"errors"

	"firmdesk.app/intake/internal/model"
	"firmdesk.app/intake/internal/store"
)

// Directory is everything the signal and staleness checks look up. Each
// lookup is a typed method; a nil engagement means none exists.
type Directory interface {
	ContactsByEmail(ctx context.Context, tenantID int64, email string) ([]model.Contact, error)
	ContactsByDomain(ctx context.Context, tenantID int64, domain string) ([]model.Contact, error)
	Engagement(ctx context.Context, tenantID, engagementID int64) (*model.Engagement, error)
	ActiveEngagement(ctx context.Context, tenantID, accountID int64) (*model.Engagement, error)
	// ThreadHistory returns the other artifacts of a thread, newest first.
	ThreadHistory(ctx context.Context, tenantID int64, threadID string, excludeID int64) ([]model.EmailArtifact, error)
}

type storeDirectory struct {
	crm       store.CRMStore
	artifacts store.EmailArtifactStore
}

// NewStoreDirectory backs a Directory with the CRM read model and the
// artifact table.
func NewStoreDirectory(crm store.CRMStore, artifacts store.EmailArtifactStore) Directory {
	return &storeDirectory{crm: crm, artifacts: artifacts}
}

func (d *storeDirectory) ContactsByEmail(ctx context.Context, tenantID int64, email string) ([]model.Contact, error) {
	return d.crm.ContactsByEmail(ctx, tenantID, email)
}

func (d *storeDirectory) ContactsByDomain(ctx context.Context, tenantID int64, domain string) ([]model.Contact, error) {
	return d.crm.ContactsByDomain(ctx, tenantID, domain)
}

func (d *storeDirectory) Engagement(ctx context.Context, tenantID, engagementID int64) (*model.Engagement, error) {
	eng, err := d.crm.GetEngagement(ctx, tenantID, engagementID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return eng, err
}

func (d *storeDirectory) ActiveEngagement(ctx context.Context, tenantID, accountID int64) (*model.Engagement, error) {
	eng, err := d.crm.ActiveEngagementForAccount(ctx, tenantID, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return eng, err
}

func (d *storeDirectory) ThreadHistory(ctx context.Context, tenantID int64, threadID string, excludeID int64) ([]model.EmailArtifact, error) {
	return d.artifacts.ListThread(ctx, tenantID, threadID, excludeID)
}
