package mapping_test

import (
	"context"
	"strings"

	"firmdesk.app/intake/internal/model"
)

// fakeDirectory is an in-memory Directory keyed the way the CRM tables are.
type fakeDirectory struct {
	contacts    []model.Contact
	engagements []model.Engagement
	threads     map[string][]model.EmailArtifact // newest first

	lookupErr error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{threads: map[string][]model.EmailArtifact{}}
}

func (f *fakeDirectory) addContact(tenantID, accountID int64, email string) {
	f.contacts = append(f.contacts, model.Contact{
		ID:        int64(len(f.contacts) + 1),
		TenantID:  tenantID,
		AccountID: accountID,
		Email:     email,
	})
}

func (f *fakeDirectory) addEngagement(tenantID, id, accountID int64, status model.EngagementStatus) {
	f.engagements = append(f.engagements, model.Engagement{
		ID:        id,
		TenantID:  tenantID,
		AccountID: accountID,
		Status:    status,
	})
}

func (f *fakeDirectory) ContactsByEmail(ctx context.Context, tenantID int64, email string) ([]model.Contact, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	var out []model.Contact
	for _, c := range f.contacts {
		if c.TenantID == tenantID && strings.EqualFold(c.Email, email) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDirectory) ContactsByDomain(ctx context.Context, tenantID int64, domain string) ([]model.Contact, error) {
	var out []model.Contact
	for _, c := range f.contacts {
		if c.TenantID == tenantID && strings.HasSuffix(strings.ToLower(c.Email), "@"+strings.ToLower(domain)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDirectory) Engagement(ctx context.Context, tenantID, engagementID int64) (*model.Engagement, error) {
	for i := range f.engagements {
		if f.engagements[i].TenantID == tenantID && f.engagements[i].ID == engagementID {
			return &f.engagements[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) ActiveEngagement(ctx context.Context, tenantID, accountID int64) (*model.Engagement, error) {
	for i := range f.engagements {
		e := f.engagements[i]
		if e.TenantID == tenantID && e.AccountID == accountID && e.Status == model.EngagementStatusActive {
			return &f.engagements[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) ThreadHistory(ctx context.Context, tenantID int64, threadID string, excludeID int64) ([]model.EmailArtifact, error) {
	var out []model.EmailArtifact
	for _, a := range f.threads[threadID] {
		if a.TenantID == tenantID && a.ID != excludeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func ptr[T any](v T) *T {
	return &v
}
