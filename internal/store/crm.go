package store

import (
	"context"
	"strings"

	"firmdesk.app/intake/core/db/sqlc"
	"firmdesk.app/intake/internal/model"
)

type crmStore struct {
	queries *sqlc.Queries
}

func newCRMStore(queries *sqlc.Queries) CRMStore {
	return &crmStore{queries: queries}
}

func (s *crmStore) ContactsByEmail(ctx context.Context, tenantID int64, email string) ([]model.Contact, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	rows, err := s.queries.ListContactsByEmail(ctx, sqlc.ListContactsByEmailParams{
		TenantID: tenantID,
		Email:    email,
	})
	if err != nil {
		return nil, err
	}
	return toContactModels(rows), nil
}

func (s *crmStore) ContactsByDomain(ctx context.Context, tenantID int64, domain string) ([]model.Contact, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, nil
	}
	rows, err := s.queries.ListContactsByDomain(ctx, sqlc.ListContactsByDomainParams{
		TenantID: tenantID,
		Domain:   domain,
	})
	if err != nil {
		return nil, err
	}
	return toContactModels(rows), nil
}

func (s *crmStore) GetEngagement(ctx context.Context, tenantID, id int64) (*model.Engagement, error) {
	row, err := s.queries.GetEngagement(ctx, sqlc.GetEngagementParams{
		TenantID: tenantID,
		ID:       id,
	})
	if err != nil {
		return nil, translate(err)
	}
	return toEngagementModel(row), nil
}

func (s *crmStore) ActiveEngagementForAccount(ctx context.Context, tenantID, accountID int64) (*model.Engagement, error) {
	row, err := s.queries.GetActiveEngagementForAccount(ctx, sqlc.GetActiveEngagementForAccountParams{
		TenantID:  tenantID,
		AccountID: accountID,
	})
	if err != nil {
		return nil, translate(err)
	}
	return toEngagementModel(row), nil
}

func toContactModels(rows []sqlc.CrmContact) []model.Contact {
	result := make([]model.Contact, len(rows))
	for i, row := range rows {
		result[i] = model.Contact{
			ID:        row.ID,
			TenantID:  row.TenantID,
			AccountID: row.AccountID,
			Email:     row.Email,
			CreatedAt: row.CreatedAt.Time,
		}
	}
	return result
}

func toEngagementModel(row sqlc.CrmEngagement) *model.Engagement {
	return &model.Engagement{
		ID:        row.ID,
		TenantID:  row.TenantID,
		AccountID: row.AccountID,
		Name:      row.Name,
		Status:    model.EngagementStatus(row.Status),
		CreatedAt: row.CreatedAt.Time,
	}
}
