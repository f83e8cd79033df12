package store

import (
	"context"

	"firmdesk.app/intake/core/db/sqlc"
	"firmdesk.app/intake/internal/model"
)

type emailConnectionStore struct {
	queries *sqlc.Queries
}

func newEmailConnectionStore(queries *sqlc.Queries) EmailConnectionStore {
	return &emailConnectionStore{queries: queries}
}

func (s *emailConnectionStore) GetByID(ctx context.Context, id int64) (*model.EmailConnection, error) {
	row, err := s.queries.GetEmailConnection(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return toEmailConnectionModel(row), nil
}

func (s *emailConnectionStore) Create(ctx context.Context, conn *model.EmailConnection) (*model.EmailConnection, error) {
	row, err := s.queries.CreateEmailConnection(ctx, sqlc.CreateEmailConnectionParams{
		ID:                conn.ID,
		TenantID:          conn.TenantID,
		Provider:          string(conn.Provider),
		MailboxAddress:    conn.MailboxAddress,
		ExternalAccountID: conn.ExternalAccountID,
		IsEnabled:         conn.IsEnabled,
	})
	if err != nil {
		return nil, translate(err)
	}
	return toEmailConnectionModel(row), nil
}

func toEmailConnectionModel(row sqlc.EmailConnection) *model.EmailConnection {
	return &model.EmailConnection{
		ID:                row.ID,
		TenantID:          row.TenantID,
		Provider:          model.Provider(row.Provider),
		MailboxAddress:    row.MailboxAddress,
		ExternalAccountID: row.ExternalAccountID,
		IsEnabled:         row.IsEnabled,
		CreatedAt:         row.CreatedAt.Time,
		UpdatedAt:         row.UpdatedAt.Time,
	}
}
