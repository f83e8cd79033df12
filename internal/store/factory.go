package store

import (
	"firmdesk.app/intake/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Connections() EmailConnectionStore {
	return newEmailConnectionStore(s.queries)
}

func (s *Stores) Artifacts() EmailArtifactStore {
	return newEmailArtifactStore(s.queries)
}

func (s *Stores) Attempts() IngestionAttemptStore {
	return newIngestionAttemptStore(s.queries)
}

func (s *Stores) CRM() CRMStore {
	return newCRMStore(s.queries)
}

func (s *Stores) Jobs() JobStore {
	return newJobStore(s.queries)
}

func (s *Stores) DLQ() DLQStore {
	return newDLQStore(s.queries)
}

func (s *Stores) Audit() AuditStore {
	return newAuditStore(s.queries)
}
