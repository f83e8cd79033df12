package service

import (
	"context"

	"firmdesk.app/intake/core/db"
	"firmdesk.app/intake/core/db/sqlc"
	"firmdesk.app/intake/internal/store"
)

// StoreProvider exposes the stores an operation may touch, either bound to
// the pool or to a transaction.
type StoreProvider interface {
	Connections() store.EmailConnectionStore
	Artifacts() store.EmailArtifactStore
	Attempts() store.IngestionAttemptStore
	CRM() store.CRMStore
	Jobs() store.JobStore
	DLQ() store.DLQStore
	Audit() store.AuditStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q *sqlc.Queries) error {
		stores := store.NewStores(q)
		return fn(stores)
	})
}
