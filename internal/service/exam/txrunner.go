package exam

import (
	"context"
	"database/sql"

	"github.com/phrazzld/viva-api/internal/store"
)

// TxRunner executes a function within a database transaction. It exists as an
// interface so service tests can run the submission pipeline against
// in-memory stores without a database.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn store.TxFn) error
}

// sqlTxRunner is the production TxRunner backed by a *sql.DB.
type sqlTxRunner struct {
	db *sql.DB
}

// NewSQLTxRunner returns a TxRunner that opens real transactions on the
// given database.
func NewSQLTxRunner(db *sql.DB) TxRunner {
	if db == nil {
		panic("db cannot be nil")
	}
	return &sqlTxRunner{db: db}
}

// RunInTransaction implements TxRunner.
func (r *sqlTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	return store.RunInTransaction(ctx, r.db, fn)
}
