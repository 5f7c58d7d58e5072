package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
)

// SessionStore defines the interface for exam and practice session persistence.
//
// Sessions are stored as whole aggregates: the attempt history, per-part
// counters, and plan are serialized alongside the scalar columns, and every
// update replaces the full row. Attempt submission must therefore read and
// write the session inside one transaction, using GetByIDForUpdate to take a
// row lock.
type SessionStore interface {
	// Create saves a new session to the store.
	Create(ctx context.Context, session *domain.Session) error

	// GetByID retrieves a session by its unique ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// GetByIDForUpdate retrieves a session and locks its row for the duration
	// of the surrounding transaction (SELECT ... FOR UPDATE). Callers must use
	// this from a store obtained via WithTx; outside a transaction the lock is
	// released immediately and provides no protection.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// Update replaces the stored session with the given state.
	// Returns ErrSessionNotFound if the session does not exist.
	Update(ctx context.Context, session *domain.Session) error

	// ListByUser retrieves the most recent sessions for a learner, newest
	// first, up to limit. A limit of 0 or less applies a default cap.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Session, error)

	// WithTx returns a new SessionStore that uses the provided transaction.
	WithTx(tx *sql.Tx) SessionStore
}
