package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
)

// ErrorLogStore defines the interface for persisted error pattern counts.
// Each (learner, error type) pair maps to a single row whose count grows as
// the pattern recurs across sessions.
type ErrorLogStore interface {
	// Upsert increments the count for the learner's error type, creating the
	// row with count 1 if it does not exist, and stamps last seen with now.
	Upsert(ctx context.Context, userID uuid.UUID, errorType string, now time.Time) error

	// TopByCount retrieves the learner's most frequent error types, highest
	// count first, up to limit. A limit of 0 or less applies a default cap.
	TopByCount(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ErrorLogEntry, error)

	// WithTx returns a new ErrorLogStore that uses the provided transaction.
	WithTx(tx *sql.Tx) ErrorLogStore
}
