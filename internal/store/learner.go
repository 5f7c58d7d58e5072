package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
)

// LearnerStore defines the interface for learner data persistence.
type LearnerStore interface {
	// Create saves a new learner to the store.
	// It handles domain validation and hashing the learner's password.
	// Returns ErrEmailExists if the email is already taken, or validation
	// errors from the domain if the learner data is invalid.
	Create(ctx context.Context, learner *domain.Learner) error

	// GetByID retrieves a learner by their unique ID.
	// Returns ErrLearnerNotFound if the learner does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Learner, error)

	// GetByEmail retrieves a learner by their email address.
	// Returns ErrLearnerNotFound if the learner does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.Learner, error)

	// Update modifies an existing learner's profile fields (target band,
	// weakness, exam aggregates). It does not change the email or password.
	// Returns ErrLearnerNotFound if the learner does not exist.
	Update(ctx context.Context, learner *domain.Learner) error

	// WithTx returns a new LearnerStore that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	WithTx(tx *sql.Tx) LearnerStore
}
