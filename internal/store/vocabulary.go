package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
)

// VocabularyStore defines the interface for vocabulary item persistence.
type VocabularyStore interface {
	// Create saves a new vocabulary item to the store.
	// Returns ErrVocabularyItemExists if the learner already tracks the word.
	Create(ctx context.Context, item *domain.VocabularyItem) error

	// GetByID retrieves a vocabulary item by its unique ID.
	// Returns ErrVocabularyItemNotFound if the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error)

	// GetByUserAndWord retrieves a learner's item for the given word.
	// The word is matched case-insensitively.
	// Returns ErrVocabularyItemNotFound if the item does not exist.
	GetByUserAndWord(ctx context.Context, userID uuid.UUID, word string) (*domain.VocabularyItem, error)

	// Update replaces the stored scheduling state of an existing item.
	// Returns ErrVocabularyItemNotFound if the item does not exist.
	Update(ctx context.Context, item *domain.VocabularyItem) error

	// ListDue retrieves the learner's items whose next review is at or before
	// now, ordered by next review time ascending (most overdue first), up to
	// limit. A limit of 0 or less applies a default cap.
	ListDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.VocabularyItem, error)

	// WithTx returns a new VocabularyStore that uses the provided transaction.
	WithTx(tx *sql.Tx) VocabularyStore
}
