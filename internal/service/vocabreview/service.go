// Package vocabreview manages each learner's vocabulary deck: adding target
// words, listing items due for review, and rescheduling items through the
// spaced repetition algorithm.
package vocabreview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
)

// ReviewAnswer represents a learner's self-assessed recall of a word.
type ReviewAnswer struct {
	// Quality is the SM-2 recall grade, 0 (blackout) through 5 (perfect).
	Quality int `json:"quality"`
}

// Service provides vocabulary deck operations.
type Service interface {
	// Add puts a word into the learner's deck, due immediately. The usage
	// string records the sentence or prompt the word appeared in. Adding a
	// word the learner already tracks is a no-op that returns the existing
	// item.
	Add(ctx context.Context, userID uuid.UUID, word, usage string) (*domain.VocabularyItem, error)

	// Due lists the learner's items due for review at the given time, most
	// overdue first.
	Due(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.VocabularyItem, error)

	// Review reschedules an item based on the recall quality and returns the
	// updated item.
	//
	// Returns ErrItemNotFound when the item does not exist, ErrItemNotOwned
	// when it belongs to another learner, and ErrInvalidQuality for grades
	// outside 0-5.
	Review(ctx context.Context, userID, itemID uuid.UUID, answer ReviewAnswer) (*domain.VocabularyItem, error)
}

// Common vocabulary review service errors
var (
	// ErrItemNotFound indicates that the vocabulary item does not exist.
	ErrItemNotFound = errors.New("vocabulary item not found")

	// ErrItemNotOwned indicates that the learner does not own the item.
	ErrItemNotOwned = errors.New("unauthorized access: vocabulary item not owned by user")

	// ErrInvalidQuality indicates a recall grade outside the 0-5 range.
	ErrInvalidQuality = errors.New("invalid recall quality")
)

// ServiceError wraps errors from the vocabulary review service with
// operation context, so consumers can differentiate failures with errors.As.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
