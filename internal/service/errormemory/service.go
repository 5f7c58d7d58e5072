// Package errormemory tracks each learner's recurring error patterns. It
// classifies examiner feedback into the error taxonomy, accumulates per-type
// counts, and turns the accumulated history into pre-exam briefings and
// targeted correction drills.
package errormemory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/generation"
)

// DefaultChronicIssueCount is how many top error types feed briefings and
// policy input when the caller does not ask for a specific number.
const DefaultChronicIssueCount = 3

// Common error memory service errors
var (
	// ErrNoChronicIssues indicates the learner has no recorded error history
	// to build drills from.
	ErrNoChronicIssues = errors.New("no chronic issues recorded")
)

// Service classifies feedback, accumulates error counts, and produces
// briefings and drills from the accumulated history.
type Service interface {
	// RecordFeedback classifies the feedback text and increments the count of
	// every matched error type for the learner. It returns the matched type
	// names, most significant first. Unclassifiable feedback records nothing
	// and returns an empty slice.
	RecordFeedback(ctx context.Context, userID uuid.UUID, feedback string) ([]string, error)

	// ChronicIssues returns the learner's most frequent error types, highest
	// count first, up to limit.
	ChronicIssues(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ErrorLogEntry, error)

	// ComposeBriefing renders a short pre-session focus note from the
	// learner's profile and chronic issues. A learner with no history gets a
	// generic encouragement line.
	ComposeBriefing(ctx context.Context, learner *domain.Learner) (string, error)

	// GenerateDrills produces correction drills for the learner's most
	// chronic error type. Generation failures degrade to a fixed drill set
	// rather than an error. Returns ErrNoChronicIssues when the learner has
	// no recorded history.
	GenerateDrills(ctx context.Context, userID uuid.UUID, count int) (*generation.DrillSet, error)
}

// ServiceError wraps errors from the error memory service with operation context.
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
