// Package exam orchestrates speaking sessions: it starts exams and practice
// conversations, runs the attempt-submission pipeline (signal extraction,
// adaptive examiner policy, state update, persistence), and finalizes
// completed exams with a band-score summary.
package exam

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/generation"
	"github.com/phrazzld/viva-api/internal/signal"
)

// Common exam service errors
var (
	// ErrSessionNotFound indicates that the session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotOwned indicates that the learner does not own the session.
	ErrSessionNotOwned = errors.New("unauthorized access: session not owned by user")

	// ErrLearnerNotFound indicates that the learner does not exist.
	ErrLearnerNotFound = errors.New("learner not found")
)

// StartResult is the outcome of starting a session: the created session and
// the pre-session briefing composed from the learner's error history.
type StartResult struct {
	Session  *domain.Session `json:"session"`
	Briefing string          `json:"briefing"`
}

// SubmitAttemptInput carries one spoken answer into the submission pipeline.
type SubmitAttemptInput struct {
	// Transcript is the transcribed answer text.
	Transcript string `json:"transcript"`

	// DurationSeconds is how long the answer took to deliver.
	DurationSeconds float64 `json:"duration_seconds"`

	// Audio holds the frame-level acoustic series for pronunciation scoring.
	// Empty series degrade the pronunciation score rather than failing.
	Audio signal.AudioFeatures `json:"audio"`

	// Amend replaces the latest attempt of the current part instead of
	// recording a new scored attempt. Quota counters do not advance.
	Amend bool `json:"amend"`
}

// SubmitResult is the full outcome of one attempt submission.
type SubmitResult struct {
	// Session is the post-update session state.
	Session *domain.Session `json:"session"`

	// Attempt is the attempt as recorded in the session history.
	Attempt domain.AttemptResult `json:"attempt"`

	// Intervention is the examiner's adaptive response.
	Intervention *generation.Intervention `json:"intervention"`

	// PolicyDegraded is set when the examiner policy was unavailable and the
	// deterministic fallback intervention was used.
	PolicyDegraded bool `json:"policy_degraded"`
}

// Service orchestrates speaking sessions end to end.
type Service interface {
	// StartExam creates a new three-part exam session for the learner.
	// Returns ErrLearnerNotFound if the learner does not exist.
	StartExam(ctx context.Context, userID uuid.UUID) (*StartResult, error)

	// StartPractice creates a free practice session on the given topic.
	// A blank topic falls back to a general conversation topic.
	StartPractice(ctx context.Context, userID uuid.UUID, topic string) (*StartResult, error)

	// GetSession retrieves a session owned by the learner.
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error)

	// ListSessions retrieves the learner's recent sessions, newest first.
	ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Session, error)

	// SubmitAttempt runs the full pipeline for one spoken answer: extract
	// signals, consult the examiner policy, update session state, and persist
	// everything atomically. Degraded inputs and collaborators (an empty
	// transcript, missing audio, the embedding or policy model) never fail a
	// submission; their contribution degrades to neutral values instead.
	//
	// Returns domain.ErrSessionCompleted for terminal sessions and
	// domain.ErrNoAttemptToAmend when amending with no attempt in the current
	// part.
	SubmitAttempt(ctx context.Context, userID, sessionID uuid.UUID, input SubmitAttemptInput) (*SubmitResult, error)

	// EndPractice explicitly ends a practice session. Exam sessions cannot be
	// ended this way; they complete through their attempt quotas
	// (domain.ErrCannotEndExam).
	EndPractice(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error)
}

// ServiceError wraps errors from the exam service with operation context.
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
