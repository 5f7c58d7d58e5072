package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for ErrorLogEntry
var (
	ErrEmptyErrorLogUserID = errors.New("error log user ID cannot be empty")
	ErrEmptyErrorType      = errors.New("error type cannot be empty")
	ErrInvalidErrorCount   = errors.New("error count must be at least 1")
)

// ErrorLogEntry is a per-learner counter for one recurring error category,
// e.g. "article_error" or "filler_words". Entries are upserted: repeated
// observations increment the count and refresh LastSeenAt.
type ErrorLogEntry struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	ErrorType  string    `json:"error_type"`
	Count      int       `json:"count"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewErrorLogEntry creates a first-observation entry with count 1.
func NewErrorLogEntry(userID uuid.UUID, errorType string) (*ErrorLogEntry, error) {
	now := time.Now().UTC()
	entry := &ErrorLogEntry{
		ID:         uuid.New(),
		UserID:     userID,
		ErrorType:  errorType,
		Count:      1,
		LastSeenAt: now,
		CreatedAt:  now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the ErrorLogEntry has valid data.
func (e *ErrorLogEntry) Validate() error {
	if e.UserID == uuid.Nil {
		return ErrEmptyErrorLogUserID
	}

	if e.ErrorType == "" {
		return ErrEmptyErrorType
	}

	if e.Count < 1 {
		return ErrInvalidErrorCount
	}

	return nil
}
