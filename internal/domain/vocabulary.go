package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for VocabularyItem
var (
	ErrEmptyVocabUserID   = errors.New("vocabulary item user ID cannot be empty")
	ErrEmptyWord          = errors.New("vocabulary word cannot be empty")
	ErrInvalidIntervalDay = errors.New("interval days must be at least 1")
	ErrInvalidEaseFactor  = errors.New("ease factor must be greater than 1.0")
	ErrInvalidMastery     = errors.New("mastery level must be between 0 and 100")
)

// VocabularyItem tracks one target word or phrase the learner is acquiring,
// with its spaced-repetition scheduling state.
type VocabularyItem struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`

	// Word is the target expression, stored lowercased.
	Word string `json:"word"`

	// Context is the sentence or prompt the word appeared in.
	Context string `json:"context"`

	// IntervalDays is the current review interval in days, always >= 1.
	IntervalDays int `json:"interval_days"`

	// EaseFactor follows the SM-2 convention, floored at 1.3.
	EaseFactor float64 `json:"ease_factor"`

	// MasteryLevel is a 0-100 progress indicator adjusted on each review.
	MasteryLevel int `json:"mastery_level"`

	LastReviewedAt time.Time `json:"last_reviewed_at"`
	NextReviewAt   time.Time `json:"next_review_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewVocabularyItem creates a new item due immediately, with the standard
// SM-2 starting state.
func NewVocabularyItem(userID uuid.UUID, word, context string) (*VocabularyItem, error) {
	now := time.Now().UTC()
	item := &VocabularyItem{
		ID:           uuid.New(),
		UserID:       userID,
		Word:         strings.ToLower(strings.TrimSpace(word)),
		Context:      context,
		IntervalDays: 1,
		EaseFactor:   2.5,
		MasteryLevel: 0,
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the VocabularyItem has valid data.
func (v *VocabularyItem) Validate() error {
	if v.UserID == uuid.Nil {
		return ErrEmptyVocabUserID
	}

	if v.Word == "" {
		return ErrEmptyWord
	}

	if v.IntervalDays < 1 {
		return ErrInvalidIntervalDay
	}

	if v.EaseFactor <= 1.0 {
		return ErrInvalidEaseFactor
	}

	if v.MasteryLevel < 0 || v.MasteryLevel > 100 {
		return ErrInvalidMastery
	}

	return nil
}
