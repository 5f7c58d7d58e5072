// Package domain contains the core entities and business rules of the
// application: learners, speaking sessions and their attempt history,
// vocabulary items under spaced repetition, and chronic error records.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Learner
var (
	ErrLearnerEmailEmpty    = errors.New("learner email cannot be empty")
	ErrLearnerEmailInvalid  = errors.New("learner email format is invalid")
	ErrLearnerPasswordEmpty = errors.New("learner hashed password cannot be empty")
	ErrInvalidTargetBand    = errors.New("target band must be between 1.0 and 9.0")
)

// Learner represents a registered user of the speaking practice service,
// including their goal profile and lifetime exam aggregates.
type Learner struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`

	// TargetBand is the band score the learner is working toward.
	TargetBand float64 `json:"target_band"`

	// Weakness is a free-text self-reported focus area, e.g. "fluency".
	Weakness string `json:"weakness"`

	// AverageBandScore is the running mean overall band across all
	// completed exam sessions.
	AverageBandScore float64 `json:"average_band_score"`

	// TotalExamsTaken counts completed exam sessions.
	TotalExamsTaken int `json:"total_exams_taken"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLearner creates a new Learner with a generated ID and default profile.
// The password must already be hashed; the domain never sees plaintext.
func NewLearner(email, hashedPassword string, targetBand float64, weakness string) (*Learner, error) {
	now := time.Now().UTC()
	learner := &Learner{
		ID:             uuid.New(),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		HashedPassword: hashedPassword,
		TargetBand:     targetBand,
		Weakness:       weakness,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := learner.Validate(); err != nil {
		return nil, err
	}

	return learner, nil
}

// Validate checks if the Learner has valid data.
// Returns an error if any field fails validation.
func (l *Learner) Validate() error {
	if l.Email == "" {
		return ErrLearnerEmailEmpty
	}

	if !strings.Contains(l.Email, "@") {
		return ErrLearnerEmailInvalid
	}

	if l.HashedPassword == "" {
		return ErrLearnerPasswordEmpty
	}

	if l.TargetBand < 1.0 || l.TargetBand > 9.0 {
		return ErrInvalidTargetBand
	}

	return nil
}

// WithExamResult returns a copy of the learner with the lifetime aggregates
// updated to include one more completed exam at the given overall band.
// The receiver is not modified.
func (l *Learner) WithExamResult(overallBand float64, now time.Time) *Learner {
	updated := *l
	total := l.TotalExamsTaken + 1
	updated.AverageBandScore = (l.AverageBandScore*float64(l.TotalExamsTaken) + overallBand) / float64(total)
	updated.TotalExamsTaken = total
	updated.UpdatedAt = now
	return &updated
}
