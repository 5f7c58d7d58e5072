package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AttemptOutcome classifies the result of a single speaking attempt.
type AttemptOutcome string

// Possible attempt outcome values
const (
	OutcomePass  AttemptOutcome = "PASS"
	OutcomeFail  AttemptOutcome = "FAIL"
	OutcomeRetry AttemptOutcome = "RETRY"
)

// Common validation errors for attempts
var (
	ErrInvalidOutcome = errors.New("invalid attempt outcome")
	ErrInvalidMetrics = errors.New("attempt metrics out of range")
)

// AttemptMetrics holds the deterministic signals extracted from one spoken
// answer. All ratio-style fields are in [0, 1]; band-style calibration is
// applied later during summary computation.
type AttemptMetrics struct {
	WordCount       int     `json:"word_count"`
	DurationSeconds float64 `json:"duration_seconds"`

	// WordsPerMinute is the raw speaking rate; 0 when duration is 0.
	WordsPerMinute float64 `json:"words_per_minute"`

	// HesitationRatio is a binary classifier output: 0.8 for answers longer
	// than five seconds delivered below 40 wpm, 0.0 otherwise.
	HesitationRatio float64 `json:"hesitation_ratio"`

	// FillerCount counts filler-word occurrences (um, uh, er, ah, like,
	// you know) in the transcript.
	FillerCount int `json:"filler_count"`

	// LexicalDiversity is the type-token ratio of the transcript.
	LexicalDiversity float64 `json:"lexical_diversity"`

	// GrammarComplexity is the density of subordinating and linking
	// connectives relative to total words.
	GrammarComplexity float64 `json:"grammar_complexity"`

	// CoherenceScore is the cosine similarity between the prompt and the
	// transcript in embedding space; 0 when either side embeds to a zero
	// vector.
	CoherenceScore float64 `json:"coherence_score"`

	// PronunciationScore blends acoustic consistency and clarity; 0 with
	// PronunciationDegraded set when the audio could not be analyzed.
	PronunciationScore    float64 `json:"pronunciation_score"`
	PronunciationDegraded bool    `json:"pronunciation_degraded"`
}

// Validate checks that the metric values are within their documented ranges.
func (m AttemptMetrics) Validate() error {
	if m.WordCount < 0 || m.DurationSeconds < 0 || m.WordsPerMinute < 0 || m.FillerCount < 0 {
		return ErrInvalidMetrics
	}
	for _, v := range []float64{m.HesitationRatio, m.LexicalDiversity, m.GrammarComplexity, m.PronunciationScore} {
		if v < 0 || v > 1 {
			return ErrInvalidMetrics
		}
	}
	if m.CoherenceScore < -1 || m.CoherenceScore > 1 {
		return ErrInvalidMetrics
	}
	return nil
}

// AttemptResult is one entry in a session's rolling attempt history.
type AttemptResult struct {
	ID         uuid.UUID      `json:"id"`
	Part       ExamPart       `json:"part"`
	PromptText string         `json:"prompt_text"`
	Transcript string         `json:"transcript"`
	Metrics    AttemptMetrics `json:"metrics"`
	Outcome    AttemptOutcome `json:"outcome"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Validate checks if the AttemptResult has valid data.
func (a *AttemptResult) Validate() error {
	if !a.Outcome.IsValid() {
		return ErrInvalidOutcome
	}
	return a.Metrics.Validate()
}

// IsValid reports whether the outcome is one of the known values.
func (o AttemptOutcome) IsValid() bool {
	switch o {
	case OutcomePass, OutcomeFail, OutcomeRetry:
		return true
	default:
		return false
	}
}
