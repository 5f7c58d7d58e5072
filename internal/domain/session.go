package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ExamPart identifies the stage a session is in. Parts only ever move
// forward; COMPLETED is terminal.
type ExamPart string

// Exam part progression values
const (
	PartOne       ExamPart = "PART_1"
	PartTwo       ExamPart = "PART_2"
	PartThree     ExamPart = "PART_3"
	PartCompleted ExamPart = "COMPLETED"
)

// SessionMode distinguishes full mock exams from free practice.
type SessionMode string

// Possible session mode values
const (
	ModeExam     SessionMode = "EXAM"
	ModePractice SessionMode = "PRACTICE"
)

// FluencyTrend summarizes the direction of the speaking rate across the two
// most recent attempts.
type FluencyTrend string

// Possible fluency trend values
const (
	TrendImproving FluencyTrend = "improving"
	TrendDegrading FluencyTrend = "degrading"
	TrendStable    FluencyTrend = "stable"
)

// MaxAttemptHistory caps the rolling attempt history kept on a session.
// Older attempts are evicted oldest-first.
const MaxAttemptHistory = 10

// trendThresholdWPM is the words-per-minute delta below which the trend is
// considered stable.
const trendThresholdWPM = 5.0

// failStressBoost is added to the stress level when the latest attempt failed.
const failStressBoost = 0.3

// Common session state errors
var (
	ErrInvalidSessionMode  = errors.New("invalid session mode")
	ErrInvalidExamPart     = errors.New("invalid exam part")
	ErrInvalidExamPlan     = errors.New("exam plan attempt quotas must be positive")
	ErrSessionCompleted    = errors.New("session is completed and read-only")
	ErrNoAttemptToAmend    = errors.New("no attempt in the current part to amend")
	ErrSessionNotCompleted = errors.New("session is not completed")
	ErrSummaryAlreadySet   = errors.New("session summary has already been computed")
	ErrCannotEndExam       = errors.New("exam sessions complete by attempt quota, not explicitly")
)

// ExamPlan fixes the number of scored attempts per exam part. An exam session
// transitions to the next part once the current part's quota is met and
// completes when the part three quota is met.
type ExamPlan struct {
	PartOneAttempts   int `json:"part_one_attempts"`
	PartTwoAttempts   int `json:"part_two_attempts"`
	PartThreeAttempts int `json:"part_three_attempts"`
}

// DefaultExamPlan returns the standard three-part plan: three attempts in
// part one, one long turn in part two, four discussion attempts in part three.
func DefaultExamPlan() ExamPlan {
	return ExamPlan{
		PartOneAttempts:   3,
		PartTwoAttempts:   1,
		PartThreeAttempts: 4,
	}
}

// Validate checks that all quotas are positive.
func (p ExamPlan) Validate() error {
	if p.PartOneAttempts <= 0 || p.PartTwoAttempts <= 0 || p.PartThreeAttempts <= 0 {
		return ErrInvalidExamPlan
	}
	return nil
}

// Quota returns the attempt quota for the given part, or 0 for COMPLETED.
func (p ExamPlan) Quota(part ExamPart) int {
	switch part {
	case PartOne:
		return p.PartOneAttempts
	case PartTwo:
		return p.PartTwoAttempts
	case PartThree:
		return p.PartThreeAttempts
	default:
		return 0
	}
}

// nextPart returns the part that follows the given one.
func nextPart(part ExamPart) ExamPart {
	switch part {
	case PartOne:
		return PartTwo
	case PartTwo:
		return PartThree
	default:
		return PartCompleted
	}
}

// Session is a single speaking session: either a structured mock exam that
// progresses through three parts, or an open-ended practice conversation on a
// topic. All state transitions return a new copy; a Session value is never
// mutated in place.
type Session struct {
	ID     uuid.UUID   `json:"id"`
	UserID uuid.UUID   `json:"user_id"`
	Mode   SessionMode `json:"mode"`

	// Topic is the practice conversation topic; empty for exam sessions.
	Topic string `json:"topic,omitempty"`

	CurrentPart ExamPart `json:"current_part"`
	Plan        ExamPlan `json:"plan"`

	// PartAttempts counts scored (non-amending) attempts per part.
	PartAttempts map[ExamPart]int `json:"part_attempts"`

	// StressLevel estimates how much pressure the learner is under based on
	// the latest attempt, in [0, 1].
	StressLevel float64 `json:"stress_level"`

	FluencyTrend        FluencyTrend `json:"fluency_trend"`
	ConsecutiveFailures int          `json:"consecutive_failures"`

	// CurrentPrompt is the question the learner is currently answering.
	CurrentPrompt string `json:"current_prompt"`

	// History is the rolling window of recent attempts, oldest first.
	History []AttemptResult `json:"history"`

	// Summary is set exactly once, when an exam session completes.
	Summary *ExamSummary `json:"summary,omitempty"`

	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewExamSession creates an exam session in part one with the given plan and
// opening prompt.
func NewExamSession(userID uuid.UUID, plan ExamPlan, openingPrompt string) (*Session, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Session{
		ID:            uuid.New(),
		UserID:        userID,
		Mode:          ModeExam,
		CurrentPart:   PartOne,
		Plan:          plan,
		PartAttempts:  map[ExamPart]int{},
		FluencyTrend:  TrendStable,
		CurrentPrompt: openingPrompt,
		StartedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewPracticeSession creates a free practice session on the given topic.
// Practice sessions stay in part one and end only explicitly.
func NewPracticeSession(userID uuid.UUID, topic, openingPrompt string) (*Session, error) {
	now := time.Now().UTC()
	return &Session{
		ID:            uuid.New(),
		UserID:        userID,
		Mode:          ModePractice,
		Topic:         topic,
		CurrentPart:   PartOne,
		Plan:          DefaultExamPlan(),
		PartAttempts:  map[ExamPart]int{},
		FluencyTrend:  TrendStable,
		CurrentPrompt: openingPrompt,
		StartedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// practiceTopics is the suggested-topic catalog for practice conversations.
// Learners may also supply their own topic.
var practiceTopics = []string{
	"hometown",
	"work and study",
	"hobbies and free time",
	"travel",
	"technology",
	"food and cooking",
	"the environment",
	"everyday life",
}

// PracticeTopics returns the catalog of suggested practice topics.
func PracticeTopics() []string {
	return append([]string(nil), practiceTopics...)
}

// Validate checks structural invariants of the session.
func (s *Session) Validate() error {
	switch s.Mode {
	case ModeExam, ModePractice:
	default:
		return ErrInvalidSessionMode
	}

	switch s.CurrentPart {
	case PartOne, PartTwo, PartThree, PartCompleted:
	default:
		return ErrInvalidExamPart
	}

	if err := s.Plan.Validate(); err != nil {
		return err
	}

	if len(s.History) > MaxAttemptHistory {
		return errors.New("attempt history exceeds maximum size")
	}

	return nil
}

// Completed reports whether the session is in its terminal state.
func (s *Session) Completed() bool {
	return s.CurrentPart == PartCompleted
}

// AttemptsInPart returns how many scored attempts were made in the given part.
func (s *Session) AttemptsInPart(part ExamPart) int {
	return s.PartAttempts[part]
}

// LastAttempt returns the most recent attempt in the history, or nil when the
// history is empty.
func (s *Session) LastAttempt() *AttemptResult {
	if len(s.History) == 0 {
		return nil
	}
	last := s.History[len(s.History)-1]
	return &last
}

// WithAppendedAttempt returns a copy of the session with the attempt recorded
// as a new scored attempt in the current part. The part quota counter
// advances, stress and trend are recomputed, the failure streak is extended
// or reset, and exam sessions transition to the next part once the quota is
// met. Completing the part three quota moves the session to COMPLETED and
// stamps EndedAt.
//
// Returns ErrSessionCompleted when the session is already terminal.
func (s *Session) WithAppendedAttempt(attempt AttemptResult, now time.Time) (*Session, error) {
	if s.Completed() {
		return nil, ErrSessionCompleted
	}

	attempt.Part = s.CurrentPart
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = now
	}
	if err := attempt.Validate(); err != nil {
		return nil, err
	}

	updated := s.clone()
	updated.History = append(updated.History, attempt)
	if len(updated.History) > MaxAttemptHistory {
		updated.History = updated.History[len(updated.History)-MaxAttemptHistory:]
	}

	updated.PartAttempts[updated.CurrentPart]++
	updated.recomputeDerived()

	// The failure counter follows the full attempt sequence, not just the
	// retained history window, so it carries on past the cap.
	if attempt.Outcome == OutcomeFail {
		updated.ConsecutiveFailures = s.ConsecutiveFailures + 1
	} else {
		updated.ConsecutiveFailures = 0
	}

	if updated.Mode == ModeExam &&
		updated.PartAttempts[updated.CurrentPart] >= updated.Plan.Quota(updated.CurrentPart) {
		updated.CurrentPart = nextPart(updated.CurrentPart)
		if updated.CurrentPart == PartCompleted {
			ended := now
			updated.EndedAt = &ended
		}
	}

	updated.UpdatedAt = now
	return updated, nil
}

// WithAmendedAttempt returns a copy of the session with the latest attempt of
// the current part replaced by the given one. Quota counters do not advance
// and no part transition can occur; derived state is recomputed from the
// amended history. The original attempt's identity (ID, part, creation time)
// is preserved.
//
// Returns ErrSessionCompleted for terminal sessions and ErrNoAttemptToAmend
// when the current part has no attempt yet.
func (s *Session) WithAmendedAttempt(attempt AttemptResult, now time.Time) (*Session, error) {
	if s.Completed() {
		return nil, ErrSessionCompleted
	}

	last := s.LastAttempt()
	if last == nil || last.Part != s.CurrentPart {
		return nil, ErrNoAttemptToAmend
	}

	attempt.ID = last.ID
	attempt.Part = last.Part
	attempt.CreatedAt = last.CreatedAt
	if err := attempt.Validate(); err != nil {
		return nil, err
	}

	updated := s.clone()
	updated.History[len(updated.History)-1] = attempt
	updated.recomputeDerived()

	// Amending rewrites the latest outcome, so the failure counter sheds the
	// replaced attempt's contribution before taking on the new one.
	switch {
	case attempt.Outcome != OutcomeFail:
		updated.ConsecutiveFailures = 0
	case last.Outcome == OutcomeFail:
		updated.ConsecutiveFailures = s.ConsecutiveFailures
	default:
		updated.ConsecutiveFailures = updated.trailingFailRun()
	}

	updated.UpdatedAt = now
	return updated, nil
}

// WithPrompt returns a copy of the session with a new current prompt.
func (s *Session) WithPrompt(prompt string, now time.Time) (*Session, error) {
	if s.Completed() {
		return nil, ErrSessionCompleted
	}
	updated := s.clone()
	updated.CurrentPrompt = prompt
	updated.UpdatedAt = now
	return updated, nil
}

// WithSummary returns a copy of the session carrying its final exam summary.
// A summary can be attached exactly once and only to a completed session.
func (s *Session) WithSummary(summary ExamSummary, now time.Time) (*Session, error) {
	if !s.Completed() {
		return nil, ErrSessionNotCompleted
	}
	if s.Summary != nil {
		return nil, ErrSummaryAlreadySet
	}
	updated := s.clone()
	updated.Summary = &summary
	updated.UpdatedAt = now
	return updated, nil
}

// Ended returns a copy of the session moved to the terminal state. Only
// practice sessions may be ended explicitly; exam sessions complete through
// their attempt quotas.
func (s *Session) Ended(now time.Time) (*Session, error) {
	if s.Completed() {
		return nil, ErrSessionCompleted
	}
	if s.Mode != ModePractice {
		return nil, ErrCannotEndExam
	}
	updated := s.clone()
	updated.CurrentPart = PartCompleted
	ended := now
	updated.EndedAt = &ended
	updated.UpdatedAt = now
	return updated, nil
}

// clone performs a deep copy of the session so that updates never alias the
// receiver's history or counters.
func (s *Session) clone() *Session {
	updated := *s
	updated.History = make([]AttemptResult, len(s.History))
	copy(updated.History, s.History)
	updated.PartAttempts = make(map[ExamPart]int, len(s.PartAttempts))
	for k, v := range s.PartAttempts {
		updated.PartAttempts[k] = v
	}
	if s.Summary != nil {
		summary := *s.Summary
		updated.Summary = &summary
	}
	if s.EndedAt != nil {
		ended := *s.EndedAt
		updated.EndedAt = &ended
	}
	return &updated
}

// recomputeDerived refreshes stress level and fluency trend from the attempt
// history.
func (s *Session) recomputeDerived() {
	last := s.LastAttempt()
	if last == nil {
		s.StressLevel = 0
		s.FluencyTrend = TrendStable
		return
	}

	// Stress reacts only to the latest attempt: its hesitation plus a fixed
	// boost when the attempt failed.
	stress := last.Metrics.HesitationRatio
	if last.Outcome == OutcomeFail {
		stress += failStressBoost
	}
	s.StressLevel = clamp01(stress)

	// Trend compares the two most recent speaking rates.
	s.FluencyTrend = TrendStable
	if len(s.History) >= 2 {
		prev := s.History[len(s.History)-2]
		delta := last.Metrics.WordsPerMinute - prev.Metrics.WordsPerMinute
		switch {
		case delta > trendThresholdWPM:
			s.FluencyTrend = TrendImproving
		case delta < -trendThresholdWPM:
			s.FluencyTrend = TrendDegrading
		}
	}
}

// trailingFailRun is the length of the FAIL run at the end of the retained
// history. It understates runs longer than the window and is only consulted
// when the true counter cannot be carried forward.
func (s *Session) trailingFailRun() int {
	failures := 0
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Outcome != OutcomeFail {
			break
		}
		failures++
	}
	return failures
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
