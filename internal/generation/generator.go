package generation

import (
	"context"

	"github.com/phrazzld/viva-api/internal/domain"
)

// InterventionAction is the adaptive decision the examiner policy takes after
// an attempt.
type InterventionAction string

// Possible intervention actions
const (
	// ActionMaintain keeps the current difficulty and moves on.
	ActionMaintain InterventionAction = "MAINTAIN"

	// ActionEscalatePressure increases question difficulty or pace.
	ActionEscalatePressure InterventionAction = "ESCALATE_PRESSURE"

	// ActionDeescalatePressure eases off after signs of stress.
	ActionDeescalatePressure InterventionAction = "DEESCALATE_PRESSURE"

	// ActionForceRetry asks the learner to re-answer the same prompt.
	ActionForceRetry InterventionAction = "FORCE_RETRY"

	// ActionDrillSpecific pivots to a targeted drill on a weak area.
	ActionDrillSpecific InterventionAction = "DRILL_SPECIFIC"

	// ActionFail marks the attempt as failed.
	ActionFail InterventionAction = "FAIL"
)

// IsValid reports whether the action is one of the known values.
func (a InterventionAction) IsValid() bool {
	switch a {
	case ActionMaintain, ActionEscalatePressure, ActionDeescalatePressure,
		ActionForceRetry, ActionDrillSpecific, ActionFail:
		return true
	default:
		return false
	}
}

// SkillScores holds the policy's per-category band estimates (0-9) for a
// single attempt.
type SkillScores struct {
	Fluency       float64 `json:"fluency"`
	Coherence     float64 `json:"coherence"`
	Lexical       float64 `json:"lexical"`
	Grammar       float64 `json:"grammar"`
	Pronunciation float64 `json:"pronunciation"`
}

// Intervention is the examiner policy's full response to one attempt: the
// adaptive action to take, the next question, and feedback for the learner.
type Intervention struct {
	Action InterventionAction `json:"action"`

	// NextPrompt is the question to put to the learner next.
	NextPrompt string `json:"next_prompt"`

	// Feedback is markdown-formatted coaching on the answer just given.
	Feedback string `json:"feedback"`

	// IdealResponse sketches a band-nine answer to the same prompt.
	IdealResponse string `json:"ideal_response"`

	// TargetVocabulary lists words the learner should work into future
	// answers; each is added to their spaced-repetition deck.
	TargetVocabulary []string `json:"target_vocabulary"`

	Scores SkillScores `json:"scores"`
}

// PolicyInput is the pre-decision snapshot handed to the examiner policy:
// the state of the session before this attempt was recorded, plus the
// attempt's extracted metrics and the learner's profile.
type PolicyInput struct {
	Mode  domain.SessionMode `json:"mode"`
	Part  domain.ExamPart    `json:"part"`
	Topic string             `json:"topic,omitempty"`

	Prompt     string                `json:"prompt"`
	Transcript string                `json:"transcript"`
	Metrics    domain.AttemptMetrics `json:"metrics"`

	StressLevel         float64             `json:"stress_level"`
	FluencyTrend        domain.FluencyTrend `json:"fluency_trend"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`

	TargetBand float64 `json:"target_band"`
	Weakness   string  `json:"weakness,omitempty"`

	// ChronicIssues are the learner's most frequent error categories,
	// most frequent first.
	ChronicIssues []string `json:"chronic_issues,omitempty"`
}

// PolicyGenerator decides the examiner's next move after an attempt.
// Implementations call an external model and must validate its response
// strictly; callers substitute the deterministic fallback on any error.
type PolicyGenerator interface {
	// GenerateIntervention produces the adaptive examiner response for one
	// attempt. The returned intervention is guaranteed schema-valid.
	GenerateIntervention(ctx context.Context, input PolicyInput) (*Intervention, error)
}

// Drill is a single correction exercise targeting one error category.
type Drill struct {
	ErrorType         string `json:"error_type"`
	SentenceWithError string `json:"sentence_with_error"`
	CorrectSentence   string `json:"correct_sentence"`
	Explanation       string `json:"explanation"`
}

// DrillSet is a batch of drills for one remediation session.
type DrillSet struct {
	// FocusArea is the primary error category being addressed.
	FocusArea string  `json:"focus_area"`
	Drills    []Drill `json:"drills"`
}

// MaxDrillsPerSet caps how many drills one generation request may produce.
const MaxDrillsPerSet = 5

// DrillGenerator produces targeted correction drills for a chronic error
// category. Callers substitute FallbackDrills on any error.
type DrillGenerator interface {
	// GenerateDrills produces up to count drills (capped at
	// MaxDrillsPerSet) for the given error category.
	GenerateDrills(ctx context.Context, errorType string, count int) (*DrillSet, error)
}
