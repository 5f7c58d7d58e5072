// Package taxonomy classifies examiner feedback into a fixed catalog of
// recurring speaking-error categories. Classification is a deterministic
// pattern match over the feedback text, so the same feedback always maps to
// the same categories.
package taxonomy

import (
	"regexp"
	"strings"
)

// ErrorType identifies one category of speaking error. The string values are
// the display names persisted in the error log and shown to learners.
type ErrorType string

// Grammar error categories
const (
	SubjectVerbAgreement ErrorType = "Subject-Verb Agreement"
	ArticleUsage         ErrorType = "Article Usage"
	TenseConsistency     ErrorType = "Tense Consistency"
	PronounReference     ErrorType = "Pronoun Reference"
	ConditionalStructure ErrorType = "Conditional Structure"
	PassiveVoice         ErrorType = "Passive Voice Errors"
	PrepositionUsage     ErrorType = "Preposition Usage"
)

// Fluency error categories
const (
	FillerWords    ErrorType = "Filler Words (um, uh)"
	Hesitation     ErrorType = "Hesitation/Long Pauses"
	Repetition     ErrorType = "Word Repetition"
	SelfCorrection ErrorType = "Excessive Self-Correction"
)

// Coherence error categories
const (
	MissingConnectors ErrorType = "Missing Connectors"
	WeakStructure     ErrorType = "Weak Answer Structure"
	TopicDrift        ErrorType = "Topic Drift"
)

// Lexical error categories
const (
	WordChoice      ErrorType = "Inappropriate Word Choice"
	Collocation     ErrorType = "Collocation Errors"
	VocabularyRange ErrorType = "Limited Vocabulary Range"
)

// rule binds one category to the patterns that signal it in feedback text.
type rule struct {
	errorType ErrorType
	patterns  []*regexp.Regexp
}

// rules is the fixed classification table. Order determines the order of
// Classify results, keeping classification fully deterministic. Patterns are
// matched against lowercased feedback; categories without textual signals
// (e.g. Topic Drift) are recorded by other pipeline stages, not by this
// classifier.
var rules = []rule{
	{SubjectVerbAgreement, compileAll(
		`subject.{0,20}verb.{0,10}agree`,
		`singular.{0,10}plural`,
		`\bhe do\b|\bshe do\b|\bit do\b`,
		`\bthey does\b|\bhe have\b|\bshe have\b`,
	)},
	{ArticleUsage, compileAll(
		`article`,
		`missing.{0,10}(a|an|the)`,
		`incorrect.{0,10}(a|an|the)`,
		`definite|indefinite`,
	)},
	{TenseConsistency, compileAll(
		`tense`,
		`past.{0,10}present`,
		`present.{0,10}past`,
		`verb.{0,10}form`,
	)},
	{ConditionalStructure, compileAll(
		`conditional`,
		`if.{0,10}would`,
		`hypothetical`,
	)},
	{FillerWords, compileAll(
		`filler`,
		`\bum\b|\buh\b|\ber\b`,
		`you know|like|basically`,
	)},
	{Hesitation, compileAll(
		`hesitat`,
		`pause`,
		`silence`,
		`fluency`,
	)},
	{MissingConnectors, compileAll(
		`connector`,
		`linking.{0,10}word`,
		`cohesion`,
		`however|moreover|nevertheless|furthermore`,
	)},
	{WordChoice, compileAll(
		`word.{0,10}choice`,
		`vocabulary`,
		`lexical`,
		`inappropriate.{0,10}word`,
	)},
	{Collocation, compileAll(
		`collocation`,
		`doesn't.{0,10}collocate`,
		`natural.{0,10}pairing`,
	)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// Classify returns every error category whose patterns match the feedback
// text. Matching is case-insensitive and multi-label; the result order
// follows the fixed rule table. Empty feedback yields no categories.
func Classify(feedback string) []ErrorType {
	if feedback == "" {
		return nil
	}

	lowered := strings.ToLower(feedback)

	var detected []ErrorType
	for _, r := range rules {
		for _, pattern := range r.patterns {
			if pattern.MatchString(lowered) {
				detected = append(detected, r.errorType)
				break
			}
		}
	}

	return detected
}

// DisplayName returns the human-readable name for an error type.
func DisplayName(t ErrorType) string {
	return string(t)
}
