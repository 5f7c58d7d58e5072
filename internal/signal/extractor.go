// Package signal extracts deterministic speaking metrics from a transcribed
// answer: speaking rate, hesitation, filler usage, lexical diversity,
// grammatical complexity, acoustic pronunciation quality and semantic
// coherence against the prompt. Everything here is pure computation; the
// only external dependency is the Embedder used for coherence.
package signal

import (
	"regexp"
	"strings"

	"github.com/phrazzld/viva-api/internal/domain"
)

// Hesitation classification: answers longer than hesitationMinSeconds
// delivered below hesitationMaxWPM are flagged with a fixed ratio.
const (
	hesitationMinSeconds = 5.0
	hesitationMaxWPM     = 40.0
	hesitationFlagValue  = 0.8
)

// fillerPattern matches the filler lexicon on word boundaries,
// case-insensitively (input is lowercased first).
var fillerPattern = regexp.MustCompile(`\b(um|uh|er|ah|like|you know)\b`)

// connectivePattern matches subordinating and linking connectives used as a
// proxy for grammatical complexity.
var connectivePattern = regexp.MustCompile(`\b(because|although|however|therefore|while|if|which|that)\b`)

// MechanicalMetrics computes every transcript-derived metric for one attempt.
// Coherence and pronunciation are filled in separately from their own inputs.
// An empty transcript yields zeroes across the board; a negative duration is
// treated as zero so malformed input degrades instead of producing metrics
// that fail range validation.
func MechanicalMetrics(transcript string, durationSeconds float64) domain.AttemptMetrics {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	words := strings.Fields(strings.ToLower(transcript))
	wordCount := len(words)
	wpm := WordsPerMinute(wordCount, durationSeconds)

	return domain.AttemptMetrics{
		WordCount:         wordCount,
		DurationSeconds:   durationSeconds,
		WordsPerMinute:    wpm,
		HesitationRatio:   HesitationRatio(durationSeconds, wpm),
		FillerCount:       CountFillers(transcript),
		LexicalDiversity:  lexicalDiversity(words),
		GrammarComplexity: grammarComplexity(transcript, wordCount),
	}
}

// WordsPerMinute computes the raw speaking rate. A zero or negative duration
// yields 0 rather than a division error.
func WordsPerMinute(wordCount int, durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	return float64(wordCount) / (durationSeconds / 60.0)
}

// HesitationRatio is a binary classifier: long answers delivered very slowly
// are flagged at a fixed ratio, everything else scores zero.
func HesitationRatio(durationSeconds, wpm float64) float64 {
	if durationSeconds > hesitationMinSeconds && wpm < hesitationMaxWPM {
		return hesitationFlagValue
	}
	return 0
}

// CountFillers counts filler-word occurrences in the transcript. Multi-word
// fillers ("you know") count once per occurrence.
func CountFillers(transcript string) int {
	return len(fillerPattern.FindAllString(strings.ToLower(transcript), -1))
}

// LexicalDiversity is the type-token ratio of the transcript: unique
// lowercased tokens over total tokens. Empty input scores 0.
func LexicalDiversity(transcript string) float64 {
	return lexicalDiversity(strings.Fields(strings.ToLower(transcript)))
}

func lexicalDiversity(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	return float64(len(unique)) / float64(len(words))
}

// GrammarComplexity is the density of connectives relative to total words.
// Empty input scores 0.
func GrammarComplexity(transcript string) float64 {
	return grammarComplexity(transcript, len(strings.Fields(transcript)))
}

func grammarComplexity(transcript string, wordCount int) float64 {
	if wordCount == 0 {
		return 0
	}
	matches := connectivePattern.FindAllString(strings.ToLower(transcript), -1)
	return float64(len(matches)) / float64(wordCount)
}
