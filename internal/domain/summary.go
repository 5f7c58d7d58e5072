package domain

import "math"

// Band score calibration factors. Each raw metric mean is scaled onto the
// 1-9 band range with a fixed linear factor, then clamped.
const (
	fluencyBandDivisor      = 15.0 // wpm / 15
	coherenceBandFactor     = 9.0
	lexicalBandFactor       = 15.0
	grammarBandFactor       = 40.0
	pronunciationBandFactor = 9.0

	minBand = 1.0
	maxBand = 9.0

	// defaultBand is used for a category with no samples, so missing data
	// does not masquerade as measured performance.
	defaultBand = 1.0
)

// ExamSummary holds the final per-category band scores of a completed exam
// session plus the overall band.
type ExamSummary struct {
	FluencyBand       float64 `json:"fluency_band"`
	CoherenceBand     float64 `json:"coherence_band"`
	LexicalBand       float64 `json:"lexical_band"`
	GrammarBand       float64 `json:"grammar_band"`
	PronunciationBand float64 `json:"pronunciation_band"`
	OverallBand       float64 `json:"overall_band"`
}

// ComputeExamSummary aggregates the session's attempts into band scores.
// For each category the raw metric values are averaged across every attempt
// in the history, calibrated linearly onto the band scale and clamped to
// [1, 9]. A category with no samples scores the default band. The overall
// band is the mean of the five category bands rounded to one decimal.
func ComputeExamSummary(attempts []AttemptResult) ExamSummary {
	n := len(attempts)

	var wpm, coherence, lexical, grammar, pronunciation float64
	for _, a := range attempts {
		wpm += a.Metrics.WordsPerMinute
		coherence += a.Metrics.CoherenceScore
		lexical += a.Metrics.LexicalDiversity
		grammar += a.Metrics.GrammarComplexity
		pronunciation += a.Metrics.PronunciationScore
	}

	summary := ExamSummary{
		FluencyBand:       defaultBand,
		CoherenceBand:     defaultBand,
		LexicalBand:       defaultBand,
		GrammarBand:       defaultBand,
		PronunciationBand: defaultBand,
	}

	if n > 0 {
		count := float64(n)
		summary.FluencyBand = calibrate(wpm / count / fluencyBandDivisor)
		summary.CoherenceBand = calibrate(coherence / count * coherenceBandFactor)
		summary.LexicalBand = calibrate(lexical / count * lexicalBandFactor)
		summary.GrammarBand = calibrate(grammar / count * grammarBandFactor)
		summary.PronunciationBand = calibrate(pronunciation / count * pronunciationBandFactor)
	}

	summary.OverallBand = roundBand((summary.FluencyBand +
		summary.CoherenceBand +
		summary.LexicalBand +
		summary.GrammarBand +
		summary.PronunciationBand) / 5.0)

	return summary
}

// calibrate clamps a scaled score onto the band range. Category bands keep
// full precision; only the overall band is rounded.
func calibrate(v float64) float64 {
	if v < minBand {
		v = minBand
	}
	if v > maxBand {
		v = maxBand
	}
	return v
}

// roundBand rounds to one decimal place.
func roundBand(v float64) float64 {
	return math.Round(v*10) / 10
}
