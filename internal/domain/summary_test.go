package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func attemptWithMetrics(m AttemptMetrics) AttemptResult {
	return AttemptResult{Metrics: m, Outcome: OutcomePass}
}

func TestComputeExamSummaryNoSamples(t *testing.T) {
	t.Parallel()

	summary := ComputeExamSummary(nil)

	assert.Equal(t, 1.0, summary.FluencyBand)
	assert.Equal(t, 1.0, summary.CoherenceBand)
	assert.Equal(t, 1.0, summary.LexicalBand)
	assert.Equal(t, 1.0, summary.GrammarBand)
	assert.Equal(t, 1.0, summary.PronunciationBand)
	assert.Equal(t, 1.0, summary.OverallBand)
}

func TestComputeExamSummaryCalibration(t *testing.T) {
	t.Parallel()

	attempts := []AttemptResult{
		attemptWithMetrics(AttemptMetrics{
			WordsPerMinute:     120, // 120/15 = 8.0
			CoherenceScore:     0.5, // 0.5*9 = 4.5
			LexicalDiversity:   0.4, // 0.4*15 = 6.0
			GrammarComplexity:  0.1, // 0.1*40 = 4.0
			PronunciationScore: 0.7, // 0.7*9 = 6.3
		}),
	}

	summary := ComputeExamSummary(attempts)

	assert.InDelta(t, 8.0, summary.FluencyBand, 1e-9)
	assert.InDelta(t, 4.5, summary.CoherenceBand, 1e-9)
	assert.InDelta(t, 6.0, summary.LexicalBand, 1e-9)
	assert.InDelta(t, 4.0, summary.GrammarBand, 1e-9)
	assert.InDelta(t, 6.3, summary.PronunciationBand, 1e-9)
	// mean = (8.0+4.5+6.0+4.0+6.3)/5 = 5.76 -> 5.8
	assert.InDelta(t, 5.8, summary.OverallBand, 1e-9)
}

func TestComputeExamSummaryKeepsCategoryPrecision(t *testing.T) {
	t.Parallel()

	attempts := []AttemptResult{
		attemptWithMetrics(AttemptMetrics{WordsPerMinute: 100}),
	}

	summary := ComputeExamSummary(attempts)

	// 100/15 stays unrounded; only the overall band is rounded.
	assert.InDelta(t, 100.0/15.0, summary.FluencyBand, 1e-9)
	// (100/15 + 4*1.0) / 5 = 2.1333... -> 2.1
	assert.InDelta(t, 2.1, summary.OverallBand, 1e-9)
}

func TestComputeExamSummaryAveragesAcrossAttempts(t *testing.T) {
	t.Parallel()

	attempts := []AttemptResult{
		attemptWithMetrics(AttemptMetrics{WordsPerMinute: 60}),
		attemptWithMetrics(AttemptMetrics{WordsPerMinute: 120}),
	}

	summary := ComputeExamSummary(attempts)

	// mean wpm 90 -> 90/15 = 6.0
	assert.InDelta(t, 6.0, summary.FluencyBand, 1e-9)
}

func TestComputeExamSummaryClamping(t *testing.T) {
	t.Parallel()

	t.Run("scores clamp at band nine", func(t *testing.T) {
		t.Parallel()
		attempts := []AttemptResult{
			attemptWithMetrics(AttemptMetrics{
				WordsPerMinute:     300, // 20 -> clamped to 9
				CoherenceScore:     1.0, // 9
				LexicalDiversity:   1.0, // 15 -> clamped to 9
				GrammarComplexity:  0.5, // 20 -> clamped to 9
				PronunciationScore: 1.0, // 9
			}),
		}

		summary := ComputeExamSummary(attempts)
		assert.Equal(t, 9.0, summary.FluencyBand)
		assert.Equal(t, 9.0, summary.LexicalBand)
		assert.Equal(t, 9.0, summary.GrammarBand)
		assert.Equal(t, 9.0, summary.OverallBand)
	})

	t.Run("scores clamp at band one", func(t *testing.T) {
		t.Parallel()
		attempts := []AttemptResult{attemptWithMetrics(AttemptMetrics{})}

		summary := ComputeExamSummary(attempts)
		assert.Equal(t, 1.0, summary.FluencyBand)
		assert.Equal(t, 1.0, summary.OverallBand)
	})
}
