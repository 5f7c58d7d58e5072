package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPronunciationScore(t *testing.T) {
	t.Parallel()

	t.Run("undecodable audio is degraded", func(t *testing.T) {
		t.Parallel()
		score, degraded := PronunciationScore(AudioFeatures{})
		assert.Equal(t, 0.0, score)
		assert.True(t, degraded)

		score, degraded = PronunciationScore(AudioFeatures{RMS: []float64{0.1}})
		assert.Equal(t, 0.0, score)
		assert.True(t, degraded)
	})

	t.Run("steady clear speech scores highest", func(t *testing.T) {
		t.Parallel()
		// Constant energy: perfect consistency. High ZCR: clarity caps at 1.
		features := AudioFeatures{
			RMS: []float64{0.2, 0.2, 0.2, 0.2},
			ZCR: []float64{0.15, 0.15, 0.15, 0.15},
		}
		score, degraded := PronunciationScore(features)
		assert.False(t, degraded)
		assert.InDelta(t, 1.0, score, 1e-6)
	})

	t.Run("muffled speech loses clarity", func(t *testing.T) {
		t.Parallel()
		// Constant energy but low ZCR: clarity = 0.05*10 = 0.5.
		features := AudioFeatures{
			RMS: []float64{0.2, 0.2, 0.2, 0.2},
			ZCR: []float64{0.05, 0.05, 0.05, 0.05},
		}
		score, degraded := PronunciationScore(features)
		assert.False(t, degraded)
		assert.InDelta(t, 0.4*1.0+0.6*0.5, score, 1e-6)
	})

	t.Run("erratic energy loses consistency", func(t *testing.T) {
		t.Parallel()
		// Wildly varying RMS drives the std/mean ratio past 1, so
		// consistency bottoms out at 0.
		features := AudioFeatures{
			RMS: []float64{0.001, 0.9, 0.001, 0.9, 0.001, 0.9, 0.001, 0.9, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001, 0.001},
			ZCR: []float64{0.2, 0.2},
		}
		score, degraded := PronunciationScore(features)
		assert.False(t, degraded)
		assert.Less(t, score, 0.7)
		assert.GreaterOrEqual(t, score, 0.6, "clarity alone still contributes")
	})
}
