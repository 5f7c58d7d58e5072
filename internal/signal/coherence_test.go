package signal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubEmbedder returns canned vectors keyed by input text.
type stubEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{name: "identical vectors", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 1},
		{name: "opposite vectors", a: []float64{1, 0}, b: []float64{-1, 0}, want: -1},
		{name: "orthogonal vectors", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "zero norm scores zero", a: []float64{0, 0}, b: []float64{1, 1}, want: 0},
		{name: "length mismatch scores zero", a: []float64{1, 2}, b: []float64{1, 2, 3}, want: 0},
		{name: "empty vectors score zero", a: nil, b: nil, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.want, CosineSimilarity(tc.a, tc.b), 1e-9)
		})
	}
}

func TestCoherence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("on topic answer scores high", func(t *testing.T) {
		t.Parallel()
		embedder := &stubEmbedder{vectors: map[string][]float64{
			"Describe your hometown.": {1, 1, 0},
			"I grew up by the sea.":   {1, 0.9, 0.1},
		}}
		score := Coherence(ctx, embedder, "Describe your hometown.", "I grew up by the sea.")
		assert.Greater(t, score, 0.9)
	})

	t.Run("empty inputs score zero", func(t *testing.T) {
		t.Parallel()
		embedder := &stubEmbedder{vectors: map[string][]float64{}}
		assert.Equal(t, 0.0, Coherence(ctx, embedder, "", "answer"))
		assert.Equal(t, 0.0, Coherence(ctx, embedder, "prompt", ""))
	})

	t.Run("embedding failure scores zero", func(t *testing.T) {
		t.Parallel()
		embedder := &stubEmbedder{err: errors.New("provider down")}
		assert.Equal(t, 0.0, Coherence(ctx, embedder, "prompt", "answer"))
	})

	t.Run("zero vector fallback scores zero", func(t *testing.T) {
		t.Parallel()
		embedder := &stubEmbedder{vectors: map[string][]float64{
			"prompt": {0, 0, 0},
			"answer": {1, 2, 3},
		}}
		assert.Equal(t, 0.0, Coherence(ctx, embedder, "prompt", "answer"))
	})
}
