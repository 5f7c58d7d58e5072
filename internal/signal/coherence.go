package signal

import (
	"context"
	"math"
)

// Embedder produces a fixed-width vector representation of a text.
// Implementations must be safe for concurrent use. Degraded providers should
// return a zero vector rather than an error where possible; either way the
// coherence score falls back to 0.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Coherence scores how on-topic a transcript is relative to its prompt as
// the cosine similarity of their embeddings. Empty inputs, embedding
// failures, and zero-norm vectors all score 0 so a degraded embedding
// provider can never fail an attempt.
func Coherence(ctx context.Context, embedder Embedder, prompt, transcript string) float64 {
	if prompt == "" || transcript == "" {
		return 0
	}

	promptVec, err := embedder.Embed(ctx, prompt)
	if err != nil {
		return 0
	}
	transcriptVec, err := embedder.Embed(ctx, transcript)
	if err != nil {
		return 0
	}

	return CosineSimilarity(promptVec, transcriptVec)
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths and zero-norm vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
