package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLearner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		email      string
		hashed     string
		targetBand float64
		wantErr    error
	}{
		{name: "valid learner", email: "alex@example.com", hashed: "$2a$10$hash", targetBand: 7.0},
		{name: "email normalized", email: "  Alex@Example.COM ", hashed: "$2a$10$hash", targetBand: 6.5},
		{name: "empty email", email: "", hashed: "$2a$10$hash", targetBand: 7.0, wantErr: ErrLearnerEmailEmpty},
		{name: "malformed email", email: "not-an-email", hashed: "$2a$10$hash", targetBand: 7.0, wantErr: ErrLearnerEmailInvalid},
		{name: "missing password hash", email: "alex@example.com", hashed: "", targetBand: 7.0, wantErr: ErrLearnerPasswordEmpty},
		{name: "band too low", email: "alex@example.com", hashed: "$2a$10$hash", targetBand: 0.5, wantErr: ErrInvalidTargetBand},
		{name: "band too high", email: "alex@example.com", hashed: "$2a$10$hash", targetBand: 9.5, wantErr: ErrInvalidTargetBand},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			learner, err := NewLearner(tc.email, tc.hashed, tc.targetBand, "fluency")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, "", learner.ID.String())
			assert.Equal(t, 0, learner.TotalExamsTaken)
			assert.Equal(t, 0.0, learner.AverageBandScore)
		})
	}
}

func TestLearnerEmailNormalization(t *testing.T) {
	t.Parallel()

	learner, err := NewLearner("  Alex@Example.COM ", "$2a$10$hash", 7.0, "")
	require.NoError(t, err)
	assert.Equal(t, "alex@example.com", learner.Email)
}

func TestWithExamResult(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	learner, err := NewLearner("alex@example.com", "$2a$10$hash", 7.0, "fluency")
	require.NoError(t, err)

	first := learner.WithExamResult(6.0, now)
	assert.Equal(t, 1, first.TotalExamsTaken)
	assert.InDelta(t, 6.0, first.AverageBandScore, 1e-9)

	second := first.WithExamResult(7.0, now)
	assert.Equal(t, 2, second.TotalExamsTaken)
	assert.InDelta(t, 6.5, second.AverageBandScore, 1e-9)

	// Originals are untouched.
	assert.Equal(t, 0, learner.TotalExamsTaken)
	assert.Equal(t, 1, first.TotalExamsTaken)
}
