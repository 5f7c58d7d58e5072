package srs

import (
	"math"
	"time"

	"github.com/phrazzld/viva-api/internal/domain"
)

// calculateNewEaseFactor determines the new ease factor after a review.
//
// Failed recalls (quality below the success threshold) take a fixed penalty.
// Successful recalls follow the SM-2 adjustment curve: perfect recalls gain
// a little ease, marginal ones lose some, with the loss growing quadratically
// as quality drops toward the threshold.
//
// The result is always floored at params.MinEaseFactor.
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	var newEF float64
	if quality < params.SuccessThreshold {
		newEF = currentEF - params.FailEasePenalty
	} else {
		q := float64(quality)
		newEF = currentEF + 0.1 - (5-q)*(0.08+(5-q)*0.02)
	}

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the next review interval in days.
//
// Failure resets the item to the fail interval. The first successful recall
// jumps to the first-success interval; subsequent successes grow the interval
// multiplicatively by the current ease factor (truncated to whole days).
func calculateNewInterval(currentInterval int, easeFactor float64, quality int, params *Params) int {
	if quality < params.SuccessThreshold {
		return params.FailInterval
	}

	if currentInterval <= params.FailInterval {
		return params.FirstSuccessInterval
	}

	return int(math.Floor(float64(currentInterval) * easeFactor))
}

// calculateNewMastery adjusts the 0-100 mastery level. Failures are penalized;
// only confident recalls (quality at or above the mastery threshold) gain.
// Recalls between the two thresholds leave mastery unchanged.
func calculateNewMastery(currentMastery, quality int, params *Params) int {
	if quality < params.SuccessThreshold {
		mastery := currentMastery - params.MasteryPenalty
		if mastery < 0 {
			mastery = 0
		}
		return mastery
	}

	if quality >= params.MasteryThreshold {
		mastery := currentMastery + params.MasteryGain
		if mastery > 100 {
			mastery = 100
		}
		return mastery
	}

	return currentMastery
}

// calculateNextItem computes the post-review state of a vocabulary item as a
// new instance. The input item is never modified.
//
// Note: the interval grows from the pre-review ease factor, matching the
// review order of operations (schedule first, then adjust difficulty).
func calculateNextItem(
	item *domain.VocabularyItem,
	quality int,
	now time.Time,
	params *Params,
) *domain.VocabularyItem {
	updated := *item

	updated.IntervalDays = calculateNewInterval(item.IntervalDays, item.EaseFactor, quality, params)
	updated.EaseFactor = calculateNewEaseFactor(item.EaseFactor, quality, params)
	updated.MasteryLevel = calculateNewMastery(item.MasteryLevel, quality, params)

	updated.LastReviewedAt = now
	updated.NextReviewAt = now.AddDate(0, 0, updated.IntervalDays)
	updated.UpdatedAt = now

	return &updated
}
