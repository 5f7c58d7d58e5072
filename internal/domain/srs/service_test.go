package srs

import (
	"errors"
	"testing"
	"time"
)

func TestServiceReviewValidation(t *testing.T) {
	t.Parallel()

	service := NewDefaultService()
	now := time.Now().UTC()

	t.Run("nil item rejected", func(t *testing.T) {
		t.Parallel()
		_, err := service.Review(nil, 4, now)
		if !errors.Is(err, ErrNilItem) {
			t.Errorf("expected ErrNilItem, got %v", err)
		}
	})

	t.Run("quality bounds enforced", func(t *testing.T) {
		t.Parallel()
		item := testItem(1, 2.5, 0)

		for _, quality := range []int{-1, 6} {
			if _, err := service.Review(item, quality, now); !errors.Is(err, ErrInvalidQuality) {
				t.Errorf("quality %d: expected ErrInvalidQuality, got %v", quality, err)
			}
		}

		for quality := 0; quality <= 5; quality++ {
			if _, err := service.Review(item, quality, now); err != nil {
				t.Errorf("quality %d: unexpected error %v", quality, err)
			}
		}
	})
}

func TestServiceWithCustomParams(t *testing.T) {
	t.Parallel()

	params := NewParams(ParamsConfig{FirstSuccessInterval: 3})
	service := NewServiceWithParams(params)
	now := time.Now().UTC()

	item := testItem(1, 2.5, 0)
	updated, err := service.Review(item, 4, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.IntervalDays != 3 {
		t.Errorf("IntervalDays = %d, want 3", updated.IntervalDays)
	}
}
