package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/viva-api/internal/domain"
)

// Common errors
var (
	ErrNilItem        = errors.New("vocabulary item cannot be nil")
	ErrInvalidQuality = errors.New("review quality must be between 0 and 5")
)

// Service defines the interface for SRS scheduling operations.
type Service interface {
	// Review computes the post-review state of a vocabulary item from a
	// quality grade (0-5). It returns a new item instance and never
	// modifies the input.
	Review(item *domain.VocabularyItem, quality int, now time.Time) (*domain.VocabularyItem, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// Review implements the Service interface.
func (s *defaultService) Review(
	item *domain.VocabularyItem,
	quality int,
	now time.Time,
) (*domain.VocabularyItem, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	if quality < 0 || quality > 5 {
		return nil, ErrInvalidQuality
	}

	return calculateNextItem(item, quality, now, s.params), nil
}
