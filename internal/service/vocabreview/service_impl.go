package vocabreview

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/domain/srs"
	"github.com/phrazzld/viva-api/internal/platform/logger"
	"github.com/phrazzld/viva-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	vocabStore store.VocabularyStore
	srsService srs.Service
	logger     *slog.Logger
}

// NewService creates a new vocabulary review Service implementation.
func NewService(
	vocabStore store.VocabularyStore,
	srsService srs.Service,
	logger *slog.Logger,
) Service {
	if vocabStore == nil {
		panic("vocabStore cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &serviceImpl{
		vocabStore: vocabStore,
		srsService: srsService,
		logger:     logger.With(slog.String("component", "vocab_review_service")),
	}
}

// Add implements Service.Add.
// Duplicate adds are idempotent: the existing item is returned unchanged.
func (s *serviceImpl) Add(
	ctx context.Context,
	userID uuid.UUID,
	word, usage string,
) (*domain.VocabularyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := domain.NewVocabularyItem(userID, word, usage)
	if err != nil {
		log.Warn("invalid vocabulary item",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	err = s.vocabStore.Create(ctx, item)
	if err == nil {
		log.Debug("vocabulary item added",
			slog.String("user_id", userID.String()),
			slog.String("word", item.Word))
		return item, nil
	}

	if errors.Is(err, store.ErrVocabularyItemExists) {
		existing, getErr := s.vocabStore.GetByUserAndWord(ctx, userID, item.Word)
		if getErr != nil {
			return nil, &ServiceError{
				Operation: "add_word",
				Message:   "failed to load existing item",
				Err:       getErr,
			}
		}
		log.Debug("vocabulary item already tracked",
			slog.String("user_id", userID.String()),
			slog.String("word", item.Word))
		return existing, nil
	}

	log.Error("failed to add vocabulary item",
		slog.String("error", err.Error()),
		slog.String("user_id", userID.String()),
		slog.String("word", item.Word))
	return nil, &ServiceError{
		Operation: "add_word",
		Message:   "failed to save item",
		Err:       err,
	}
}

// Due implements Service.Due.
func (s *serviceImpl) Due(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.VocabularyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	items, err := s.vocabStore.ListDue(ctx, userID, now, limit)
	if err != nil {
		log.Error("failed to list due vocabulary items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, &ServiceError{
			Operation: "list_due",
			Message:   "failed to load due items",
			Err:       err,
		}
	}

	log.Debug("listed due vocabulary items",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(items)))
	return items, nil
}

// Review implements Service.Review.
func (s *serviceImpl) Review(
	ctx context.Context,
	userID, itemID uuid.UUID,
	answer ReviewAnswer,
) (*domain.VocabularyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := s.vocabStore.GetByID(ctx, itemID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("vocabulary item not found for review",
				slog.String("item_id", itemID.String()))
			return nil, ErrItemNotFound
		}
		log.Error("failed to load vocabulary item",
			slog.String("error", err.Error()),
			slog.String("item_id", itemID.String()))
		return nil, &ServiceError{
			Operation: "review",
			Message:   "failed to load item",
			Err:       err,
		}
	}

	if item.UserID != userID {
		log.Warn("learner does not own vocabulary item",
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()),
			slog.String("owner_id", item.UserID.String()))
		return nil, ErrItemNotOwned
	}

	updated, err := s.srsService.Review(item, answer.Quality, time.Now().UTC())
	if err != nil {
		if errors.Is(err, srs.ErrInvalidQuality) {
			return nil, ErrInvalidQuality
		}
		return nil, &ServiceError{
			Operation: "review",
			Message:   "failed to reschedule item",
			Err:       err,
		}
	}

	if err := s.vocabStore.Update(ctx, updated); err != nil {
		log.Error("failed to save rescheduled vocabulary item",
			slog.String("error", err.Error()),
			slog.String("item_id", itemID.String()))
		return nil, &ServiceError{
			Operation: "review",
			Message:   "failed to save item",
			Err:       err,
		}
	}

	log.Debug("vocabulary item reviewed",
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
		slog.Int("quality", answer.Quality),
		slog.Int("interval_days", updated.IntervalDays),
		slog.Int("mastery_level", updated.MasteryLevel))
	return updated, nil
}
