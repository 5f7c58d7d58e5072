package errormemory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/generation"
	"github.com/phrazzld/viva-api/internal/platform/logger"
	"github.com/phrazzld/viva-api/internal/store"
	"github.com/phrazzld/viva-api/internal/taxonomy"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	errorLogStore  store.ErrorLogStore
	drillGenerator generation.DrillGenerator
	logger         *slog.Logger
}

// NewService creates a new error memory Service implementation.
// The drill generator may be nil, in which case drills always come from the
// deterministic fallback set.
func NewService(
	errorLogStore store.ErrorLogStore,
	drillGenerator generation.DrillGenerator,
	logger *slog.Logger,
) Service {
	if errorLogStore == nil {
		panic("errorLogStore cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &serviceImpl{
		errorLogStore:  errorLogStore,
		drillGenerator: drillGenerator,
		logger:         logger.With(slog.String("component", "error_memory_service")),
	}
}

// RecordFeedback implements Service.RecordFeedback.
func (s *serviceImpl) RecordFeedback(
	ctx context.Context,
	userID uuid.UUID,
	feedback string,
) ([]string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	matched := taxonomy.Classify(feedback)
	if len(matched) == 0 {
		log.Debug("feedback matched no error patterns",
			slog.String("user_id", userID.String()))
		return []string{}, nil
	}

	now := time.Now().UTC()
	types := make([]string, 0, len(matched))
	for _, errorType := range matched {
		if err := s.errorLogStore.Upsert(ctx, userID, string(errorType), now); err != nil {
			log.Error("failed to record error pattern",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()),
				slog.String("error_type", string(errorType)))
			return nil, &ServiceError{
				Operation: "record_feedback",
				Message:   "failed to persist error pattern",
				Err:       err,
			}
		}
		types = append(types, string(errorType))
	}

	log.Debug("recorded error patterns from feedback",
		slog.String("user_id", userID.String()),
		slog.Int("pattern_count", len(types)))
	return types, nil
}

// ChronicIssues implements Service.ChronicIssues.
func (s *serviceImpl) ChronicIssues(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.ErrorLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = DefaultChronicIssueCount
	}

	entries, err := s.errorLogStore.TopByCount(ctx, userID, limit)
	if err != nil {
		log.Error("failed to load chronic issues",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, &ServiceError{
			Operation: "chronic_issues",
			Message:   "failed to load error history",
			Err:       err,
		}
	}

	return entries, nil
}

// ComposeBriefing implements Service.ComposeBriefing.
func (s *serviceImpl) ComposeBriefing(
	ctx context.Context,
	learner *domain.Learner,
) (string, error) {
	entries, err := s.ChronicIssues(ctx, learner.ID, DefaultChronicIssueCount)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Target band: %.1f.", learner.TargetBand)
	if learner.Weakness != "" {
		fmt.Fprintf(&b, " Your stated focus area is %s.", learner.Weakness)
	}

	if len(entries) == 0 {
		b.WriteString(" No recurring issues on record yet. Speak naturally and develop each answer fully.")
		return b.String(), nil
	}

	b.WriteString(" Watch out for your recurring issues:")
	for i, entry := range entries {
		if i > 0 {
			b.WriteString(";")
		}
		fmt.Fprintf(&b, " %s (seen %d times)", entry.ErrorType, entry.Count)
	}
	b.WriteString(".")
	return b.String(), nil
}

// GenerateDrills implements Service.GenerateDrills.
func (s *serviceImpl) GenerateDrills(
	ctx context.Context,
	userID uuid.UUID,
	count int,
) (*generation.DrillSet, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	entries, err := s.ChronicIssues(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoChronicIssues
	}

	focus := entries[0].ErrorType

	if s.drillGenerator == nil {
		log.Debug("no drill generator configured, using fallback drills",
			slog.String("focus_area", focus))
		return generation.FallbackDrills(focus), nil
	}

	drills, err := s.drillGenerator.GenerateDrills(ctx, focus, count)
	if err != nil {
		log.Warn("drill generation failed, using fallback drills",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("focus_area", focus))
		return generation.FallbackDrills(focus), nil
	}

	return drills, nil
}
