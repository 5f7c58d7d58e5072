package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/platform/logger"
	"github.com/phrazzld/viva-api/internal/store"
)

// defaultDueListLimit caps ListDue when the caller passes no limit.
const defaultDueListLimit = 20

// PostgresVocabularyStore implements the store.VocabularyStore interface
// using a PostgreSQL database as the storage backend.
type PostgresVocabularyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresVocabularyStore creates a new PostgreSQL implementation of the VocabularyStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresVocabularyStore(db store.DBTX, logger *slog.Logger) *PostgresVocabularyStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresVocabularyStore{
		db:     db,
		logger: logger.With(slog.String("component", "vocabulary_store")),
	}
}

// Ensure PostgresVocabularyStore implements store.VocabularyStore interface
var _ store.VocabularyStore = (*PostgresVocabularyStore)(nil)

// WithTx implements store.VocabularyStore.WithTx
// It returns a new store instance backed by the given transaction.
func (s *PostgresVocabularyStore) WithTx(tx *sql.Tx) store.VocabularyStore {
	return &PostgresVocabularyStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.VocabularyStore.Create
// Returns store.ErrVocabularyItemExists if the learner already tracks the word.
func (s *PostgresVocabularyStore) Create(ctx context.Context, item *domain.VocabularyItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("vocabulary item validation failed during create",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return err
	}

	query := `
		INSERT INTO vocabulary_items (id, user_id, word, context, interval_days,
			ease_factor, mastery_level, last_reviewed_at, next_review_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.UserID,
		item.Word,
		item.Context,
		item.IntervalDays,
		item.EaseFactor,
		item.MasteryLevel,
		nullableTime(item.LastReviewedAt),
		item.NextReviewAt,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("vocabulary item already exists",
				slog.String("user_id", item.UserID.String()),
				slog.String("word", item.Word))
			return store.ErrVocabularyItemExists
		}

		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: learner with ID %s not found",
				store.ErrInvalidEntity, item.UserID)
		}

		log.Error("failed to create vocabulary item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return MapError(err)
	}

	log.Info("vocabulary item created successfully",
		slog.String("item_id", item.ID.String()),
		slog.String("user_id", item.UserID.String()),
		slog.String("word", item.Word))
	return nil
}

// GetByID implements store.VocabularyStore.GetByID
// Returns store.ErrVocabularyItemNotFound if the item does not exist.
func (s *PostgresVocabularyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := vocabularySelect + " WHERE id = $1"

	item, err := scanVocabularyItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("vocabulary item not found", slog.String("item_id", id.String()))
			return nil, store.ErrVocabularyItemNotFound
		}
		log.Error("failed to get vocabulary item by ID",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return nil, MapError(err)
	}

	return item, nil
}

// GetByUserAndWord implements store.VocabularyStore.GetByUserAndWord
// The word is matched case-insensitively.
// Returns store.ErrVocabularyItemNotFound if the item does not exist.
func (s *PostgresVocabularyStore) GetByUserAndWord(
	ctx context.Context,
	userID uuid.UUID,
	word string,
) (*domain.VocabularyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := vocabularySelect + " WHERE user_id = $1 AND word = $2"

	item, err := scanVocabularyItem(
		s.db.QueryRowContext(ctx, query, userID, strings.ToLower(strings.TrimSpace(word))),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("vocabulary item not found by word",
				slog.String("user_id", userID.String()))
			return nil, store.ErrVocabularyItemNotFound
		}
		log.Error("failed to get vocabulary item by word",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	return item, nil
}

// Update implements store.VocabularyStore.Update
// It replaces the item's scheduling state after a review.
// Returns store.ErrVocabularyItemNotFound if the item does not exist.
func (s *PostgresVocabularyStore) Update(ctx context.Context, item *domain.VocabularyItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("vocabulary item validation failed during update",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return err
	}

	query := `
		UPDATE vocabulary_items
		SET context = $1, interval_days = $2, ease_factor = $3, mastery_level = $4,
			last_reviewed_at = $5, next_review_at = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		item.Context,
		item.IntervalDays,
		item.EaseFactor,
		item.MasteryLevel,
		nullableTime(item.LastReviewedAt),
		item.NextReviewAt,
		item.UpdatedAt,
		item.ID,
	)

	if err != nil {
		log.Error("failed to update vocabulary item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "vocabulary item"); err != nil {
		log.Debug("vocabulary item not found for update",
			slog.String("item_id", item.ID.String()))
		return store.ErrVocabularyItemNotFound
	}

	log.Debug("vocabulary item updated successfully",
		slog.String("item_id", item.ID.String()),
		slog.Int("interval_days", item.IntervalDays),
		slog.Int("mastery_level", item.MasteryLevel))
	return nil
}

// ListDue implements store.VocabularyStore.ListDue
// Items are returned most overdue first.
func (s *PostgresVocabularyStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.VocabularyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = defaultDueListLimit
	}

	query := vocabularySelect + `
		WHERE user_id = $1 AND next_review_at <= $2
		ORDER BY next_review_at ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, now, limit)
	if err != nil {
		log.Error("failed to query due vocabulary items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	items := []*domain.VocabularyItem{}
	for rows.Next() {
		item, err := scanVocabularyItem(rows)
		if err != nil {
			log.Error("failed to scan vocabulary item row",
				slog.String("error", err.Error()))
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return items, nil
}

const vocabularySelect = `
	SELECT id, user_id, word, context, interval_days, ease_factor,
		mastery_level, last_reviewed_at, next_review_at, created_at, updated_at
	FROM vocabulary_items`

// scanVocabularyItem maps a single vocabulary row into a domain.VocabularyItem.
func scanVocabularyItem(row rowScanner) (*domain.VocabularyItem, error) {
	var item domain.VocabularyItem
	var lastReviewed sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Word,
		&item.Context,
		&item.IntervalDays,
		&item.EaseFactor,
		&item.MasteryLevel,
		&lastReviewed,
		&item.NextReviewAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastReviewed.Valid {
		item.LastReviewedAt = lastReviewed.Time
	}

	return &item, nil
}

// nullableTime converts a zero time to NULL so that never-reviewed items are
// stored without a bogus timestamp.
func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
