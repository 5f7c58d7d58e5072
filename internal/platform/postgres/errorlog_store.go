package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/platform/logger"
	"github.com/phrazzld/viva-api/internal/store"
)

// defaultTopErrorsLimit caps TopByCount when the caller passes no limit.
const defaultTopErrorsLimit = 3

// PostgresErrorLogStore implements the store.ErrorLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresErrorLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresErrorLogStore creates a new PostgreSQL implementation of the ErrorLogStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresErrorLogStore(db store.DBTX, logger *slog.Logger) *PostgresErrorLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresErrorLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "error_log_store")),
	}
}

// Ensure PostgresErrorLogStore implements store.ErrorLogStore interface
var _ store.ErrorLogStore = (*PostgresErrorLogStore)(nil)

// WithTx implements store.ErrorLogStore.WithTx
// It returns a new store instance backed by the given transaction.
func (s *PostgresErrorLogStore) WithTx(tx *sql.Tx) store.ErrorLogStore {
	return &PostgresErrorLogStore{
		db:     tx,
		logger: s.logger,
	}
}

// Upsert implements store.ErrorLogStore.Upsert
// The (user_id, error_type) pair is unique; a conflict increments the
// existing count and refreshes last_seen_at.
func (s *PostgresErrorLogStore) Upsert(
	ctx context.Context,
	userID uuid.UUID,
	errorType string,
	now time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	entry, err := domain.NewErrorLogEntry(userID, errorType)
	if err != nil {
		log.Warn("error log entry validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return err
	}

	query := `
		INSERT INTO error_logs (id, user_id, error_type, count, last_seen_at, created_at)
		VALUES ($1, $2, $3, 1, $4, $5)
		ON CONFLICT (user_id, error_type)
		DO UPDATE SET count = error_logs.count + 1, last_seen_at = $4
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		userID,
		errorType,
		now,
		now,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: learner with ID %s not found",
				store.ErrInvalidEntity, userID)
		}

		log.Error("failed to upsert error log entry",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("error_type", errorType))
		return MapError(err)
	}

	log.Debug("error log entry upserted",
		slog.String("user_id", userID.String()),
		slog.String("error_type", errorType))
	return nil
}

// TopByCount implements store.ErrorLogStore.TopByCount
// Entries are returned highest count first, ties broken by most recently seen.
func (s *PostgresErrorLogStore) TopByCount(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.ErrorLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = defaultTopErrorsLimit
	}

	query := `
		SELECT id, user_id, error_type, count, last_seen_at, created_at
		FROM error_logs
		WHERE user_id = $1
		ORDER BY count DESC, last_seen_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		log.Error("failed to query top error log entries",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []*domain.ErrorLogEntry{}
	for rows.Next() {
		var entry domain.ErrorLogEntry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.ErrorType,
			&entry.Count,
			&entry.LastSeenAt,
			&entry.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan error log row",
				slog.String("error", err.Error()))
			return nil, err
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return entries, nil
}
