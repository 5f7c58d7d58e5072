package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/platform/logger"
	"github.com/phrazzld/viva-api/internal/store"
)

// defaultSessionListLimit caps ListByUser when the caller passes no limit.
const defaultSessionListLimit = 20

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend.
//
// The session aggregate (plan, per-part counters, attempt history, summary)
// is serialized to JSONB columns; scalar state lives in regular columns so it
// can be filtered and indexed.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the SessionStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// WithTx implements store.SessionStore.WithTx
// It returns a new store instance backed by the given transaction.
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.SessionStore.Create
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	plan, counters, history, summary, err := marshalSessionState(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, user_id, mode, topic, current_part, plan,
			part_attempts, stress_level, fluency_trend, consecutive_failures,
			current_prompt, history, summary, started_at, ended_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.Mode,
		session.Topic,
		session.CurrentPart,
		plan,
		counters,
		session.StressLevel,
		session.FluencyTrend,
		session.ConsecutiveFailures,
		session.CurrentPrompt,
		history,
		summary,
		session.StartedAt,
		session.EndedAt,
		session.CreatedAt,
		session.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during session creation",
				slog.String("session_id", session.ID.String()),
				slog.String("user_id", session.UserID.String()))
			return fmt.Errorf("%w: learner with ID %s not found",
				store.ErrInvalidEntity, session.UserID)
		}

		log.Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	log.Info("session created successfully",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", session.UserID.String()),
		slog.String("mode", string(session.Mode)))
	return nil
}

// GetByID implements store.SessionStore.GetByID
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return s.getByID(ctx, id, false)
}

// GetByIDForUpdate implements store.SessionStore.GetByIDForUpdate
// It locks the session row for the duration of the surrounding transaction.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return s.getByID(ctx, id, true)
}

func (s *PostgresSessionStore) getByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, mode, topic, current_part, plan, part_attempts,
			stress_level, fluency_trend, consecutive_failures, current_prompt,
			history, summary, started_at, ended_at, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("session not found", slog.String("session_id", id.String()))
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get session by ID",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, MapError(err)
	}

	return session, nil
}

// Update implements store.SessionStore.Update
// It replaces the full stored aggregate with the given session state.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) Update(ctx context.Context, session *domain.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during update",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	plan, counters, history, summary, err := marshalSessionState(session)
	if err != nil {
		return err
	}

	query := `
		UPDATE sessions
		SET current_part = $1, plan = $2, part_attempts = $3, stress_level = $4,
			fluency_trend = $5, consecutive_failures = $6, current_prompt = $7,
			history = $8, summary = $9, ended_at = $10, updated_at = $11
		WHERE id = $12
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		session.CurrentPart,
		plan,
		counters,
		session.StressLevel,
		session.FluencyTrend,
		session.ConsecutiveFailures,
		session.CurrentPrompt,
		history,
		summary,
		session.EndedAt,
		session.UpdatedAt,
		session.ID,
	)

	if err != nil {
		log.Error("failed to update session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "session"); err != nil {
		log.Debug("session not found for update",
			slog.String("session_id", session.ID.String()))
		return store.ErrSessionNotFound
	}

	log.Debug("session updated successfully",
		slog.String("session_id", session.ID.String()),
		slog.String("current_part", string(session.CurrentPart)))
	return nil
}

// ListByUser implements store.SessionStore.ListByUser
// Sessions are returned newest first.
func (s *PostgresSessionStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = defaultSessionListLimit
	}

	query := `
		SELECT id, user_id, mode, topic, current_part, plan, part_attempts,
			stress_level, fluency_trend, consecutive_failures, current_prompt,
			history, summary, started_at, ended_at, created_at, updated_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		log.Error("failed to query sessions by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	sessions := []*domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			log.Error("failed to scan session row",
				slog.String("error", err.Error()))
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return sessions, nil
}

// marshalSessionState serializes the JSONB portions of the session aggregate.
func marshalSessionState(session *domain.Session) (plan, counters, history, summary []byte, err error) {
	plan, err = json.Marshal(session.Plan)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal session plan: %w", err)
	}

	counters, err = json.Marshal(session.PartAttempts)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal part attempts: %w", err)
	}

	attempts := session.History
	if attempts == nil {
		attempts = []domain.AttemptResult{}
	}
	history, err = json.Marshal(attempts)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal attempt history: %w", err)
	}

	if session.Summary != nil {
		summary, err = json.Marshal(session.Summary)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to marshal exam summary: %w", err)
		}
	}

	return plan, counters, history, summary, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanSession.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSession maps a single session row into a domain.Session.
func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		session     domain.Session
		planRaw     []byte
		countersRaw []byte
		historyRaw  []byte
		summaryRaw  []byte
		endedAt     sql.NullTime
	)

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Mode,
		&session.Topic,
		&session.CurrentPart,
		&planRaw,
		&countersRaw,
		&session.StressLevel,
		&session.FluencyTrend,
		&session.ConsecutiveFailures,
		&session.CurrentPrompt,
		&historyRaw,
		&summaryRaw,
		&session.StartedAt,
		&endedAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(planRaw, &session.Plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session plan: %w", err)
	}

	session.PartAttempts = map[domain.ExamPart]int{}
	if len(countersRaw) > 0 {
		if err := json.Unmarshal(countersRaw, &session.PartAttempts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal part attempts: %w", err)
		}
	}

	session.History = []domain.AttemptResult{}
	if len(historyRaw) > 0 {
		if err := json.Unmarshal(historyRaw, &session.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attempt history: %w", err)
		}
	}

	if len(summaryRaw) > 0 {
		var summary domain.ExamSummary
		if err := json.Unmarshal(summaryRaw, &summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exam summary: %w", err)
		}
		session.Summary = &summary
	}

	if endedAt.Valid {
		ended := endedAt.Time
		session.EndedAt = &ended
	}

	return &session, nil
}
