package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/platform/logger"
	"github.com/phrazzld/viva-api/internal/store"
)

// PostgresLearnerStore implements the store.LearnerStore interface
// using a PostgreSQL database as the storage backend.
type PostgresLearnerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLearnerStore creates a new PostgreSQL implementation of the LearnerStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresLearnerStore(db store.DBTX, logger *slog.Logger) *PostgresLearnerStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLearnerStore{
		db:     db,
		logger: logger.With(slog.String("component", "learner_store")),
	}
}

// Ensure PostgresLearnerStore implements store.LearnerStore interface
var _ store.LearnerStore = (*PostgresLearnerStore)(nil)

// WithTx implements store.LearnerStore.WithTx
// It returns a new store instance backed by the given transaction.
func (s *PostgresLearnerStore) WithTx(tx *sql.Tx) store.LearnerStore {
	return &PostgresLearnerStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.LearnerStore.Create
// It saves a new learner to the database, handling domain validation.
// Returns store.ErrEmailExists if the email is already taken.
func (s *PostgresLearnerStore) Create(ctx context.Context, learner *domain.Learner) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := learner.Validate(); err != nil {
		log.Warn("learner validation failed during create",
			slog.String("error", err.Error()),
			slog.String("learner_id", learner.ID.String()))
		return err
	}

	query := `
		INSERT INTO learners (id, email, hashed_password, target_band, weakness,
			average_band_score, total_exams_taken, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		learner.ID,
		learner.Email,
		learner.HashedPassword,
		learner.TargetBand,
		learner.Weakness,
		learner.AverageBandScore,
		learner.TotalExamsTaken,
		learner.CreatedAt,
		learner.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate email during learner creation",
				slog.String("learner_id", learner.ID.String()))
			return store.ErrEmailExists
		}

		log.Error("failed to create learner",
			slog.String("error", err.Error()),
			slog.String("learner_id", learner.ID.String()))
		return MapError(err)
	}

	log.Info("learner created successfully",
		slog.String("learner_id", learner.ID.String()))
	return nil
}

// GetByID implements store.LearnerStore.GetByID
// Returns store.ErrLearnerNotFound if the learner does not exist.
func (s *PostgresLearnerStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Learner, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, email, hashed_password, target_band, weakness,
			average_band_score, total_exams_taken, created_at, updated_at
		FROM learners
		WHERE id = $1
	`

	learner, err := scanLearner(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("learner not found", slog.String("learner_id", id.String()))
			return nil, store.ErrLearnerNotFound
		}
		log.Error("failed to get learner by ID",
			slog.String("error", err.Error()),
			slog.String("learner_id", id.String()))
		return nil, MapError(err)
	}

	return learner, nil
}

// GetByEmail implements store.LearnerStore.GetByEmail
// The email is matched case-insensitively.
// Returns store.ErrLearnerNotFound if the learner does not exist.
func (s *PostgresLearnerStore) GetByEmail(ctx context.Context, email string) (*domain.Learner, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, email, hashed_password, target_band, weakness,
			average_band_score, total_exams_taken, created_at, updated_at
		FROM learners
		WHERE email = $1
	`

	learner, err := scanLearner(
		s.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("learner not found by email")
			return nil, store.ErrLearnerNotFound
		}
		log.Error("failed to get learner by email",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return learner, nil
}

// Update implements store.LearnerStore.Update
// It updates the learner's profile fields and exam aggregates, leaving email
// and password untouched.
// Returns store.ErrLearnerNotFound if the learner does not exist.
func (s *PostgresLearnerStore) Update(ctx context.Context, learner *domain.Learner) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := learner.Validate(); err != nil {
		log.Warn("learner validation failed during update",
			slog.String("error", err.Error()),
			slog.String("learner_id", learner.ID.String()))
		return err
	}

	query := `
		UPDATE learners
		SET target_band = $1, weakness = $2, average_band_score = $3,
			total_exams_taken = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		learner.TargetBand,
		learner.Weakness,
		learner.AverageBandScore,
		learner.TotalExamsTaken,
		learner.UpdatedAt,
		learner.ID,
	)

	if err != nil {
		log.Error("failed to update learner",
			slog.String("error", err.Error()),
			slog.String("learner_id", learner.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "learner"); err != nil {
		log.Debug("learner not found for update",
			slog.String("learner_id", learner.ID.String()))
		return store.ErrLearnerNotFound
	}

	log.Debug("learner updated successfully",
		slog.String("learner_id", learner.ID.String()))
	return nil
}

// scanLearner maps a single learner row into a domain.Learner.
func scanLearner(row *sql.Row) (*domain.Learner, error) {
	var learner domain.Learner
	err := row.Scan(
		&learner.ID,
		&learner.Email,
		&learner.HashedPassword,
		&learner.TargetBand,
		&learner.Weakness,
		&learner.AverageBandScore,
		&learner.TotalExamsTaken,
		&learner.CreatedAt,
		&learner.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &learner, nil
}
