package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/viva-api/internal/config"
	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/domain/srs"
	"github.com/phrazzld/viva-api/internal/platform/embedding"
	"github.com/phrazzld/viva-api/internal/platform/gemini"
	"github.com/phrazzld/viva-api/internal/platform/postgres"
	"github.com/phrazzld/viva-api/internal/service/auth"
	"github.com/phrazzld/viva-api/internal/service/errormemory"
	"github.com/phrazzld/viva-api/internal/service/exam"
	"github.com/phrazzld/viva-api/internal/service/vocabreview"
	"github.com/phrazzld/viva-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	learnerStore  store.LearnerStore
	sessionStore  store.SessionStore
	vocabStore    store.VocabularyStore
	errorLogStore store.ErrorLogStore

	// Service interfaces
	jwtService     auth.JWTService
	passwordHasher auth.PasswordHasher
	srsService     srs.Service
	vocabService   vocabreview.Service
	errorMemory    errormemory.Service
	examService    exam.Service
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordHasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	// Stores
	app.learnerStore = postgres.NewPostgresLearnerStore(db, logger)
	app.sessionStore = postgres.NewPostgresSessionStore(db, logger)
	app.vocabStore = postgres.NewPostgresVocabularyStore(db, logger)
	app.errorLogStore = postgres.NewPostgresErrorLogStore(db, logger)

	// The Gemini generator serves both the examiner policy and drill
	// generation.
	generator, err := gemini.NewGenerator(ctx, cfg.LLM, logger.With("component", "policy_generator"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize policy generator: %w", err)
	}
	logger.Info("examiner policy generator initialized", "model", cfg.LLM.ModelName)

	embedder := embedding.NewClient(cfg.Embedding, logger.With("component", "embedder"))

	app.srsService = srs.NewDefaultService()

	app.vocabService = vocabreview.NewService(app.vocabStore, app.srsService, logger)
	app.errorMemory = errormemory.NewService(app.errorLogStore, generator, logger)

	plan := domain.ExamPlan{
		PartOneAttempts:   cfg.Exam.PartOneAttempts,
		PartTwoAttempts:   cfg.Exam.PartTwoAttempts,
		PartThreeAttempts: cfg.Exam.PartThreeAttempts,
	}

	app.examService, err = exam.NewService(
		app.sessionStore,
		app.learnerStore,
		app.vocabService,
		app.errorMemory,
		generator,
		embedder,
		exam.NewSQLTxRunner(db),
		plan,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exam service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
