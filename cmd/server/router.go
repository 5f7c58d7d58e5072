package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/viva-api/internal/api"
	apiMiddleware "github.com/phrazzld/viva-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	tokenLifetime := time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute
	authHandler := api.NewAuthHandler(app.learnerStore, app.jwtService, app.passwordHasher, tokenLifetime)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	examHandler := api.NewExamHandler(app.examService)
	vocabularyHandler := api.NewVocabularyHandler(app.vocabService)
	feedbackHandler := api.NewFeedbackHandler(app.errorMemory)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Learner profile
			r.Get("/me", authHandler.Me)

			// Session endpoints
			r.Post("/sessions/exam", examHandler.StartExam)
			r.Post("/sessions/practice", examHandler.StartPractice)
			r.Get("/sessions", examHandler.ListSessions)
			r.Get("/sessions/{id}", examHandler.GetSession)
			r.Post("/sessions/{id}/attempts", examHandler.SubmitAttempt)
			r.Post("/sessions/{id}/end", examHandler.EndPractice)
			r.Get("/practice/topics", examHandler.Topics)

			// Vocabulary deck endpoints
			r.Post("/vocabulary", vocabularyHandler.Add)
			r.Get("/vocabulary/due", vocabularyHandler.Due)
			r.Post("/vocabulary/{id}/review", vocabularyHandler.Review)

			// Feedback history endpoints
			r.Get("/feedback/issues", feedbackHandler.ChronicIssues)
			r.Get("/feedback/drills", feedbackHandler.Drills)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
