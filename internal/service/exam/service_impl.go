package exam

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
	"github.com/phrazzld/viva-api/internal/generation"
	"github.com/phrazzld/viva-api/internal/platform/logger"
	"github.com/phrazzld/viva-api/internal/service/errormemory"
	"github.com/phrazzld/viva-api/internal/service/vocabreview"
	"github.com/phrazzld/viva-api/internal/signal"
	"github.com/phrazzld/viva-api/internal/store"
)

// Opening prompts for new sessions.
const (
	openingExamPrompt = "Let's begin with Part 1. Tell me about your hometown. " +
		"What do you like most about living there?"

	defaultPracticeTopic = "everyday life"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	sessionStore store.SessionStore
	learnerStore store.LearnerStore
	vocabService vocabreview.Service
	errorMemory  errormemory.Service
	policy       generation.PolicyGenerator
	embedder     signal.Embedder
	txRunner     TxRunner
	plan         domain.ExamPlan
	locks        *sessionLocks
	logger       *slog.Logger
}

// NewService creates a new exam Service implementation.
// The policy generator and embedder may be nil; submissions then always use
// the deterministic fallbacks for intervention and coherence.
func NewService(
	sessionStore store.SessionStore,
	learnerStore store.LearnerStore,
	vocabService vocabreview.Service,
	errorMemory errormemory.Service,
	policy generation.PolicyGenerator,
	embedder signal.Embedder,
	txRunner TxRunner,
	plan domain.ExamPlan,
	logger *slog.Logger,
) (Service, error) {
	if sessionStore == nil {
		return nil, fmt.Errorf("sessionStore cannot be nil")
	}
	if learnerStore == nil {
		return nil, fmt.Errorf("learnerStore cannot be nil")
	}
	if vocabService == nil {
		return nil, fmt.Errorf("vocabService cannot be nil")
	}
	if errorMemory == nil {
		return nil, fmt.Errorf("errorMemory cannot be nil")
	}
	if txRunner == nil {
		return nil, fmt.Errorf("txRunner cannot be nil")
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &serviceImpl{
		sessionStore: sessionStore,
		learnerStore: learnerStore,
		vocabService: vocabService,
		errorMemory:  errorMemory,
		policy:       policy,
		embedder:     embedder,
		txRunner:     txRunner,
		plan:         plan,
		locks:        newSessionLocks(),
		logger:       logger.With(slog.String("component", "exam_service")),
	}, nil
}

// StartExam implements Service.StartExam.
func (s *serviceImpl) StartExam(ctx context.Context, userID uuid.UUID) (*StartResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	learner, err := s.loadLearner(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := domain.NewExamSession(userID, s.plan, openingExamPrompt)
	if err != nil {
		return nil, err
	}

	if err := s.sessionStore.Create(ctx, session); err != nil {
		log.Error("failed to create exam session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, &ServiceError{Operation: "start_exam", Message: "failed to save session", Err: err}
	}

	log.Info("exam session started",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", userID.String()))

	return &StartResult{
		Session:  session,
		Briefing: s.briefing(ctx, learner),
	}, nil
}

// StartPractice implements Service.StartPractice.
func (s *serviceImpl) StartPractice(
	ctx context.Context,
	userID uuid.UUID,
	topic string,
) (*StartResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	learner, err := s.loadLearner(ctx, userID)
	if err != nil {
		return nil, err
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = defaultPracticeTopic
	}

	opening := fmt.Sprintf("Let's talk about %s. What role does it play in your life?", topic)
	session, err := domain.NewPracticeSession(userID, topic, opening)
	if err != nil {
		return nil, err
	}

	if err := s.sessionStore.Create(ctx, session); err != nil {
		log.Error("failed to create practice session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, &ServiceError{Operation: "start_practice", Message: "failed to save session", Err: err}
	}

	log.Info("practice session started",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("topic", topic))

	return &StartResult{
		Session:  session,
		Briefing: s.briefing(ctx, learner),
	}, nil
}

// GetSession implements Service.GetSession.
func (s *serviceImpl) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error) {
	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, &ServiceError{Operation: "get_session", Message: "failed to load session", Err: err}
	}

	if session.UserID != userID {
		return nil, ErrSessionNotOwned
	}

	return session, nil
}

// ListSessions implements Service.ListSessions.
func (s *serviceImpl) ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Session, error) {
	sessions, err := s.sessionStore.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, &ServiceError{Operation: "list_sessions", Message: "failed to load sessions", Err: err}
	}
	return sessions, nil
}

// SubmitAttempt implements Service.SubmitAttempt.
//
// The pipeline runs in three phases. First, signals are extracted and the
// examiner policy consulted against a pre-update snapshot of the session;
// these involve network calls and stay outside the transaction. Second, the
// session is re-read under a row lock and the state transition plus any
// completion bookkeeping are persisted atomically. Third, feedback
// classification and target vocabulary are recorded best-effort; their
// failure never undoes a recorded attempt.
func (s *serviceImpl) SubmitAttempt(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	input SubmitAttemptInput,
) (*SubmitResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	release := s.locks.acquire(sessionID)
	defer release()

	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed() {
		return nil, domain.ErrSessionCompleted
	}
	if input.Amend {
		last := session.LastAttempt()
		if last == nil || last.Part != session.CurrentPart {
			return nil, domain.ErrNoAttemptToAmend
		}
	}

	learner, err := s.loadLearner(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Phase one: signal extraction and policy decision on the snapshot.
	metrics := s.extractMetrics(ctx, session.CurrentPrompt, input)
	intervention, degraded := s.decide(ctx, session, learner, input.Transcript, metrics)

	outcome := domain.OutcomePass
	if intervention.Action == generation.ActionFail {
		outcome = domain.OutcomeFail
	} else if input.Amend {
		outcome = domain.OutcomeRetry
	}

	attempt := domain.AttemptResult{
		PromptText: session.CurrentPrompt,
		Transcript: input.Transcript,
		Metrics:    metrics,
		Outcome:    outcome,
	}

	// Phase two: atomic state transition.
	now := time.Now().UTC()
	var updated *domain.Session
	err = s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txSessions := s.sessionStore.WithTx(tx)
		txLearners := s.learnerStore.WithTx(tx)

		current, err := txSessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to lock session: %w", err)
		}

		if input.Amend {
			updated, err = current.WithAmendedAttempt(attempt, now)
		} else {
			updated, err = current.WithAppendedAttempt(attempt, now)
		}
		if err != nil {
			return err
		}

		if !updated.Completed() {
			updated, err = updated.WithPrompt(intervention.NextPrompt, now)
			if err != nil {
				return err
			}
		}

		if updated.Completed() && updated.Mode == domain.ModeExam {
			summary := domain.ComputeExamSummary(updated.History)
			updated, err = updated.WithSummary(summary, now)
			if err != nil {
				return err
			}

			if err := txLearners.Update(ctx, learner.WithExamResult(summary.OverallBand, now)); err != nil {
				return fmt.Errorf("failed to update learner aggregates: %w", err)
			}
		}

		if err := txSessions.Update(ctx, updated); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) ||
			errors.Is(err, domain.ErrSessionCompleted) ||
			errors.Is(err, domain.ErrNoAttemptToAmend) {
			return nil, err
		}
		log.Error("attempt submission transaction failed",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, &ServiceError{Operation: "submit_attempt", Message: "failed to record attempt", Err: err}
	}

	recorded := *updated.LastAttempt()

	// Phase three: best-effort side effects.
	s.recordSideEffects(ctx, userID, session.CurrentPrompt, intervention)

	log.Info("attempt recorded",
		slog.String("session_id", sessionID.String()),
		slog.String("user_id", userID.String()),
		slog.String("part", string(recorded.Part)),
		slog.String("outcome", string(recorded.Outcome)),
		slog.String("action", string(intervention.Action)),
		slog.Bool("amend", input.Amend),
		slog.Bool("policy_degraded", degraded))

	return &SubmitResult{
		Session:        updated,
		Attempt:        recorded,
		Intervention:   intervention,
		PolicyDegraded: degraded,
	}, nil
}

// EndPractice implements Service.EndPractice.
func (s *serviceImpl) EndPractice(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	release := s.locks.acquire(sessionID)
	defer release()

	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	ended, err := session.Ended(time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.sessionStore.Update(ctx, ended); err != nil {
		log.Error("failed to save ended session",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, &ServiceError{Operation: "end_practice", Message: "failed to save session", Err: err}
	}

	log.Info("practice session ended",
		slog.String("session_id", sessionID.String()),
		slog.String("user_id", userID.String()))
	return ended, nil
}

// loadLearner fetches the learner, translating the store's not-found.
func (s *serviceImpl) loadLearner(ctx context.Context, userID uuid.UUID) (*domain.Learner, error) {
	learner, err := s.learnerStore.GetByID(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrLearnerNotFound
		}
		return nil, &ServiceError{Operation: "load_learner", Message: "failed to load learner", Err: err}
	}
	return learner, nil
}

// briefing composes the pre-session briefing, degrading to empty on failure.
func (s *serviceImpl) briefing(ctx context.Context, learner *domain.Learner) string {
	log := logger.FromContextOrDefault(ctx, s.logger)

	briefing, err := s.errorMemory.ComposeBriefing(ctx, learner)
	if err != nil {
		log.Warn("failed to compose briefing, continuing without one",
			slog.String("error", err.Error()),
			slog.String("user_id", learner.ID.String()))
		return ""
	}
	return briefing
}

// extractMetrics computes the full metric set for one submission. Coherence
// and pronunciation degrade independently of the mechanical metrics.
func (s *serviceImpl) extractMetrics(
	ctx context.Context,
	prompt string,
	input SubmitAttemptInput,
) domain.AttemptMetrics {
	metrics := signal.MechanicalMetrics(input.Transcript, input.DurationSeconds)

	metrics.PronunciationScore, metrics.PronunciationDegraded = signal.PronunciationScore(input.Audio)

	if s.embedder != nil {
		metrics.CoherenceScore = signal.Coherence(ctx, s.embedder, prompt, input.Transcript)
	}

	return metrics
}

// decide consults the examiner policy on the pre-update snapshot, degrading
// to the deterministic fallback intervention on any failure.
func (s *serviceImpl) decide(
	ctx context.Context,
	session *domain.Session,
	learner *domain.Learner,
	transcript string,
	metrics domain.AttemptMetrics,
) (*generation.Intervention, bool) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.policy == nil {
		return generation.FallbackIntervention(session.CurrentPart), true
	}

	chronic := s.chronicIssueNames(ctx, session.UserID)

	intervention, err := s.policy.GenerateIntervention(ctx, generation.PolicyInput{
		Mode:                session.Mode,
		Part:                session.CurrentPart,
		Topic:               session.Topic,
		Prompt:              session.CurrentPrompt,
		Transcript:          transcript,
		Metrics:             metrics,
		StressLevel:         session.StressLevel,
		FluencyTrend:        session.FluencyTrend,
		ConsecutiveFailures: session.ConsecutiveFailures,
		TargetBand:          learner.TargetBand,
		Weakness:            learner.Weakness,
		ChronicIssues:       chronic,
	})
	if err != nil {
		log.Warn("examiner policy failed, using fallback intervention",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return generation.FallbackIntervention(session.CurrentPart), true
	}

	return intervention, false
}

// chronicIssueNames loads the learner's top error types, degrading to none.
func (s *serviceImpl) chronicIssueNames(ctx context.Context, userID uuid.UUID) []string {
	log := logger.FromContextOrDefault(ctx, s.logger)

	entries, err := s.errorMemory.ChronicIssues(ctx, userID, errormemory.DefaultChronicIssueCount)
	if err != nil {
		log.Warn("failed to load chronic issues for policy input",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.ErrorType)
	}
	return names
}

// recordSideEffects persists feedback classification and target vocabulary.
// Failures are logged and swallowed: the attempt is already recorded.
func (s *serviceImpl) recordSideEffects(
	ctx context.Context,
	userID uuid.UUID,
	prompt string,
	intervention *generation.Intervention,
) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if intervention.Feedback != "" {
		if _, err := s.errorMemory.RecordFeedback(ctx, userID, intervention.Feedback); err != nil {
			log.Warn("failed to record feedback patterns",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
	}

	for _, word := range intervention.TargetVocabulary {
		if strings.TrimSpace(word) == "" {
			continue
		}
		if _, err := s.vocabService.Add(ctx, userID, word, prompt); err != nil {
			log.Warn("failed to add target vocabulary word",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()),
				slog.String("word", word))
		}
	}
}
