package exam

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/domain/srs"
	"github.com/phrazzld/viva-api/internal/generation"
	"github.com/phrazzld/viva-api/internal/service/errormemory"
	"github.com/phrazzld/viva-api/internal/service/vocabreview"
	"github.com/phrazzld/viva-api/internal/signal"
	"github.com/phrazzld/viva-api/internal/store"
)

// ---- fakes ----

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[uuid.UUID]*domain.Session{}}
}

func (f *fakeSessionStore) Create(ctx context.Context, session *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeSessionStore) Update(ctx context.Context, session *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[session.ID]; !ok {
		return store.ErrSessionNotFound
	}
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Session
	for _, session := range f.sessions {
		if session.UserID == userID {
			copied := *session
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) WithTx(tx *sql.Tx) store.SessionStore { return f }

type fakeLearnerStore struct {
	mu       sync.Mutex
	learners map[uuid.UUID]*domain.Learner
}

func newFakeLearnerStore() *fakeLearnerStore {
	return &fakeLearnerStore{learners: map[uuid.UUID]*domain.Learner{}}
}

func (f *fakeLearnerStore) Create(ctx context.Context, learner *domain.Learner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *learner
	f.learners[learner.ID] = &copied
	return nil
}

func (f *fakeLearnerStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Learner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	learner, ok := f.learners[id]
	if !ok {
		return nil, store.ErrLearnerNotFound
	}
	copied := *learner
	return &copied, nil
}

func (f *fakeLearnerStore) GetByEmail(ctx context.Context, email string) (*domain.Learner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, learner := range f.learners {
		if learner.Email == email {
			copied := *learner
			return &copied, nil
		}
	}
	return nil, store.ErrLearnerNotFound
}

func (f *fakeLearnerStore) Update(ctx context.Context, learner *domain.Learner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.learners[learner.ID]; !ok {
		return store.ErrLearnerNotFound
	}
	copied := *learner
	f.learners[learner.ID] = &copied
	return nil
}

func (f *fakeLearnerStore) WithTx(tx *sql.Tx) store.LearnerStore { return f }

type fakeErrorLogStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]map[string]int
}

func newFakeErrorLogStore() *fakeErrorLogStore {
	return &fakeErrorLogStore{entries: map[uuid.UUID]map[string]int{}}
}

func (f *fakeErrorLogStore) Upsert(ctx context.Context, userID uuid.UUID, errorType string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries[userID] == nil {
		f.entries[userID] = map[string]int{}
	}
	f.entries[userID][errorType]++
	return nil
}

func (f *fakeErrorLogStore) TopByCount(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ErrorLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ErrorLogEntry
	for errorType, count := range f.entries[userID] {
		out = append(out, &domain.ErrorLogEntry{
			ID:        uuid.New(),
			UserID:    userID,
			ErrorType: errorType,
			Count:     count,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeErrorLogStore) WithTx(tx *sql.Tx) store.ErrorLogStore { return f }

type fakeVocabStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.VocabularyItem
}

func newFakeVocabStore() *fakeVocabStore {
	return &fakeVocabStore{items: map[uuid.UUID]*domain.VocabularyItem{}}
}

func (f *fakeVocabStore) Create(ctx context.Context, item *domain.VocabularyItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.UserID == item.UserID && existing.Word == item.Word {
			return store.ErrVocabularyItemExists
		}
	}
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeVocabStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, store.ErrVocabularyItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeVocabStore) GetByUserAndWord(ctx context.Context, userID uuid.UUID, word string) (*domain.VocabularyItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.UserID == userID && item.Word == word {
			copied := *item
			return &copied, nil
		}
	}
	return nil, store.ErrVocabularyItemNotFound
}

func (f *fakeVocabStore) Update(ctx context.Context, item *domain.VocabularyItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeVocabStore) ListDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.VocabularyItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.VocabularyItem
	for _, item := range f.items {
		if item.UserID == userID && !item.NextReviewAt.After(now) {
			copied := *item
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeVocabStore) WithTx(tx *sql.Tx) store.VocabularyStore { return f }

// fakePolicy returns a scripted intervention, or an error.
type fakePolicy struct {
	mu           sync.Mutex
	intervention *generation.Intervention
	err          error
	lastInput    generation.PolicyInput
	calls        int
}

func (f *fakePolicy) GenerateIntervention(ctx context.Context, input generation.PolicyInput) (*generation.Intervention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastInput = input
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.intervention, nil
}

// fakeTxRunner executes the function directly with a nil transaction; the
// fake stores ignore WithTx.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

// constEmbedder maps every text to the same vector, so coherence is 1.
type constEmbedder struct{}

func (constEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{1, 2, 3}, nil
}

// ---- harness ----

type harness struct {
	svc          Service
	sessionStore *fakeSessionStore
	learnerStore *fakeLearnerStore
	vocabStore   *fakeVocabStore
	errorLogs    *fakeErrorLogStore
	policy       *fakePolicy
	learner      *domain.Learner
}

func passingIntervention() *generation.Intervention {
	return &generation.Intervention{
		Action:        generation.ActionMaintain,
		NextPrompt:    "What about your neighbourhood do you find interesting?",
		Feedback:      "Good answer. Try adding more linking words for cohesion.",
		IdealResponse: "A band nine answer would...",
		Scores: generation.SkillScores{
			Fluency: 7, Coherence: 7, Lexical: 7, Grammar: 7, Pronunciation: 7,
		},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	sessionStore := newFakeSessionStore()
	learnerStore := newFakeLearnerStore()
	vocabStore := newFakeVocabStore()
	errorLogs := newFakeErrorLogStore()
	policy := &fakePolicy{intervention: passingIntervention()}

	learner, err := domain.NewLearner("learner@example.com", "hashed-password", 7.5, "fluency")
	require.NoError(t, err)
	require.NoError(t, learnerStore.Create(context.Background(), learner))

	vocabService := vocabreview.NewService(vocabStore, srs.NewDefaultService(), slog.Default())
	errorMemory := errormemory.NewService(errorLogs, nil, slog.Default())

	svc, err := NewService(
		sessionStore,
		learnerStore,
		vocabService,
		errorMemory,
		policy,
		constEmbedder{},
		fakeTxRunner{},
		domain.DefaultExamPlan(),
		slog.Default(),
	)
	require.NoError(t, err)

	return &harness{
		svc:          svc,
		sessionStore: sessionStore,
		learnerStore: learnerStore,
		vocabStore:   vocabStore,
		errorLogs:    errorLogs,
		policy:       policy,
		learner:      learner,
	}
}

func submitInput() SubmitAttemptInput {
	return SubmitAttemptInput{
		Transcript:      "I live in a coastal town because the sea air is wonderful and life is calm there.",
		DurationSeconds: 20,
		Audio: signal.AudioFeatures{
			RMS: []float64{0.5, 0.5, 0.5},
			ZCR: []float64{0.1, 0.1, 0.1},
		},
	}
}

// ---- tests ----

func TestStartExam(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	result, err := h.svc.StartExam(ctx, h.learner.ID)
	require.NoError(t, err)

	session := result.Session
	assert.Equal(t, domain.ModeExam, session.Mode)
	assert.Equal(t, domain.PartOne, session.CurrentPart)
	assert.NotEmpty(t, session.CurrentPrompt)
	assert.Contains(t, result.Briefing, "Target band: 7.5")

	stored, err := h.svc.GetSession(ctx, h.learner.ID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, stored.ID)
}

func TestStartExamUnknownLearner(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.svc.StartExam(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrLearnerNotFound)
}

func TestSubmitAttemptRecordsAndAdvancesPrompt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	started, err := h.svc.StartExam(ctx, h.learner.ID)
	require.NoError(t, err)

	result, err := h.svc.SubmitAttempt(ctx, h.learner.ID, started.Session.ID, submitInput())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomePass, result.Attempt.Outcome)
	assert.Equal(t, domain.PartOne, result.Attempt.Part)
	assert.False(t, result.PolicyDegraded)
	assert.Equal(t, 1, result.Session.AttemptsInPart(domain.PartOne))
	assert.Equal(t, "What about your neighbourhood do you find interesting?", result.Session.CurrentPrompt)

	// Metrics came through the extraction pipeline.
	assert.Equal(t, 17, result.Attempt.Metrics.WordCount)
	assert.InDelta(t, 51.0, result.Attempt.Metrics.WordsPerMinute, 1e-9)
	assert.InDelta(t, 1.0, result.Attempt.Metrics.CoherenceScore, 1e-9)
	assert.False(t, result.Attempt.Metrics.PronunciationDegraded)

	// The policy saw the pre-update snapshot.
	assert.Equal(t, started.Session.CurrentPrompt, h.policy.lastInput.Prompt)
	assert.Equal(t, 7.5, h.policy.lastInput.TargetBand)
}

func TestSubmitAttemptFeedbackAndVocabularySideEffects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.policy.intervention.TargetVocabulary = []string{"breeze", "tranquil"}

	started, err := h.svc.StartExam(ctx, h.learner.ID)
	require.NoError(t, err)

	_, err = h.svc.SubmitAttempt(ctx, h.learner.ID, started.Session.ID, submitInput())
	require.NoError(t, err)

	// Feedback mentioning cohesion was classified and counted.
	assert.Equal(t, 1, h.errorLogs.entries[h.learner.ID]["Missing Connectors"])

	// Target vocabulary landed in the deck, due immediately.
	due, err := h.vocabStore.ListDue(ctx, h.learner.ID, time.Now().UTC(), 10)
	require.NoError(t, err)
	words := map[string]bool{}
	for _, item := range due {
		words[item.Word] = true
	}
	assert.True(t, words["breeze"])
	assert.True(t, words["tranquil"])
}

func TestSubmitAttemptPolicyFailureDegrades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.policy.err = errors.New("model unavailable")

	started, err := h.svc.StartExam(ctx, h.learner.ID)
	require.NoError(t, err)

	result, err := h.svc.SubmitAttempt(ctx, h.learner.ID, started.Session.ID, submitInput())
	require.NoError(t, err, "degraded policy must not fail the submission")

	assert.True(t, result.PolicyDegraded)
	assert.Equal(t, generation.ActionMaintain, result.Intervention.Action)
	assert.Equal(t, domain.OutcomePass, result.Attempt.Outcome)
	assert.NotEmpty(t, result.Session.CurrentPrompt)
}

func TestSubmitAttemptFailAction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.policy.intervention.Action = generation.ActionFail

	started, err := h.svc.StartExam(ctx, h.learner.ID)
	require.NoError(t, err)

	result, err := h.svc.SubmitAttempt(ctx, h.learner.ID, started.Session.ID, submitInput())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeFail, result.Attempt.Outcome)
	assert.Equal(t, 1, result.Session.ConsecutiveFailures)
	assert.InDelta(t, 0.3, result.Session.StressLevel, 1e-9)
}

func TestSubmitAttemptAmend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	started, err := h.svc.StartExam(ctx, h.learner.ID)
	require.NoError(t, err)
	sessionID := started.Session.ID

	first, err := h.svc.SubmitAttempt(ctx, h.learner.ID, sessionID, submitInput())
	require.NoError(t, err)

	amendInput := submitInput()
	amendInput.Transcript = "I live in a small coastal town, and although it is quiet, the community is lively."
	amendInput.Amend = true

	amended, err := h.svc.SubmitAttempt(ctx, h.learner.ID, sessionID, amendInput)
	require.NoError(t, err)

	// Same attempt slot, no quota advance, retry outcome.
	assert.Equal(t, first.Attempt.ID, amended.Attempt.ID)
	assert.Equal(t, domain.OutcomeRetry, amended.Attempt.Outcome)
	assert.Equal(t, 1, amended.Session.AttemptsInPart(domain.PartOne))
	assert.Len(t, amended.Session.History, 1)
	assert.Equal(t, amendInput.Transcript, amended.Attempt.Transcript)
}

func TestSubmitAttemptAmendWithoutAttempt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	started, err := h.svc.StartExam(ctx, h.learner.ID)
	require.NoError(t, err)

	input := submitInput()
	input.Amend = true
	_, err = h.svc.SubmitAttempt(ctx, h.learner.ID, started.Session.ID, input)
	assert.ErrorIs(t, err, domain.ErrNoAttemptToAmend)
}

func TestExamRunsToCompletion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	started, err := h.svc.StartExam(ctx, h.learner.ID)
	require.NoError(t, err)
	sessionID := started.Session.ID

	var last *SubmitResult
	for i := 0; i < 8; i++ {
		last, err = h.svc.SubmitAttempt(ctx, h.learner.ID, sessionID, submitInput())
		require.NoError(t, err)
	}

	session := last.Session
	assert.True(t, session.Completed())
	assert.NotNil(t, session.EndedAt)
	require.NotNil(t, session.Summary)
	assert.GreaterOrEqual(t, session.Summary.OverallBand, 1.0)
	assert.LessOrEqual(t, session.Summary.OverallBand, 9.0)

	// Lifetime aggregates picked up the completed exam.
	learner, err := h.learnerStore.GetByID(ctx, h.learner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, learner.TotalExamsTaken)
	assert.InDelta(t, session.Summary.OverallBand, learner.AverageBandScore, 1e-9)

	// Terminal sessions are read-only.
	_, err = h.svc.SubmitAttempt(ctx, h.learner.ID, sessionID, submitInput())
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
}

func TestPracticeSessionLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	started, err := h.svc.StartPractice(ctx, h.learner.ID, "travel")
	require.NoError(t, err)
	sessionID := started.Session.ID
	assert.Equal(t, domain.ModePractice, started.Session.Mode)
	assert.Equal(t, "travel", started.Session.Topic)

	// Practice never advances past part one regardless of volume.
	for i := 0; i < 5; i++ {
		result, err := h.svc.SubmitAttempt(ctx, h.learner.ID, sessionID, submitInput())
		require.NoError(t, err)
		assert.Equal(t, domain.PartOne, result.Session.CurrentPart)
	}

	ended, err := h.svc.EndPractice(ctx, h.learner.ID, sessionID)
	require.NoError(t, err)
	assert.True(t, ended.Completed())
	assert.Nil(t, ended.Summary, "practice sessions get no exam summary")
}

func TestEndPracticeRejectsExams(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	started, err := h.svc.StartExam(ctx, h.learner.ID)
	require.NoError(t, err)

	_, err = h.svc.EndPractice(ctx, h.learner.ID, started.Session.ID)
	assert.ErrorIs(t, err, domain.ErrCannotEndExam)
}

func TestOwnershipChecks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	started, err := h.svc.StartExam(ctx, h.learner.ID)
	require.NoError(t, err)

	other, err := domain.NewLearner("other@example.com", "hashed", 6.0, "")
	require.NoError(t, err)
	require.NoError(t, h.learnerStore.Create(ctx, other))

	_, err = h.svc.GetSession(ctx, other.ID, started.Session.ID)
	assert.ErrorIs(t, err, ErrSessionNotOwned)

	_, err = h.svc.SubmitAttempt(ctx, other.ID, started.Session.ID, submitInput())
	assert.ErrorIs(t, err, ErrSessionNotOwned)

	_, err = h.svc.GetSession(ctx, h.learner.ID, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmitAttemptEmptyTranscriptDegrades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	started, err := h.svc.StartExam(ctx, h.learner.ID)
	require.NoError(t, err)

	// A failed transcription upstream yields no text and no usable duration.
	// The attempt is still recorded, with metrics at their degraded defaults.
	input := SubmitAttemptInput{Transcript: "", DurationSeconds: 0}
	result, err := h.svc.SubmitAttempt(ctx, h.learner.ID, started.Session.ID, input)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Attempt.Metrics.WordCount)
	assert.InDelta(t, 0.0, result.Attempt.Metrics.WordsPerMinute, 1e-9)
	assert.InDelta(t, 0.0, result.Attempt.Metrics.LexicalDiversity, 1e-9)
	assert.InDelta(t, 0.0, result.Attempt.Metrics.CoherenceScore, 1e-9)
	assert.True(t, result.Attempt.Metrics.PronunciationDegraded)
	require.Len(t, result.Session.History, 1)
	assert.Equal(t, 1, result.Session.AttemptsInPart(domain.PartOne))
}
