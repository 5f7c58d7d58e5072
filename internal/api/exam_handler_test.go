package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/viva-api/internal/api/shared"
	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/generation"
	"github.com/phrazzld/viva-api/internal/service/exam"
)

// fakeExamService is a scriptable exam.Service for handler tests.
type fakeExamService struct {
	startResult  *exam.StartResult
	submitResult *exam.SubmitResult
	session      *domain.Session
	sessions     []*domain.Session
	err          error

	lastInput exam.SubmitAttemptInput
	lastTopic string
}

func (f *fakeExamService) StartExam(ctx context.Context, userID uuid.UUID) (*exam.StartResult, error) {
	return f.startResult, f.err
}

func (f *fakeExamService) StartPractice(ctx context.Context, userID uuid.UUID, topic string) (*exam.StartResult, error) {
	f.lastTopic = topic
	return f.startResult, f.err
}

func (f *fakeExamService) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error) {
	return f.session, f.err
}

func (f *fakeExamService) ListSessions(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Session, error) {
	return f.sessions, f.err
}

func (f *fakeExamService) SubmitAttempt(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	input exam.SubmitAttemptInput,
) (*exam.SubmitResult, error) {
	f.lastInput = input
	return f.submitResult, f.err
}

func (f *fakeExamService) EndPractice(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error) {
	return f.session, f.err
}

// examRouter mounts the handler on the session routes with the given user
// injected into every request context.
func examRouter(handler *ExamHandler, userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/sessions/exam", handler.StartExam)
	r.Post("/sessions/practice", handler.StartPractice)
	r.Get("/sessions", handler.ListSessions)
	r.Get("/sessions/{id}", handler.GetSession)
	r.Post("/sessions/{id}/attempts", handler.SubmitAttempt)
	r.Post("/sessions/{id}/end", handler.EndPractice)
	r.Get("/practice/topics", handler.Topics)
	return r
}

func serveJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func testSession(t *testing.T, userID uuid.UUID) *domain.Session {
	t.Helper()
	session, err := domain.NewExamSession(userID, domain.DefaultExamPlan(), "Tell me about your hometown.")
	require.NoError(t, err)
	return session
}

func TestStartExamEndpoint(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	session := testSession(t, userID)
	svc := &fakeExamService{startResult: &exam.StartResult{Session: session, Briefing: "Target band: 7.0."}}
	router := examRouter(NewExamHandler(svc), userID)

	w := serveJSON(t, router, http.MethodPost, "/sessions/exam", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp exam.StartResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, session.ID, resp.Session.ID)
	assert.Equal(t, "Target band: 7.0.", resp.Briefing)
}

func TestStartPracticeEndpoint(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	session := testSession(t, userID)
	svc := &fakeExamService{startResult: &exam.StartResult{Session: session}}
	router := examRouter(NewExamHandler(svc), userID)

	w := serveJSON(t, router, http.MethodPost, "/sessions/practice", StartPracticeRequest{Topic: "travel"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "travel", svc.lastTopic)
}

func TestSubmitAttemptEndpoint(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	session := testSession(t, userID)
	svc := &fakeExamService{submitResult: &exam.SubmitResult{
		Session:      session,
		Intervention: &generation.Intervention{Action: generation.ActionMaintain, NextPrompt: "And why is that?"},
	}}
	router := examRouter(NewExamHandler(svc), userID)

	w := serveJSON(t, router, http.MethodPost, "/sessions/"+session.ID.String()+"/attempts", SubmitAttemptRequest{
		Transcript:      "I live in a quiet town near the coast.",
		DurationSeconds: 12.5,
		Audio:           AudioPayload{RMS: []float64{0.4}, ZCR: []float64{0.1}},
		Amend:           true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "I live in a quiet town near the coast.", svc.lastInput.Transcript)
	assert.Equal(t, 12.5, svc.lastInput.DurationSeconds)
	assert.Equal(t, []float64{0.4}, svc.lastInput.Audio.RMS)
	assert.True(t, svc.lastInput.Amend)
}

func TestSubmitAttemptEndpointAcceptsDegradedInput(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	session := testSession(t, userID)
	svc := &fakeExamService{submitResult: &exam.SubmitResult{Session: session}}
	router := examRouter(NewExamHandler(svc), userID)

	// An empty transcript and zero duration are a failed transcription
	// upstream, not a client error; the submission must go through.
	w := serveJSON(t, router, http.MethodPost, "/sessions/"+session.ID.String()+"/attempts", SubmitAttemptRequest{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", svc.lastInput.Transcript)
	assert.InDelta(t, 0.0, svc.lastInput.DurationSeconds, 1e-9)
}

func TestSubmitAttemptEndpointValidation(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	router := examRouter(NewExamHandler(&fakeExamService{}), userID)
	sessionID := uuid.New().String()

	t.Run("negative duration", func(t *testing.T) {
		w := serveJSON(t, router, http.MethodPost, "/sessions/"+sessionID+"/attempts", SubmitAttemptRequest{
			Transcript:      "hello",
			DurationSeconds: -1,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed session id", func(t *testing.T) {
		w := serveJSON(t, router, http.MethodPost, "/sessions/not-a-uuid/attempts", SubmitAttemptRequest{
			Transcript:      "hello",
			DurationSeconds: 10,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSubmitAttemptEndpointErrorMapping(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	sessionID := uuid.New().String()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"completed session", domain.ErrSessionCompleted, http.StatusConflict},
		{"nothing to amend", domain.ErrNoAttemptToAmend, http.StatusConflict},
		{"not owned", exam.ErrSessionNotOwned, http.StatusForbidden},
		{"not found", exam.ErrSessionNotFound, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := examRouter(NewExamHandler(&fakeExamService{err: tc.err}), userID)
			w := serveJSON(t, router, http.MethodPost, "/sessions/"+sessionID+"/attempts", SubmitAttemptRequest{
				Transcript:      "hello there",
				DurationSeconds: 10,
			})
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestListSessionsEndpoint(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	svc := &fakeExamService{sessions: []*domain.Session{testSession(t, userID)}}
	router := examRouter(NewExamHandler(svc), userID)

	w := serveJSON(t, router, http.MethodGet, "/sessions?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var sessions []*domain.Session
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sessions))
	assert.Len(t, sessions, 1)

	w = serveJSON(t, router, http.MethodGet, "/sessions?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEndPracticeEndpoint(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	session := testSession(t, userID)

	t.Run("success", func(t *testing.T) {
		router := examRouter(NewExamHandler(&fakeExamService{session: session}), userID)
		w := serveJSON(t, router, http.MethodPost, "/sessions/"+session.ID.String()+"/end", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("exam session rejected", func(t *testing.T) {
		router := examRouter(NewExamHandler(&fakeExamService{err: domain.ErrCannotEndExam}), userID)
		w := serveJSON(t, router, http.MethodPost, "/sessions/"+session.ID.String()+"/end", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestTopicsEndpoint(t *testing.T) {
	t.Parallel()
	svc := &fakeExamService{}
	router := examRouter(NewExamHandler(svc), uuid.New())

	w := serveJSON(t, router, http.MethodGet, "/practice/topics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TopicsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Topics)
	assert.Contains(t, resp.Topics, "hometown")
}
