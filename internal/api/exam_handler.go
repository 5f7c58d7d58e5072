package api

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/viva-api/internal/api/shared"
	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/service/exam"
	"github.com/phrazzld/viva-api/internal/signal"
)

// StartPracticeRequest represents the request body for starting a practice
// conversation. A blank topic falls back to a general one.
type StartPracticeRequest struct {
	Topic string `json:"topic" validate:"omitempty,max=200"`
}

// AudioPayload carries the frame-level acoustic series for one answer.
// Both series may be empty when the client could not decode the audio.
type AudioPayload struct {
	RMS []float64 `json:"rms"`
	ZCR []float64 `json:"zcr"`
}

// SubmitAttemptRequest represents the request body for submitting one spoken
// answer to a session. The transcript and duration may be empty or zero when
// transcription failed upstream; metrics then degrade to their documented
// defaults instead of rejecting the attempt.
type SubmitAttemptRequest struct {
	Transcript      string       `json:"transcript"`
	DurationSeconds float64      `json:"duration_seconds" validate:"gte=0"`
	Audio           AudioPayload `json:"audio"`

	// Amend replaces the latest attempt of the current part instead of
	// recording a new scored attempt.
	Amend bool `json:"amend"`
}

// ExamHandler handles session-related HTTP requests: starting exams and
// practice conversations, submitting attempts, and reading session state.
type ExamHandler struct {
	examService exam.Service
	validator   *validator.Validate
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService exam.Service) *ExamHandler {
	return &ExamHandler{
		examService: examService,
		validator:   validator.New(),
	}
}

// StartExam handles POST /sessions/exam requests.
func (h *ExamHandler) StartExam(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	result, err := h.examService.StartExam(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start exam")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// StartPractice handles POST /sessions/practice requests.
func (h *ExamHandler) StartPractice(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req StartPracticeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.examService.StartPractice(r.Context(), userID, req.Topic)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start practice session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// GetSession handles GET /sessions/{id} requests.
func (h *ExamHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	session, err := h.examService.GetSession(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// ListSessions handles GET /sessions requests. An optional limit query
// parameter caps the result size.
func (h *ExamHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	sessions, err := h.examService.ListSessions(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list sessions")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessions)
}

// SubmitAttempt handles POST /sessions/{id}/attempts requests.
func (h *ExamHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	var req SubmitAttemptRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.examService.SubmitAttempt(r.Context(), userID, sessionID, exam.SubmitAttemptInput{
		Transcript:      req.Transcript,
		DurationSeconds: req.DurationSeconds,
		Audio: signal.AudioFeatures{
			RMS: req.Audio.RMS,
			ZCR: req.Audio.ZCR,
		},
		Amend: req.Amend,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit attempt")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// TopicsResponse lists the suggested practice conversation topics.
type TopicsResponse struct {
	Topics []string `json:"topics"`
}

// Topics handles GET /practice/topics requests.
func (h *ExamHandler) Topics(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, TopicsResponse{Topics: domain.PracticeTopics()})
}

// EndPractice handles POST /sessions/{id}/end requests.
func (h *ExamHandler) EndPractice(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	session, err := h.examService.EndPractice(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to end session")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, session)
}
