package api

import (
	"net/http"
	"strconv"

	"github.com/phrazzld/viva-api/internal/api/shared"
	"github.com/phrazzld/viva-api/internal/service/errormemory"
)

// defaultDrillCount is how many drills one request produces when the client
// does not ask for a specific number.
const defaultDrillCount = 3

// FeedbackHandler exposes the learner's accumulated error history: chronic
// issues and targeted correction drills.
type FeedbackHandler struct {
	errorMemory errormemory.Service
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(errorMemory errormemory.Service) *FeedbackHandler {
	return &FeedbackHandler{
		errorMemory: errorMemory,
	}
}

// ChronicIssues handles GET /feedback/issues requests, returning the
// learner's most frequent error types, highest count first.
func (h *FeedbackHandler) ChronicIssues(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit := errormemory.DefaultChronicIssueCount
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	entries, err := h.errorMemory.ChronicIssues(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load chronic issues")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// Drills handles GET /feedback/drills requests, generating correction drills
// for the learner's most chronic error type. Learners with no recorded
// history get 204 No Content.
func (h *FeedbackHandler) Drills(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	count := defaultDrillCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid count parameter")
			return
		}
		count = parsed
	}

	drills, err := h.errorMemory.GenerateDrills(r.Context(), userID, count)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate drills")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, drills)
}
