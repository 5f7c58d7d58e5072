package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/viva-api/internal/api/shared"
	"github.com/phrazzld/viva-api/internal/service/vocabreview"
)

// AddVocabularyRequest represents the request body for adding a word to the
// learner's deck.
type AddVocabularyRequest struct {
	Word string `json:"word" validate:"required,min=1,max=100"`

	// Context records the sentence or prompt the word appeared in.
	Context string `json:"context" validate:"omitempty,max=500"`
}

// ReviewVocabularyRequest represents the request body for grading a review.
type ReviewVocabularyRequest struct {
	// Quality is the recall grade, 0 (blackout) through 5 (perfect).
	// The range is enforced by the service so out-of-range grades map to the
	// standard error response.
	Quality *int `json:"quality" validate:"required"`
}

// VocabularyHandler handles vocabulary deck HTTP requests.
type VocabularyHandler struct {
	vocabService vocabreview.Service
	validator    *validator.Validate
}

// NewVocabularyHandler creates a new VocabularyHandler.
func NewVocabularyHandler(vocabService vocabreview.Service) *VocabularyHandler {
	return &VocabularyHandler{
		vocabService: vocabService,
		validator:    validator.New(),
	}
}

// Add handles POST /vocabulary requests. Adding an already-tracked word is
// idempotent and returns the existing item.
func (h *VocabularyHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req AddVocabularyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	item, err := h.vocabService.Add(r.Context(), userID, req.Word, req.Context)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add vocabulary item")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, item)
}

// Due handles GET /vocabulary/due requests, listing items due for review,
// most overdue first. An optional limit query parameter caps the result size.
func (h *VocabularyHandler) Due(w http.ResponseWriter, r *http.Request) {
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

	items, err := h.vocabService.Due(r.Context(), userID, time.Now().UTC(), limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list due vocabulary")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, items)
}

// Review handles POST /vocabulary/{id}/review requests, rescheduling the item
// through the spaced repetition algorithm.
func (h *VocabularyHandler) Review(w http.ResponseWriter, r *http.Request) {
	userID, itemID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	var req ReviewVocabularyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	item, err := h.vocabService.Review(r.Context(), userID, itemID, vocabreview.ReviewAnswer{
		Quality: *req.Quality,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to review vocabulary item")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, item)
}
