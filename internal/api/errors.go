package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/viva-api/internal/api/shared"
	"github.com/phrazzld/viva-api/internal/domain"
	"github.com/phrazzld/viva-api/internal/service/auth"
	"github.com/phrazzld/viva-api/internal/service/errormemory"
	"github.com/phrazzld/viva-api/internal/service/exam"
	"github.com/phrazzld/viva-api/internal/service/vocabreview"
	"github.com/phrazzld/viva-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, exam.ErrSessionNotOwned),
		errors.Is(err, vocabreview.ErrItemNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, exam.ErrSessionNotFound),
		errors.Is(err, exam.ErrLearnerNotFound),
		errors.Is(err, vocabreview.ErrItemNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	// Session state conflicts
	case errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrNoAttemptToAmend),
		errors.Is(err, domain.ErrCannotEndExam):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, vocabreview.ErrInvalidQuality),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Special cases
	case errors.Is(err, errormemory.ErrNoChronicIssues):
		return http.StatusNoContent

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	// Authorization errors
	case errors.Is(err, exam.ErrSessionNotOwned):
		return "You do not own this session"

	case errors.Is(err, vocabreview.ErrItemNotOwned):
		return "You do not own this vocabulary item"

	// Not found errors
	case errors.Is(err, exam.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, exam.ErrLearnerNotFound):
		return "Learner not found"

	case errors.Is(err, vocabreview.ErrItemNotFound):
		return "Vocabulary item not found"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, domain.ErrSessionCompleted):
		return "Session is already completed"

	case errors.Is(err, domain.ErrNoAttemptToAmend):
		return "No attempt to amend in the current part"

	case errors.Is(err, domain.ErrCannotEndExam):
		return "Exam sessions complete through their attempt quotas"

	// Bad request errors
	case errors.Is(err, vocabreview.ErrInvalidQuality):
		return "Recall quality must be between 0 and 5"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the standard sanitized error response for err. The
// fallbackMessage replaces the generic message for errors that do not map to
// a specific safe message; pass "" to keep the generic one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)

	if status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	message := GetSafeErrorMessage(err)
	if fallbackMessage != "" && message == "An unexpected error occurred" {
		message = fallbackMessage
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example: "Key: 'LoginRequest.Email' Error:Field validation for
		// 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte", "lte":
		return "out of range"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
