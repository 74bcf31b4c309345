package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fluentwork/coach/internal/api/shared"
	"github.com/fluentwork/coach/internal/catalog"
	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/generation"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/service"
	"github.com/fluentwork/coach/internal/service/auth"
	"github.com/fluentwork/coach/internal/store"
	"github.com/go-playground/validator/v10"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes so internal
// error types never reach clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrNotOnboarded):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, catalog.ErrNoSheet):
		return http.StatusBadRequest

	case errors.Is(err, store.ErrStoreUnavailable),
		errors.Is(err, generation.ErrOracleUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that leaks no
// internal detail.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, store.ErrProgressNotFound):
		return "Progress not found"
	case errors.Is(err, store.ErrPlanNotFound):
		return "No weekly plan yet"
	case errors.Is(err, store.ErrProfileNotFound):
		return "Profile not found"
	case errors.Is(err, store.ErrVocabularyNotFound):
		return "Vocabulary item not found"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, service.ErrNotOnboarded):
		return "Onboarding required"

	case errors.Is(err, service.ErrEmptyInput):
		return "Input cannot be empty"
	case errors.Is(err, domain.ErrInvalidLevel):
		return "Invalid level"
	case errors.Is(err, catalog.ErrNoSheet):
		return "Worksheet not found"
	case errors.Is(err, domain.ErrInvalidFormat):
		return "Invalid file format"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid data"

	case errors.Is(err, store.ErrStoreUnavailable):
		return "Progress storage is temporarily unavailable"
	case errors.Is(err, generation.ErrOracleUnavailable):
		return "Coaching assistant is temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator failures into a message naming
// the first offending field and nothing else.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for err. defaultMsg replaces the safe
// message when the error maps to a server failure.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}

	var opts []shared.ResponseOption
	if status == http.StatusServiceUnavailable {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	logger.FromContextOrDefault(r.Context(), slog.Default()).Debug("mapped API error",
		slog.Int("status", status),
		slog.String("error_type", fmt.Sprintf("%T", err)))
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
