package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fluentwork/coach/internal/api/shared"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/go-chi/chi/v5"
)

// requireUserID extracts the authenticated learner id, writing a 401 when
// it is missing.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("user ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return "", false
	}
	return userID, true
}

// requirePathParam extracts a non-blank chi path parameter, writing a 400
// when it is missing.
func requirePathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing "+name)
		return "", false
	}
	return value, true
}

// decodeAndValidate decodes the JSON body into v and validates it, writing
// a 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}
