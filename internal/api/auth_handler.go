package api

import (
	"log/slog"
	"net/http"

	"github.com/fluentwork/coach/internal/api/shared"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/service/auth"
)

// AuthHandler issues access tokens.
type AuthHandler struct {
	jwtService auth.JWTService
	newID      func() string
	logger     *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(jwtService auth.JWTService, log *slog.Logger) *AuthHandler {
	if jwtService == nil {
		panic("jwtService cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		jwtService: jwtService,
		newID:      auth.NewGuestID,
		logger:     log.With(slog.String("component", "auth_handler")),
	}
}

// Guest handles POST /api/auth/guest. It creates a fresh guest learner and
// returns a token for it.
func (h *AuthHandler) Guest(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID := h.newID()

	token, err := h.jwtService.GenerateToken(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token", err)
		return
	}

	resp := AuthResponse{UserID: userID, Token: token}
	if claims, err := h.jwtService.ValidateToken(r.Context(), token); err != nil {
		log.Warn("issued token failed validation", slog.String("error", err.Error()))
	} else {
		resp.ExpiresAt = formatExpiry(claims.ExpiresAt)
	}

	log.Info("guest session issued", slog.String("user_id", userID))
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}
