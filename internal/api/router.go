package api

import (
	"log/slog"
	"net/http"

	apiMiddleware "github.com/fluentwork/coach/internal/api/middleware"
	"github.com/fluentwork/coach/internal/service/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterDeps holds what NewRouter wires into handlers. Streamer may be nil,
// in which case the progress stream route is not registered.
type RouterDeps struct {
	Coach      Coach
	Streamer   Streamer
	JWTService auth.JWTService
	Logger     *slog.Logger
}

// NewRouter creates the HTTP handler for the coaching API.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(log))

	authHandler := NewAuthHandler(deps.JWTService, log)
	authMiddleware := apiMiddleware.NewAuthMiddleware(deps.JWTService)
	coachHandler := NewCoachHandler(deps.Coach, log)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/guest", authHandler.Guest)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/onboarding", coachHandler.Onboard)

			r.Get("/plan", coachHandler.GetPlan)
			r.Post("/plan/advance", coachHandler.AdvanceWeek)
			r.Post("/plan/goals/{day}/complete", coachHandler.CompleteGoal)

			r.Get("/vocabulary", coachHandler.ListVocabulary)
			r.Get("/vocabulary/due", coachHandler.DueVocabulary)
			r.Post("/vocabulary/import", coachHandler.ImportVocabulary)
			r.Post("/vocabulary/{itemID}/review", coachHandler.ReviewFlashcard)
			r.Post("/vocabulary/{itemID}/learned", coachHandler.MarkLearned)

			r.Post("/practice", coachHandler.SubmitPractice)
			r.Get("/stats", coachHandler.GetStats)
			r.Get("/progress/summary", coachHandler.GetSummary)

			r.Get("/snapshot", coachHandler.GetSnapshot)
			r.Put("/snapshot", coachHandler.PutSnapshot)

			if deps.Streamer != nil {
				r.Get("/progress/stream", NewStreamHandler(deps.Streamer, log).Stream)
			}
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	return r
}
