package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fluentwork/coach/internal/api/shared"
	"github.com/fluentwork/coach/internal/catalog"
	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/service"
	"github.com/fluentwork/coach/internal/stats"
)

// MaxImportBytes caps uploaded vocabulary spreadsheets.
const MaxImportBytes = 5 << 20

// Coach is the coaching service the handlers drive.
type Coach interface {
	Onboard(ctx context.Context, userID string, profile domain.UserProfile) (*domain.Snapshot, error)
	ReviewFlashcard(ctx context.Context, userID, itemID, input string) (*service.ReviewResult, error)
	SubmitPractice(
		ctx context.Context,
		userID string,
		scenario domain.PracticeScenario,
		input string,
	) (*service.PracticeResult, error)
	CompleteGoal(ctx context.Context, userID, day string) (*domain.WeeklyPlan, error)
	MarkLearned(ctx context.Context, userID, itemID string) (*domain.ProgressRecord, error)
	AdvanceWeek(ctx context.Context, userID string) (*domain.WeeklyPlan, error)
	CurrentPlan(ctx context.Context, userID string) (*domain.WeeklyPlan, error)
	Stats(ctx context.Context, userID string) (stats.SessionStats, error)
	Summary(ctx context.Context, userID string) (stats.ProgressSummary, error)
	Vocabulary(ctx context.Context, userID string) ([]domain.ProgressView, error)
	DueQueue(ctx context.Context, userID string, limit int) ([]domain.ProgressView, error)
	ImportVocabulary(ctx context.Context, userID string, items []domain.VocabularyItem) error
	Snapshot(ctx context.Context, userID string) (*domain.Snapshot, error)
	RestoreSnapshot(ctx context.Context, userID string, snap *domain.Snapshot) error
}

var _ Coach = (*service.CoachService)(nil)

// CoachHandler serves the coaching endpoints.
type CoachHandler struct {
	coach    Coach
	importer *catalog.Importer
	logger   *slog.Logger
}

// NewCoachHandler creates a new CoachHandler with the given dependencies.
func NewCoachHandler(coach Coach, log *slog.Logger) *CoachHandler {
	if coach == nil {
		panic("coach cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &CoachHandler{
		coach:    coach,
		importer: catalog.NewImporter(coach, catalog.DefaultOptions(), log),
		logger:   log.With(slog.String("component", "coach_handler")),
	}
}

// Onboard handles POST /api/onboarding.
func (h *CoachHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req OnboardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	snap, err := h.coach.Onboard(r.Context(), userID, req.profile())
	if !h.handlePartial(w, r, snap != nil, err, "Failed to complete onboarding") {
		return
	}
	status := http.StatusCreated
	if err != nil {
		status = http.StatusOK
	}
	shared.RespondWithJSON(w, r, status, SnapshotResponse{Snapshot: snap, Saved: err == nil})
}

// GetPlan handles GET /api/plan.
func (h *CoachHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	p, err := h.coach.CurrentPlan(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load plan")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PlanResponse{Plan: p, Saved: true})
}

// AdvanceWeek handles POST /api/plan/advance.
func (h *CoachHandler) AdvanceWeek(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	p, err := h.coach.AdvanceWeek(r.Context(), userID)
	if !h.handlePartial(w, r, p != nil, err, "Failed to advance week") {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PlanResponse{Plan: p, Saved: err == nil})
}

// CompleteGoal handles POST /api/plan/goals/{day}/complete.
func (h *CoachHandler) CompleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	day, ok := requirePathParam(w, r, "day")
	if !ok {
		return
	}
	p, err := h.coach.CompleteGoal(r.Context(), userID, day)
	if !h.handlePartial(w, r, p != nil, err, "Failed to complete goal") {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PlanResponse{Plan: p, Saved: err == nil})
}

// ListVocabulary handles GET /api/vocabulary.
func (h *CoachHandler) ListVocabulary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	views, err := h.coach.Vocabulary(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load vocabulary")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, VocabularyResponse{Items: views})
}

// DueVocabulary handles GET /api/vocabulary/due. The optional limit query
// parameter caps the queue.
func (h *CoachHandler) DueVocabulary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	views, err := h.coach.DueQueue(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load review queue")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, VocabularyResponse{Items: views})
}

// ReviewFlashcard handles POST /api/vocabulary/{itemID}/review.
func (h *CoachHandler) ReviewFlashcard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	itemID, ok := requirePathParam(w, r, "itemID")
	if !ok {
		return
	}
	var req ReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.coach.ReviewFlashcard(r.Context(), userID, itemID, req.Input)
	if !h.handlePartial(w, r, result != nil, err, "Failed to review flashcard") {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ReviewResponse{ReviewResult: result, Saved: err == nil})
}

// MarkLearned handles POST /api/vocabulary/{itemID}/learned.
func (h *CoachHandler) MarkLearned(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	itemID, ok := requirePathParam(w, r, "itemID")
	if !ok {
		return
	}
	rec, err := h.coach.MarkLearned(r.Context(), userID, itemID)
	if !h.handlePartial(w, r, rec != nil, err, "Failed to mark item learned") {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ProgressResponse{Progress: rec, Saved: err == nil})
}

// ImportVocabulary handles POST /api/vocabulary/import. The body is an
// .xlsx workbook.
func (h *CoachHandler) ImportVocabulary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	body := http.MaxBytesReader(w, r.Body, MaxImportBytes)
	defer func() { _ = body.Close() }()

	result, err := h.importer.Import(r.Context(), userID, body)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to import vocabulary")
		return
	}

	resp := ImportResponse{Imported: len(result.Items), Skipped: make([]SkippedRow, 0, len(result.Skipped))}
	for _, s := range result.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedRow{Row: s.Row, Reason: GetSafeErrorMessage(s.Err)})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// SubmitPractice handles POST /api/practice.
func (h *CoachHandler) SubmitPractice(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req PracticeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.coach.SubmitPractice(r.Context(), userID, req.scenario(), req.Input)
	if !h.handlePartial(w, r, result != nil, err, "Failed to submit practice") {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PracticeResponse{PracticeResult: result, Saved: err == nil})
}

// GetStats handles GET /api/stats.
func (h *CoachHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	// Stats come back even when history could not be loaded.
	st, err := h.coach.Stats(r.Context(), userID)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Warn("serving stale statistics",
			slog.String("error", err.Error()))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, StatsResponse{SessionStats: st, Stale: err != nil})
}

// GetSummary handles GET /api/progress/summary.
func (h *CoachHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	summary, err := h.coach.Summary(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load progress summary")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// GetSnapshot handles GET /api/snapshot.
func (h *CoachHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	snap, err := h.coach.Snapshot(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load snapshot")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SnapshotResponse{Snapshot: snap, Saved: true})
}

// PutSnapshot handles PUT /api/snapshot, replacing the learner's stored
// state.
func (h *CoachHandler) PutSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var snap domain.Snapshot
	if err := shared.DecodeJSON(w, r, &snap); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.coach.RestoreSnapshot(r.Context(), userID, &snap); err != nil {
		HandleAPIError(w, r, err, "Failed to restore snapshot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePartial writes the error response unless a result was computed, in
// which case the caller reports it with saved=false. It returns whether the
// caller should write the result.
func (h *CoachHandler) handlePartial(
	w http.ResponseWriter,
	r *http.Request,
	computed bool,
	err error,
	defaultMsg string,
) bool {
	if err == nil {
		return true
	}
	if !computed {
		HandleAPIError(w, r, err, defaultMsg)
		return false
	}
	logger.FromContextOrDefault(r.Context(), h.logger).Warn("result computed but not persisted",
		slog.String("path", r.URL.Path),
		slog.Int("mapped_status", MapErrorToStatusCode(err)))
	return true
}
