package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/domain/mastery"
	"github.com/fluentwork/coach/internal/events"
	"github.com/fluentwork/coach/internal/generation"
	"github.com/fluentwork/coach/internal/plan"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/stats"
	"github.com/fluentwork/coach/internal/store"
)

// RecentMistakeCount is how many recent mistakes feed plan generation.
const RecentMistakeCount = 5

// CoachService runs the coaching flows for many users against one backend.
type CoachService struct {
	backend store.Backend
	mastery mastery.Service
	plans   *plan.Lifecycle
	planner generation.PlanGenerator
	judge   generation.AttemptJudge
	emitter *events.InMemoryEventEmitter
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*userSession
}

// userSession holds a user's running statistics. synced is false when the
// totals may disagree with stored history and need a full recount.
type userSession struct {
	agg    *stats.Aggregator
	synced bool
}

// NewCoachService creates a CoachService. planner and judge may be nil, in
// which case the built-in plan and the degraded judgement are always used.
// Both are wrapped so that backend failures never reach callers.
func NewCoachService(
	backend store.Backend,
	planner generation.PlanGenerator,
	judge generation.AttemptJudge,
	log *slog.Logger,
) (*CoachService, error) {
	if backend == nil {
		return nil, NewServiceError("new", "backend cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}

	s := &CoachService{
		backend:  backend,
		mastery:  mastery.NewDefaultService(),
		plans:    plan.NewLifecycle(backend, log),
		planner:  generation.WithPlanFallback(planner, log),
		judge:    generation.WithJudgeFallback(judge, log),
		emitter:  events.NewInMemoryEventEmitter(log),
		logger:   log.With(slog.String("component", "coach_service")),
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]*userSession),
	}
	s.emitter.RegisterHandler(events.HandlerFunc(s.foldOutcome))
	return s, nil
}

// Events returns the emitter outcome events are published on, so other
// components can register handlers.
func (s *CoachService) Events() *events.InMemoryEventEmitter {
	return s.emitter
}

// Onboard stores the profile, generates the first week's plan and seeds the
// vocabulary from it. The returned snapshot is complete even when persisting
// fails; the error then reports what could not be stored.
func (s *CoachService) Onboard(ctx context.Context, userID string, profile domain.UserProfile) (*domain.Snapshot, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("user_id", userID))
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	p, err := s.planner.GeneratePlan(ctx, generation.PlanRequest{Profile: profile, WeekNumber: 1})
	if err != nil {
		return nil, NewServiceError("onboard", "failed to generate plan", err)
	}
	now := s.now()
	entry := domain.HistoryEntry{
		Date:        now,
		Type:        domain.HistoryTypeOnboarding,
		Description: fmt.Sprintf("Plan de la semana %d creado: %s", p.WeekNumber, p.MainFocus),
	}
	snap := &domain.Snapshot{
		Profile:    &profile,
		Plan:       p,
		Vocabulary: slices.Clone(p.NewVocabulary),
		Progress:   []domain.ProgressRecord{},
		History:    []domain.HistoryEntry{entry},
	}

	persistErr := errors.Join(
		s.backend.SaveProfile(ctx, userID, &profile),
		s.backend.SavePlan(ctx, userID, p),
		s.backend.SaveVocabulary(ctx, userID, p.NewVocabulary),
	)
	if persistErr == nil {
		persistErr = s.backend.AppendHistory(ctx, userID, entry)
	}
	if persistErr != nil {
		s.resetSession(userID, snap.History)
		log.Error("onboarding computed but not fully persisted", slog.String("error", persistErr.Error()))
		return snap, persistErr
	}

	s.dropSession(userID)
	log.Info("user onboarded",
		slog.String("level", string(profile.Level)),
		slog.Int("vocabulary_count", len(p.NewVocabulary)))
	return snap, nil
}

// ReviewFlashcard grades input against the item's word, updates mastery and
// records the review. The result is returned even when persisting fails.
func (s *CoachService) ReviewFlashcard(ctx context.Context, userID, itemID, input string) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID),
		slog.String("vocabulary_item_id", itemID))
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	item, err := s.backend.GetVocabularyItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	key := domain.ProgressKey{UserID: userID, VocabularyItemID: itemID}
	prev, err := s.backend.GetProgress(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	_, _ = s.session(ctx, userID)

	now := s.now()
	correct := mastery.IsFlashcardMatch(input, item.Word)
	next := s.mastery.ApplyOutcome(prev, key, correct, now)

	description := "Repaso correcto: " + item.Word
	if !correct {
		description = "Error en vocabulario: " + item.Word
	}
	entry := domain.HistoryEntry{
		Date:        now,
		Type:        domain.HistoryTypeReview,
		Description: description,
		Details: &domain.PracticeAttempt{
			Date:          now,
			ScenarioID:    itemID,
			UserInput:     input,
			CorrectedText: item.Word,
			IsCorrect:     correct,
		},
	}

	var stored *domain.ProgressRecord
	persistErr := s.backend.UpsertProgress(ctx, &next)
	if persistErr == nil {
		stored = &next
		persistErr = s.backend.AppendHistory(ctx, userID, entry)
	}
	st := s.record(ctx, events.TypeFlashcardGraded, userID, entry, stored)
	if persistErr != nil {
		// History lacks the entry the running statistics just counted.
		s.markUnsynced(userID)
	}

	result := &ReviewResult{Correct: correct, Item: *item, Progress: next, Stats: st}
	if persistErr != nil {
		log.Error("review computed but not persisted", slog.String("error", persistErr.Error()))
		return result, persistErr
	}
	log.Debug("flashcard reviewed",
		slog.Bool("correct", correct),
		slog.Int("mastery_level", next.MasteryLevel))
	return result, nil
}

// SubmitPractice judges a free text attempt for scenario and records it.
// A correct attempt completes the plan goal whose scenario title matches.
func (s *CoachService) SubmitPractice(
	ctx context.Context,
	userID string,
	scenario domain.PracticeScenario,
	input string,
) (*PracticeResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID),
		slog.String("scenario", scenario.Title))
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	_, _ = s.session(ctx, userID)

	j, err := s.judge.JudgeAttempt(ctx, generation.JudgeRequest{
		Input:   input,
		Context: scenario.Context,
		Prompt:  scenario.Prompt,
	})
	if err != nil {
		return nil, NewServiceError("submit_practice", "failed to judge attempt", err)
	}

	now := s.now()
	attempt := domain.PracticeAttempt{
		Date:          now,
		ScenarioID:    scenario.Title,
		UserInput:     input,
		CorrectedText: j.CorrectedText,
		Feedback:      j.Feedback,
		IsCorrect:     j.IsCorrect,
		Alternative:   j.Alternative,
	}
	entry := domain.HistoryEntry{
		Date:        now,
		Type:        domain.HistoryTypePractice,
		Description: "Práctica: " + scenario.Title,
		Details:     &attempt,
	}

	persistErr := s.backend.AppendHistory(ctx, userID, entry)
	st := s.record(ctx, events.TypePracticeJudged, userID, entry, nil)
	if persistErr != nil {
		s.markUnsynced(userID)
	}
	result := &PracticeResult{Judgement: j, Attempt: attempt, Stats: st}

	if j.IsCorrect {
		updated, err := s.plans.CompleteScenario(ctx, userID, scenario.Title)
		switch {
		case errors.Is(err, store.ErrPlanNotFound):
		case err != nil:
			persistErr = errors.Join(persistErr, err)
			result.Plan = updated
		default:
			result.Plan = updated
		}
	}

	if persistErr != nil {
		log.Error("practice judged but not fully persisted", slog.String("error", persistErr.Error()))
		return result, persistErr
	}
	log.Debug("practice attempt recorded",
		slog.Bool("correct", j.IsCorrect),
		slog.Bool("degraded", j.Degraded))
	return result, nil
}

// CompleteGoal marks the day's goal of the latest plan completed.
func (s *CoachService) CompleteGoal(ctx context.Context, userID, day string) (*domain.WeeklyPlan, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(day) == "" {
		return nil, domain.ErrEmptyDayLabel
	}
	return s.plans.CompleteDay(ctx, userID, day)
}

// MarkLearned promotes an item straight to the learned level.
func (s *CoachService) MarkLearned(ctx context.Context, userID, itemID string) (*domain.ProgressRecord, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if _, err := s.backend.GetVocabularyItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	key := domain.ProgressKey{UserID: userID, VocabularyItemID: itemID}
	prev, err := s.backend.GetProgress(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	next := s.mastery.MarkLearned(prev, key, now)
	if err := s.backend.UpsertProgress(ctx, &next); err != nil {
		return &next, err
	}
	_ = s.record(ctx, events.TypeItemLearned, userID, domain.HistoryEntry{Date: now}, &next)
	logger.FromContextOrDefault(ctx, s.logger).Info("vocabulary item marked learned",
		slog.String("user_id", userID),
		slog.String("vocabulary_item_id", itemID))
	return &next, nil
}

// AdvanceWeek generates and stores the plan following the latest one,
// personalized with the user's most recent mistakes.
func (s *CoachService) AdvanceWeek(ctx context.Context, userID string) (*domain.WeeklyPlan, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	profile, err := s.backend.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotOnboarded
		}
		return nil, err
	}
	week := 1
	current, err := s.backend.LatestPlan(ctx, userID)
	switch {
	case err == nil:
		week = current.WeekNumber + 1
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	// Stale statistics are good enough for personalization.
	sess, _ := s.session(ctx, userID)
	st := sess.agg.Stats()
	p, err := s.planner.GeneratePlan(ctx, generation.PlanRequest{
		Profile:        *profile,
		RecentMistakes: st.RecentMistakes(RecentMistakeCount),
		WeekNumber:     week,
	})
	if err != nil {
		return nil, NewServiceError("advance_week", "failed to generate plan", err)
	}

	persistErr := s.backend.SavePlan(ctx, userID, p)
	if persistErr == nil {
		persistErr = s.backend.SaveVocabulary(ctx, userID, p.NewVocabulary)
	}
	if persistErr != nil {
		return p, persistErr
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("advanced to next week",
		slog.String("user_id", userID),
		slog.Int("week_number", p.WeekNumber))
	return p, nil
}

// CurrentPlan returns the user's latest plan.
func (s *CoachService) CurrentPlan(ctx context.Context, userID string) (*domain.WeeklyPlan, error) {
	return s.backend.LatestPlan(ctx, userID)
}

// Stats returns the user's session statistics, loading history on first use.
func (s *CoachService) Stats(ctx context.Context, userID string) (stats.SessionStats, error) {
	if err := requireUser(userID); err != nil {
		return stats.SessionStats{}, err
	}
	sess, err := s.session(ctx, userID)
	return sess.agg.Stats(), err
}

// Summary reports mastery across the user's vocabulary.
func (s *CoachService) Summary(ctx context.Context, userID string) (stats.ProgressSummary, error) {
	records, err := s.backend.LoadAllProgress(ctx, userID)
	if err != nil {
		return stats.ProgressSummary{}, err
	}
	vocab, err := s.backend.LoadVocabulary(ctx, userID)
	if err != nil {
		return stats.ProgressSummary{}, err
	}
	return stats.Summarize(records, len(vocab)), nil
}

// Vocabulary returns every item joined with its progress. Items never
// reviewed carry a zero record due now.
func (s *CoachService) Vocabulary(ctx context.Context, userID string) ([]domain.ProgressView, error) {
	vocab, err := s.backend.LoadVocabulary(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.backend.LoadAllProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return joinProgress(userID, vocab, records, s.now()), nil
}

// DueQueue returns the items due for review, due-soonest first. limit <= 0
// means no limit.
func (s *CoachService) DueQueue(ctx context.Context, userID string, limit int) ([]domain.ProgressView, error) {
	views, err := s.Vocabulary(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	due := views[:0]
	for _, v := range views {
		if v.IsDue(now) {
			due = append(due, v)
		}
	}
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// ImportVocabulary adds items to the user's vocabulary.
func (s *CoachService) ImportVocabulary(ctx context.Context, userID string, items []domain.VocabularyItem) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}
	return s.backend.SaveVocabulary(ctx, userID, items)
}

// Snapshot returns everything stored for the user.
func (s *CoachService) Snapshot(ctx context.Context, userID string) (*domain.Snapshot, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.backend.LoadSnapshot(ctx, userID)
}

// RestoreSnapshot replaces the user's stored state, as when a guest's local
// data is moved to an account, and recounts statistics from its history.
// Progress records in snap are re-keyed to userID.
func (s *CoachService) RestoreSnapshot(ctx context.Context, userID string, snap *domain.Snapshot) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if snap == nil {
		return domain.ErrEmptyContent
	}
	for i := range snap.Progress {
		snap.Progress[i].UserID = userID
	}
	if err := s.backend.SaveSnapshot(ctx, userID, snap); err != nil {
		return err
	}
	s.resetSession(userID, snap.History)
	return nil
}

// record publishes the outcome and returns the updated statistics. progress
// is the record that was stored, nil when nothing was.
func (s *CoachService) record(
	ctx context.Context,
	eventType, userID string,
	entry domain.HistoryEntry,
	progress *domain.ProgressRecord,
) stats.SessionStats {
	event, err := events.NewOutcomeEvent(eventType, userID, entry, progress)
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to publish outcome event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
	if sess := s.loadedSession(userID); sess != nil {
		return sess.agg.Stats()
	}
	return stats.SessionStats{}
}

// foldOutcome keeps the user's running statistics current. Users whose
// statistics were never loaded are skipped; their next load counts the
// entry from history.
func (s *CoachService) foldOutcome(_ context.Context, event *events.OutcomeEvent) error {
	if event.Type == events.TypeItemLearned {
		return nil
	}
	if sess := s.loadedSession(event.UserID); sess != nil {
		sess.agg.Append(event.Entry)
	}
	return nil
}

// session returns the user's statistics, loading history when they are
// missing or out of sync. When the load fails the session is still returned,
// empty or stale and marked unsynced, together with the load error.
func (s *CoachService) session(ctx context.Context, userID string) (*userSession, error) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	synced := ok && sess.synced
	s.mu.Unlock()
	if synced {
		return sess, nil
	}

	history, err := s.backend.LoadHistory(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[userID]; ok && cur.synced {
		return cur, nil
	}
	sess, ok = s.sessions[userID]
	if !ok {
		sess = &userSession{agg: stats.NewAggregator(nil)}
		s.sessions[userID] = sess
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to load history for statistics",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return sess, err
	}
	sess.agg.Reset(history)
	sess.synced = true
	return sess, nil
}

// loadedSession returns the user's statistics without loading history.
func (s *CoachService) loadedSession(userID string) *userSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

// markUnsynced makes the next use of the user's statistics recount them
// from history.
func (s *CoachService) markUnsynced(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.synced = false
	}
}

// dropSession forgets the user's statistics so the next use reloads them.
func (s *CoachService) dropSession(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// resetSession replaces the user's statistics with a recount of history.
func (s *CoachService) resetSession(userID string, history []domain.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = &userSession{agg: stats.NewAggregator(history), synced: true}
}

func joinProgress(
	userID string,
	vocab []domain.VocabularyItem,
	records []domain.ProgressRecord,
	now time.Time,
) []domain.ProgressView {
	byItem := make(map[string]domain.ProgressRecord, len(records))
	for _, r := range records {
		byItem[r.VocabularyItemID] = r
	}
	views := make([]domain.ProgressView, 0, len(vocab))
	for i := range vocab {
		item := vocab[i]
		rec, ok := byItem[item.ID]
		if !ok {
			rec = domain.ProgressRecord{UserID: userID, VocabularyItemID: item.ID, NextReviewDate: now}
		}
		views = append(views, domain.ProgressView{ProgressRecord: rec, Item: &item})
	}
	slices.SortStableFunc(views, func(a, b domain.ProgressView) int {
		if c := a.NextReviewDate.Compare(b.NextReviewDate); c != 0 {
			return c
		}
		return strings.Compare(a.VocabularyItemID, b.VocabularyItemID)
	})
	return views
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrEmptyUserID
	}
	return nil
}
