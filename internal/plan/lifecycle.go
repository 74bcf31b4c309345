package plan

import (
	"context"
	"log/slog"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/store"
)

// MarkGoalCompleted returns a copy of p with the goal for day completed.
// If no goal matches day, or it is already completed, p itself is returned
// and changed is false. p is never modified.
func MarkGoalCompleted(p *domain.WeeklyPlan, day string) (updated *domain.WeeklyPlan, changed bool) {
	if p == nil {
		return nil, false
	}
	for i, g := range p.DailyGoals {
		if g.Day != day {
			continue
		}
		if g.Completed {
			return p, false
		}
		c := p.Clone()
		c.DailyGoals[i].Completed = true
		return c, true
	}
	return p, false
}

// DayForScenario returns the day label of the first goal whose scenario
// title equals title.
func DayForScenario(p *domain.WeeklyPlan, title string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, g := range p.DailyGoals {
		if g.PracticeScenario.Title == title {
			return g.Day, true
		}
	}
	return "", false
}

// Lifecycle applies goal completion to the user's latest stored plan.
type Lifecycle struct {
	plans  store.PlanStore
	logger *slog.Logger
}

// NewLifecycle creates a Lifecycle. If logger is nil, slog.Default() is used.
func NewLifecycle(plans store.PlanStore, logger *slog.Logger) *Lifecycle {
	if plans == nil {
		panic("plans cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{plans: plans, logger: logger.With(slog.String("component", "plan_lifecycle"))}
}

// CompleteDay marks day completed on the latest plan and writes the plan
// back wholesale. When the write fails the updated plan is still returned
// alongside the error so callers can show it before retrying.
func (l *Lifecycle) CompleteDay(ctx context.Context, userID, day string) (*domain.WeeklyPlan, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	current, err := l.plans.LatestPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	updated, changed := MarkGoalCompleted(current, day)
	if !changed {
		log.Debug("goal completion is a no-op",
			slog.String("user_id", userID),
			slog.String("day", day))
		return updated, nil
	}
	if err := l.plans.UpdateLatestPlan(ctx, userID, updated); err != nil {
		log.Error("failed to persist completed goal",
			slog.String("user_id", userID),
			slog.String("day", day),
			slog.String("error", err.Error()))
		return updated, err
	}
	log.Info("daily goal completed",
		slog.String("user_id", userID),
		slog.String("day", day),
		slog.Int("week_number", updated.WeekNumber))
	return updated, nil
}

// CompleteScenario completes the goal whose scenario title is title.
// A title that matches no goal is a no-op.
func (l *Lifecycle) CompleteScenario(ctx context.Context, userID, title string) (*domain.WeeklyPlan, error) {
	current, err := l.plans.LatestPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	day, ok := DayForScenario(current, title)
	if !ok {
		return current, nil
	}
	return l.CompleteDay(ctx, userID, day)
}
