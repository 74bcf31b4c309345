package generation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/plan"
	"github.com/fluentwork/coach/internal/platform/logger"
)

// DegradedFeedback is shown when an attempt could not be judged.
const DegradedFeedback = "No se pudo obtener la corrección. Intenta de nuevo."

// DegradedJudgement echoes input back as an incorrect, unjudged attempt.
func DegradedJudgement(input string) Judgement {
	return Judgement{
		CorrectedText: input,
		Feedback:      DegradedFeedback,
		IsCorrect:     false,
		Alternative:   input,
		Degraded:      true,
	}
}

type planFallback struct {
	next   PlanGenerator
	logger *slog.Logger
}

// WithPlanFallback returns a PlanGenerator that never fails. Any error, an
// invalid plan and a nil next all yield the built-in plan for the requested
// week.
func WithPlanFallback(next PlanGenerator, log *slog.Logger) PlanGenerator {
	if log == nil {
		log = slog.Default()
	}
	return &planFallback{next: next, logger: log.With(slog.String("component", "plan_fallback"))}
}

func (f *planFallback) GeneratePlan(ctx context.Context, req PlanRequest) (*domain.WeeklyPlan, error) {
	if f.next == nil {
		return plan.DefaultPlan(req.WeekNumber), nil
	}
	p, err := f.next.GeneratePlan(ctx, req)
	if err == nil {
		if p == nil {
			err = ErrInvalidResponse
		} else if verr := p.Validate(); verr != nil {
			err = errors.Join(ErrInvalidResponse, verr)
		} else {
			return p, nil
		}
	}
	logger.FromContextOrDefault(ctx, f.logger).Warn("plan generation failed, using built-in plan",
		slog.Int("week_number", req.WeekNumber),
		slog.String("error", err.Error()))
	return plan.DefaultPlan(req.WeekNumber), nil
}

type judgeFallback struct {
	next   AttemptJudge
	logger *slog.Logger
}

// WithJudgeFallback returns an AttemptJudge that never fails: any error,
// and a nil next, yields DegradedJudgement(req.Input).
func WithJudgeFallback(next AttemptJudge, log *slog.Logger) AttemptJudge {
	if log == nil {
		log = slog.Default()
	}
	return &judgeFallback{next: next, logger: log.With(slog.String("component", "judge_fallback"))}
}

func (f *judgeFallback) JudgeAttempt(ctx context.Context, req JudgeRequest) (Judgement, error) {
	if f.next == nil {
		return DegradedJudgement(req.Input), nil
	}
	j, err := f.next.JudgeAttempt(ctx, req)
	if err != nil {
		logger.FromContextOrDefault(ctx, f.logger).Warn("attempt judgement failed, returning degraded result",
			slog.String("error", err.Error()))
		return DegradedJudgement(req.Input), nil
	}
	return j, nil
}
