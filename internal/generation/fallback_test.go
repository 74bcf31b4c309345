package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planFunc func(context.Context, PlanRequest) (*domain.WeeklyPlan, error)

func (f planFunc) GeneratePlan(ctx context.Context, req PlanRequest) (*domain.WeeklyPlan, error) {
	return f(ctx, req)
}

type judgeFunc func(context.Context, JudgeRequest) (Judgement, error)

func (f judgeFunc) JudgeAttempt(ctx context.Context, req JudgeRequest) (Judgement, error) {
	return f(ctx, req)
}

func TestErrorsWrapOracleUnavailable(t *testing.T) {
	t.Parallel()

	for _, err := range []error{ErrInvalidResponse, ErrContentBlocked, ErrTransientFailure, ErrInvalidConfig} {
		assert.ErrorIs(t, err, ErrOracleUnavailable)
	}
}

func TestWithPlanFallback(t *testing.T) {
	t.Parallel()

	generated := plan.DefaultPlan(4)
	generated.MainFocus = "Negotiation"

	tests := []struct {
		name      string
		next      PlanGenerator
		wantFocus string
	}{
		{
			name:      "nil backend",
			next:      nil,
			wantFocus: plan.DefaultPlan(1).MainFocus,
		},
		{
			name: "backend succeeds",
			next: planFunc(func(context.Context, PlanRequest) (*domain.WeeklyPlan, error) {
				return generated, nil
			}),
			wantFocus: "Negotiation",
		},
		{
			name: "backend fails",
			next: planFunc(func(context.Context, PlanRequest) (*domain.WeeklyPlan, error) {
				return nil, ErrTransientFailure
			}),
			wantFocus: plan.DefaultPlan(1).MainFocus,
		},
		{
			name: "backend returns invalid plan",
			next: planFunc(func(context.Context, PlanRequest) (*domain.WeeklyPlan, error) {
				return &domain.WeeklyPlan{WeekNumber: 0}, nil
			}),
			wantFocus: plan.DefaultPlan(1).MainFocus,
		},
		{
			name: "backend returns nil plan",
			next: planFunc(func(context.Context, PlanRequest) (*domain.WeeklyPlan, error) {
				return nil, nil
			}),
			wantFocus: plan.DefaultPlan(1).MainFocus,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g := WithPlanFallback(tc.next, nil)
			p, err := g.GeneratePlan(context.Background(), PlanRequest{WeekNumber: 4})
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, tc.wantFocus, p.MainFocus)
			assert.Equal(t, 4, p.WeekNumber)
		})
	}
}

func TestWithJudgeFallback(t *testing.T) {
	t.Parallel()

	t.Run("backend verdict passes through", func(t *testing.T) {
		t.Parallel()

		want := Judgement{CorrectedText: "I went to the meeting yesterday.", IsCorrect: false, Feedback: "Usa el pasado."}
		j := WithJudgeFallback(judgeFunc(func(context.Context, JudgeRequest) (Judgement, error) {
			return want, nil
		}), nil)

		got, err := j.JudgeAttempt(context.Background(), JudgeRequest{Input: "I go to meeting yesterday"})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("failure degrades", func(t *testing.T) {
		t.Parallel()

		j := WithJudgeFallback(judgeFunc(func(context.Context, JudgeRequest) (Judgement, error) {
			return Judgement{}, errors.Join(ErrInvalidResponse, errors.New("bad json"))
		}), nil)

		got, err := j.JudgeAttempt(context.Background(), JudgeRequest{Input: "hello team"})
		require.NoError(t, err)
		assert.Equal(t, DegradedJudgement("hello team"), got)
		assert.False(t, got.IsCorrect)
		assert.True(t, got.Degraded)
		assert.Equal(t, DegradedFeedback, got.Feedback)
	})

	t.Run("nil backend degrades", func(t *testing.T) {
		t.Parallel()

		got, err := WithJudgeFallback(nil, nil).JudgeAttempt(context.Background(), JudgeRequest{Input: "x"})
		require.NoError(t, err)
		assert.Equal(t, "x", got.CorrectedText)
		assert.Equal(t, "x", got.Alternative)
	})
}
