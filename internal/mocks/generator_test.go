package mocks_test

import (
	"context"
	"testing"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/generation"
	"github.com/fluentwork/coach/internal/mocks"
	"github.com/fluentwork/coach/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockPlanGenerator(t *testing.T) {
	t.Parallel()

	t.Run("returns configured plan", func(t *testing.T) {
		t.Parallel()

		mockGen := mocks.NewMockPlanGeneratorWithPlan(plan.DefaultPlan(3))
		got, err := mockGen.GeneratePlan(context.Background(), generation.PlanRequest{WeekNumber: 3})

		require.NoError(t, err)
		assert.Equal(t, 3, got.WeekNumber)
		assert.Equal(t, 1, mockGen.GeneratePlanCalls.Count)
		assert.Equal(t, []generation.PlanRequest{{WeekNumber: 3}}, mockGen.Calls())
	})

	t.Run("error case", func(t *testing.T) {
		t.Parallel()

		mockGen := mocks.MockPlanGeneratorThatFails()
		got, err := mockGen.GeneratePlan(context.Background(), generation.PlanRequest{WeekNumber: 1})

		assert.ErrorIs(t, err, generation.ErrOracleUnavailable)
		assert.Nil(t, got)
	})

	t.Run("custom function", func(t *testing.T) {
		t.Parallel()

		mockGen := &mocks.MockPlanGenerator{
			GeneratePlanFn: func(_ context.Context, req generation.PlanRequest) (*domain.WeeklyPlan, error) {
				return plan.DefaultPlan(req.WeekNumber + 1), nil
			},
		}
		got, err := mockGen.GeneratePlan(context.Background(), generation.PlanRequest{WeekNumber: 1})

		require.NoError(t, err)
		assert.Equal(t, 2, got.WeekNumber)
	})
}

func TestMockAttemptJudge(t *testing.T) {
	t.Parallel()

	t.Run("accepting judge echoes input", func(t *testing.T) {
		t.Parallel()

		judge := mocks.NewMockJudgeAccepting()
		got, err := judge.JudgeAttempt(context.Background(), generation.JudgeRequest{Input: "Hello team"})

		require.NoError(t, err)
		assert.True(t, got.IsCorrect)
		assert.Equal(t, "Hello team", got.CorrectedText)
		assert.Len(t, judge.Calls(), 1)
	})

	t.Run("blocked content", func(t *testing.T) {
		t.Parallel()

		judge := mocks.MockJudgeWithContentBlocked()
		_, err := judge.JudgeAttempt(context.Background(), generation.JudgeRequest{Input: "x"})

		assert.ErrorIs(t, err, generation.ErrContentBlocked)
		assert.ErrorIs(t, err, generation.ErrOracleUnavailable)
	})
}
