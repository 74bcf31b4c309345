package mocks

import (
	"context"
	"sync"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/generation"
)

// MockPlanGenerator implements generation.PlanGenerator for testing
type MockPlanGenerator struct {
	// GeneratePlanFn allows test cases to mock the GeneratePlan behavior
	GeneratePlanFn func(ctx context.Context, req generation.PlanRequest) (*domain.WeeklyPlan, error)

	// Default response values
	Plan *domain.WeeklyPlan
	Err  error

	// Call tracking for verification
	GeneratePlanCalls struct {
		// mu protects the call tracking state for concurrent test cases
		mu sync.Mutex

		// Count tracks how many times GeneratePlan was called
		Count int

		// Requests contains all requests passed to GeneratePlan calls
		Requests []generation.PlanRequest
	}
}

var _ generation.PlanGenerator = (*MockPlanGenerator)(nil)

// GeneratePlan implements the generation.PlanGenerator interface
func (m *MockPlanGenerator) GeneratePlan(ctx context.Context, req generation.PlanRequest) (*domain.WeeklyPlan, error) {
	m.GeneratePlanCalls.mu.Lock()
	m.GeneratePlanCalls.Count++
	m.GeneratePlanCalls.Requests = append(m.GeneratePlanCalls.Requests, req)
	m.GeneratePlanCalls.mu.Unlock()

	if m.GeneratePlanFn != nil {
		return m.GeneratePlanFn(ctx, req)
	}
	return m.Plan, m.Err
}

// Calls returns a copy of the recorded requests.
func (m *MockPlanGenerator) Calls() []generation.PlanRequest {
	m.GeneratePlanCalls.mu.Lock()
	defer m.GeneratePlanCalls.mu.Unlock()
	return append([]generation.PlanRequest(nil), m.GeneratePlanCalls.Requests...)
}

// NewMockPlanGeneratorWithPlan creates a MockPlanGenerator that returns plan
func NewMockPlanGeneratorWithPlan(plan *domain.WeeklyPlan) *MockPlanGenerator {
	return &MockPlanGenerator{Plan: plan}
}

// MockPlanGeneratorThatFails creates a MockPlanGenerator that simulates an unreachable oracle
func MockPlanGeneratorThatFails() *MockPlanGenerator {
	return &MockPlanGenerator{Err: generation.ErrTransientFailure}
}

// MockAttemptJudge implements generation.AttemptJudge for testing
type MockAttemptJudge struct {
	// JudgeAttemptFn allows test cases to mock the JudgeAttempt behavior
	JudgeAttemptFn func(ctx context.Context, req generation.JudgeRequest) (generation.Judgement, error)

	// Default response values
	Judgement generation.Judgement
	Err       error

	// Call tracking for verification
	JudgeAttemptCalls struct {
		mu       sync.Mutex
		Count    int
		Requests []generation.JudgeRequest
	}
}

var _ generation.AttemptJudge = (*MockAttemptJudge)(nil)

// JudgeAttempt implements the generation.AttemptJudge interface
func (m *MockAttemptJudge) JudgeAttempt(ctx context.Context, req generation.JudgeRequest) (generation.Judgement, error) {
	m.JudgeAttemptCalls.mu.Lock()
	m.JudgeAttemptCalls.Count++
	m.JudgeAttemptCalls.Requests = append(m.JudgeAttemptCalls.Requests, req)
	m.JudgeAttemptCalls.mu.Unlock()

	if m.JudgeAttemptFn != nil {
		return m.JudgeAttemptFn(ctx, req)
	}
	return m.Judgement, m.Err
}

// Calls returns a copy of the recorded requests.
func (m *MockAttemptJudge) Calls() []generation.JudgeRequest {
	m.JudgeAttemptCalls.mu.Lock()
	defer m.JudgeAttemptCalls.mu.Unlock()
	return append([]generation.JudgeRequest(nil), m.JudgeAttemptCalls.Requests...)
}

// NewMockJudgeAccepting creates a MockAttemptJudge that accepts every attempt as written.
func NewMockJudgeAccepting() *MockAttemptJudge {
	return &MockAttemptJudge{
		JudgeAttemptFn: func(_ context.Context, req generation.JudgeRequest) (generation.Judgement, error) {
			return generation.Judgement{
				CorrectedText: req.Input,
				Feedback:      "¡Muy bien!",
				IsCorrect:     true,
			}, nil
		},
	}
}

// MockJudgeWithContentBlocked creates a MockAttemptJudge that simulates a blocked response
func MockJudgeWithContentBlocked() *MockAttemptJudge {
	return &MockAttemptJudge{Err: generation.ErrContentBlocked}
}
