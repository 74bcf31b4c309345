package service

import (
	"context"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/generation"
	"github.com/fluentwork/coach/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockPlanGenerator mocks generation.PlanGenerator
type MockPlanGenerator struct {
	mock.Mock
}

func (m *MockPlanGenerator) GeneratePlan(ctx context.Context, req generation.PlanRequest) (*domain.WeeklyPlan, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WeeklyPlan), args.Error(1)
}

// MockAttemptJudge mocks generation.AttemptJudge
type MockAttemptJudge struct {
	mock.Mock
}

func (m *MockAttemptJudge) JudgeAttempt(ctx context.Context, req generation.JudgeRequest) (generation.Judgement, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(generation.Judgement), args.Error(1)
}

// flakyBackend wraps a real backend and fails selected operations.
type flakyBackend struct {
	store.Backend
	upsertErr      error
	appendErr      error
	loadHistoryErr error
	updatePlanErr  error
}

func (b *flakyBackend) UpsertProgress(ctx context.Context, rec *domain.ProgressRecord) error {
	if b.upsertErr != nil {
		return b.upsertErr
	}
	return b.Backend.UpsertProgress(ctx, rec)
}

func (b *flakyBackend) AppendHistory(ctx context.Context, userID string, entry domain.HistoryEntry) error {
	if b.appendErr != nil {
		return b.appendErr
	}
	return b.Backend.AppendHistory(ctx, userID, entry)
}

func (b *flakyBackend) LoadHistory(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	if b.loadHistoryErr != nil {
		return nil, b.loadHistoryErr
	}
	return b.Backend.LoadHistory(ctx, userID)
}

func (b *flakyBackend) UpdateLatestPlan(ctx context.Context, userID string, p *domain.WeeklyPlan) error {
	if b.updatePlanErr != nil {
		return b.updatePlanErr
	}
	return b.Backend.UpdateLatestPlan(ctx, userID, p)
}
