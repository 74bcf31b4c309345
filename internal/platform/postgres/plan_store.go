package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/store"
)

// PlanStore implements store.PlanStore on the weekly_plans table. Every
// generated week is a new row; only the newest row is read or updated.
type PlanStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.PlanStore = (*PlanStore)(nil)

// NewPlanStore creates a plan store. If logger is nil, slog.Default() is used.
func NewPlanStore(db store.DBTX, logger *slog.Logger) *PlanStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanStore{db: db, logger: logger.With(slog.String("component", "plan_store"))}
}

// WithTx returns a store that runs its queries inside tx.
func (s *PlanStore) WithTx(tx *sql.Tx) *PlanStore {
	return &PlanStore{db: tx, logger: s.logger}
}

// SavePlan implements store.PlanStore.
func (s *PlanStore) SavePlan(ctx context.Context, userID string, plan *domain.WeeklyPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return store.NewStoreError("plan", "save", "encode plan", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO weekly_plans (user_id, week_number, data) VALUES ($1, $2, $3)`,
		userID, plan.WeekNumber, data)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save plan",
			slog.String("user_id", userID),
			slog.Int("week_number", plan.WeekNumber),
			slog.String("error", err.Error()))
		return wrapError("plan", "save", err)
	}
	return nil
}

// UpdateLatestPlan implements store.PlanStore.
func (s *PlanStore) UpdateLatestPlan(ctx context.Context, userID string, plan *domain.WeeklyPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return store.NewStoreError("plan", "update", "encode plan", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE weekly_plans SET data = $2, week_number = $3
		WHERE id = (
			SELECT id FROM weekly_plans WHERE user_id = $1
			ORDER BY created_at DESC, id DESC LIMIT 1
		)`,
		userID, data, plan.WeekNumber)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update plan",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return wrapError("plan", "update", err)
	}
	return CheckRowsAffected(result, store.ErrPlanNotFound)
}

// LatestPlan implements store.PlanStore.
func (s *PlanStore) LatestPlan(ctx context.Context, userID string) (*domain.WeeklyPlan, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM weekly_plans WHERE user_id = $1
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrPlanNotFound
	}
	if err != nil {
		return nil, wrapError("plan", "get", err)
	}
	var plan domain.WeeklyPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, store.NewStoreError("plan", "get", "decode plan", errors.Join(domain.ErrInvalidFormat, err))
	}
	return &plan, nil
}
