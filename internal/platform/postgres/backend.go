package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/store"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a database/sql pool on the pgx driver and verifies it.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, store.Unavailable("database", "open", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, store.Unavailable("database", "ping", err)
	}
	return db, nil
}

// Backend implements store.Backend on PostgreSQL.
type Backend struct {
	db         *sql.DB
	logger     *slog.Logger
	progress   *ProgressStore
	plans      *PlanStore
	history    *HistoryStore
	profiles   *ProfileStore
	vocabulary *VocabularyStore
}

var _ store.Backend = (*Backend)(nil)

// NewBackend wires the table stores over db. If logger is nil, slog.Default() is used.
func NewBackend(db *sql.DB, logger *slog.Logger) *Backend {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		db:         db,
		logger:     logger.With(slog.String("component", "remote_backend")),
		progress:   NewProgressStore(db, logger),
		plans:      NewPlanStore(db, logger),
		history:    NewHistoryStore(db, logger),
		profiles:   NewProfileStore(db, logger),
		vocabulary: NewVocabularyStore(db, logger),
	}
}

// UpsertProgress implements store.ProgressStore.
func (b *Backend) UpsertProgress(ctx context.Context, rec *domain.ProgressRecord) error {
	return b.progress.UpsertProgress(ctx, rec)
}

// GetProgress implements store.ProgressStore.
func (b *Backend) GetProgress(ctx context.Context, key domain.ProgressKey) (*domain.ProgressRecord, error) {
	return b.progress.GetProgress(ctx, key)
}

// LoadAllProgress implements store.ProgressStore.
func (b *Backend) LoadAllProgress(ctx context.Context, userID string) ([]domain.ProgressRecord, error) {
	return b.progress.LoadAllProgress(ctx, userID)
}

// SavePlan implements store.PlanStore.
func (b *Backend) SavePlan(ctx context.Context, userID string, plan *domain.WeeklyPlan) error {
	return b.plans.SavePlan(ctx, userID, plan)
}

// UpdateLatestPlan implements store.PlanStore.
func (b *Backend) UpdateLatestPlan(ctx context.Context, userID string, plan *domain.WeeklyPlan) error {
	return b.plans.UpdateLatestPlan(ctx, userID, plan)
}

// LatestPlan implements store.PlanStore.
func (b *Backend) LatestPlan(ctx context.Context, userID string) (*domain.WeeklyPlan, error) {
	return b.plans.LatestPlan(ctx, userID)
}

// AppendHistory implements store.HistoryStore.
func (b *Backend) AppendHistory(ctx context.Context, userID string, entry domain.HistoryEntry) error {
	return b.history.AppendHistory(ctx, userID, entry)
}

// LoadHistory implements store.HistoryStore.
func (b *Backend) LoadHistory(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	return b.history.LoadHistory(ctx, userID)
}

// SaveProfile implements store.ProfileStore.
func (b *Backend) SaveProfile(ctx context.Context, userID string, profile *domain.UserProfile) error {
	return b.profiles.SaveProfile(ctx, userID, profile)
}

// GetProfile implements store.ProfileStore.
func (b *Backend) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return b.profiles.GetProfile(ctx, userID)
}

// GetVocabularyItem implements store.VocabularyLookup.
func (b *Backend) GetVocabularyItem(ctx context.Context, userID, itemID string) (*domain.VocabularyItem, error) {
	return b.vocabulary.GetVocabularyItem(ctx, userID, itemID)
}

// LoadVocabulary implements store.VocabularyStore.
func (b *Backend) LoadVocabulary(ctx context.Context, userID string) ([]domain.VocabularyItem, error) {
	return b.vocabulary.LoadVocabulary(ctx, userID)
}

// SaveVocabulary implements store.VocabularyStore. All items are written or none.
func (b *Backend) SaveVocabulary(ctx context.Context, userID string, items []domain.VocabularyItem) error {
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return err
		}
	}
	return store.RunInTransaction(ctx, b.db, "vocabulary", func(ctx context.Context, tx *sql.Tx) error {
		vs := b.vocabulary.WithTx(tx)
		for i := range items {
			if err := vs.upsertItem(ctx, userID, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadSnapshot implements store.Backend.
func (b *Backend) LoadSnapshot(ctx context.Context, userID string) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{}

	profile, err := b.profiles.GetProfile(ctx, userID)
	switch {
	case err == nil:
		snap.Profile = profile
	case !store.IsNotFoundError(err):
		return nil, err
	}

	plan, err := b.plans.LatestPlan(ctx, userID)
	switch {
	case err == nil:
		snap.Plan = plan
	case !store.IsNotFoundError(err):
		return nil, err
	}

	if snap.Vocabulary, err = b.vocabulary.LoadVocabulary(ctx, userID); err != nil {
		return nil, err
	}
	if snap.Progress, err = b.progress.LoadAllProgress(ctx, userID); err != nil {
		return nil, err
	}
	if snap.History, err = b.history.LoadHistory(ctx, userID); err != nil {
		return nil, err
	}
	return snap, nil
}

// SaveSnapshot implements store.Backend in one transaction. The plan is
// stored as a new latest plan, history is replaced, and every other part is
// upserted. Progress rows absent from snap are left in place.
func (b *Backend) SaveSnapshot(ctx context.Context, userID string, snap *domain.Snapshot) error {
	if snap == nil {
		return store.NewStoreError("snapshot", "save", "snapshot is nil", store.ErrInvalidEntity)
	}
	for i := range snap.Progress {
		if err := snap.Progress[i].Validate(); err != nil {
			return err
		}
	}

	err := store.RunInTransaction(ctx, b.db, "snapshot", func(ctx context.Context, tx *sql.Tx) error {
		if snap.Profile != nil {
			if err := b.profiles.WithTx(tx).SaveProfile(ctx, userID, snap.Profile); err != nil {
				return err
			}
		}
		if snap.Plan != nil {
			if err := b.plans.WithTx(tx).SavePlan(ctx, userID, snap.Plan); err != nil {
				return err
			}
		}
		vs := b.vocabulary.WithTx(tx)
		for i := range snap.Vocabulary {
			if err := vs.upsertItem(ctx, userID, &snap.Vocabulary[i]); err != nil {
				return err
			}
		}
		ps := b.progress.WithTx(tx)
		for i := range snap.Progress {
			if err := ps.UpsertProgress(ctx, &snap.Progress[i]); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM progress_history WHERE user_id = $1`, userID); err != nil {
			return wrapError("history", "replace", err)
		}
		hs := b.history.WithTx(tx)
		for _, entry := range snap.History {
			if err := hs.AppendHistory(ctx, userID, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.logger.Error("failed to save snapshot", slog.String("user_id", userID), slog.String("error", err.Error()))
		if store.IsUnavailableError(err) || store.IsNotFoundError(err) ||
			errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrEmptyContent) {
			return err
		}
		return store.Unavailable("snapshot", "save", err)
	}
	return nil
}
