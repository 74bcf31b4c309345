package store

import (
	"context"

	"github.com/fluentwork/coach/internal/domain"
)

// ProgressStore persists per-item progress records keyed by
// (user, vocabulary item).
type ProgressStore interface {
	// UpsertProgress inserts the record or replaces the stored one with the
	// same key. Writing the same value twice leaves the same stored state.
	// Invalid records are rejected with domain.ErrValidation before any write.
	UpsertProgress(ctx context.Context, rec *domain.ProgressRecord) error

	// GetProgress returns the record for key or ErrProgressNotFound.
	GetProgress(ctx context.Context, key domain.ProgressKey) (*domain.ProgressRecord, error)

	// LoadAllProgress returns every record for the user ordered by
	// NextReviewDate ascending, ties broken by vocabulary item id.
	LoadAllProgress(ctx context.Context, userID string) ([]domain.ProgressRecord, error)
}

// PlanStore persists weekly plans. Only the latest plan is ever read.
type PlanStore interface {
	// SavePlan stores plan as the user's new latest plan.
	SavePlan(ctx context.Context, userID string, plan *domain.WeeklyPlan) error

	// UpdateLatestPlan overwrites the latest plan wholesale.
	// Returns ErrPlanNotFound if the user has no plan.
	UpdateLatestPlan(ctx context.Context, userID string, plan *domain.WeeklyPlan) error

	// LatestPlan returns the most recently saved plan or ErrPlanNotFound.
	LatestPlan(ctx context.Context, userID string) (*domain.WeeklyPlan, error)
}

// HistoryStore persists the append-only activity log.
type HistoryStore interface {
	// AppendHistory adds entry after all existing entries.
	AppendHistory(ctx context.Context, userID string, entry domain.HistoryEntry) error

	// LoadHistory returns entries in insertion order.
	LoadHistory(ctx context.Context, userID string) ([]domain.HistoryEntry, error)
}

// ProfileStore persists onboarding answers.
type ProfileStore interface {
	SaveProfile(ctx context.Context, userID string, profile *domain.UserProfile) error
	// GetProfile returns ErrProfileNotFound for users who never onboarded.
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// VocabularyLookup resolves a vocabulary item id to the item.
type VocabularyLookup interface {
	// GetVocabularyItem returns ErrVocabularyNotFound for unknown ids.
	GetVocabularyItem(ctx context.Context, userID, itemID string) (*domain.VocabularyItem, error)
}

// VocabularyStore persists the user's vocabulary catalog.
type VocabularyStore interface {
	VocabularyLookup

	// SaveVocabulary adds items, replacing any with the same id.
	SaveVocabulary(ctx context.Context, userID string, items []domain.VocabularyItem) error

	// LoadVocabulary returns the catalog ordered by id.
	LoadVocabulary(ctx context.Context, userID string) ([]domain.VocabularyItem, error)
}

// Backend bundles every capability a session needs. Both the local and
// the remote implementation satisfy it.
type Backend interface {
	ProgressStore
	PlanStore
	HistoryStore
	ProfileStore
	VocabularyStore

	// LoadSnapshot returns everything stored for the user. Missing parts are
	// left empty rather than reported as errors.
	LoadSnapshot(ctx context.Context, userID string) (*domain.Snapshot, error)

	// SaveSnapshot replaces everything stored for the user.
	SaveSnapshot(ctx context.Context, userID string, snap *domain.Snapshot) error
}
