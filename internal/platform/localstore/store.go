package localstore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/fluentwork/coach/internal/store"
)

// KeyPrefix namespaces every key written to the medium.
const KeyPrefix = "fluentwork:"

// Store implements store.Backend over a Medium.
type Store struct {
	medium Medium
	logger *slog.Logger
	// mu serializes read-modify-write cycles on the medium.
	mu sync.Mutex
}

var _ store.Backend = (*Store)(nil)

// New creates a local store. A nil logger means slog.Default().
func New(medium Medium, log *slog.Logger) *Store {
	if medium == nil {
		panic("medium cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		medium: medium,
		logger: log.With(slog.String("component", "local_store")),
	}
}

func userKey(userID string) string {
	return KeyPrefix + userID
}

// read loads the user's snapshot. An absent key yields an empty snapshot.
func (s *Store) read(ctx context.Context, userID, entity, op string) (*domain.Snapshot, error) {
	raw, ok, err := s.medium.Get(ctx, userKey(userID))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to read snapshot",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil, store.Unavailable(entity, op, err)
	}
	snap := &domain.Snapshot{}
	if !ok {
		return snap, nil
	}
	if err := json.Unmarshal([]byte(raw), snap); err != nil {
		return nil, store.Unavailable(entity, op, fmt.Errorf("%w: %w", domain.ErrInvalidFormat, err))
	}
	return snap, nil
}

func (s *Store) write(ctx context.Context, userID string, snap *domain.Snapshot, entity, op string) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return store.NewStoreError(entity, op, "encode snapshot", err)
	}
	if err := s.medium.Set(ctx, userKey(userID), string(raw)); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to write snapshot",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return store.Unavailable(entity, op, err)
	}
	return nil
}

// mutate runs fn on the current snapshot and writes the result wholesale.
func (s *Store) mutate(
	ctx context.Context,
	userID, entity, op string,
	fn func(snap *domain.Snapshot) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.read(ctx, userID, entity, op)
	if err != nil {
		return err
	}
	if err := fn(snap); err != nil {
		return err
	}
	return s.write(ctx, userID, snap, entity, op)
}

// LoadSnapshot implements store.Backend.
func (s *Store) LoadSnapshot(ctx context.Context, userID string) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read(ctx, userID, "snapshot", "load")
	if err != nil {
		return nil, err
	}
	sortProgress(snap.Progress)
	return snap, nil
}

// SaveSnapshot implements store.Backend. It overwrites everything stored for the user.
func (s *Store) SaveSnapshot(ctx context.Context, userID string, snap *domain.Snapshot) error {
	if snap == nil {
		return store.NewStoreError("snapshot", "save", "snapshot is nil", store.ErrInvalidEntity)
	}
	for i := range snap.Progress {
		if err := snap.Progress[i].Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, userID, snap, "snapshot", "save")
}

// UpsertProgress implements store.ProgressStore.
func (s *Store) UpsertProgress(ctx context.Context, rec *domain.ProgressRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, rec.UserID, "progress", "upsert", func(snap *domain.Snapshot) error {
		for i := range snap.Progress {
			if snap.Progress[i].VocabularyItemID == rec.VocabularyItemID {
				snap.Progress[i] = *rec
				return nil
			}
		}
		snap.Progress = append(snap.Progress, *rec)
		return nil
	})
}

// GetProgress implements store.ProgressStore.
func (s *Store) GetProgress(ctx context.Context, key domain.ProgressKey) (*domain.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read(ctx, key.UserID, "progress", "get")
	if err != nil {
		return nil, err
	}
	for i := range snap.Progress {
		if snap.Progress[i].VocabularyItemID == key.VocabularyItemID {
			rec := snap.Progress[i]
			return &rec, nil
		}
	}
	return nil, store.ErrProgressNotFound
}

// LoadAllProgress implements store.ProgressStore.
func (s *Store) LoadAllProgress(ctx context.Context, userID string) ([]domain.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read(ctx, userID, "progress", "load")
	if err != nil {
		return nil, err
	}
	sortProgress(snap.Progress)
	return snap.Progress, nil
}

// SavePlan implements store.PlanStore. Local mode keeps only the latest plan.
func (s *Store) SavePlan(ctx context.Context, userID string, plan *domain.WeeklyPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, userID, "plan", "save", func(snap *domain.Snapshot) error {
		snap.Plan = plan.Clone()
		return nil
	})
}

// UpdateLatestPlan implements store.PlanStore.
func (s *Store) UpdateLatestPlan(ctx context.Context, userID string, plan *domain.WeeklyPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, userID, "plan", "update", func(snap *domain.Snapshot) error {
		if snap.Plan == nil {
			return store.ErrPlanNotFound
		}
		snap.Plan = plan.Clone()
		return nil
	})
}

// LatestPlan implements store.PlanStore.
func (s *Store) LatestPlan(ctx context.Context, userID string) (*domain.WeeklyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read(ctx, userID, "plan", "get")
	if err != nil {
		return nil, err
	}
	if snap.Plan == nil {
		return nil, store.ErrPlanNotFound
	}
	return snap.Plan, nil
}

// AppendHistory implements store.HistoryStore.
func (s *Store) AppendHistory(ctx context.Context, userID string, entry domain.HistoryEntry) error {
	return s.mutate(ctx, userID, "history", "append", func(snap *domain.Snapshot) error {
		snap.History = append(snap.History, entry)
		return nil
	})
}

// LoadHistory implements store.HistoryStore.
func (s *Store) LoadHistory(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read(ctx, userID, "history", "load")
	if err != nil {
		return nil, err
	}
	return snap.History, nil
}

// SaveProfile implements store.ProfileStore.
func (s *Store) SaveProfile(ctx context.Context, userID string, profile *domain.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, userID, "profile", "save", func(snap *domain.Snapshot) error {
		p := *profile
		snap.Profile = &p
		return nil
	})
}

// GetProfile implements store.ProfileStore.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read(ctx, userID, "profile", "get")
	if err != nil {
		return nil, err
	}
	if snap.Profile == nil {
		return nil, store.ErrProfileNotFound
	}
	return snap.Profile, nil
}

// SaveVocabulary implements store.VocabularyStore.
func (s *Store) SaveVocabulary(ctx context.Context, userID string, items []domain.VocabularyItem) error {
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return err
		}
	}
	return s.mutate(ctx, userID, "vocabulary", "save", func(snap *domain.Snapshot) error {
		snap.Vocabulary = mergeVocabulary(snap.Vocabulary, items)
		return nil
	})
}

// LoadVocabulary implements store.VocabularyStore.
func (s *Store) LoadVocabulary(ctx context.Context, userID string) ([]domain.VocabularyItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read(ctx, userID, "vocabulary", "load")
	if err != nil {
		return nil, err
	}
	return snap.Vocabulary, nil
}

// GetVocabularyItem implements store.VocabularyLookup.
func (s *Store) GetVocabularyItem(ctx context.Context, userID, itemID string) (*domain.VocabularyItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.read(ctx, userID, "vocabulary", "get")
	if err != nil {
		return nil, err
	}
	for i := range snap.Vocabulary {
		if snap.Vocabulary[i].ID == itemID {
			item := snap.Vocabulary[i]
			return &item, nil
		}
	}
	return nil, store.ErrVocabularyNotFound
}

// mergeVocabulary replaces items with matching ids and appends the rest,
// returning the catalog ordered by id.
func mergeVocabulary(existing, incoming []domain.VocabularyItem) []domain.VocabularyItem {
	byID := make(map[string]domain.VocabularyItem, len(existing)+len(incoming))
	for _, v := range existing {
		byID[v.ID] = v
	}
	for _, v := range incoming {
		byID[v.ID] = v
	}
	out := make([]domain.VocabularyItem, 0, len(byID))
	for _, v := range byID {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b domain.VocabularyItem) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func sortProgress(records []domain.ProgressRecord) {
	slices.SortStableFunc(records, func(a, b domain.ProgressRecord) int {
		if c := a.NextReviewDate.Compare(b.NextReviewDate); c != 0 {
			return c
		}
		return cmp.Compare(a.VocabularyItemID, b.VocabularyItemID)
	})
}
