package localstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/domain/mastery"
	"github.com/fluentwork/coach/internal/platform/localstore"
	"github.com/fluentwork/coach/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// flakyMedium wraps a medium and fails writes or reads on demand.
type flakyMedium struct {
	localstore.Medium
	failSet bool
	failGet bool
}

func (f *flakyMedium) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errors.New("medium offline")
	}
	return f.Medium.Get(ctx, key)
}

func (f *flakyMedium) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("quota exceeded")
	}
	return f.Medium.Set(ctx, key, value)
}

func mediums(t *testing.T) map[string]localstore.Medium {
	t.Helper()
	sqlite, err := localstore.OpenSQLiteMedium(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]localstore.Medium{
		"memory": localstore.NewMemoryMedium(),
		"sqlite": sqlite,
	}
}

func record(itemID string, level int, next time.Time) *domain.ProgressRecord {
	return &domain.ProgressRecord{
		UserID:           "user-1",
		VocabularyItemID: itemID,
		MasteryLevel:     level,
		NextReviewDate:   next,
		TimesReviewed:    level,
		TimesCorrect:     level,
		Learned:          level == domain.MaxMasteryLevel,
		UpdatedAt:        baseTime,
	}
}

func TestUpsertProgressIsIdempotent(t *testing.T) {
	for name, medium := range mediums(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := localstore.New(medium, nil)

			rec := mastery.ApplyOutcome(nil, domain.ProgressKey{UserID: "user-1", VocabularyItemID: "v1"}, true, baseTime)
			require.NoError(t, s.UpsertProgress(ctx, &rec))
			once, err := s.LoadSnapshot(ctx, "user-1")
			require.NoError(t, err)

			require.NoError(t, s.UpsertProgress(ctx, &rec))
			twice, err := s.LoadSnapshot(ctx, "user-1")
			require.NoError(t, err)

			assert.Equal(t, once, twice)
			require.Len(t, twice.Progress, 1)
			assert.Equal(t, rec, twice.Progress[0])
		})
	}
}

func TestLoadAllProgressOrderedByDueDate(t *testing.T) {
	for name, medium := range mediums(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := localstore.New(medium, nil)

			require.NoError(t, s.UpsertProgress(ctx, record("v3", 3, baseTime.AddDate(0, 0, 7))))
			require.NoError(t, s.UpsertProgress(ctx, record("v1", 0, baseTime)))
			require.NoError(t, s.UpsertProgress(ctx, record("v2", 1, baseTime.AddDate(0, 0, 1))))
			require.NoError(t, s.UpsertProgress(ctx, record("v0", 1, baseTime.AddDate(0, 0, 1))))

			all, err := s.LoadAllProgress(ctx, "user-1")
			require.NoError(t, err)
			ids := make([]string, len(all))
			for i, r := range all {
				ids[i] = r.VocabularyItemID
			}
			assert.Equal(t, []string{"v1", "v0", "v2", "v3"}, ids)

			got, err := s.GetProgress(ctx, domain.ProgressKey{UserID: "user-1", VocabularyItemID: "v2"})
			require.NoError(t, err)
			assert.Equal(t, 1, got.MasteryLevel)

			_, err = s.GetProgress(ctx, domain.ProgressKey{UserID: "user-1", VocabularyItemID: "nope"})
			assert.ErrorIs(t, err, store.ErrProgressNotFound)

			other, err := s.LoadAllProgress(ctx, "user-2")
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestUpsertProgressRejectsInvalidRecord(t *testing.T) {
	t.Parallel()

	s := localstore.New(localstore.NewMemoryMedium(), nil)
	bad := record("v1", 2, baseTime)
	bad.Learned = true

	err := s.UpsertProgress(context.Background(), bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	all, err := s.LoadAllProgress(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFailedWriteLeavesPriorStateUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	medium := &flakyMedium{Medium: localstore.NewMemoryMedium()}
	s := localstore.New(medium, nil)

	prior := record("v1", 2, baseTime.AddDate(0, 0, 3))
	require.NoError(t, s.UpsertProgress(ctx, prior))

	medium.failSet = true
	next := record("v1", 3, baseTime.AddDate(0, 0, 7))
	err := s.UpsertProgress(ctx, next)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "progress", storeErr.Entity)
	assert.Equal(t, "upsert", storeErr.Operation)

	medium.failSet = false
	got, err := s.GetProgress(ctx, prior.Key())
	require.NoError(t, err)
	assert.Equal(t, *prior, *got)
}

func TestReadFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	s := localstore.New(&flakyMedium{Medium: localstore.NewMemoryMedium(), failGet: true}, nil)
	_, err := s.LoadAllProgress(context.Background(), "user-1")
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
}

func TestCorruptSnapshotIsUnavailable(t *testing.T) {
	t.Parallel()

	medium := localstore.NewMemoryMedium()
	require.NoError(t, medium.Set(context.Background(), localstore.KeyPrefix+"user-1", "{not json"))
	s := localstore.New(medium, nil)

	_, err := s.LoadSnapshot(context.Background(), "user-1")
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}

func TestSnapshotRoundTripAndPlans(t *testing.T) {
	for name, medium := range mediums(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := localstore.New(medium, nil)

			_, err := s.LatestPlan(ctx, "user-1")
			assert.ErrorIs(t, err, store.ErrPlanNotFound)
			_, err = s.GetProfile(ctx, "user-1")
			assert.ErrorIs(t, err, store.ErrProfileNotFound)

			plan := &domain.WeeklyPlan{
				WeekNumber: 1,
				MainFocus:  "meetings",
				DailyGoals: []domain.DailyGoal{{Day: "Lunes", Goal: "intro"}},
				NewVocabulary: []domain.VocabularyItem{
					{ID: "v1", Word: "deadline", Translation: "fecha límite", Category: domain.CategoryProfessional},
				},
			}
			assert.ErrorIs(t, s.UpdateLatestPlan(ctx, "user-1", plan), store.ErrPlanNotFound)

			snap := &domain.Snapshot{
				Profile:    &domain.UserProfile{Level: domain.LevelBeginner, Context: "standups", Goal: "speak up"},
				Plan:       plan,
				Vocabulary: plan.NewVocabulary,
				Progress:   []domain.ProgressRecord{*record("v1", 1, baseTime.AddDate(0, 0, 1))},
				History:    []domain.HistoryEntry{{Date: baseTime, Type: domain.HistoryTypeOnboarding, Description: "joined"}},
			}
			require.NoError(t, s.SaveSnapshot(ctx, "user-1", snap))

			loaded, err := s.LoadSnapshot(ctx, "user-1")
			require.NoError(t, err)
			assert.Equal(t, snap, loaded)

			updated := plan.Clone()
			updated.DailyGoals[0].Completed = true
			require.NoError(t, s.UpdateLatestPlan(ctx, "user-1", updated))
			latest, err := s.LatestPlan(ctx, "user-1")
			require.NoError(t, err)
			assert.True(t, latest.DailyGoals[0].Completed)

			item, err := s.GetVocabularyItem(ctx, "user-1", "v1")
			require.NoError(t, err)
			assert.Equal(t, "deadline", item.Word)
			_, err = s.GetVocabularyItem(ctx, "user-1", "v9")
			assert.ErrorIs(t, err, store.ErrVocabularyNotFound)
		})
	}
}

func TestHistoryAndVocabularyAppend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := localstore.New(localstore.NewMemoryMedium(), nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendHistory(ctx, "user-1", domain.HistoryEntry{
			Date: baseTime.Add(time.Duration(i) * time.Hour), Type: domain.HistoryTypeReview,
		}))
	}
	history, err := s.LoadHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].Date.Before(history[2].Date))

	require.NoError(t, s.SaveVocabulary(ctx, "user-1", []domain.VocabularyItem{
		{ID: "b", Word: "milestone", Translation: "hito", Category: domain.CategoryProfessional},
		{ID: "a", Word: "blocker", Translation: "impedimento", Category: domain.CategoryProfessional},
	}))
	require.NoError(t, s.SaveVocabulary(ctx, "user-1", []domain.VocabularyItem{
		{ID: "a", Word: "blocker", Translation: "bloqueo", Category: domain.CategoryProfessional},
	}))
	vocab, err := s.LoadVocabulary(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, vocab, 2)
	assert.Equal(t, "a", vocab[0].ID)
	assert.Equal(t, "bloqueo", vocab[0].Translation)

	err = s.SaveVocabulary(ctx, "user-1", []domain.VocabularyItem{{ID: "c"}})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)
}
