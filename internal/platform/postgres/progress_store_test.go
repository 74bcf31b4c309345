package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0      = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	columns = []string{
		"user_id", "vocabulary_item_id", "mastery_level", "next_review_date",
		"times_reviewed", "times_correct", "learned", "updated_at",
	}
)

func sampleRecord() *domain.ProgressRecord {
	return &domain.ProgressRecord{
		UserID:           "user-1",
		VocabularyItemID: "v1",
		MasteryLevel:     3,
		NextReviewDate:   t0.AddDate(0, 0, 7),
		TimesReviewed:    5,
		TimesCorrect:     4,
		UpdatedAt:        t0,
	}
}

func TestProgressStoreUpsert(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := NewProgressStore(db, nil)
	rec := sampleRecord()

	for i := 0; i < 2; i++ {
		mock.ExpectExec(`INSERT INTO vocabulary_progress .* ON CONFLICT \(user_id, vocabulary_item_id\) DO UPDATE`).
			WithArgs("user-1", "v1", 3, rec.NextReviewDate, 5, 4, false, t0).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	require.NoError(t, s.UpsertProgress(context.Background(), rec))
	require.NoError(t, s.UpsertProgress(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressStoreUpsertRejectsInvalid(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rec := sampleRecord()
	rec.MasteryLevel = 7

	err = NewProgressStore(db, nil).UpsertProgress(context.Background(), rec)
	assert.ErrorIs(t, err, domain.ErrMasteryOutOfRange)
	assert.NoError(t, mock.ExpectationsWereMet(), "no statement may run for an invalid record")
}

func TestProgressStoreUpsertUnavailable(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`INSERT INTO vocabulary_progress`).WillReturnError(errors.New("connection refused"))

	err = NewProgressStore(db, nil).UpsertProgress(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
}

func TestProgressStoreLoadAllOrdersByDueDate(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows(columns).
		AddRow("user-1", "v2", 0, t0, 1, 0, false, t0).
		AddRow("user-1", "v1", 3, t0.AddDate(0, 0, 7), 5, 4, false, t0)
	mock.ExpectQuery(`SELECT .* FROM vocabulary_progress\s+WHERE user_id = \$1\s+ORDER BY next_review_date ASC, vocabulary_item_id ASC`).
		WithArgs("user-1").
		WillReturnRows(rows)

	got, err := NewProgressStore(db, nil).LoadAllProgress(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "v2", got[0].VocabularyItemID)
	assert.Equal(t, *sampleRecord(), got[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressStoreGetNotFound(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT .* FROM vocabulary_progress`).
		WithArgs("user-1", "v9").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err = NewProgressStore(db, nil).GetProgress(context.Background(), domain.ProgressKey{UserID: "user-1", VocabularyItemID: "v9"})
	assert.ErrorIs(t, err, store.ErrProgressNotFound)
}

func TestPlanStoreUpdateLatest(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	plan := &domain.WeeklyPlan{WeekNumber: 2, DailyGoals: []domain.DailyGoal{{Day: "Lunes", Completed: true}}}

	mock.ExpectExec(`UPDATE weekly_plans SET data = \$2, week_number = \$3\s+WHERE id = \(\s+SELECT id FROM weekly_plans WHERE user_id = \$1\s+ORDER BY created_at DESC, id DESC LIMIT 1`).
		WithArgs("user-1", sqlmock.AnyArg(), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE weekly_plans`).
		WithArgs("user-2", sqlmock.AnyArg(), 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewPlanStore(db, nil)
	assert.NoError(t, s.UpdateLatestPlan(context.Background(), "user-1", plan))
	assert.ErrorIs(t, s.UpdateLatestPlan(context.Background(), "user-2", plan), store.ErrPlanNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanStoreLatest(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT data FROM weekly_plans`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).
			AddRow([]byte(`{"weekNumber":3,"mainFocus":"email","dailyGoals":[{"day":"Lunes","completed":true}]}`)))
	mock.ExpectQuery(`SELECT data FROM weekly_plans`).
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	s := NewPlanStore(db, nil)
	plan, err := s.LatestPlan(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, plan.WeekNumber)
	assert.True(t, plan.DailyGoals[0].Completed)

	_, err = s.LatestPlan(context.Background(), "user-2")
	assert.ErrorIs(t, err, store.ErrPlanNotFound)
}

func TestHistoryStoreLoadKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT entry_date, type, description, details FROM progress_history\s+WHERE user_id = \$1 ORDER BY id ASC`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"entry_date", "type", "description", "details"}).
			AddRow(t0, "review", "deadline", nil).
			AddRow(t0.Add(time.Hour), "practice", "standup", []byte(`{"userInput":"I go to meeting yesterday","isCorrect":false}`)))

	entries, err := NewHistoryStore(db, nil).LoadHistory(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].Details)
	require.NotNil(t, entries[1].Details)
	assert.Equal(t, "I go to meeting yesterday", entries[1].Details.UserInput)
	assert.True(t, entries[1].IsMistake())
}

func TestBackendSaveVocabularyIsAtomic(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	items := []domain.VocabularyItem{
		{ID: "v1", Word: "deadline", Translation: "fecha límite", Category: domain.CategoryProfessional},
		{ID: "v2", Word: "feedback", Translation: "retroalimentación", Category: domain.CategoryProfessional},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO vocabulary`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO vocabulary`).WillReturnError(errors.New("server closed the connection"))
	mock.ExpectRollback()

	err = NewBackend(db, nil).SaveVocabulary(context.Background(), "user-1", items)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
