package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/fluentwork/coach/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "vocabulary_progress",
		ColumnName:     "mastery_level",
		ConstraintName: "vocabulary_progress_mastery_level_check",
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, MapError(nil))
	assert.ErrorIs(t, MapError(sql.ErrNoRows), store.ErrNotFound)

	for _, code := range []string{"23514", "23505", "23503", "23502"} {
		err := MapError(newPgError(code))
		assert.ErrorIs(t, err, store.ErrInvalidEntity, code)
		assert.Contains(t, err.Error(), "vocabulary_progress_mastery_level_check", code)
	}

	notNull := newPgError("23502")
	notNull.ConstraintName = ""
	assert.Contains(t, MapError(notNull).Error(), "mastery_level violated")

	shutdown := newPgError("57P01")
	assert.Equal(t, error(shutdown), MapError(shutdown))

	other := errors.New("connection reset by peer")
	assert.Equal(t, other, MapError(other))
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, wrapError("progress", "upsert", nil))

	err := wrapError("progress", "upsert", errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	var storeErr *store.StoreError
	assert.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "upsert", storeErr.Operation)

	err = wrapError("plan", "get", fmt.Errorf("scan: %w", sql.ErrNoRows))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, store.IsUnavailableError(err))

	err = wrapError("progress", "upsert", newPgError("23514"))
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
}

type fakeResult struct{ rows int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, nil }

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, store.ErrPlanNotFound))
	assert.ErrorIs(t, CheckRowsAffected(fakeResult{rows: 0}, store.ErrPlanNotFound), store.ErrPlanNotFound)
	assert.Error(t, CheckRowsAffected(nil, store.ErrPlanNotFound))
}

func TestMigrationFilesEmbedded(t *testing.T) {
	t.Parallel()

	files, err := MigrationFiles()
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"00001_create_profiles_and_vocabulary.sql",
		"00002_create_vocabulary_progress.sql",
		"00003_create_plans_and_history.sql",
	}, files)
}
