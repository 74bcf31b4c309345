package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some error"), false},
		{"ErrNotFound", ErrNotFound, true},
		{"ErrProgressNotFound", ErrProgressNotFound, true},
		{"wrapped ErrPlanNotFound", fmt.Errorf("load: %w", ErrPlanNotFound), true},
		{"ErrVocabularyNotFound in StoreError", NewStoreError("vocabulary", "get", "missing", ErrVocabularyNotFound), true},
		{"unavailable", ErrStoreUnavailable, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsNotFoundError(tt.err), tt.name)
	}
}

func TestUnavailableWrapsBoth(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := Unavailable("progress", "upsert", cause)

	assert.True(t, IsUnavailableError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "upsert operation on progress failed")

	var storeErr *StoreError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &storeErr))
	assert.Equal(t, "progress", storeErr.Entity)
}

func TestStoreErrorWithoutCause(t *testing.T) {
	t.Parallel()

	err := NewStoreError("plan", "update", "no rows", nil)
	assert.Equal(t, "update operation on plan failed: no rows", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestChangeTypeValid(t *testing.T) {
	t.Parallel()

	assert.True(t, ChangeInsert.Valid())
	assert.True(t, ChangeUpdate.Valid())
	assert.True(t, ChangeDelete.Valid())
	assert.False(t, ChangeType("TRUNCATE").Valid())
}
