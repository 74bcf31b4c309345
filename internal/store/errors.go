package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrStoreUnavailable is returned when the medium cannot be reached or
	// rejects a write. A failed write leaves the prior stored value intact.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrProgressNotFound indicates that no progress record exists for the key.
	ErrProgressNotFound = fmt.Errorf("%w: progress", ErrNotFound)

	// ErrPlanNotFound indicates that the user has no weekly plan yet.
	ErrPlanNotFound = fmt.Errorf("%w: plan", ErrNotFound)

	// ErrProfileNotFound indicates that the user has not been onboarded.
	ErrProfileNotFound = fmt.Errorf("%w: profile", ErrNotFound)

	// ErrVocabularyNotFound indicates that a vocabulary item id is unknown.
	ErrVocabularyNotFound = fmt.Errorf("%w: vocabulary item", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailableError checks if the error means the medium could not serve the call.
func IsUnavailableError(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "progress", "plan")
	Operation string // The operation that failed (e.g., "upsert", "load")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// Unavailable wraps cause as ErrStoreUnavailable for entity and operation.
// errors.Is matches both ErrStoreUnavailable and cause.
func Unavailable(entity, operation string, cause error) *StoreError {
	return NewStoreError(entity, operation, "medium unavailable",
		fmt.Errorf("%w: %w", ErrStoreUnavailable, cause))
}
