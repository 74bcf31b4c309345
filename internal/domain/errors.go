package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a mutation would violate an invariant.
	// It is usually wrapped with a more specific error below.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")
)

// Validation failures. Each wraps ErrValidation so callers can match either
// the specific rule or the category.
var (
	ErrEmptyUserID           = fmt.Errorf("%w: user ID cannot be empty", ErrValidation)
	ErrEmptyVocabularyItemID = fmt.Errorf("%w: vocabulary item ID cannot be empty", ErrValidation)
	ErrMasteryOutOfRange     = fmt.Errorf("%w: mastery level must be between 0 and 5", ErrValidation)
	ErrNegativeCounter       = fmt.Errorf("%w: review counters cannot be negative", ErrValidation)
	ErrCorrectExceedsReviews = fmt.Errorf("%w: times correct cannot exceed times reviewed", ErrValidation)
	ErrLearnedMismatch       = fmt.Errorf("%w: learned must equal mastery level 5", ErrValidation)
	ErrMissingTimestamp      = fmt.Errorf("%w: timestamp is required", ErrValidation)
	ErrInvalidCategory       = fmt.Errorf("%w: unknown vocabulary category", ErrValidation)
	ErrInvalidWeekNumber     = fmt.Errorf("%w: week number must be at least 1", ErrValidation)
	ErrEmptyDayLabel         = fmt.Errorf("%w: daily goal day cannot be empty", ErrValidation)
	ErrDuplicateDayLabel     = fmt.Errorf("%w: daily goal days must be unique", ErrValidation)
	ErrInvalidLevel          = fmt.Errorf("%w: unknown proficiency level", ErrValidation)
)
