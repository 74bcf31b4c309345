package mastery

import (
	"strings"
	"time"

	"github.com/fluentwork/coach/internal/domain"
)

// nextLevel moves level one step toward MaxLevel on a correct answer and one
// step toward zero otherwise, never leaving [0, MaxLevel].
func nextLevel(level int, correct bool, params *Params) int {
	if correct {
		level++
	} else {
		level--
	}
	if level < 0 {
		return 0
	}
	if level > params.MaxLevel {
		return params.MaxLevel
	}
	return level
}

// calculateNextRecord applies one outcome to prev. A nil prev starts from a
// fresh record for key with all counters at zero.
func calculateNextRecord(
	prev *domain.ProgressRecord,
	key domain.ProgressKey,
	correct bool,
	now time.Time,
	params *Params,
) domain.ProgressRecord {
	now = now.UTC()

	next := domain.ProgressRecord{
		UserID:           key.UserID,
		VocabularyItemID: key.VocabularyItemID,
	}
	if prev != nil {
		next = *prev
	}

	next.MasteryLevel = nextLevel(next.MasteryLevel, correct, params)
	next.TimesReviewed++
	if correct {
		next.TimesCorrect++
	}
	next.NextReviewDate = now.AddDate(0, 0, params.intervalFor(next.MasteryLevel))
	next.Learned = next.MasteryLevel == params.MaxLevel
	next.UpdatedAt = now

	return next
}

// ApplyOutcome computes the record that results from reviewing an item with
// the default schedule. prev may be nil for a first review.
func ApplyOutcome(
	prev *domain.ProgressRecord,
	key domain.ProgressKey,
	correct bool,
	now time.Time,
) domain.ProgressRecord {
	return calculateNextRecord(prev, key, correct, now, NewDefaultParams())
}

// IsFlashcardMatch grades a flashcard answer: exact match after trimming
// whitespace and folding case.
func IsFlashcardMatch(input, term string) bool {
	return strings.EqualFold(strings.TrimSpace(input), strings.TrimSpace(term))
}
