package mastery

import (
	"time"

	"github.com/fluentwork/coach/internal/domain"
)

// Service applies review outcomes to progress records.
type Service interface {
	// ApplyOutcome returns the record after one review. prev may be nil.
	ApplyOutcome(prev *domain.ProgressRecord, key domain.ProgressKey, correct bool, now time.Time) domain.ProgressRecord

	// MarkLearned returns the record promoted straight to the top level,
	// as when a learner flags an item as known.
	MarkLearned(prev *domain.ProgressRecord, key domain.ProgressKey, now time.Time) domain.ProgressRecord
}

type defaultService struct {
	params *Params
}

var _ Service = (*defaultService)(nil)

// NewDefaultService creates a mastery service with the default schedule.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a mastery service with a custom schedule.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

func (s *defaultService) ApplyOutcome(
	prev *domain.ProgressRecord,
	key domain.ProgressKey,
	correct bool,
	now time.Time,
) domain.ProgressRecord {
	return calculateNextRecord(prev, key, correct, now, s.params)
}

func (s *defaultService) MarkLearned(
	prev *domain.ProgressRecord,
	key domain.ProgressKey,
	now time.Time,
) domain.ProgressRecord {
	now = now.UTC()
	next := domain.ProgressRecord{UserID: key.UserID, VocabularyItemID: key.VocabularyItemID}
	if prev != nil {
		next = *prev
	}
	next.MasteryLevel = s.params.MaxLevel
	next.Learned = true
	next.NextReviewDate = now.AddDate(0, 0, s.params.intervalFor(s.params.MaxLevel))
	next.UpdatedAt = now
	return next
}
