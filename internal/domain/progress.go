package domain

import "time"

// MaxMasteryLevel is the mastery level at which an item counts as learned.
const MaxMasteryLevel = 5

// ProgressKey identifies a progress record.
type ProgressKey struct {
	UserID           string
	VocabularyItemID string
}

// ProgressRecord is a user's retention state for one vocabulary item.
//
// JSON field names follow the remote row so that change notifications decode
// directly into ProgressPayload.
type ProgressRecord struct {
	UserID           string    `json:"user_id"`
	VocabularyItemID string    `json:"vocabulary_item_id"`
	MasteryLevel     int       `json:"mastery_level"`
	NextReviewDate   time.Time `json:"next_review_date"`
	TimesReviewed    int       `json:"times_reviewed"`
	TimesCorrect     int       `json:"times_correct"`
	Learned          bool      `json:"learned"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Key returns the record's unique key.
func (r *ProgressRecord) Key() ProgressKey {
	return ProgressKey{UserID: r.UserID, VocabularyItemID: r.VocabularyItemID}
}

// IsDue reports whether the item should be reviewed at now.
func (r *ProgressRecord) IsDue(now time.Time) bool {
	return !r.NextReviewDate.After(now)
}

// Validate checks every ProgressRecord invariant. Records produced by the
// mastery model always pass; this guards callers that build records by hand.
func (r *ProgressRecord) Validate() error {
	if r.UserID == "" {
		return ErrEmptyUserID
	}
	if r.VocabularyItemID == "" {
		return ErrEmptyVocabularyItemID
	}
	if r.MasteryLevel < 0 || r.MasteryLevel > MaxMasteryLevel {
		return ErrMasteryOutOfRange
	}
	if r.TimesReviewed < 0 || r.TimesCorrect < 0 {
		return ErrNegativeCounter
	}
	if r.TimesCorrect > r.TimesReviewed {
		return ErrCorrectExceedsReviews
	}
	if r.Learned != (r.MasteryLevel == MaxMasteryLevel) {
		return ErrLearnedMismatch
	}
	if r.NextReviewDate.IsZero() || r.UpdatedAt.IsZero() {
		return ErrMissingTimestamp
	}
	return nil
}

// ProgressPayload is a loosely populated progress row as delivered by a
// change notification. Absent fields decode as nil.
type ProgressPayload struct {
	UserID           *string    `json:"user_id"`
	VocabularyItemID *string    `json:"vocabulary_item_id"`
	MasteryLevel     *int       `json:"mastery_level"`
	NextReviewDate   *time.Time `json:"next_review_date"`
	TimesReviewed    *int       `json:"times_reviewed"`
	TimesCorrect     *int       `json:"times_correct"`
	Learned          *bool      `json:"learned"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

// Record merges the payload into a full ProgressRecord.
//
// Identity, mastery level and updated_at are required and never guessed.
// Other fields are repaired: learned is recomputed from the mastery level,
// missing counters default to the smallest consistent value, times_correct is
// capped at times_reviewed, and a missing next_review_date means due at
// updated_at.
func (p *ProgressPayload) Record() (ProgressRecord, error) {
	if p == nil {
		return ProgressRecord{}, ErrEmptyContent
	}
	if p.UserID == nil || *p.UserID == "" {
		return ProgressRecord{}, ErrEmptyUserID
	}
	if p.VocabularyItemID == nil || *p.VocabularyItemID == "" {
		return ProgressRecord{}, ErrEmptyVocabularyItemID
	}
	if p.UpdatedAt == nil || p.UpdatedAt.IsZero() {
		return ProgressRecord{}, ErrMissingTimestamp
	}
	if p.MasteryLevel == nil {
		return ProgressRecord{}, ErrMasteryOutOfRange
	}

	rec := ProgressRecord{
		UserID:           *p.UserID,
		VocabularyItemID: *p.VocabularyItemID,
		MasteryLevel:     *p.MasteryLevel,
		UpdatedAt:        p.UpdatedAt.UTC(),
	}
	if p.TimesCorrect != nil {
		rec.TimesCorrect = *p.TimesCorrect
	}
	if p.TimesReviewed != nil {
		rec.TimesReviewed = *p.TimesReviewed
	} else {
		rec.TimesReviewed = rec.TimesCorrect
	}
	if rec.TimesCorrect > rec.TimesReviewed && rec.TimesReviewed >= 0 {
		rec.TimesCorrect = rec.TimesReviewed
	}
	if p.NextReviewDate != nil && !p.NextReviewDate.IsZero() {
		rec.NextReviewDate = p.NextReviewDate.UTC()
	} else {
		rec.NextReviewDate = rec.UpdatedAt
	}
	rec.Learned = rec.MasteryLevel == MaxMasteryLevel

	if err := rec.Validate(); err != nil {
		return ProgressRecord{}, err
	}
	return rec, nil
}

// ProgressView is a progress record joined with the item it refers to.
// Item is nil when the item could not be resolved.
type ProgressView struct {
	ProgressRecord
	Item *VocabularyItem `json:"item,omitempty"`
}
