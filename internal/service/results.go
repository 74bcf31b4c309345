package service

import (
	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/generation"
	"github.com/fluentwork/coach/internal/stats"
)

// ReviewResult is the outcome of one flashcard review.
type ReviewResult struct {
	Correct  bool                  `json:"correct"`
	Item     domain.VocabularyItem `json:"item"`
	Progress domain.ProgressRecord `json:"progress"`
	Stats    stats.SessionStats    `json:"stats"`
}

// PracticeResult is the outcome of one practice attempt. Plan is set when a
// correct attempt completed a goal.
type PracticeResult struct {
	Judgement generation.Judgement   `json:"judgement"`
	Attempt   domain.PracticeAttempt `json:"attempt"`
	Plan      *domain.WeeklyPlan     `json:"plan,omitempty"`
	Stats     stats.SessionStats     `json:"stats"`
}
