package domain

import "time"

// History entry type tags.
const (
	HistoryTypeReview     = "review"
	HistoryTypePractice   = "practice"
	HistoryTypeOnboarding = "onboarding"
	HistoryTypePlan       = "plan"
)

// PracticeAttempt is the judged outcome of one free-text attempt.
type PracticeAttempt struct {
	Date          time.Time `json:"date"`
	ScenarioID    string    `json:"scenarioId"`
	UserInput     string    `json:"userInput"`
	CorrectedText string    `json:"correctedEn"`
	Feedback      string    `json:"feedback"`
	IsCorrect     bool      `json:"isCorrect"`
	Alternative   string    `json:"alternative,omitempty"`
}

// HistoryEntry is an append-only activity record.
type HistoryEntry struct {
	Date        time.Time        `json:"date"`
	Type        string           `json:"type"`
	Description string           `json:"description"`
	Details     *PracticeAttempt `json:"details,omitempty"`
}

// Day returns the UTC calendar date of the entry, truncated to midnight.
func (h HistoryEntry) Day() time.Time {
	y, m, d := h.Date.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsMistake reports whether the entry carries an incorrect attempt.
func (h HistoryEntry) IsMistake() bool {
	return h.Details != nil && !h.Details.IsCorrect
}
