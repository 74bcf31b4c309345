package api

import (
	"time"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/service"
	"github.com/fluentwork/coach/internal/stats"
)

// AuthResponse is returned when a guest session is issued.
type AuthResponse struct {
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// OnboardRequest carries the onboarding answers.
type OnboardRequest struct {
	Level   string `json:"level"   validate:"required,oneof=beginner intermediate advanced"`
	Context string `json:"context" validate:"max=500"`
	Goal    string `json:"goal"    validate:"max=500"`
}

func (r OnboardRequest) profile() domain.UserProfile {
	return domain.UserProfile{Level: domain.Level(r.Level), Context: r.Context, Goal: r.Goal}
}

// ReviewRequest is one flashcard answer.
type ReviewRequest struct {
	Input string `json:"input" validate:"required,max=200"`
}

// ScenarioRequest identifies the scenario being practiced.
type ScenarioRequest struct {
	Title   string `json:"title"   validate:"required,max=200"`
	Prompt  string `json:"prompt"  validate:"max=2000"`
	Context string `json:"context" validate:"max=2000"`
}

// PracticeRequest is one free text practice attempt.
type PracticeRequest struct {
	Scenario ScenarioRequest `json:"scenario"`
	Input    string          `json:"input" validate:"required,max=2000"`
}

func (r PracticeRequest) scenario() domain.PracticeScenario {
	return domain.PracticeScenario{
		Title:   r.Scenario.Title,
		Prompt:  r.Scenario.Prompt,
		Context: r.Scenario.Context,
	}
}

// SnapshotResponse wraps a user's stored state.
type SnapshotResponse struct {
	Snapshot *domain.Snapshot `json:"snapshot"`
	Saved    bool             `json:"saved"`
}

// ReviewResponse reports a flashcard review. Saved is false when the result
// was computed but could not be stored.
type ReviewResponse struct {
	*service.ReviewResult
	Saved bool `json:"saved"`
}

// PracticeResponse reports a practice attempt.
type PracticeResponse struct {
	*service.PracticeResult
	Saved bool `json:"saved"`
}

// PlanResponse wraps a weekly plan.
type PlanResponse struct {
	Plan  *domain.WeeklyPlan `json:"plan"`
	Saved bool               `json:"saved"`
}

// ProgressResponse wraps one progress record.
type ProgressResponse struct {
	Progress *domain.ProgressRecord `json:"progress"`
	Saved    bool                   `json:"saved"`
}

// VocabularyResponse lists vocabulary joined with progress.
type VocabularyResponse struct {
	Items []domain.ProgressView `json:"items"`
}

// StatsResponse reports session statistics. Stale is set when history could
// not be loaded and the figures may be behind.
type StatsResponse struct {
	stats.SessionStats
	Stale bool `json:"stale,omitempty"`
}

// ImportResponse reports a spreadsheet import.
type ImportResponse struct {
	Imported int          `json:"imported"`
	Skipped  []SkippedRow `json:"skipped"`
}

// SkippedRow is a spreadsheet row that was not imported.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
