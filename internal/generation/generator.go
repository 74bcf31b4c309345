package generation

import (
	"context"

	"github.com/fluentwork/coach/internal/domain"
)

// PlanRequest carries everything the backend needs to write a weekly plan.
type PlanRequest struct {
	Profile domain.UserProfile
	// RecentMistakes are raw incorrect inputs, oldest first.
	RecentMistakes []string
	WeekNumber     int
}

// PlanGenerator produces a weekly plan for a learner.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, req PlanRequest) (*domain.WeeklyPlan, error)
}

// JudgeRequest is a single practice attempt to grade.
type JudgeRequest struct {
	Input   string
	Context string
	Prompt  string
}

// Judgement is the backend's verdict on an attempt.
type Judgement struct {
	CorrectedText string `json:"correctedEn"`
	Feedback      string `json:"feedbackEs"`
	IsCorrect     bool   `json:"isCorrect"`
	Alternative   string `json:"professionalAlternative"`
	// Degraded is set when the verdict is a local fallback rather than a
	// real judgement.
	Degraded bool `json:"degraded,omitempty"`
}

// AttemptJudge grades free text practice attempts.
type AttemptJudge interface {
	JudgeAttempt(ctx context.Context, req JudgeRequest) (Judgement, error)
}
