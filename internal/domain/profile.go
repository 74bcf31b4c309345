package domain

// Level is a learner's self-reported proficiency.
type Level string

// Supported proficiency levels.
const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// UserProfile captures the onboarding answers used to personalize plans.
type UserProfile struct {
	Level   Level  `json:"level"`
	Context string `json:"context"`
	Goal    string `json:"goal"`
}

// Validate checks that the profile level is known.
func (p *UserProfile) Validate() error {
	switch p.Level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return nil
	default:
		return ErrInvalidLevel
	}
}

// Snapshot is everything persisted for one user.
type Snapshot struct {
	Profile    *UserProfile     `json:"profile,omitempty"`
	Plan       *WeeklyPlan      `json:"plan,omitempty"`
	Vocabulary []VocabularyItem `json:"vocabulary"`
	Progress   []ProgressRecord `json:"progress"`
	History    []HistoryEntry   `json:"history"`
}
