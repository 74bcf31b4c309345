package domain

import "strings"

// PracticeScenario is the writing task attached to a daily goal.
type PracticeScenario struct {
	Title   string `json:"title"`
	Prompt  string `json:"prompt"`
	Context string `json:"context"`
	Theory  string `json:"theory,omitempty"`
}

// DailyGoal is one day of a weekly plan. Completed is the only field that
// changes after the plan is created.
type DailyGoal struct {
	Day              string           `json:"day"`
	Goal             string           `json:"goal"`
	Time             string           `json:"time"`
	Completed        bool             `json:"completed"`
	PracticeScenario PracticeScenario `json:"practiceScenario"`
}

// WeeklyPlan is a week of goals plus the vocabulary introduced that week.
type WeeklyPlan struct {
	WeekNumber    int              `json:"weekNumber"`
	MainFocus     string           `json:"mainFocus"`
	GrammarFocus  string           `json:"grammarFocus"`
	DailyGoals    []DailyGoal      `json:"dailyGoals"`
	NewVocabulary []VocabularyItem `json:"newVocabulary"`
}

// Validate checks structural invariants of a plan.
func (p *WeeklyPlan) Validate() error {
	if p.WeekNumber < 1 {
		return ErrInvalidWeekNumber
	}
	seen := make(map[string]struct{}, len(p.DailyGoals))
	for _, g := range p.DailyGoals {
		if strings.TrimSpace(g.Day) == "" {
			return ErrEmptyDayLabel
		}
		if _, ok := seen[g.Day]; ok {
			return ErrDuplicateDayLabel
		}
		seen[g.Day] = struct{}{}
	}
	for i := range p.NewVocabulary {
		if err := p.NewVocabulary[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate goals without aliasing.
func (p *WeeklyPlan) Clone() *WeeklyPlan {
	if p == nil {
		return nil
	}
	c := *p
	c.DailyGoals = append([]DailyGoal(nil), p.DailyGoals...)
	c.NewVocabulary = append([]VocabularyItem(nil), p.NewVocabulary...)
	return &c
}

// CompletedCount returns how many goals are completed.
func (p *WeeklyPlan) CompletedCount() int {
	n := 0
	for _, g := range p.DailyGoals {
		if g.Completed {
			n++
		}
	}
	return n
}
