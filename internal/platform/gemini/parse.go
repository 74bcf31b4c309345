package gemini

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/generation"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// extractJSON returns the body of the first markdown code fence in text, or
// text itself when there is none.
func extractJSON(text string) string {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// vocabularySchema is the vocabulary shape the model is asked to produce.
// The translation arrives under "spanish".
type vocabularySchema struct {
	ID          string `json:"id"`
	Word        string `json:"word"`
	Spanish     string `json:"spanish"`
	Translation string `json:"translation"`
	Example     string `json:"example"`
	Category    string `json:"category"`
	CommonError string `json:"commonError"`
}

type planSchema struct {
	WeekNumber    int                `json:"weekNumber"`
	MainFocus     string             `json:"mainFocus"`
	GrammarFocus  string             `json:"grammarFocus"`
	DailyGoals    []domain.DailyGoal `json:"dailyGoals"`
	NewVocabulary []vocabularySchema `json:"newVocabulary"`
}

// parsePlan decodes a plan response. weekNumber overrides whatever week the
// model wrote, goals always start incomplete and vocabulary without a
// category is treated as professional.
func parsePlan(text string, weekNumber int) (*domain.WeeklyPlan, error) {
	var raw planSchema
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to parse plan JSON: %v", generation.ErrInvalidResponse, err)
	}
	if len(raw.DailyGoals) == 0 {
		return nil, fmt.Errorf("%w: plan has no daily goals", generation.ErrInvalidResponse)
	}

	p := &domain.WeeklyPlan{
		WeekNumber:    weekNumber,
		MainFocus:     raw.MainFocus,
		GrammarFocus:  raw.GrammarFocus,
		DailyGoals:    raw.DailyGoals,
		NewVocabulary: make([]domain.VocabularyItem, 0, len(raw.NewVocabulary)),
	}
	for i := range p.DailyGoals {
		p.DailyGoals[i].Completed = false
	}
	for i, v := range raw.NewVocabulary {
		item := domain.VocabularyItem{
			ID:          v.ID,
			Word:        v.Word,
			Translation: v.Spanish,
			Example:     v.Example,
			Category:    domain.Category(v.Category),
			CommonError: v.CommonError,
		}
		if item.Translation == "" {
			item.Translation = v.Translation
		}
		if item.ID == "" {
			item.ID = fmt.Sprintf("w%d-vocab-%d", weekNumber, i+1)
		}
		if item.Category == "" {
			item.Category = domain.CategoryProfessional
		}
		p.NewVocabulary = append(p.NewVocabulary, item)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}
	return p, nil
}

func parseJudgement(text string) (generation.Judgement, error) {
	var j generation.Judgement
	if err := json.Unmarshal([]byte(extractJSON(text)), &j); err != nil {
		return generation.Judgement{}, fmt.Errorf("%w: failed to parse judgement JSON: %v",
			generation.ErrInvalidResponse, err)
	}
	if strings.TrimSpace(j.CorrectedText) == "" {
		return generation.Judgement{}, fmt.Errorf("%w: judgement has no corrected text", generation.ErrInvalidResponse)
	}
	j.Degraded = false
	return j, nil
}
