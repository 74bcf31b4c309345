package gemini

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/generation"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var templates = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(promptFS, "prompts/*.tmpl"),
)

type planPromptData struct {
	Profile    domain.UserProfile
	WeekNumber int
	Mistakes   []string
}

// recentMistakeLimit is how many of the latest mistakes go into a plan prompt.
const recentMistakeLimit = 5

func renderPlanPrompt(req generation.PlanRequest) (string, error) {
	mistakes := req.RecentMistakes
	if len(mistakes) > recentMistakeLimit {
		mistakes = mistakes[len(mistakes)-recentMistakeLimit:]
	}
	return render("plan.tmpl", planPromptData{
		Profile:    req.Profile,
		WeekNumber: req.WeekNumber,
		Mistakes:   mistakes,
	})
}

func renderJudgePrompt(req generation.JudgeRequest) (string, error) {
	return render("judge.tmpl", req)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %s: %w", name, err)
	}
	prompt := strings.TrimSpace(buf.String())
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	return prompt, nil
}
