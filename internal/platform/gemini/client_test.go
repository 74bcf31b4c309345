package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fluentwork/coach/internal/config"
	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// fakeModels returns queued responses in order and records prompts.
type fakeModels struct {
	mu        sync.Mutex
	responses []fakeResponse
	prompts   []string
	models    []string
}

type fakeResponse struct {
	text   string
	finish genai.FinishReason
	err    error
	empty  bool
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.models = append(f.models, model)
	f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	if len(f.responses) == 0 {
		return nil, errors.New("no response queued")
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	if r.err != nil {
		return nil, r.err
	}
	if r.empty {
		return &genai.GenerateContentResponse{}, nil
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: r.finish,
			Content:      &genai.Content{Parts: []*genai.Part{{Text: r.text}}},
		}},
	}, nil
}

func (f *fakeModels) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:      "test-key",
		ModelName:         "gemini-test",
		Temperature:       0.7,
		MaxRetries:        2,
		RetryDelaySeconds: 1,
	}
}

func newTestClient(models *fakeModels) *Client {
	c := newClient(nil, testConfig(), models)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

const planJSON = `{
  "weekNumber": 9,
  "mainFocus": "Reuniones con clientes",
  "grammarFocus": "Past Simple",
  "dailyGoals": [
    {"day": "Lunes", "goal": "Abrir una reunión", "time": "10 min", "completed": true,
     "practiceScenario": {"title": "Kickoff", "prompt": "Abre la reunión", "context": "Meeting"}},
    {"day": "Martes", "goal": "Resumir acuerdos", "time": "15 min", "completed": false,
     "practiceScenario": {"title": "Recap", "prompt": "Resume", "context": "Email", "theory": "Usa Past Simple."}}
  ],
  "newVocabulary": [
    {"id": "vocab-1", "word": "agenda", "spanish": "orden del día", "example": "Let's review the agenda.", "category": "professional"},
    {"word": "wrap up", "spanish": "concluir", "example": "Let's wrap up."}
  ]
}`

func TestGeneratePlan(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []fakeResponse{{text: "```json\n" + planJSON + "\n```"}}}
	c := newTestClient(models)

	p, err := c.GeneratePlan(context.Background(), generation.PlanRequest{
		Profile:        domain.UserProfile{Level: domain.LevelIntermediate, Context: "Sales", Goal: "Meetings"},
		RecentMistakes: []string{"m1", "m2", "m3", "m4", "m5", "m6"},
		WeekNumber:     2,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, p.WeekNumber, "requested week wins over model output")
	assert.Equal(t, "Reuniones con clientes", p.MainFocus)
	require.Len(t, p.DailyGoals, 2)
	assert.False(t, p.DailyGoals[0].Completed, "generated goals start incomplete")
	require.Len(t, p.NewVocabulary, 2)
	assert.Equal(t, "orden del día", p.NewVocabulary[0].Translation)
	assert.Equal(t, "w2-vocab-2", p.NewVocabulary[1].ID)
	assert.Equal(t, domain.CategoryProfessional, p.NewVocabulary[1].Category)

	require.Equal(t, 1, models.calls())
	assert.Equal(t, "gemini-test", models.models[0])
	prompt := models.prompts[0]
	assert.Contains(t, prompt, "Nivel: intermediate")
	assert.Contains(t, prompt, "Semana: 2")
	assert.Contains(t, prompt, "m2, m3, m4, m5, m6")
	assert.NotContains(t, prompt, "m1,")
}

func TestGeneratePlanWithoutMistakes(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []fakeResponse{{text: planJSON}}}
	c := newTestClient(models)

	_, err := c.GeneratePlan(context.Background(), generation.PlanRequest{WeekNumber: 1})
	require.NoError(t, err)
	assert.Contains(t, models.prompts[0], "Errores previos: Ninguno")
}

func TestJudgeAttempt(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []fakeResponse{{text: `{
		"correctedEn": "I went to the meeting yesterday.",
		"feedbackEs": "Usa el pasado simple.",
		"isCorrect": false,
		"professionalAlternative": "I attended the meeting yesterday."
	}`}}}
	c := newTestClient(models)

	j, err := c.JudgeAttempt(context.Background(), generation.JudgeRequest{
		Input:   "I go to meeting yesterday",
		Context: "Daily Standup",
		Prompt:  "Explica qué hiciste ayer",
	})
	require.NoError(t, err)
	assert.Equal(t, "I went to the meeting yesterday.", j.CorrectedText)
	assert.Equal(t, "Usa el pasado simple.", j.Feedback)
	assert.False(t, j.IsCorrect)
	assert.Equal(t, "I attended the meeting yesterday.", j.Alternative)
	assert.False(t, j.Degraded)
	assert.Contains(t, models.prompts[0], `Respuesta del usuario: "I go to meeting yesterday"`)
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		responses []fakeResponse
		wantErr   error
		wantCalls int
	}{
		{
			name:      "transient then success",
			responses: []fakeResponse{{err: errors.New("503")}, {text: `{"correctedEn":"ok"}`}},
			wantCalls: 2,
		},
		{
			name:      "retries exhausted",
			responses: []fakeResponse{{err: errors.New("503")}, {err: errors.New("503")}, {err: errors.New("503")}},
			wantErr:   generation.ErrTransientFailure,
			wantCalls: 3,
		},
		{
			name:      "safety block is not retried",
			responses: []fakeResponse{{text: "x", finish: genai.FinishReasonSafety}},
			wantErr:   generation.ErrContentBlocked,
			wantCalls: 1,
		},
		{
			name:      "no candidates",
			responses: []fakeResponse{{empty: true}},
			wantErr:   generation.ErrInvalidResponse,
			wantCalls: 1,
		},
		{
			name:      "unparsable output",
			responses: []fakeResponse{{text: "not json"}},
			wantErr:   generation.ErrInvalidResponse,
			wantCalls: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			models := &fakeModels{responses: tc.responses}
			c := newTestClient(models)

			_, err := c.JudgeAttempt(context.Background(), generation.JudgeRequest{Input: "hi"})
			if tc.wantErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.ErrorIs(t, err, generation.ErrOracleUnavailable)
			}
			assert.Equal(t, tc.wantCalls, models.calls())
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []fakeResponse{{err: errors.New("503")}, {text: `{"correctedEn":"ok"}`}}}
	c := newClient(nil, testConfig(), models)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.JudgeAttempt(ctx, generation.JudgeRequest{Input: "hi"})
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 1, models.calls())
}

func TestBackoffGrows(t *testing.T) {
	t.Parallel()

	c := newClient(nil, testConfig(), &fakeModels{})
	for attempt := 0; attempt < 4; attempt++ {
		d := c.backoff(attempt)
		base := time.Duration(1<<attempt) * time.Second
		assert.GreaterOrEqual(t, d, base/2)
		assert.Less(t, d, base)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	require.NoError(t, validateConfig(cfg))

	cfg.GeminiAPIKey = " "
	assert.ErrorIs(t, validateConfig(cfg), generation.ErrInvalidConfig)

	cfg = testConfig()
	cfg.ModelName = ""
	assert.ErrorIs(t, validateConfig(cfg), generation.ErrInvalidConfig)

	_, err := NewClient(context.Background(), nil, config.LLMConfig{ModelName: "m"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"```json\n{\"a\":1}\n```":      `{"a":1}`,
		"prefix ```{\"a\":1}``` tail": `{"a":1}`,
		"  {\"a\":1}  ":                `{"a":1}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, extractJSON(in), strings.TrimSpace(in))
	}
}

func TestParsePlanRejectsInvalid(t *testing.T) {
	t.Parallel()

	_, err := parsePlan(`{"dailyGoals": []}`, 1)
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)

	_, err = parsePlan(`{"dailyGoals": [{"day": "Lunes"}, {"day": "Lunes"}]}`, 1)
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}
