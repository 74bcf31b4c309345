package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/fluentwork/coach/internal/config"
	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/generation"
	"github.com/fluentwork/coach/internal/platform/logger"
	"google.golang.org/genai"
)

// modelsAPI is the subset of genai.Models used here.
type modelsAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client implements generation.PlanGenerator and generation.AttemptJudge.
type Client struct {
	logger *slog.Logger
	config config.LLMConfig
	models modelsAPI

	rngMu sync.Mutex
	rng   *rand.Rand
	// sleep waits between retries; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

var (
	_ generation.PlanGenerator = (*Client)(nil)
	_ generation.AttemptJudge  = (*Client)(nil)
)

// NewClient creates a Client talking to the Gemini API.
func NewClient(ctx context.Context, log *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}
	return newClient(log, cfg, client.Models), nil
}

func newClient(log *slog.Logger, cfg config.LLMConfig, models modelsAPI) *Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelaySeconds < 1 {
		cfg.RetryDelaySeconds = 1
	}
	return &Client{
		logger: log.With(slog.String("component", "gemini")),
		config: cfg,
		models: models,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  sleepContext,
	}
}

func validateConfig(cfg config.LLMConfig) error {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.ModelName) == "" {
		return fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	return nil
}

// GeneratePlan asks the model for a weekly plan.
func (c *Client) GeneratePlan(ctx context.Context, req generation.PlanRequest) (*domain.WeeklyPlan, error) {
	prompt, err := renderPlanPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
	}
	text, err := c.generateWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}
	p, err := parsePlan(text, req.WeekNumber)
	if err != nil {
		return nil, err
	}
	logger.FromContextOrDefault(ctx, c.logger).Info("weekly plan generated",
		slog.Int("week_number", p.WeekNumber),
		slog.Int("goal_count", len(p.DailyGoals)),
		slog.Int("vocabulary_count", len(p.NewVocabulary)))
	return p, nil
}

// JudgeAttempt asks the model to correct a practice attempt.
func (c *Client) JudgeAttempt(ctx context.Context, req generation.JudgeRequest) (generation.Judgement, error) {
	prompt, err := renderJudgePrompt(req)
	if err != nil {
		return generation.Judgement{}, fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
	}
	text, err := c.generateWithRetry(ctx, prompt)
	if err != nil {
		return generation.Judgement{}, err
	}
	return parseJudgement(text)
}

// generateWithRetry calls the model up to MaxRetries+1 times. Only transport
// errors are retried; empty, blocked or unparsable responses are returned
// immediately.
func (c *Client) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)
	maxRetries := c.config.MaxRetries

	for attempt := 0; ; attempt++ {
		text, err := c.generate(ctx, prompt)
		if err == nil {
			log.Debug("Gemini API call successful", slog.Int("attempt", attempt+1))
			return text, nil
		}

		log.Error("Gemini API call failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if !errors.Is(err, generation.ErrTransientFailure) {
			return "", err
		}
		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		delay := c.backoff(attempt)
		log.Info("retrying after delay",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay))
		if err := c.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
	}
}

// backoff returns baseDelay * 2^attempt scaled by a jitter in [0.5, 1.0).
func (c *Client) backoff(attempt int) time.Duration {
	c.rngMu.Lock()
	jitter := 0.5 + c.rng.Float64()*0.5
	c.rngMu.Unlock()

	seconds := float64(c.config.RetryDelaySeconds) * math.Pow(2, float64(attempt)) * jitter
	return time.Duration(seconds * float64(time.Second))
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	temperature := c.config.Temperature
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	resp, err := c.models.GenerateContent(ctx, c.config.ModelName, contents, &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}
	return sb.String(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
