package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/daviddao/mailtriage/internal/config"
)

const (
	maxRetries = 2
	retryBase  = 500 * time.Millisecond
)

// OpenAI calls the OpenAI chat completions API in JSON mode. JSON mode
// guarantees syntactically valid JSON but not the triage schema, which is why
// every draft goes through postprocessing.
type OpenAI struct {
	llm         *openai.LLM
	model       string
	temperature float64
	timeout     time.Duration
}

// NewOpenAI builds the OpenAI-backed client from settings.
func NewOpenAI(cfg *config.Settings) (*OpenAI, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	model, err := openai.New(
		openai.WithToken(cfg.OpenAIAPIKey),
		openai.WithModel(cfg.OpenAIModel),
	)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	return &OpenAI{
		llm:         model,
		model:       cfg.OpenAIModel,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout(),
	}, nil
}

// Complete sends the prompt pair and returns the raw completion. Transient
// provider failures are retried with exponential backoff inside the overall
// request timeout.
func (c *OpenAI) Complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userContent),
	}

	var content string
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.llm.GenerateContent(ctx, msgs,
			llms.WithTemperature(c.temperature),
			llms.WithJSONMode(),
		)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("generate content: %w", err))
		}
		if len(resp.Choices) == 0 {
			return retry.RetryableError(errors.New("empty completion"))
		}
		content = resp.Choices[0].Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *OpenAI) Name() string {
	return "openai/" + c.model
}
