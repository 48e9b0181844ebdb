package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/adscope/adscope/internal/models"
	"github.com/sashabaranov/go-openai"
	"log/slog"
)

// OpenAIAdvisor runs the advisory pass against the OpenAI chat API.
type OpenAIAdvisor struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIAdvisor creates an OpenAI-backed advisor.
func NewOpenAIAdvisor(apiKey, model string, logger *slog.Logger) *OpenAIAdvisor {
	return &OpenAIAdvisor{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Advise implements the advisory pass.
func (a *OpenAIAdvisor) Advise(ctx context.Context, result *models.AuditResult) ([]models.Recommendation, error) {
	userPrompt := buildPrompt(result)

	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: samplingTemperature,
		MaxTokens:   maxResponseTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}

	startTime := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai advisor call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices")
	}

	content := resp.Choices[0].Message.Content
	a.logger.Info("advisor response received",
		"provider", "openai",
		"model", a.model,
		"tokens", resp.Usage.TotalTokens,
		"latency_ms", time.Since(startTime).Milliseconds())

	return parseResponse(content)
}
