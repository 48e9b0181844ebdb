package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/adscope/adscope/internal/models"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"log/slog"
)

// AnthropicAdvisor runs the advisory pass against the Anthropic messages API.
type AnthropicAdvisor struct {
	client anthropic.Client
	model  string
	logger *slog.Logger
}

// NewAnthropicAdvisor creates an Anthropic-backed advisor.
func NewAnthropicAdvisor(apiKey, model string, logger *slog.Logger) *AnthropicAdvisor {
	return &AnthropicAdvisor{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
	}
}

// Advise implements the advisory pass.
func (a *AnthropicAdvisor) Advise(ctx context.Context, result *models.AuditResult) ([]models.Recommendation, error) {
	userPrompt := buildPrompt(result)

	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   maxResponseTokens,
		Temperature: anthropic.Float(samplingTemperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	startTime := time.Now()
	resp, err := a.client.Messages.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("anthropic advisor call: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("no response content")
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content = block.Text
			break
		}
	}
	if content == "" {
		return nil, fmt.Errorf("no text content in response")
	}

	a.logger.Info("advisor response received",
		"provider", "anthropic",
		"model", a.model,
		"tokens", resp.Usage.InputTokens+resp.Usage.OutputTokens,
		"latency_ms", time.Since(startTime).Milliseconds())

	return parseResponse(content)
}
