// Package advisor runs an optional LLM pass over a completed audit and
// turns the model's suggestions into supplementary recommendations.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adscope/adscope/internal/config"
	"github.com/adscope/adscope/internal/models"
	"log/slog"
)

const (
	// Temperature for sampling (low = focused, repeatable advice)
	samplingTemperature = 0.2

	maxResponseTokens = 1000

	// Only the highest-priority findings go into the prompt.
	maxPromptRecommendations = 10
)

// Advisor produces supplementary recommendations for a completed audit.
type Advisor interface {
	Advise(ctx context.Context, result *models.AuditResult) ([]models.Recommendation, error)
}

const systemPrompt = `You are a senior paid-media analyst reviewing an ad account audit.
You receive account totals and the audit's top findings. Respond with
additional recommendations the rule-based audit may have missed.

Respond with ONLY a JSON array, no prose. Each element:
{"recommendation": "...", "severity": "low"|"medium"|"high"}
Return at most 5 elements.`

// New builds an advisor from configuration. An empty provider returns nil,
// which disables the advisory pass.
func New(cfg config.AdvisorConfig, logger *slog.Logger) (Advisor, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAIAdvisor(cfg.APIKey, cfg.Model, logger), nil
	case "anthropic":
		return NewAnthropicAdvisor(cfg.APIKey, cfg.Model, logger), nil
	default:
		return nil, fmt.Errorf("unknown advisor provider %q", cfg.Provider)
	}
}

// buildPrompt renders the audit into the user message.
func buildPrompt(result *models.AuditResult) string {
	var sb strings.Builder

	o := result.AccountOverview
	sb.WriteString("=== ACCOUNT OVERVIEW ===\n")
	fmt.Fprintf(&sb, "Client: %s (platform: %s)\n", result.ClientName, result.Platform)
	fmt.Fprintf(&sb, "Spend: %.2f, Impressions: %d, Clicks: %d, Conversions: %.0f\n",
		o.TotalSpend, o.TotalImpressions, o.TotalClicks, o.TotalConversions)
	fmt.Fprintf(&sb, "CTR: %.2f%%, CPC: %.2f, CPA: %.2f, Conversion rate: %.2f%%\n",
		o.CTR, o.CPC, o.CPA, o.ConversionRate)
	fmt.Fprintf(&sb, "Campaigns: %d (%d active), Ad sets: %d, Ads: %d\n",
		o.TotalCampaigns, o.ActiveCampaigns, o.TotalAdSets, o.TotalAds)

	sb.WriteString("\n=== TOP AUDIT FINDINGS ===\n")
	recs := result.Recommendations
	if len(recs) > maxPromptRecommendations {
		recs = recs[:maxPromptRecommendations]
	}
	if len(recs) == 0 {
		sb.WriteString("No findings from the rule-based audit.\n")
	}
	for i, rec := range recs {
		fmt.Fprintf(&sb, "%d. [%s/%s] %s", i+1, rec.Type, rec.Severity, rec.Message)
		if rec.PotentialSavings > 0 {
			fmt.Fprintf(&sb, " (potential savings: %.2f)", rec.PotentialSavings)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\nEstimated total savings: %.2f\n", result.PotentialSavings)
	sb.WriteString("\nRespond now with ONLY the JSON array of additional recommendations:")

	return sb.String()
}

// parseResponse extracts recommendations from the model output. Models
// sometimes wrap the array in code fences or prose; the parser finds the
// outermost array before decoding.
func parseResponse(content string) ([]models.Recommendation, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var raw []struct {
		Recommendation string `json:"recommendation"`
		Severity       string `json:"severity"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse advisor response: %w", err)
	}

	var recs []models.Recommendation
	for _, item := range raw {
		if item.Recommendation == "" {
			continue
		}
		severity := models.Severity(item.Severity)
		switch severity {
		case models.SeverityLow, models.SeverityMedium, models.SeverityHigh:
		default:
			severity = models.SeverityLow
		}
		recs = append(recs, models.Recommendation{
			Type:     "ai_suggestion",
			Severity: severity,
			Message:  item.Recommendation,
		})
	}

	return recs, nil
}
