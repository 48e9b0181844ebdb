package advisor

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/adscope/adscope/internal/config"
	"github.com/adscope/adscope/internal/models"
)

func sampleResult() *models.AuditResult {
	return &models.AuditResult{
		ClientName: "Acme Corp",
		Platform:   models.PlatformFacebook,
		Success:    true,
		AccountOverview: models.AccountOverview{
			TotalSpend:       2000,
			TotalImpressions: 150000,
			TotalClicks:      5500,
			TotalConversions: 55,
			CTR:              3.67,
			CPC:              0.36,
			CPA:              36.36,
			ConversionRate:   1.0,
			TotalCampaigns:   2,
		},
		Recommendations: []models.Recommendation{
			{
				Type:             models.RecTypeCampaignBudgetInefficiency,
				Severity:         models.SeverityHigh,
				Message:          "Review campaign Summer Sale",
				PotentialSavings: 360,
			},
			{
				Type:     models.RecTypeCTRTrend,
				Severity: models.SeverityMedium,
				Message:  "CTR is declining week over week",
			},
		},
		PotentialSavings: 360,
	}
}

func TestNewSelectsProvider(t *testing.T) {
	logger := slog.Default()

	adv, err := New(config.AdvisorConfig{}, logger)
	if err != nil || adv != nil {
		t.Errorf("empty provider: advisor = %v, err = %v", adv, err)
	}

	adv, err = New(config.AdvisorConfig{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"}, logger)
	if err != nil {
		t.Fatalf("openai provider: %v", err)
	}
	if _, ok := adv.(*OpenAIAdvisor); !ok {
		t.Errorf("openai provider returned %T", adv)
	}

	adv, err = New(config.AdvisorConfig{Provider: "anthropic", APIKey: "key", Model: "claude-3-5-sonnet-20240620"}, logger)
	if err != nil {
		t.Fatalf("anthropic provider: %v", err)
	}
	if _, ok := adv.(*AnthropicAdvisor); !ok {
		t.Errorf("anthropic provider returned %T", adv)
	}

	if _, err = New(config.AdvisorConfig{Provider: "cohere"}, logger); err == nil {
		t.Error("unknown provider accepted")
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(sampleResult())

	for _, want := range []string{
		"Acme Corp",
		"platform: facebook",
		"Spend: 2000.00",
		"campaign_budget_inefficiency",
		"Review campaign Summer Sale",
		"potential savings: 360.00",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptCapsFindings(t *testing.T) {
	result := sampleResult()
	result.Recommendations = nil
	for i := 0; i < 25; i++ {
		result.Recommendations = append(result.Recommendations, models.Recommendation{
			Type: models.RecTypeCTRTrend, Severity: models.SeverityLow, Message: "finding",
		})
	}

	prompt := buildPrompt(result)
	if strings.Contains(prompt, "11. ") {
		t.Error("prompt includes more findings than the cap")
	}
	if !strings.Contains(prompt, "10. ") {
		t.Error("prompt truncated below the cap")
	}
}

func TestParseResponse(t *testing.T) {
	content := `Here are my suggestions:
[
  {"recommendation": "Consolidate overlapping audiences", "severity": "medium"},
  {"recommendation": "Test broad targeting", "severity": "weird"},
  {"recommendation": "", "severity": "high"}
]`

	recs, err := parseResponse(content)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	if recs[0].Type != "ai_suggestion" {
		t.Errorf("type = %q", recs[0].Type)
	}
	if recs[0].Severity != models.SeverityMedium {
		t.Errorf("severity = %q", recs[0].Severity)
	}
	// Unknown severities degrade to low instead of failing the pass.
	if recs[1].Severity != models.SeverityLow {
		t.Errorf("unknown severity mapped to %q", recs[1].Severity)
	}
}

func TestParseResponseNoArray(t *testing.T) {
	if _, err := parseResponse("I cannot help with that."); err == nil {
		t.Error("prose response parsed without error")
	}
}

func TestParseResponseMalformedJSON(t *testing.T) {
	if _, err := parseResponse(`[{"recommendation":}]`); err == nil {
		t.Error("malformed JSON parsed without error")
	}
}
