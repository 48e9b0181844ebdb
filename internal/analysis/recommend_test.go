package analysis

import (
	"testing"

	"github.com/adscope/adscope/internal/models"
)

func TestPrioritizeOrdersByScore(t *testing.T) {
	recs := []models.Recommendation{
		{Type: models.RecTypeCTRTrend, Severity: models.SeverityMedium},
		{Type: models.RecTypeBudgetAllocationImbalance, Severity: models.SeverityHigh, PotentialSavings: 500},
		{Type: models.RecTypeAdFatigue, Severity: models.SeverityMedium, PotentialSavings: 90},
	}

	out := Prioritize(recs)
	if out[0].Type != models.RecTypeBudgetAllocationImbalance {
		t.Errorf("first = %q, want budget imbalance", out[0].Type)
	}
	if out[len(out)-1].Type != models.RecTypeCTRTrend {
		t.Errorf("last = %q, want ctr trend", out[len(out)-1].Type)
	}
	for i := 1; i < len(out); i++ {
		if out[i].PriorityScore > out[i-1].PriorityScore {
			t.Fatalf("output not sorted descending at %d", i)
		}
	}
	// Imbalance: 100 * 1.5 * (1 + capped 2.0) = 450.
	if out[0].PriorityScore != 450 {
		t.Errorf("imbalance priority = %v, want 450", out[0].PriorityScore)
	}
}

func TestPriorityMonotonicInSavings(t *testing.T) {
	low := Prioritize([]models.Recommendation{
		{Type: models.RecTypeAdFatigue, Severity: models.SeverityHigh, PotentialSavings: 20},
	})[0]
	high := Prioritize([]models.Recommendation{
		{Type: models.RecTypeAdFatigue, Severity: models.SeverityHigh, PotentialSavings: 80},
	})[0]
	if high.PriorityScore <= low.PriorityScore {
		t.Errorf("priority not monotonic in savings: %v <= %v",
			high.PriorityScore, low.PriorityScore)
	}
}

func TestPrioritySegmentTypes(t *testing.T) {
	cases := []struct {
		recType string
		want    float64
	}{
		{"cross_segment_ctr_optimization", 65},
		{"age_conversion_rate_optimization", 60},
		{"gender_ctr_optimization", 60},
		{"device_ctr_optimization", 55},
		{"region_ctr_optimization", 50},
		{models.RecTypeAdSetBudgetInefficiency, 80},
	}
	for _, c := range cases {
		if got := basePriority(c.recType); got != c.want {
			t.Errorf("basePriority(%q) = %v, want %v", c.recType, got, c.want)
		}
	}
}

func TestImprovementPct(t *testing.T) {
	if got := ImprovementPct(nil); got != 0 {
		t.Errorf("no recommendations = %v, want 0", got)
	}

	// One high budget finding: 2.0 * 1.2 * 1.0 * 2.5 = 6.
	one := ImprovementPct([]models.Recommendation{
		{Type: models.RecTypeCampaignBudgetInefficiency, Severity: models.SeverityHigh},
	})
	if one != 6 {
		t.Errorf("single finding = %v, want 6", one)
	}

	// A pile of high-severity findings must cap at 50.
	var many []models.Recommendation
	for i := 0; i < 40; i++ {
		many = append(many, models.Recommendation{
			Type:     models.RecTypeCampaignBudgetInefficiency,
			Severity: models.SeverityHigh,
		})
	}
	if got := ImprovementPct(many); got != 50 {
		t.Errorf("capped = %v, want 50", got)
	}
}

func TestTotalSavings(t *testing.T) {
	recs := []models.Recommendation{
		{PotentialSavings: 120},
		{PotentialSavings: 30.5},
		{},
	}
	if got := TotalSavings(recs); got != 150.5 {
		t.Errorf("TotalSavings = %v, want 150.5", got)
	}
}
