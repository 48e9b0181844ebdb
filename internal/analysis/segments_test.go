package analysis

import (
	"math"
	"testing"

	"github.com/adscope/adscope/internal/models"
)

func genderRow(gender string, impressions, clicks int64, spend, conversions float64) models.InsightRow {
	return models.InsightRow{
		CampaignID:  "c1",
		Impressions: impressions,
		Clicks:      clicks,
		Spend:       spend,
		Conversions: conversions,
		Segments:    map[string]string{models.DimensionGender: gender},
	}
}

func TestAudienceFindsGenderGap(t *testing.T) {
	a, err := NewAudienceAnalyzer(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewAudienceAnalyzer: %v", err)
	}

	// Female CTR 5.0%, male CTR 2.1%: a 138% gap.
	snap := &models.AccountSnapshot{
		Insights: []models.InsightRow{
			genderRow("female", 10000, 500, 300, 0),
			genderRow("male", 10000, 210, 400, 0),
		},
		Dimensions: []string{models.DimensionGender},
	}

	insights, recs := a.Analyze(snap)
	if insights == nil {
		t.Fatal("no insights returned")
	}
	gender := insights.Segments[models.DimensionGender]
	if gender == nil {
		t.Fatal("gender dimension missing")
	}
	if len(gender.SegmentMetrics) != 2 {
		t.Fatalf("segment metrics = %d, want 2", len(gender.SegmentMetrics))
	}
	if !gender.SignificantFindings {
		t.Error("large CTR gap not statistically significant")
	}

	bw, ok := gender.BestWorst[metricCTR]
	if !ok {
		t.Fatal("no best/worst for ctr")
	}
	if bw.Best.Segment != "female" || bw.Worst.Segment != "male" {
		t.Errorf("best/worst = %q/%q", bw.Best.Segment, bw.Worst.Segment)
	}
	if math.Abs(bw.DifferencePct-138.095238) > 0.01 {
		t.Errorf("difference = %v, want ~138.1", bw.DifferencePct)
	}

	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1: %+v", len(recs), recs)
	}
	rec := recs[0]
	if rec.Severity != models.SeverityHigh {
		t.Errorf("severity = %q, want high for a >100%% gap", rec.Severity)
	}
	if rec.Type != "gender_ctr_optimization" {
		t.Errorf("type = %q", rec.Type)
	}
	// Worst segment spend 400 at the top savings tier.
	if math.Abs(rec.PotentialSavings-400*0.40) > 1e-9 {
		t.Errorf("savings = %v, want 160", rec.PotentialSavings)
	}
}

func TestAudienceMinSegmentSizeBoundary(t *testing.T) {
	a, err := NewAudienceAnalyzer(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewAudienceAnalyzer: %v", err)
	}

	// "small" sits exactly one impression under the floor and must vanish;
	// "edge" sits exactly at it and must stay.
	snap := &models.AccountSnapshot{
		Insights: []models.InsightRow{
			genderRow("big", 10000, 300, 100, 0),
			genderRow("edge", 100, 5, 10, 0),
			genderRow("small", 99, 5, 10, 0),
		},
		Dimensions: []string{models.DimensionGender},
	}

	insights, _ := a.Analyze(snap)
	if insights == nil {
		t.Fatal("no insights returned")
	}
	metrics := insights.Segments[models.DimensionGender].SegmentMetrics
	seen := map[string]bool{}
	for _, m := range metrics {
		seen[m.Segment] = true
	}
	if seen["small"] {
		t.Error("segment below min size appeared in output")
	}
	if !seen["edge"] || !seen["big"] {
		t.Errorf("qualifying segments missing: %v", seen)
	}
}

func TestAudienceSkipsSingleValuedDimension(t *testing.T) {
	a, err := NewAudienceAnalyzer(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewAudienceAnalyzer: %v", err)
	}

	snap := &models.AccountSnapshot{
		Insights: []models.InsightRow{
			genderRow("female", 10000, 300, 100, 0),
			genderRow("female", 8000, 250, 90, 0),
		},
		Dimensions: []string{models.DimensionGender},
	}

	insights, recs := a.Analyze(snap)
	if insights != nil || recs != nil {
		t.Errorf("single-valued dimension produced output: %+v %+v", insights, recs)
	}
}

func TestAudienceCPAExcludesUndefined(t *testing.T) {
	a, err := NewAudienceAnalyzer(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewAudienceAnalyzer: %v", err)
	}

	// "none" has zero conversions: undefined CPA, excluded from the CPA
	// best/worst even though its segment row stays in the output.
	snap := &models.AccountSnapshot{
		Insights: []models.InsightRow{
			genderRow("cheap", 10000, 400, 100, 20),
			genderRow("costly", 10000, 400, 400, 10),
			genderRow("none", 10000, 400, 300, 0),
		},
		Dimensions:     []string{models.DimensionGender},
		HasConversions: true,
	}

	insights, _ := a.Analyze(snap)
	if insights == nil {
		t.Fatal("no insights returned")
	}
	gender := insights.Segments[models.DimensionGender]
	if len(gender.SegmentMetrics) != 3 {
		t.Fatalf("segment metrics = %d, want 3", len(gender.SegmentMetrics))
	}

	bw, ok := gender.BestWorst[metricCPA]
	if !ok {
		t.Fatal("no best/worst for cpa")
	}
	if bw.Best.Segment != "cheap" || bw.Worst.Segment != "costly" {
		t.Errorf("cpa best/worst = %q/%q, want cheap/costly", bw.Best.Segment, bw.Worst.Segment)
	}
}

func TestAudienceCrossSegment(t *testing.T) {
	a, err := NewAudienceAnalyzer(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewAudienceAnalyzer: %v", err)
	}

	row := func(age, gender string, impressions, clicks int64, spend float64) models.InsightRow {
		return models.InsightRow{
			CampaignID:  "c1",
			Impressions: impressions,
			Clicks:      clicks,
			Spend:       spend,
			Segments: map[string]string{
				models.DimensionAge:    age,
				models.DimensionGender: gender,
			},
		}
	}

	snap := &models.AccountSnapshot{
		Insights: []models.InsightRow{
			row("25-34", "female", 10000, 600, 200),
			row("25-34", "male", 10000, 300, 200),
			row("35-44", "female", 10000, 350, 200),
			row("35-44", "male", 10000, 150, 200),
		},
		Dimensions: []string{models.DimensionAge, models.DimensionGender},
	}

	insights, recs := a.Analyze(snap)
	if insights == nil || insights.CrossSegment == nil {
		t.Fatal("no cross-segment analysis returned")
	}
	cross := insights.CrossSegment
	if len(cross.Metrics) != 4 {
		t.Fatalf("cross metrics = %d, want 4", len(cross.Metrics))
	}
	if top := cross.TopSegments[metricCTR]; len(top) == 0 || top[0].Segment != "25-34 | female" {
		t.Errorf("top segment = %+v", top)
	}
	// 6.0% vs 1.5% is a 300% gap, beyond the 50% heuristic.
	if !cross.SignificantFindings {
		t.Error("300%% cross-segment gap not flagged significant")
	}

	foundCross := false
	for _, r := range recs {
		if r.Type == "cross_segment_ctr_optimization" {
			foundCross = true
			if r.WorstSegment != "35-44 | male" {
				t.Errorf("worst cross segment = %q", r.WorstSegment)
			}
		}
	}
	if !foundCross {
		t.Error("no cross-segment recommendation produced")
	}
}
