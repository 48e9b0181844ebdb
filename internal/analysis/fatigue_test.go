package analysis

import (
	"log/slog"
	"testing"
	"time"

	"github.com/adscope/adscope/internal/models"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

// dailyAdSnapshot builds a snapshot with one ad and one insight row per day.
func dailyAdSnapshot(adID string, days []models.InsightRow) *models.AccountSnapshot {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	hasFreq := false
	for i := range days {
		days[i].AdID = adID
		days[i].CampaignID = "c1"
		days[i].Date = start.AddDate(0, 0, i)
		days[i].HasDate = true
		if days[i].Frequency > 0 {
			hasFreq = true
		}
	}
	return &models.AccountSnapshot{
		Platform:     models.PlatformFacebook,
		Ads:          []models.Ad{{ID: adID, Name: "Test Ad", Status: "ACTIVE"}},
		Insights:     days,
		HasDates:     true,
		HasFrequency: hasFreq,
	}
}

// decliningAdDays produces a two-week series with steadily falling CTR,
// rising frequency and rising CPC.
func decliningAdDays(n int) []models.InsightRow {
	rows := make([]models.InsightRow, n)
	for i := 0; i < n; i++ {
		clicks := int64(500 - i*30)
		rows[i] = models.InsightRow{
			Impressions: 10000,
			Clicks:      clicks,
			Spend:       100 + float64(i)*10,
			Frequency:   1.5 + float64(i)*0.2,
		}
	}
	return rows
}

func TestFatigueDetectsMonotonicDecline(t *testing.T) {
	d, err := NewFatigueDetector(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewFatigueDetector: %v", err)
	}

	snap := dailyAdSnapshot("ad1", decliningAdDays(14))
	assessments := d.Analyze(snap)
	if len(assessments) != 1 {
		t.Fatalf("got %d assessments, want 1", len(assessments))
	}

	a := assessments[0]
	if !a.IsFatigued {
		t.Fatalf("declining ad not flagged fatigued, confidence=%v signals=%+v", a.Confidence, a.Signals)
	}
	if a.Confidence < 0.90 {
		t.Errorf("confidence = %v, want >= 0.90", a.Confidence)
	}
	if a.Severity != models.FatigueSevere {
		t.Errorf("severity = %q, want severe", a.Severity)
	}
	if a.DaysRunning != 14 {
		t.Errorf("days running = %d, want 14", a.DaysRunning)
	}
	if a.Recommendation == "" {
		t.Error("fatigued ad has no recommendation text")
	}
	if reg := a.Signals.CTRRegression; reg == nil || !reg.Significant || reg.Slope >= 0 {
		t.Errorf("ctr regression = %+v, want significant decline", reg)
	}
	if corr := a.Signals.FrequencyCTRCorrelation; corr == nil || *corr >= -0.3 {
		t.Errorf("frequency correlation = %v, want < -0.3", corr)
	}
}

func TestFatigueIgnoresFlatSeries(t *testing.T) {
	d, err := NewFatigueDetector(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewFatigueDetector: %v", err)
	}

	rows := make([]models.InsightRow, 14)
	for i := range rows {
		rows[i] = models.InsightRow{Impressions: 10000, Clicks: 400, Spend: 100}
	}
	assessments := d.Analyze(dailyAdSnapshot("ad1", rows))
	if len(assessments) != 1 {
		t.Fatalf("got %d assessments, want 1", len(assessments))
	}
	if assessments[0].IsFatigued {
		t.Errorf("flat series flagged as fatigued, confidence=%v", assessments[0].Confidence)
	}
	if assessments[0].Confidence != 0 {
		t.Errorf("confidence = %v, want 0", assessments[0].Confidence)
	}
}

func TestFatigueRequiresMinimumDays(t *testing.T) {
	d, err := NewFatigueDetector(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewFatigueDetector: %v", err)
	}

	assessments := d.Analyze(dailyAdSnapshot("ad1", decliningAdDays(4)))
	if len(assessments) != 0 {
		t.Errorf("ad with 4 days of data was assessed: %+v", assessments)
	}
}

func TestFatigueShortRunDampensConfidence(t *testing.T) {
	d, err := NewFatigueDetector(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewFatigueDetector: %v", err)
	}

	// Seven days of strong decline: signals fire but the day factor halves
	// the confidence, keeping it under the threshold.
	assessments := d.Analyze(dailyAdSnapshot("ad1", decliningAdDays(7)))
	if len(assessments) != 1 {
		t.Fatalf("got %d assessments, want 1", len(assessments))
	}
	a := assessments[0]
	if a.Confidence > 0.5+1e-9 {
		t.Errorf("confidence = %v, want <= 0.5 for a 7-day run", a.Confidence)
	}
	if a.IsFatigued {
		t.Error("7-day run flagged fatigued despite day-factor damping")
	}
}

func TestFatigueVelocityNeedsLongerRun(t *testing.T) {
	d, err := NewFatigueDetector(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewFatigueDetector: %v", err)
	}

	// Six days clears the assessment minimum but not the velocity gate.
	assessments := d.Analyze(dailyAdSnapshot("ad1", decliningAdDays(6)))
	if len(assessments) != 1 {
		t.Fatalf("got %d assessments, want 1", len(assessments))
	}
	if assessments[0].Signals.RecentCTRVelocity != nil {
		t.Errorf("6-day run produced a velocity signal: %v",
			*assessments[0].Signals.RecentCTRVelocity)
	}

	assessments = d.Analyze(dailyAdSnapshot("ad2", decliningAdDays(7)))
	if len(assessments) != 1 {
		t.Fatalf("got %d assessments, want 1", len(assessments))
	}
	v := assessments[0].Signals.RecentCTRVelocity
	if v == nil {
		t.Fatal("7-day run produced no velocity signal")
	}
	if *v >= 0 {
		t.Errorf("velocity = %v, want negative for a declining series", *v)
	}
}

func TestFatigueSkippedWithoutDates(t *testing.T) {
	d, err := NewFatigueDetector(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewFatigueDetector: %v", err)
	}
	snap := &models.AccountSnapshot{
		Insights: []models.InsightRow{{AdID: "ad1", Impressions: 1000, Clicks: 50}},
	}
	if got := d.Analyze(snap); got != nil {
		t.Errorf("undated snapshot produced assessments: %+v", got)
	}
}

func TestFatigueRecommendations(t *testing.T) {
	assessments := []models.FatigueAssessment{
		{AdID: "ad1", IsFatigued: true, Severity: models.FatigueSevere, Confidence: 1.0, Spend: 500, Recommendation: "pause"},
		{AdID: "ad2", IsFatigued: true, Severity: models.FatigueModerate, Confidence: 0.95, Spend: 0, Recommendation: "refresh"},
		{AdID: "ad3", IsFatigued: false},
	}

	recs := fatigueRecommendations(assessments)
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	if recs[0].Severity != models.SeverityHigh || recs[0].PotentialSavings != 500*0.9*1.0 {
		t.Errorf("severe rec = %+v", recs[0])
	}
	// Zero observed spend falls back to the default spend assumption.
	if recs[1].Severity != models.SeverityMedium || recs[1].PotentialSavings != 100*0.5*0.95 {
		t.Errorf("moderate rec = %+v", recs[1])
	}
	for _, r := range recs {
		if r.Type != models.RecTypeAdFatigue {
			t.Errorf("rec type = %q", r.Type)
		}
	}
}

func TestFatigueConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FatigueConfidenceThreshold = 1.5
	if _, err := NewFatigueDetector(cfg, testLogger()); err == nil {
		t.Error("invalid confidence threshold accepted")
	}
	cfg = DefaultConfig()
	cfg.FatigueMinDays = 0
	if _, err := NewFatigueDetector(cfg, testLogger()); err == nil {
		t.Error("invalid min days accepted")
	}
}
