package analysis

import (
	"log/slog"

	"github.com/adscope/adscope/internal/insight"
	"github.com/adscope/adscope/internal/models"
)

// Analyzer runs the full analysis pass over one account snapshot. Each
// component is isolated: a panic inside one skips its findings and the rest
// of the audit still completes.
type Analyzer struct {
	fatigue  *FatigueDetector
	audience *AudienceAnalyzer
	budget   *BudgetAnalyzer
	creative *CreativeAnalyzer
	trends   *TrendAnalyzer
	logger   *slog.Logger
}

// NewAnalyzer constructs the analyzer and all components. Invalid
// configuration fails here, never mid-run.
func NewAnalyzer(cfg Config, logger *slog.Logger) (*Analyzer, error) {
	fatigue, err := NewFatigueDetector(cfg, logger)
	if err != nil {
		return nil, err
	}
	audience, err := NewAudienceAnalyzer(cfg, logger)
	if err != nil {
		return nil, err
	}
	budget, err := NewBudgetAnalyzer(cfg, logger)
	if err != nil {
		return nil, err
	}
	creative, err := NewCreativeAnalyzer(cfg, logger)
	if err != nil {
		return nil, err
	}
	trends, err := NewTrendAnalyzer(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		fatigue:  fatigue,
		audience: audience,
		budget:   budget,
		creative: creative,
		trends:   trends,
		logger:   logger,
	}, nil
}

// Result is the complete analytical output for one snapshot, before the
// audit service wraps it in its run envelope.
type Result struct {
	Overview        models.AccountOverview
	Insights        models.AuditInsights
	Recommendations []models.Recommendation
	Metrics         models.AuditMetrics

	PotentialSavings        float64
	PotentialImprovementPct float64
}

// Analyze runs every component over the snapshot and synthesizes one
// prioritized recommendation list.
func (a *Analyzer) Analyze(snap *models.AccountSnapshot) Result {
	result := Result{Overview: a.overview(snap)}
	var recs []models.Recommendation

	a.runComponent("budget_efficiency", func() {
		budgetInsights, budgetRecs := a.budget.Analyze(snap)
		if budgetInsights == nil {
			return
		}
		result.Insights.BudgetEfficiency = budgetInsights
		result.Metrics.BudgetEfficiency = budgetMetrics(budgetInsights, budgetRecs)
		recs = append(recs, budgetRecs...)
	})

	a.runComponent("audience_targeting", func() {
		audienceInsights, audienceRecs := a.audience.Analyze(snap)
		if audienceInsights == nil {
			return
		}
		result.Insights.AudienceTargeting = audienceInsights
		result.Metrics.AudienceTargeting = audienceMetrics(audienceInsights, audienceRecs)
		recs = append(recs, audienceRecs...)
	})

	a.runComponent("ad_fatigue", func() {
		assessments := a.fatigue.Analyze(snap)
		var fatigued []models.FatigueAssessment
		for _, as := range assessments {
			if as.IsFatigued {
				fatigued = append(fatigued, as)
			}
		}
		if len(fatigued) == 0 {
			return
		}
		result.Insights.AdFatigue = fatigued
		result.Metrics.AdFatigue = fatigueMetrics(fatigued)
		recs = append(recs, fatigueRecommendations(fatigued)...)
	})

	a.runComponent("creative_performance", func() {
		creativeInsights, creativeRecs := a.creative.Analyze(snap)
		if creativeInsights == nil {
			return
		}
		result.Insights.CreativePerformance = creativeInsights
		result.Metrics.CreativePerformance = creativeMetrics(creativeInsights)
		recs = append(recs, creativeRecs...)
	})

	a.runComponent("kpi_trends", func() {
		trendInsights, trendRecs := a.trends.Analyze(snap)
		if trendInsights == nil {
			return
		}
		result.Insights.Trends = trendInsights
		recs = append(recs, trendRecs...)
	})

	result.Recommendations = Prioritize(recs)
	result.PotentialSavings = TotalSavings(result.Recommendations)
	result.PotentialImprovementPct = ImprovementPct(result.Recommendations)

	a.logger.Info("analysis complete",
		"recommendations", len(result.Recommendations),
		"potential_savings", result.PotentialSavings,
		"improvement_pct", result.PotentialImprovementPct)
	return result
}

// runComponent isolates one component so a panic degrades the audit to
// partial findings instead of failing it.
func (a *Analyzer) runComponent(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("analysis component panicked, findings dropped",
				"component", name, "panic", r)
		}
	}()
	fn()
}

// overview aggregates the whole snapshot into account totals, rates and
// entity counts. Undefined cost metrics report as 0 at this boundary.
func (a *Analyzer) overview(snap *models.AccountSnapshot) models.AccountOverview {
	totals := accountTotals(snap.Insights)
	rates := insight.Derive(totals)

	ov := models.AccountOverview{
		TotalSpend:       totals.Spend,
		TotalImpressions: totals.Impressions,
		TotalClicks:      totals.Clicks,
		TotalConversions: totals.Conversions,
		TotalRevenue:     totals.Revenue,
		CTR:              rates.CTR,
		CPC:              insight.Sanitize(rates.CPC),
		CPM:              rates.CPM,
		ConversionRate:   rates.ConversionRate,
		CPA:              insight.Sanitize(rates.CPA),
		ROAS:             rates.ROAS,
		TotalCampaigns:   len(snap.Campaigns),
		TotalAdSets:      len(snap.AdSets),
		TotalAds:         len(snap.Ads),
	}
	for _, c := range snap.Campaigns {
		if models.IsActive(c.Status) {
			ov.ActiveCampaigns++
		}
	}
	for _, as := range snap.AdSets {
		if models.IsActive(as.Status) {
			ov.ActiveAdSets++
		}
	}
	for _, ad := range snap.Ads {
		if models.IsActive(ad.Status) {
			ov.ActiveAds++
		}
	}
	return ov
}

func budgetMetrics(insights *models.BudgetInsights, recs []models.Recommendation) *models.BudgetMetricsSummary {
	return &models.BudgetMetricsSummary{
		EstimatedSavings:    TotalSavings(recs),
		InefficientEntities: len(recs),
		EntityCounts: map[string]int{
			"campaigns": len(insights.Campaigns),
			"ad_sets":   len(insights.AdSets),
			"ads":       len(insights.Ads),
		},
	}
}

func audienceMetrics(insights *models.AudienceInsights, recs []models.Recommendation) *models.AudienceMetricsSummary {
	m := &models.AudienceMetricsSummary{
		SegmentsAnalyzed:    len(insights.Segments),
		RecommendationCount: len(recs),
	}
	for _, seg := range insights.Segments {
		for _, st := range seg.Stats {
			if st.IsSignificant {
				m.SignificantFindings++
			}
		}
	}
	if insights.CrossSegment != nil && insights.CrossSegment.SignificantFindings {
		m.SignificantFindings++
	}
	return m
}

func fatigueMetrics(fatigued []models.FatigueAssessment) *models.FatigueMetricsSummary {
	m := &models.FatigueMetricsSummary{FatiguedAdsCount: len(fatigued)}
	var confidences []float64
	for _, a := range fatigued {
		confidences = append(confidences, a.Confidence)
		switch a.Severity {
		case models.FatigueSevere:
			m.SevereFatigueCount++
		case models.FatigueModerate:
			m.ModerateFatigueCount++
		}
	}
	m.AvgConfidence = insight.MeanValid(confidences)
	return m
}

func creativeMetrics(insights *models.CreativeInsights) *models.CreativeMetricsSummary {
	m := &models.CreativeMetricsSummary{
		AdsAnalyzed:           insights.TotalAdsAnalyzed,
		TopPerformersCount:    len(insights.TopPerformers),
		BottomPerformersCount: len(insights.BottomPerformers),
	}
	m.CTRGapPct = performerGap(insights, func(p models.CreativePerformer) float64 { return p.CTR })
	m.ConversionRateGapPct = performerGap(insights, func(p models.CreativePerformer) float64 { return p.ConversionRate })
	return m
}

// performerGap is the percentage gap between the mean top and mean bottom
// performer values for one metric.
func performerGap(insights *models.CreativeInsights, value func(models.CreativePerformer) float64) float64 {
	var top, bottom []float64
	for _, p := range insights.TopPerformers {
		top = append(top, value(p))
	}
	for _, p := range insights.BottomPerformers {
		bottom = append(bottom, value(p))
	}
	topAvg, bottomAvg := insight.MeanValid(top), insight.MeanValid(bottom)
	if bottomAvg <= 0 {
		return 0
	}
	return (topAvg - bottomAvg) / bottomAvg * 100
}
