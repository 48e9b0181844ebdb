package models

import "time"

// AccountOverview aggregates the whole snapshot into account-level totals
// and rates.
type AccountOverview struct {
	TotalSpend       float64 `json:"total_spend"`
	TotalImpressions int64   `json:"total_impressions"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalConversions float64 `json:"total_conversions"`
	TotalRevenue     float64 `json:"total_revenue"`

	CTR            float64 `json:"ctr"`
	CPC            float64 `json:"cpc"`
	CPM            float64 `json:"cpm"`
	ConversionRate float64 `json:"conversion_rate"`
	CPA            float64 `json:"cpa"`
	ROAS           float64 `json:"roas"`

	TotalCampaigns  int `json:"total_campaigns,omitempty"`
	ActiveCampaigns int `json:"active_campaigns,omitempty"`
	TotalAdSets     int `json:"total_ad_sets,omitempty"`
	ActiveAdSets    int `json:"active_ad_sets,omitempty"`
	TotalAds        int `json:"total_ads,omitempty"`
	ActiveAds       int `json:"active_ads,omitempty"`
}

// CreativePerformer is one entry in the creative top/bottom lists.
type CreativePerformer struct {
	AdID           string  `json:"ad_id"`
	AdName         string  `json:"ad_name"`
	Impressions    int64   `json:"impressions,omitempty"`
	Clicks         int64   `json:"clicks"`
	Conversions    float64 `json:"conversions,omitempty"`
	CTR            float64 `json:"ctr,omitempty"`
	ConversionRate float64 `json:"conversion_rate,omitempty"`
	Metric         string  `json:"metric"`
}

// CreativeInsights is the creative performance analysis result.
type CreativeInsights struct {
	TotalAdsAnalyzed int                 `json:"total_ads_analyzed"`
	TopPerformers    []CreativePerformer `json:"top_performers"`
	BottomPerformers []CreativePerformer `json:"bottom_performers"`
}

// MetricTrend compares the first and second half of the lookback window for
// one KPI.
type MetricTrend struct {
	FirstHalfAvg  float64 `json:"first_half_avg"`
	SecondHalfAvg float64 `json:"second_half_avg"`
	PercentChange float64 `json:"percent_change"`
	IsImproving   bool    `json:"is_improving"`
}

// TrendInsights maps KPI name to its half-over-half trend. Only present when
// the window spans at least 14 days of data.
type TrendInsights struct {
	Trends map[string]MetricTrend `json:"trends"`
}

// AuditInsights holds per-component findings, keyed by component in the
// serialized form. Nil components produced no findings.
type AuditInsights struct {
	BudgetEfficiency    *BudgetInsights     `json:"budget_efficiency,omitempty"`
	AudienceTargeting   *AudienceInsights   `json:"audience_targeting,omitempty"`
	AdFatigue           []FatigueAssessment `json:"ad_fatigue,omitempty"`
	CreativePerformance *CreativeInsights   `json:"creative_performance,omitempty"`
	Trends              *TrendInsights      `json:"kpi_trends,omitempty"`
}

// BudgetMetricsSummary condenses the budget analysis for reporting.
type BudgetMetricsSummary struct {
	EstimatedSavings    float64        `json:"estimated_savings"`
	InefficientEntities int            `json:"inefficient_entities"`
	EntityCounts        map[string]int `json:"entity_counts"`
}

// AudienceMetricsSummary condenses the audience analysis for reporting.
type AudienceMetricsSummary struct {
	SegmentsAnalyzed    int `json:"segments_analyzed"`
	SignificantFindings int `json:"significant_findings"`
	RecommendationCount int `json:"recommendation_count"`
}

// FatigueMetricsSummary condenses the fatigue analysis for reporting.
type FatigueMetricsSummary struct {
	FatiguedAdsCount     int     `json:"fatigued_ads_count"`
	AvgConfidence        float64 `json:"avg_confidence"`
	SevereFatigueCount   int     `json:"severe_fatigue_count"`
	ModerateFatigueCount int     `json:"moderate_fatigue_count"`
}

// CreativeMetricsSummary condenses the creative analysis for reporting.
type CreativeMetricsSummary struct {
	AdsAnalyzed           int     `json:"ads_analyzed"`
	TopPerformersCount    int     `json:"top_performers_count"`
	BottomPerformersCount int     `json:"bottom_performers_count"`
	CTRGapPct             float64 `json:"ctr_gap_pct,omitempty"`
	ConversionRateGapPct  float64 `json:"conversion_rate_gap_pct,omitempty"`
}

// AuditMetrics holds per-component summary statistics.
type AuditMetrics struct {
	BudgetEfficiency    *BudgetMetricsSummary   `json:"budget_efficiency,omitempty"`
	AudienceTargeting   *AudienceMetricsSummary `json:"audience_targeting,omitempty"`
	AdFatigue           *FatigueMetricsSummary  `json:"ad_fatigue,omitempty"`
	CreativePerformance *CreativeMetricsSummary `json:"creative_performance,omitempty"`
}

// AuditSummary is the list-view projection of a stored audit.
type AuditSummary struct {
	ID                  string    `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	ClientName          string    `json:"client_name"`
	Platform            Platform  `json:"platform"`
	Success             bool      `json:"success"`
	PotentialSavings    float64   `json:"potential_savings"`
	RecommendationCount int       `json:"recommendation_count"`
}

// AuditResult is the complete output contract of one audit run. It is what
// gets cached on disk, persisted, and served over the API. Every numeric
// value is JSON-native: undefined cost metrics are reported as 0, never NaN.
type AuditResult struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ClientName string    `json:"client_name"`
	AgencyName string    `json:"agency_name,omitempty"`
	Platform   Platform  `json:"platform"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	AccountOverview   AccountOverview  `json:"account_overview"`
	Insights          AuditInsights    `json:"insights"`
	Recommendations   []Recommendation `json:"recommendations"`
	AIRecommendations []Recommendation `json:"ai_recommendations,omitempty"`
	Metrics           AuditMetrics     `json:"metrics"`

	PotentialSavings        float64 `json:"potential_savings"`
	PotentialImprovementPct float64 `json:"potential_improvement_percentage"`
}
