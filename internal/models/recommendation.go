package models

// Severity grades how urgently a recommendation should be acted on.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Recommendation type tags. The synthesizer's priority table keys off these.
const (
	RecTypeBudgetAllocationImbalance  = "budget_allocation_imbalance"
	RecTypeCampaignBudgetInefficiency = "campaign_budget_inefficiency"
	RecTypeAdSetBudgetInefficiency    = "adset_budget_inefficiency"
	RecTypeAdFatigue                  = "ad_fatigue"
	RecTypeAdPerformanceInefficiency  = "ad_performance_inefficiency"
	RecTypeBottomCreativePausing      = "bottom_creative_pausing"
	RecTypeTopCreativeScaling         = "top_creative_scaling"
	RecTypeCTRTrend                   = "ctr_trend"
	RecTypeCPATrend                   = "cpa_trend"
)

// Recommendation is one actionable finding produced by an analyzer. Fields
// beyond the first block are populated depending on the type.
type Recommendation struct {
	Type             string   `json:"type"`
	Severity         Severity `json:"severity"`
	Message          string   `json:"recommendation"`
	PotentialSavings float64  `json:"potential_savings"`
	PriorityScore    float64  `json:"priority_score"`

	CampaignID   string `json:"campaign_id,omitempty"`
	CampaignName string `json:"campaign_name,omitempty"`
	AdSetID      string `json:"adset_id,omitempty"`
	AdSetName    string `json:"adset_name,omitempty"`
	AdID         string `json:"ad_id,omitempty"`
	AdName       string `json:"ad_name,omitempty"`

	// Audience segment findings.
	SegmentType   string  `json:"segment_type,omitempty"`
	BestSegment   string  `json:"best_segment,omitempty"`
	WorstSegment  string  `json:"worst_segment,omitempty"`
	Metric        string  `json:"metric,omitempty"`
	BestValue     float64 `json:"best_value,omitempty"`
	WorstValue    float64 `json:"worst_value,omitempty"`
	DifferencePct float64 `json:"difference_pct,omitempty"`

	// Efficiency findings.
	EfficiencyScore float64 `json:"efficiency_score,omitempty"`
	MainIssue       string  `json:"main_issue,omitempty"`

	// Fatigue findings.
	DaysRunning int     `json:"days_running,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}
