package models

// EfficiencyScore is the per-entity output of the budget scorer. Exactly one
// of the ID groups is the subject (campaign, ad set, or ad); the others give
// its ancestry. Index values use 100 as the peer-group average; 0 marks an
// index that could not be computed.
type EfficiencyScore struct {
	CampaignID   string `json:"campaign_id,omitempty"`
	CampaignName string `json:"campaign_name,omitempty"`
	AdSetID      string `json:"adset_id,omitempty"`
	AdSetName    string `json:"adset_name,omitempty"`
	AdID         string `json:"ad_id,omitempty"`
	AdName       string `json:"ad_name,omitempty"`

	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions float64 `json:"conversions"`

	CTR            float64 `json:"ctr"`
	CPM            float64 `json:"cpm"`
	CPC            float64 `json:"cpc"`
	ConversionRate float64 `json:"conversion_rate,omitempty"`
	CPA            float64 `json:"cpa,omitempty"`

	CTRIndex            float64 `json:"ctr_index"`
	CPMIndex            float64 `json:"cpm_index"`
	CPCIndex            float64 `json:"cpc_index"`
	ConversionRateIndex float64 `json:"conversion_rate_index,omitempty"`
	CPAIndex            float64 `json:"cpa_index,omitempty"`

	Score     float64 `json:"efficiency_score"`
	MainIssue string  `json:"main_issue,omitempty"`
}

// QuartileBucket summarizes one spend quartile of the account.
type QuartileBucket struct {
	Spend         float64 `json:"spend"`
	SpendPct      float64 `json:"spend_pct"`
	CampaignCount int     `json:"campaign_count"`
}

// Spend quartile labels, best performers first.
const (
	QuartileTop     = "top_25"
	QuartileMidHigh = "mid_high"
	QuartileMidLow  = "mid_low"
	QuartileBottom  = "bottom_25"
)

// SpendDistribution is the account-level quartile analysis: campaigns ranked
// by their best available performance metric and bucketed by cumulative
// spend percentage, not by campaign count.
type SpendDistribution struct {
	TotalSpend        float64                   `json:"total_spend"`
	PerformanceMetric string                    `json:"performance_metric"`
	Quartiles         map[string]QuartileBucket `json:"quartiles"`
}

// BudgetInsights bundles the budget scorer's findings.
type BudgetInsights struct {
	Campaigns    []EfficiencyScore  `json:"campaigns,omitempty"`
	AdSets       []EfficiencyScore  `json:"ad_sets,omitempty"`
	Ads          []EfficiencyScore  `json:"ads,omitempty"`
	Distribution *SpendDistribution `json:"budget_distribution,omitempty"`
}
