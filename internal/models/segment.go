package models

// SegmentMetric is the aggregated performance of one segment value within a
// dimension (or a combined value for cross-dimension analysis). Cost metrics
// that could not be computed (zero conversions, zero clicks) are reported as
// 0 here; analyzers track validity separately so undefined CPAs never win a
// best/worst comparison.
type SegmentMetric struct {
	Segment     string  `json:"segment"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	Conversions float64 `json:"conversions,omitempty"`

	CTR            float64 `json:"ctr"`
	ConversionRate float64 `json:"conversion_rate,omitempty"`
	CPA            float64 `json:"cpa,omitempty"`
	CPM            float64 `json:"cpm"`
	CPC            float64 `json:"cpc,omitempty"`

	// Index values relative to the dimension-wide average, 100 = average.
	CTRIndex            float64 `json:"ctr_index,omitempty"`
	ConversionRateIndex float64 `json:"conversion_rate_index,omitempty"`
	CPAIndex            float64 `json:"cpa_index,omitempty"`
}

// SegmentStat is one z-test of a segment metric against the account-wide
// baseline.
type SegmentStat struct {
	SegmentType   string  `json:"segment_type"`
	SegmentValue  string  `json:"segment_value"`
	Metric        string  `json:"metric"`
	SegmentMetric float64 `json:"segment_metric"`
	OverallMetric float64 `json:"overall_metric"`
	DifferencePct float64 `json:"difference_pct"`
	ZScore        float64 `json:"z_score"`
	PValue        float64 `json:"p_value"`
	IsSignificant bool    `json:"is_significant"`
}

// SegmentRef points at one segment inside a best/worst comparison.
type SegmentRef struct {
	Segment     string  `json:"segment"`
	Value       float64 `json:"value"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
}

// BestWorst pairs the extremes of one metric across a dimension's segments.
type BestWorst struct {
	Best          SegmentRef `json:"best"`
	Worst         SegmentRef `json:"worst"`
	DifferencePct float64    `json:"difference_pct"`
}

// SegmentAnalysis is the full single-dimension result for one segment
// dimension.
type SegmentAnalysis struct {
	SegmentMetrics      []SegmentMetric      `json:"segment_metrics"`
	Stats               []SegmentStat        `json:"segment_stats"`
	BestWorst           map[string]BestWorst `json:"best_worst"`
	SignificantFindings bool                 `json:"significant_findings"`
	MetricsAnalyzed     []string             `json:"metrics_analyzed"`
}

// CrossSegmentAnalysis is the combined two-dimension (age x gender) result.
type CrossSegmentAnalysis struct {
	Dimensions          []string                   `json:"dimensions"`
	Metrics             []SegmentMetric            `json:"cross_segment_metrics"`
	TopSegments         map[string][]SegmentMetric `json:"top_segments"`
	BottomSegments      map[string][]SegmentMetric `json:"bottom_segments"`
	SignificantFindings bool                       `json:"significant_findings"`
}

// AudienceInsights bundles everything the audience analyzer found.
type AudienceInsights struct {
	Segments     map[string]*SegmentAnalysis `json:"segments"`
	CrossSegment *CrossSegmentAnalysis       `json:"age_gender,omitempty"`
}
