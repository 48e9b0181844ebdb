package models

import "time"

// Segment dimension names recognized during normalization. Order matters:
// analyzers report dimensions in this order.
const (
	DimensionAge            = "age"
	DimensionGender         = "gender"
	DimensionDevice         = "device"
	DimensionPlatform       = "platform"
	DimensionPlacement      = "placement"
	DimensionRegion         = "region"
	DimensionCountry        = "country"
	DimensionDevicePlatform = "device_platform"
)

// SegmentDimensions lists every dimension the audience analyzer understands.
var SegmentDimensions = []string{
	DimensionAge,
	DimensionGender,
	DimensionDevice,
	DimensionPlatform,
	DimensionPlacement,
	DimensionRegion,
	DimensionCountry,
	DimensionDevicePlatform,
}

// InsightRow is one performance observation for a (campaign, ad set, ad)
// tuple, optionally on a specific date and broken down by segment values.
// All platform-specific field names are resolved before a row is built, so
// analyzers never see raw connector naming.
type InsightRow struct {
	CampaignID   string `json:"campaign_id,omitempty"`
	CampaignName string `json:"campaign_name,omitempty"`
	AdSetID      string `json:"adset_id,omitempty"`
	AdSetName    string `json:"adset_name,omitempty"`
	AdID         string `json:"ad_id,omitempty"`
	AdName       string `json:"ad_name,omitempty"`

	Date    time.Time `json:"date,omitempty"`
	HasDate bool      `json:"-"`

	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue,omitempty"`
	Frequency   float64 `json:"frequency,omitempty"`
	Reach       int64   `json:"reach,omitempty"`

	// Segments maps dimension name to value, e.g. {"age": "25-34"}.
	Segments map[string]string `json:"segments,omitempty"`
}

// Segment returns the row's value for one dimension, or "" when the row
// carries no breakdown for it.
func (r *InsightRow) Segment(dimension string) string {
	if r.Segments == nil {
		return ""
	}
	return r.Segments[dimension]
}

// AccountSnapshot is the normalized, self-contained input for one audit run.
// Analyzers must not mutate it; each audit receives its own copy from the
// normalization boundary, so runs for different accounts can proceed in
// parallel.
type AccountSnapshot struct {
	Platform  Platform     `json:"platform"`
	Campaigns []Campaign   `json:"campaigns"`
	AdSets    []AdSet      `json:"ad_sets"`
	Ads       []Ad         `json:"ads"`
	Insights  []InsightRow `json:"insights"`

	// Column presence flags, set while normalizing. A zero value in a row is
	// ambiguous on its own: these record whether the source data carried the
	// column at all.
	HasConversions bool `json:"has_conversions"`
	HasRevenue     bool `json:"has_revenue"`
	HasFrequency   bool `json:"has_frequency"`
	HasDates       bool `json:"has_dates"`

	// Dimensions seen in at least one insight row.
	Dimensions []string `json:"dimensions,omitempty"`
}

// HasDimension reports whether any row carried a breakdown for the dimension.
func (s *AccountSnapshot) HasDimension(dimension string) bool {
	for _, d := range s.Dimensions {
		if d == dimension {
			return true
		}
	}
	return false
}

// DailyInsights returns the rows that carry calendar dates, the subset the
// fatigue detector can work with.
func (s *AccountSnapshot) DailyInsights() []InsightRow {
	if !s.HasDates {
		return nil
	}
	daily := make([]InsightRow, 0, len(s.Insights))
	for _, row := range s.Insights {
		if row.HasDate {
			daily = append(daily, row)
		}
	}
	return daily
}
