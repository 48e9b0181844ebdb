// Package analysis implements the audit analytics core: creative fatigue
// detection, audience segment comparison, budget efficiency scoring, creative
// and trend analysis, and the synthesis of their findings into one
// prioritized recommendation list.
package analysis

import "fmt"

// Config holds the thresholds shared by the analysis components. Zero or
// out-of-range values are rejected at construction so a misconfigured
// analyzer never runs.
type Config struct {
	// Fatigue detection.
	FatigueMinDays             int     // distinct days of data required per ad
	FatigueConfidenceThreshold float64 // confidence at or above which an ad is fatigued

	// Audience segment analysis.
	MinSegmentSize  int64   // minimum summed impressions per segment group
	ConfidenceLevel float64 // significance level for z-tests, e.g. 0.95

	// Budget efficiency scoring.
	MinCampaignSpend float64
	MinAdSetSpend    float64
	MinDataThreshold int64 // impression floor; ad sets need half, ads a quarter

	// Creative analysis.
	CreativeMinImpressions int64

	// Trend analysis.
	TrendMinDays int
}

// DefaultConfig returns the standard production thresholds.
func DefaultConfig() Config {
	return Config{
		FatigueMinDays:             5,
		FatigueConfidenceThreshold: 0.90,
		MinSegmentSize:             100,
		ConfidenceLevel:            0.95,
		MinCampaignSpend:           100,
		MinAdSetSpend:              50,
		MinDataThreshold:           1000,
		CreativeMinImpressions:     1000,
		TrendMinDays:               14,
	}
}

// Validate checks every threshold is in a usable range.
func (c Config) Validate() error {
	if c.FatigueMinDays < 2 {
		return fmt.Errorf("analysis config: fatigue min days must be >= 2, got %d", c.FatigueMinDays)
	}
	if c.FatigueConfidenceThreshold <= 0 || c.FatigueConfidenceThreshold > 1 {
		return fmt.Errorf("analysis config: fatigue confidence threshold must be in (0, 1], got %v", c.FatigueConfidenceThreshold)
	}
	if c.MinSegmentSize < 1 {
		return fmt.Errorf("analysis config: min segment size must be >= 1, got %d", c.MinSegmentSize)
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("analysis config: confidence level must be in (0, 1), got %v", c.ConfidenceLevel)
	}
	if c.MinCampaignSpend < 0 || c.MinAdSetSpend < 0 {
		return fmt.Errorf("analysis config: minimum spend thresholds must be >= 0")
	}
	if c.MinDataThreshold < 1 {
		return fmt.Errorf("analysis config: min data threshold must be >= 1, got %d", c.MinDataThreshold)
	}
	if c.CreativeMinImpressions < 1 {
		return fmt.Errorf("analysis config: creative min impressions must be >= 1, got %d", c.CreativeMinImpressions)
	}
	if c.TrendMinDays < 2 {
		return fmt.Errorf("analysis config: trend min days must be >= 2, got %d", c.TrendMinDays)
	}
	return nil
}
