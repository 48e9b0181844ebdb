package models

// FatigueSeverity classifies how advanced creative fatigue is for an ad.
type FatigueSeverity string

const (
	FatigueModerate FatigueSeverity = "moderate"
	FatigueSevere   FatigueSeverity = "severe"
)

// Regression holds ordinary-least-squares results for one tracked metric
// against day number.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	PValue    float64 `json:"p_value"`
	// Significant is decline for CTR/conversion rate, increase for CPC.
	Significant bool `json:"significant"`
	// PctChange is the predicted percentage change over the run, only
	// present when the regression intercept is non-zero.
	PctChange    float64 `json:"pct_change,omitempty"`
	HasPctChange bool    `json:"has_pct_change,omitempty"`
}

// FatigueSignals collects the per-metric evidence behind a fatigue call.
// Nil pointers mean the signal could not be evaluated for this ad.
type FatigueSignals struct {
	CTRRegression           *Regression `json:"ctr_regression,omitempty"`
	ConversionRegression    *Regression `json:"conversion_regression,omitempty"`
	CPCRegression           *Regression `json:"cpc_regression,omitempty"`
	FrequencyCTRCorrelation *float64    `json:"frequency_ctr_correlation,omitempty"`
	RecentCTRVelocity       *float64    `json:"recent_ctr_velocity,omitempty"`
}

// FatigueAssessment is the per-ad result of fatigue detection.
type FatigueAssessment struct {
	AdID           string          `json:"ad_id"`
	AdName         string          `json:"ad_name"`
	IsFatigued     bool            `json:"is_fatigued"`
	Confidence     float64         `json:"confidence"`
	DaysRunning    int             `json:"days_running"`
	Severity       FatigueSeverity `json:"severity,omitempty"`
	Spend          float64         `json:"spend"`
	Signals        FatigueSignals  `json:"metrics"`
	Recommendation string          `json:"recommendation,omitempty"`
}
