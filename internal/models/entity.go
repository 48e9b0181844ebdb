package models

// Platform identifies the ad platform a snapshot was exported from.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformGeneric   Platform = "generic"
)

// Campaign is the static metadata for an ad campaign.
type Campaign struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	Objective      string  `json:"objective,omitempty"`
	DailyBudget    float64 `json:"daily_budget,omitempty"`
	LifetimeBudget float64 `json:"lifetime_budget,omitempty"`
}

// AdSet is the static metadata for an ad set (TikTok: ad group, renamed
// during normalization).
type AdSet struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	CampaignID       string  `json:"campaign_id"`
	Status           string  `json:"status"`
	OptimizationGoal string  `json:"optimization_goal,omitempty"`
	DailyBudget      float64 `json:"daily_budget,omitempty"`
}

// Ad is the static metadata for a single ad creative placement.
type Ad struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AdSetID    string `json:"adset_id"`
	CampaignID string `json:"campaign_id,omitempty"`
	Status     string `json:"status"`
}

// IsActive reports whether an entity status counts as active. Platforms
// disagree on casing.
func IsActive(status string) bool {
	return status == "ACTIVE" || status == "active"
}
