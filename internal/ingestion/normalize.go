// Package ingestion turns raw platform exports into the normalized account
// snapshot the analysis components consume. Platform payloads arrive as
// loosely typed JSON with per-platform field names; everything downstream
// works only with the normalized form.
package ingestion

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adscope/adscope/internal/models"
)

// Field name candidates, tried in order. The first candidate present
// anywhere in the dataset wins for the whole dataset.
var (
	conversionKeys = []string{"conversions", "purchases", "total_conversions"}
	revenueKeys    = []string{"revenue", "conversion_value", "purchase_value"}
	dateKeys       = []string{"date", "date_start"}
)

// tiktokRenames maps TikTok export field names onto the normalized schema.
var tiktokRenames = map[string]string{
	"ad_group_id":       "adset_id",
	"ad_group_name":     "adset_name",
	"total_conversions": "conversions",
	"conversion_value":  "revenue",
}

// Normalizer converts raw account exports into AccountSnapshots.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize builds an AccountSnapshot from a raw export payload. The payload
// is expected to carry "campaigns", "adsets" (or "ad_sets"), "ads" and
// "insights" lists; missing sections normalize to empty with a warning
// rather than failing the run. The input is never mutated.
func (n *Normalizer) Normalize(raw map[string]any, platform models.Platform) (*models.AccountSnapshot, error) {
	if raw == nil {
		return nil, fmt.Errorf("normalize: nil payload")
	}

	snap := &models.AccountSnapshot{Platform: platform}

	snap.Campaigns = n.normalizeCampaigns(listSection(raw, "campaigns"))
	snap.AdSets = n.normalizeAdSets(listSection(raw, "adsets", "ad_sets"), platform)
	snap.Ads = n.normalizeAds(listSection(raw, "ads"), platform)

	rows := listSection(raw, "insights")
	if rows == nil {
		n.logger.Warn("payload has no insights section", "platform", platform)
	}
	snap.Insights = n.normalizeInsights(rows, platform, snap)

	if snap.HasDates {
		sort.SliceStable(snap.Insights, func(i, j int) bool {
			return snap.Insights[i].Date.Before(snap.Insights[j].Date)
		})
	}

	n.logger.Info("account snapshot normalized",
		"platform", platform,
		"campaigns", len(snap.Campaigns),
		"adsets", len(snap.AdSets),
		"ads", len(snap.Ads),
		"insight_rows", len(snap.Insights),
		"has_conversions", snap.HasConversions,
		"has_revenue", snap.HasRevenue,
		"has_dates", snap.HasDates,
		"dimensions", snap.Dimensions,
	)

	return snap, nil
}

func (n *Normalizer) normalizeCampaigns(rows []map[string]any) []models.Campaign {
	out := make([]models.Campaign, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Campaign{
			ID:             asString(row["id"], row["campaign_id"]),
			Name:           asString(row["name"], row["campaign_name"]),
			Status:         asString(row["status"]),
			Objective:      asString(row["objective"]),
			DailyBudget:    asFloat(row["daily_budget"]),
			LifetimeBudget: asFloat(row["lifetime_budget"]),
		})
	}
	return out
}

func (n *Normalizer) normalizeAdSets(rows []map[string]any, platform models.Platform) []models.AdSet {
	out := make([]models.AdSet, 0, len(rows))
	for _, row := range rows {
		row = renameFields(row, platform)
		out = append(out, models.AdSet{
			ID:               asString(row["id"], row["adset_id"]),
			Name:             asString(row["name"], row["adset_name"]),
			CampaignID:       asString(row["campaign_id"]),
			Status:           asString(row["status"]),
			OptimizationGoal: asString(row["optimization_goal"]),
			DailyBudget:      asFloat(row["daily_budget"]),
		})
	}
	return out
}

func (n *Normalizer) normalizeAds(rows []map[string]any, platform models.Platform) []models.Ad {
	out := make([]models.Ad, 0, len(rows))
	for _, row := range rows {
		row = renameFields(row, platform)
		out = append(out, models.Ad{
			ID:         asString(row["id"], row["ad_id"]),
			Name:       asString(row["name"], row["ad_name"]),
			AdSetID:    asString(row["adset_id"]),
			CampaignID: asString(row["campaign_id"]),
			Status:     asString(row["status"]),
		})
	}
	return out
}

func (n *Normalizer) normalizeInsights(rows []map[string]any, platform models.Platform, snap *models.AccountSnapshot) []models.InsightRow {
	if len(rows) == 0 {
		return nil
	}

	// Resolve aliased column names against the union of all rows' keys.
	// Sparse exports carry a column on only some rows; the rows that lack
	// it coerce to zero values.
	renamed := make([]map[string]any, len(rows))
	union := make(map[string]any, len(rows[0]))
	for i, raw := range rows {
		renamed[i] = renameFields(raw, platform)
		for k := range renamed[i] {
			union[k] = nil
		}
	}
	convKey := resolveKey(union, conversionKeys)
	revKey := resolveKey(union, revenueKeys)
	dateKey := resolveKey(union, dateKeys)
	_, hasFreq := union["frequency"]

	snap.HasConversions = convKey != ""
	snap.HasRevenue = revKey != ""
	snap.HasFrequency = hasFreq
	snap.HasDates = dateKey != ""
	snap.Dimensions = presentDimensions(union)

	if !snap.HasConversions {
		n.logger.Warn("no conversion column found, conversion analysis will be skipped",
			"platform", platform, "tried", conversionKeys)
	}
	if !snap.HasDates {
		n.logger.Warn("no date column found, time-series analysis will be skipped",
			"platform", platform, "tried", dateKeys)
	}

	out := make([]models.InsightRow, 0, len(rows))
	for i, row := range renamed {
		ins := models.InsightRow{
			CampaignID:   asString(row["campaign_id"]),
			CampaignName: asString(row["campaign_name"]),
			AdSetID:      asString(row["adset_id"]),
			AdSetName:    asString(row["adset_name"]),
			AdID:         asString(row["ad_id"]),
			AdName:       asString(row["ad_name"]),
			Impressions:  asInt(row["impressions"]),
			Clicks:       asInt(row["clicks"]),
			Spend:        asFloat(row["spend"]),
			Reach:        asInt(row["reach"]),
		}
		if convKey != "" {
			ins.Conversions = asFloat(row[convKey])
		}
		if revKey != "" {
			ins.Revenue = asFloat(row[revKey])
		}
		if hasFreq {
			ins.Frequency = asFloat(row["frequency"])
		}
		if dateKey != "" {
			d, err := parseDate(row[dateKey])
			if err != nil {
				n.logger.Warn("insight row has unusable date, excluded from time-series analysis",
					"row", i, "error", err)
			} else {
				ins.Date = d
				ins.HasDate = true
			}
		}
		for _, dim := range snap.Dimensions {
			if v := asString(row[dim]); v != "" {
				if ins.Segments == nil {
					ins.Segments = make(map[string]string, len(snap.Dimensions))
				}
				ins.Segments[dim] = v
			}
		}
		out = append(out, ins)
	}
	return out
}

// renameFields applies platform field renames, returning a copy when any
// rename applies.
func renameFields(row map[string]any, platform models.Platform) map[string]any {
	if platform != models.PlatformTikTok {
		return row
	}
	renamed := make(map[string]any, len(row))
	for k, v := range row {
		if target, ok := tiktokRenames[k]; ok {
			k = target
		}
		renamed[k] = v
	}
	return renamed
}

// resolveKey returns the first candidate present in the key set, or "".
func resolveKey(keys map[string]any, candidates []string) string {
	for _, k := range candidates {
		if _, ok := keys[k]; ok {
			return k
		}
	}
	return ""
}

// presentDimensions returns the segment dimensions the key set carries, in
// canonical order.
func presentDimensions(keys map[string]any) []string {
	var dims []string
	for _, dim := range models.SegmentDimensions {
		if _, ok := keys[dim]; ok {
			dims = append(dims, dim)
		}
	}
	return dims
}

func listSection(raw map[string]any, keys ...string) []map[string]any {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			return nil
		}
		out := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// asString returns the first non-empty candidate rendered as a string.
// Numeric IDs in exports come through as JSON numbers.
func asString(vs ...any) string {
	for _, v := range vs {
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			return strconv.Itoa(t)
		case int64:
			return strconv.FormatInt(t, 10)
		}
	}
	return ""
}

// asFloat coerces a raw value to float64. Exports sometimes carry numbers
// as strings; unparseable or missing values coerce to 0.
func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asInt(v any) int64 {
	return int64(asFloat(v))
}

// parseDate accepts the date formats seen in platform exports.
func parseDate(v any) (time.Time, error) {
	s := asString(v)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
