package ingestion

import (
	"log/slog"
	"testing"

	"github.com/adscope/adscope/internal/models"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(slog.Default())
}

func TestNormalizeBasicPayload(t *testing.T) {
	raw := map[string]any{
		"campaigns": []any{
			map[string]any{"id": "c1", "name": "Summer Sale", "status": "ACTIVE", "daily_budget": 100.0},
			map[string]any{"id": "c2", "name": "Brand Awareness", "status": "PAUSED"},
		},
		"adsets": []any{
			map[string]any{"id": "as1", "name": "Lookalike", "campaign_id": "c1", "status": "ACTIVE"},
		},
		"ads": []any{
			map[string]any{"id": "a1", "name": "Video A", "adset_id": "as1", "campaign_id": "c1", "status": "ACTIVE"},
		},
		"insights": []any{
			map[string]any{
				"campaign_id": "c1", "ad_id": "a1", "date": "2026-08-01",
				"impressions": 50000.0, "clicks": 2500.0, "spend": 1200.0,
				"conversions": 35.0, "revenue": 4200.0, "frequency": 2.1,
				"age": "25-34", "gender": "female",
			},
			map[string]any{
				"campaign_id": "c2", "date": "2026-08-02",
				"impressions": 100000.0, "clicks": 3000.0, "spend": 800.0,
				"conversions": 20.0, "revenue": 1000.0, "frequency": 1.4,
				"age": "35-44", "gender": "male",
			},
		},
	}

	snap, err := testNormalizer().Normalize(raw, models.PlatformFacebook)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if len(snap.Campaigns) != 2 || len(snap.AdSets) != 1 || len(snap.Ads) != 1 {
		t.Fatalf("entity counts = %d/%d/%d, want 2/1/1",
			len(snap.Campaigns), len(snap.AdSets), len(snap.Ads))
	}
	if !snap.HasConversions || !snap.HasRevenue || !snap.HasFrequency || !snap.HasDates {
		t.Errorf("presence flags = %v/%v/%v/%v, want all true",
			snap.HasConversions, snap.HasRevenue, snap.HasFrequency, snap.HasDates)
	}
	if !snap.HasDimension(models.DimensionAge) || !snap.HasDimension(models.DimensionGender) {
		t.Errorf("dimensions = %v, want age and gender", snap.Dimensions)
	}
	if snap.HasDimension(models.DimensionDevice) {
		t.Errorf("dimensions = %v, device should be absent", snap.Dimensions)
	}

	row := snap.Insights[0]
	if row.Impressions != 50000 || row.Clicks != 2500 || row.Spend != 1200 {
		t.Errorf("row totals = %d/%d/%v", row.Impressions, row.Clicks, row.Spend)
	}
	if row.Segment(models.DimensionAge) != "25-34" {
		t.Errorf("age segment = %q, want 25-34", row.Segment(models.DimensionAge))
	}
	if row.Date.Format("2006-01-02") != "2026-08-01" {
		t.Errorf("date = %v", row.Date)
	}
}

func TestNormalizeColumnAliases(t *testing.T) {
	raw := map[string]any{
		"insights": []any{
			map[string]any{
				"campaign_id": "c1", "date_start": "2026-08-01",
				"impressions": 1000.0, "clicks": 50.0, "spend": 20.0,
				"purchases": 3.0, "purchase_value": 90.0,
			},
		},
	}

	snap, err := testNormalizer().Normalize(raw, models.PlatformFacebook)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !snap.HasConversions {
		t.Error("purchases alias not resolved to conversions")
	}
	if !snap.HasRevenue {
		t.Error("purchase_value alias not resolved to revenue")
	}
	if !snap.HasDates {
		t.Error("date_start alias not resolved to date")
	}
	if snap.Insights[0].Conversions != 3 || snap.Insights[0].Revenue != 90 {
		t.Errorf("row = %+v", snap.Insights[0])
	}
}

func TestNormalizeTikTokRenames(t *testing.T) {
	raw := map[string]any{
		"adsets": []any{
			map[string]any{"ad_group_id": "g1", "ad_group_name": "Interest", "campaign_id": "c1"},
		},
		"insights": []any{
			map[string]any{
				"campaign_id": "c1", "ad_group_id": "g1", "ad_group_name": "Interest",
				"impressions": 500.0, "clicks": 25.0, "spend": 10.0,
				"total_conversions": 2.0, "conversion_value": 40.0,
			},
		},
	}

	snap, err := testNormalizer().Normalize(raw, models.PlatformTikTok)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if snap.AdSets[0].ID != "g1" || snap.AdSets[0].Name != "Interest" {
		t.Errorf("adset = %+v", snap.AdSets[0])
	}
	row := snap.Insights[0]
	if row.AdSetID != "g1" {
		t.Errorf("AdSetID = %q, want g1", row.AdSetID)
	}
	if !snap.HasConversions || row.Conversions != 2 {
		t.Errorf("conversions not renamed: %v %v", snap.HasConversions, row.Conversions)
	}
	if !snap.HasRevenue || row.Revenue != 40 {
		t.Errorf("revenue not renamed: %v %v", snap.HasRevenue, row.Revenue)
	}
}

func TestNormalizeMissingSections(t *testing.T) {
	snap, err := testNormalizer().Normalize(map[string]any{}, models.PlatformGeneric)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(snap.Campaigns) != 0 || len(snap.Insights) != 0 {
		t.Error("missing sections should normalize to empty")
	}
	if snap.HasConversions || snap.HasDates {
		t.Error("presence flags should be false with no insights")
	}

	if _, err := testNormalizer().Normalize(nil, models.PlatformGeneric); err == nil {
		t.Error("nil payload should error")
	}
}

func TestNormalizeStringNumbers(t *testing.T) {
	raw := map[string]any{
		"insights": []any{
			map[string]any{
				"campaign_id": "c1",
				"impressions": "1500", "clicks": "30", "spend": "12.50",
				"conversions": "oops",
			},
		},
	}

	snap, err := testNormalizer().Normalize(raw, models.PlatformFacebook)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	row := snap.Insights[0]
	if row.Impressions != 1500 || row.Clicks != 30 || row.Spend != 12.5 {
		t.Errorf("coerced totals = %d/%d/%v", row.Impressions, row.Clicks, row.Spend)
	}
	if row.Conversions != 0 {
		t.Errorf("unparseable conversions = %v, want 0", row.Conversions)
	}
}

func TestNormalizeSortsByDate(t *testing.T) {
	raw := map[string]any{
		"insights": []any{
			map[string]any{"campaign_id": "c1", "date": "2026-08-03", "impressions": 1.0},
			map[string]any{"campaign_id": "c1", "date": "2026-08-01", "impressions": 2.0},
			map[string]any{"campaign_id": "c1", "date": "2026-08-02", "impressions": 3.0},
		},
	}

	snap, err := testNormalizer().Normalize(raw, models.PlatformFacebook)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	for i := 1; i < len(snap.Insights); i++ {
		if snap.Insights[i].Date.Before(snap.Insights[i-1].Date) {
			t.Fatalf("insights not sorted by date: %v", snap.Insights)
		}
	}
}

func TestNormalizeKeepsRowsWithBadDates(t *testing.T) {
	raw := map[string]any{
		"insights": []any{
			map[string]any{"campaign_id": "c1", "date": "2026-08-01", "impressions": 1000.0},
			map[string]any{"campaign_id": "c1", "date": "not-a-date", "impressions": 2000.0},
			map[string]any{"campaign_id": "c1", "impressions": 3000.0},
		},
	}

	snap, err := testNormalizer().Normalize(raw, models.PlatformFacebook)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(snap.Insights) != 3 {
		t.Fatalf("got %d rows, want all 3 kept", len(snap.Insights))
	}
	if !snap.HasDates {
		t.Error("date column should still be detected")
	}

	var dated int
	for _, row := range snap.Insights {
		if row.HasDate {
			dated++
		}
	}
	if dated != 1 {
		t.Errorf("dated rows = %d, want 1", dated)
	}
	if daily := snap.DailyInsights(); len(daily) != 1 {
		t.Errorf("daily rows = %d, want 1", len(daily))
	}
}

func TestNormalizeResolvesColumnsAcrossRows(t *testing.T) {
	raw := map[string]any{
		"insights": []any{
			map[string]any{"campaign_id": "c1", "impressions": 1000.0, "clicks": 50.0},
			map[string]any{
				"campaign_id": "c1", "impressions": 2000.0, "clicks": 80.0,
				"conversions": 5.0, "age": "25-34",
			},
			map[string]any{
				"campaign_id": "c1", "impressions": 1500.0, "clicks": 60.0,
				"conversions": 4.0, "age": "35-44",
			},
		},
	}

	snap, err := testNormalizer().Normalize(raw, models.PlatformFacebook)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !snap.HasConversions {
		t.Error("conversion column present on later rows not detected")
	}
	if !snap.HasDimension(models.DimensionAge) {
		t.Errorf("dimensions = %v, want age", snap.Dimensions)
	}
	if snap.Insights[0].Conversions != 0 {
		t.Errorf("row without the column should read 0, got %v", snap.Insights[0].Conversions)
	}
	if snap.Insights[1].Conversions != 5 || snap.Insights[1].Segment(models.DimensionAge) != "25-34" {
		t.Errorf("row = %+v", snap.Insights[1])
	}
}
