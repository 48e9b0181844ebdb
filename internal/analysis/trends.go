package analysis

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/adscope/adscope/internal/insight"
	"github.com/adscope/adscope/internal/models"
)

// trendAlertPct is the worsening percentage beyond which a trend produces a
// recommendation.
const trendAlertPct = 10

// TrendAnalyzer compares account KPIs between the first and second half of
// the observed window.
type TrendAnalyzer struct {
	cfg    Config
	logger *slog.Logger
}

// NewTrendAnalyzer creates a trend analyzer. Config must be valid.
func NewTrendAnalyzer(cfg Config, logger *slog.Logger) (*TrendAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TrendAnalyzer{cfg: cfg, logger: logger}, nil
}

// Analyze requires a dated window spanning at least the configured minimum
// of distinct days; shorter windows produce no result.
func (t *TrendAnalyzer) Analyze(snap *models.AccountSnapshot) (*models.TrendInsights, []models.Recommendation) {
	daily := snap.DailyInsights()
	if len(daily) == 0 {
		return nil, nil
	}

	byDate := make(map[time.Time]*insight.Totals)
	for i := range daily {
		row := &daily[i]
		tot, ok := byDate[row.Date]
		if !ok {
			tot = &insight.Totals{}
			byDate[row.Date] = tot
		}
		addRow(tot, row)
	}
	if len(byDate) < t.cfg.TrendMinDays {
		t.logger.Info("trend analysis skipped, window too short",
			"days", len(byDate), "required", t.cfg.TrendMinDays)
		return nil, nil
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	half := len(dates) / 2
	firstCTR, firstCPA := halfRates(byDate, dates[:half])
	secondCTR, secondCPA := halfRates(byDate, dates[half:])

	insights := &models.TrendInsights{Trends: make(map[string]models.MetricTrend)}
	var recs []models.Recommendation

	ctrTrend := buildTrend(firstCTR, secondCTR, false)
	insights.Trends[metricCTR] = ctrTrend
	if !ctrTrend.IsImproving && ctrTrend.PercentChange < -trendAlertPct {
		recs = append(recs, models.Recommendation{
			Type:     models.RecTypeCTRTrend,
			Severity: models.SeverityMedium,
			Message: fmt.Sprintf("Account CTR fell %.1f%% between the first and second half of the window (%.2f%% to %.2f%%). Review recent creative and targeting changes.",
				-ctrTrend.PercentChange, ctrTrend.FirstHalfAvg, ctrTrend.SecondHalfAvg),
			Metric:        metricCTR,
			DifferencePct: ctrTrend.PercentChange,
		})
	}

	if snap.HasConversions && insight.Valid(firstCPA) && insight.Valid(secondCPA) && firstCPA > 0 {
		cpaTrend := buildTrend(firstCPA, secondCPA, true)
		insights.Trends[metricCPA] = cpaTrend
		if !cpaTrend.IsImproving && cpaTrend.PercentChange > trendAlertPct {
			recs = append(recs, models.Recommendation{
				Type:     models.RecTypeCPATrend,
				Severity: models.SeverityMedium,
				Message: fmt.Sprintf("Account CPA rose %.1f%% between the first and second half of the window (%.2f to %.2f). Tighten bids or audiences before the drift compounds.",
					cpaTrend.PercentChange, cpaTrend.FirstHalfAvg, cpaTrend.SecondHalfAvg),
				Metric:        metricCPA,
				DifferencePct: cpaTrend.PercentChange,
			})
		}
	}

	t.logger.Info("trend analysis complete",
		"days", len(dates), "trends", len(insights.Trends), "recommendations", len(recs))
	return insights, recs
}

// halfRates derives CTR and CPA over the pooled totals of one half of the
// window.
func halfRates(byDate map[time.Time]*insight.Totals, dates []time.Time) (ctr, cpa float64) {
	var pooled insight.Totals
	for _, d := range dates {
		tot := byDate[d]
		pooled.Impressions += tot.Impressions
		pooled.Clicks += tot.Clicks
		pooled.Spend += tot.Spend
		pooled.Conversions += tot.Conversions
	}
	return insight.CTR(pooled.Clicks, pooled.Impressions), insight.CPA(pooled.Spend, pooled.Conversions)
}

func buildTrend(first, second float64, lowerIsBetter bool) models.MetricTrend {
	trend := models.MetricTrend{FirstHalfAvg: first, SecondHalfAvg: second}
	if first != 0 {
		trend.PercentChange = (second - first) / first * 100
	}
	if lowerIsBetter {
		trend.IsImproving = second <= first
	} else {
		trend.IsImproving = second >= first
	}
	return trend
}
