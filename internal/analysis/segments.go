package analysis

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/adscope/adscope/internal/insight"
	"github.com/adscope/adscope/internal/models"
	"github.com/adscope/adscope/internal/stats"
)

const (
	segmentGapThreshold  = 30  // minimum best-vs-worst gap to recommend, percent
	crossGapThreshold    = 50  // heuristic significance for combined segments
	majorGapThreshold    = 100 // above this, reallocate rather than optimize
	crossTopBottomCount  = 3
	metricCTR            = "ctr"
	metricConversionRate = "conversion_rate"
	metricCPA            = "cpa"
)

// AudienceAnalyzer compares performance across audience segment dimensions
// and flags statistically significant gaps.
type AudienceAnalyzer struct {
	cfg    Config
	logger *slog.Logger
}

// NewAudienceAnalyzer creates an audience analyzer. Config must be valid.
func NewAudienceAnalyzer(cfg Config, logger *slog.Logger) (*AudienceAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &AudienceAnalyzer{cfg: cfg, logger: logger}, nil
}

// segGroup accumulates raw sums for one segment value.
type segGroup struct {
	impressions int64
	clicks      int64
	spend       float64
	conversions float64
}

// Analyze runs the per-dimension comparisons, plus the combined age and
// gender breakdown when both dimensions are present. It returns nil insights
// when no dimension qualifies.
func (a *AudienceAnalyzer) Analyze(snap *models.AccountSnapshot) (*models.AudienceInsights, []models.Recommendation) {
	overall := accountTotals(snap.Insights)
	if overall.Impressions == 0 {
		a.logger.Info("audience analysis skipped, no impressions")
		return nil, nil
	}

	insights := &models.AudienceInsights{Segments: make(map[string]*models.SegmentAnalysis)}
	var recs []models.Recommendation

	for _, dim := range snap.Dimensions {
		analysis, dimRecs := a.analyzeDimension(snap, dim, overall)
		if analysis == nil {
			continue
		}
		insights.Segments[dim] = analysis
		recs = append(recs, dimRecs...)
	}

	if snap.HasDimension(models.DimensionAge) && snap.HasDimension(models.DimensionGender) {
		cross, crossRecs := a.analyzeCrossSegment(snap)
		insights.CrossSegment = cross
		recs = append(recs, crossRecs...)
	}

	if len(insights.Segments) == 0 && insights.CrossSegment == nil {
		return nil, nil
	}

	a.logger.Info("audience analysis complete",
		"dimensions", len(insights.Segments),
		"recommendations", len(recs))
	return insights, recs
}

func (a *AudienceAnalyzer) analyzeDimension(snap *models.AccountSnapshot, dim string, overall insight.Totals) (*models.SegmentAnalysis, []models.Recommendation) {
	groups := a.groupRows(snap.Insights, func(row *models.InsightRow) string {
		return row.Segment(dim)
	})
	if len(groups) < 2 {
		// A single-valued dimension carries no comparative signal.
		return nil, nil
	}

	overallRates := insight.Derive(overall)
	metrics := a.segmentMetrics(groups, overallRates)
	if len(metrics) < 2 {
		a.logger.Debug("dimension skipped, fewer than two qualifying segments",
			"dimension", dim)
		return nil, nil
	}

	analyzed := []string{metricCTR}
	if snap.HasConversions {
		analyzed = append(analyzed, metricConversionRate, metricCPA)
	}

	analysis := &models.SegmentAnalysis{
		SegmentMetrics:  metrics,
		BestWorst:       make(map[string]models.BestWorst),
		MetricsAnalyzed: analyzed,
	}

	for _, m := range metrics {
		analysis.Stats = append(analysis.Stats,
			a.zTest(dim, m.Segment, metricCTR, m.CTR, overallRates.CTR, m.Impressions))
		if snap.HasConversions {
			analysis.Stats = append(analysis.Stats,
				a.zTest(dim, m.Segment, metricConversionRate, m.ConversionRate, overallRates.ConversionRate, m.Clicks))
		}
	}
	for _, st := range analysis.Stats {
		if st.IsSignificant {
			analysis.SignificantFindings = true
			break
		}
	}

	var recs []models.Recommendation
	for _, metric := range analyzed {
		bw, ok := bestWorst(metrics, metric)
		if !ok {
			continue
		}
		analysis.BestWorst[metric] = bw
		if bw.DifferencePct >= segmentGapThreshold {
			recs = append(recs, segmentRecommendation(dim, metric, bw))
		}
	}

	return analysis, recs
}

// groupRows sums raw delivery per segment value and drops groups below the
// minimum impression size.
func (a *AudienceAnalyzer) groupRows(rows []models.InsightRow, keyFn func(*models.InsightRow) string) map[string]*segGroup {
	groups := make(map[string]*segGroup)
	for i := range rows {
		key := keyFn(&rows[i])
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &segGroup{}
			groups[key] = g
		}
		g.impressions += rows[i].Impressions
		g.clicks += rows[i].Clicks
		g.spend += rows[i].Spend
		g.conversions += rows[i].Conversions
	}
	for key, g := range groups {
		if g.impressions < a.cfg.MinSegmentSize {
			delete(groups, key)
		}
	}
	return groups
}

// segmentMetrics derives rates and indices for each qualifying group,
// sorted by segment name for stable output.
func (a *AudienceAnalyzer) segmentMetrics(groups map[string]*segGroup, overall insight.Rates) []models.SegmentMetric {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]models.SegmentMetric, 0, len(names))
	for _, name := range names {
		g := groups[name]
		rates := insight.Derive(insight.Totals{
			Spend:       g.spend,
			Impressions: g.impressions,
			Clicks:      g.clicks,
			Conversions: g.conversions,
		})
		m := models.SegmentMetric{
			Segment:        name,
			Impressions:    g.impressions,
			Clicks:         g.clicks,
			Spend:          g.spend,
			Conversions:    g.conversions,
			CTR:            rates.CTR,
			ConversionRate: rates.ConversionRate,
			CPA:            insight.Sanitize(rates.CPA),
			CPM:            rates.CPM,
			CPC:            insight.Sanitize(rates.CPC),
		}
		// Indices: 100 = account average, higher is better for all three,
		// so the CPA ratio is inverted.
		if overall.CTR > 0 {
			m.CTRIndex = m.CTR / overall.CTR * 100
		}
		if overall.ConversionRate > 0 {
			m.ConversionRateIndex = m.ConversionRate / overall.ConversionRate * 100
		}
		if insight.Valid(rates.CPA) && insight.Valid(overall.CPA) && rates.CPA > 0 {
			m.CPAIndex = overall.CPA / rates.CPA * 100
		}
		out = append(out, m)
	}
	return out
}

// zTest compares a segment rate against the account-wide rate, treating the
// rate as a Bernoulli proportion over n trials.
func (a *AudienceAnalyzer) zTest(dim, segment, metric string, segValue, overallValue float64, n int64) models.SegmentStat {
	st := models.SegmentStat{
		SegmentType:   dim,
		SegmentValue:  segment,
		Metric:        metric,
		SegmentMetric: segValue,
		OverallMetric: overallValue,
	}
	if overallValue > 0 {
		st.DifferencePct = (segValue - overallValue) / overallValue * 100
	}

	p := overallValue / 100
	if n == 0 || p <= 0 || p >= 1 {
		return st
	}
	se := math.Sqrt(p * (1 - p) / float64(n))
	if se == 0 {
		return st
	}
	st.ZScore = (segValue - overallValue) / (se * 100)
	st.PValue = 2 * (1 - stats.NormalCDF(math.Abs(st.ZScore)))
	st.IsSignificant = st.PValue < 1-a.cfg.ConfidenceLevel
	return st
}

// bestWorst finds the extreme segments for a metric. CPA ranks inverted and
// segments with no computable CPA are excluded entirely.
func bestWorst(metrics []models.SegmentMetric, metric string) (models.BestWorst, bool) {
	type candidate struct {
		m     models.SegmentMetric
		value float64
	}
	var candidates []candidate
	for _, m := range metrics {
		v := metricValue(m, metric)
		if metric == metricCPA && v <= 0 {
			continue
		}
		candidates = append(candidates, candidate{m: m, value: v})
	}
	if len(candidates) < 2 {
		return models.BestWorst{}, false
	}

	lowerIsBetter := metric == metricCPA
	best, worst := candidates[0], candidates[0]
	for _, c := range candidates[1:] {
		better := c.value > best.value
		worse := c.value < worst.value
		if lowerIsBetter {
			better = c.value < best.value
			worse = c.value > worst.value
		}
		if better {
			best = c
		}
		if worse {
			worst = c
		}
	}

	bw := models.BestWorst{
		Best:  segmentRef(best.m, best.value),
		Worst: segmentRef(worst.m, worst.value),
	}
	if lowerIsBetter {
		if best.value > 0 {
			bw.DifferencePct = (worst.value - best.value) / best.value * 100
		}
	} else if worst.value > 0 {
		bw.DifferencePct = (best.value - worst.value) / worst.value * 100
	}
	return bw, bw.DifferencePct > 0
}

func segmentRef(m models.SegmentMetric, value float64) models.SegmentRef {
	return models.SegmentRef{
		Segment:     m.Segment,
		Value:       value,
		Spend:       m.Spend,
		Impressions: m.Impressions,
	}
}

func metricValue(m models.SegmentMetric, metric string) float64 {
	switch metric {
	case metricCTR:
		return m.CTR
	case metricConversionRate:
		return m.ConversionRate
	case metricCPA:
		return m.CPA
	default:
		return 0
	}
}

// segmentSavingsRate tiers the savings estimate by gap size.
func segmentSavingsRate(gapPct float64) float64 {
	switch {
	case gapPct >= majorGapThreshold:
		return 0.40
	case gapPct >= 50:
		return 0.25
	default:
		return 0.15
	}
}

func segmentRecommendation(dim, metric string, bw models.BestWorst) models.Recommendation {
	severity := models.SeverityMedium
	action := fmt.Sprintf("Test creative and bidding adjustments for the %q segment", bw.Worst.Segment)
	if bw.DifferencePct >= majorGapThreshold {
		severity = models.SeverityHigh
		action = fmt.Sprintf("Shift budget from the %q segment toward %q", bw.Worst.Segment, bw.Best.Segment)
	}
	return models.Recommendation{
		Type:     fmt.Sprintf("%s_%s_optimization", dim, metric),
		Severity: severity,
		Message: fmt.Sprintf("%s performance differs %.0f%% between %s segments %q (%.2f) and %q (%.2f). %s.",
			strings.ToUpper(metric), bw.DifferencePct, dim,
			bw.Best.Segment, bw.Best.Value, bw.Worst.Segment, bw.Worst.Value, action),
		PotentialSavings: bw.Worst.Spend * segmentSavingsRate(bw.DifferencePct),
		SegmentType:      dim,
		BestSegment:      bw.Best.Segment,
		WorstSegment:     bw.Worst.Segment,
		Metric:           metric,
		BestValue:        bw.Best.Value,
		WorstValue:       bw.Worst.Value,
		DifferencePct:    bw.DifferencePct,
	}
}

// analyzeCrossSegment runs the combined age and gender breakdown. No z-test
// applies at this level: a gap above the heuristic threshold is treated as
// significant.
func (a *AudienceAnalyzer) analyzeCrossSegment(snap *models.AccountSnapshot) (*models.CrossSegmentAnalysis, []models.Recommendation) {
	groups := a.groupRows(snap.Insights, func(row *models.InsightRow) string {
		age := row.Segment(models.DimensionAge)
		gender := row.Segment(models.DimensionGender)
		if age == "" || gender == "" {
			return ""
		}
		return age + " | " + gender
	})
	if len(groups) < 2 {
		return nil, nil
	}

	overallRates := insight.Derive(accountTotals(snap.Insights))
	metrics := a.segmentMetrics(groups, overallRates)
	if len(metrics) < 2 {
		return nil, nil
	}

	analyzed := []string{metricCTR}
	if snap.HasConversions {
		analyzed = append(analyzed, metricConversionRate)
	}

	cross := &models.CrossSegmentAnalysis{
		Dimensions:     []string{models.DimensionAge, models.DimensionGender},
		Metrics:        metrics,
		TopSegments:    make(map[string][]models.SegmentMetric),
		BottomSegments: make(map[string][]models.SegmentMetric),
	}

	var recs []models.Recommendation
	for _, metric := range analyzed {
		ranked := make([]models.SegmentMetric, len(metrics))
		copy(ranked, metrics)
		sort.SliceStable(ranked, func(i, j int) bool {
			return metricValue(ranked[i], metric) > metricValue(ranked[j], metric)
		})
		top := crossTopBottomCount
		if top > len(ranked) {
			top = len(ranked)
		}
		cross.TopSegments[metric] = ranked[:top]
		cross.BottomSegments[metric] = ranked[len(ranked)-top:]

		bw, ok := bestWorst(metrics, metric)
		if !ok || bw.DifferencePct <= crossGapThreshold {
			continue
		}
		cross.SignificantFindings = true

		severity := models.SeverityMedium
		if bw.DifferencePct >= majorGapThreshold {
			severity = models.SeverityHigh
		}
		recs = append(recs, models.Recommendation{
			Type:     fmt.Sprintf("cross_segment_%s_optimization", metric),
			Severity: severity,
			Message: fmt.Sprintf("Combined age and gender %s differs %.0f%% between %q (%.2f) and %q (%.2f). Rebalance targeting toward the stronger combination.",
				strings.ToUpper(metric), bw.DifferencePct,
				bw.Best.Segment, bw.Best.Value, bw.Worst.Segment, bw.Worst.Value),
			PotentialSavings: bw.Worst.Spend * segmentSavingsRate(bw.DifferencePct),
			SegmentType:      "age_gender",
			BestSegment:      bw.Best.Segment,
			WorstSegment:     bw.Worst.Segment,
			Metric:           metric,
			BestValue:        bw.Best.Value,
			WorstValue:       bw.Worst.Value,
			DifferencePct:    bw.DifferencePct,
		})
	}

	return cross, recs
}

// accountTotals sums raw delivery over a full row set.
func accountTotals(rows []models.InsightRow) insight.Totals {
	var t insight.Totals
	for i := range rows {
		t.Impressions += rows[i].Impressions
		t.Clicks += rows[i].Clicks
		t.Spend += rows[i].Spend
		t.Conversions += rows[i].Conversions
		t.Revenue += rows[i].Revenue
	}
	return t
}
