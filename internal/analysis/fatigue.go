package analysis

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/adscope/adscope/internal/insight"
	"github.com/adscope/adscope/internal/models"
	"github.com/adscope/adscope/internal/stats"
)

const (
	regressionAlpha      = 0.1
	frequencyCorrCutoff  = -0.3
	severeConfidence     = 0.8
	velocityWindow       = 3
	fullConfidenceDays   = 14
	severeSavingsRate    = 0.9
	moderateSavingsRate  = 0.5
	fatigueFallbackSpend = 100
)

// FatigueDetector identifies ads whose performance is declining from
// audience over-exposure, by combining regression and correlation signals
// over each ad's daily time series.
type FatigueDetector struct {
	cfg    Config
	logger *slog.Logger
}

// NewFatigueDetector creates a fatigue detector. Config must be valid.
func NewFatigueDetector(cfg Config, logger *slog.Logger) (*FatigueDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FatigueDetector{cfg: cfg, logger: logger}, nil
}

// adDay is one calendar day of aggregated delivery for a single ad.
type adDay struct {
	date        time.Time
	impressions int64
	clicks      int64
	spend       float64
	conversions float64
	frequency   float64
	freqSamples int
}

// Analyze assesses every ad with enough dated history. Ads without dated
// rows, or with fewer than the minimum distinct days, are skipped. A failed
// computation for one ad never aborts the batch.
func (d *FatigueDetector) Analyze(snap *models.AccountSnapshot) []models.FatigueAssessment {
	if !snap.HasDates {
		d.logger.Info("fatigue analysis skipped, no dated insight rows")
		return nil
	}

	byAd := d.groupByAd(snap)
	adIDs := make([]string, 0, len(byAd))
	for id := range byAd {
		adIDs = append(adIDs, id)
	}
	sort.Strings(adIDs)

	var out []models.FatigueAssessment
	for _, adID := range adIDs {
		days := byAd[adID]
		if len(days) < d.cfg.FatigueMinDays {
			continue
		}
		assessment, err := d.assess(adID, days, snap)
		if err != nil {
			d.logger.Warn("fatigue assessment failed, skipping ad",
				"ad_id", adID, "error", err)
			continue
		}
		out = append(out, assessment)
	}

	fatigued := 0
	for _, a := range out {
		if a.IsFatigued {
			fatigued++
		}
	}
	d.logger.Info("fatigue analysis complete",
		"ads_assessed", len(out), "fatigued", fatigued)

	return out
}

func (d *FatigueDetector) groupByAd(snap *models.AccountSnapshot) map[string][]adDay {
	type adDateKey struct {
		adID string
		date time.Time
	}
	agg := make(map[adDateKey]*adDay)
	for _, row := range snap.Insights {
		if !row.HasDate || row.AdID == "" {
			continue
		}
		key := adDateKey{adID: row.AdID, date: row.Date}
		day, ok := agg[key]
		if !ok {
			day = &adDay{date: row.Date}
			agg[key] = day
		}
		day.impressions += row.Impressions
		day.clicks += row.Clicks
		day.spend += row.Spend
		day.conversions += row.Conversions
		if snap.HasFrequency && row.Frequency > 0 {
			day.frequency += row.Frequency
			day.freqSamples++
		}
	}

	byAd := make(map[string][]adDay)
	for key, day := range agg {
		if day.freqSamples > 0 {
			day.frequency /= float64(day.freqSamples)
		}
		byAd[key.adID] = append(byAd[key.adID], *day)
	}
	for adID := range byAd {
		days := byAd[adID]
		sort.Slice(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })
		byAd[adID] = days
	}
	return byAd
}

func (d *FatigueDetector) assess(adID string, days []adDay, snap *models.AccountSnapshot) (models.FatigueAssessment, error) {
	daysRunning := len(days)

	dayNums := make([]float64, daysRunning)
	ctrs := make([]float64, daysRunning)
	var totalSpend float64
	start := days[0].date
	for i, day := range days {
		dayNums[i] = day.date.Sub(start).Hours() / 24
		ctrs[i] = insight.CTR(day.clicks, day.impressions)
		totalSpend += day.spend
	}

	signals := models.FatigueSignals{}
	evaluable := 0
	fired := 0

	// CTR decline.
	ctrReg, err := d.regress(dayNums, ctrs, declineSignal)
	if err != nil {
		return models.FatigueAssessment{}, fmt.Errorf("ctr regression: %w", err)
	}
	signals.CTRRegression = ctrReg
	evaluable++
	if ctrReg.Significant {
		fired++
	}

	// Frequency correlation with CTR.
	if snap.HasFrequency {
		freqs := make([]float64, daysRunning)
		for i, day := range days {
			freqs[i] = day.frequency
		}
		if corr, err := stats.Pearson(freqs, ctrs); err == nil {
			signals.FrequencyCTRCorrelation = &corr
			evaluable++
			if corr < frequencyCorrCutoff {
				fired++
			}
		}
	}

	// Conversion rate decline.
	if snap.HasConversions {
		convRates := make([]float64, daysRunning)
		for i, day := range days {
			convRates[i] = insight.ConversionRate(day.conversions, day.clicks)
		}
		if reg, err := d.regress(dayNums, convRates, declineSignal); err == nil {
			signals.ConversionRegression = reg
			evaluable++
			if reg.Significant {
				fired++
			}
		}
	}

	// CPC increase. Days without clicks have no CPC and are dropped from
	// this series.
	var cpcX, cpcY []float64
	for i, day := range days {
		cpc := insight.CPC(day.spend, day.clicks)
		if insight.Valid(cpc) {
			cpcX = append(cpcX, dayNums[i])
			cpcY = append(cpcY, cpc)
		}
	}
	if len(cpcY) >= d.cfg.FatigueMinDays {
		if reg, err := d.regress(cpcX, cpcY, increaseSignal); err == nil {
			signals.CPCRegression = reg
			evaluable++
			if reg.Significant {
				fired++
			}
		}
	}

	// Recent CTR velocity from the moving average. The signal only counts
	// once the series runs at least two days past the regression minimum.
	if daysRunning >= d.cfg.FatigueMinDays+2 {
		if velocity, ok := recentVelocity(ctrs); ok {
			signals.RecentCTRVelocity = &velocity
			evaluable++
			if velocity < 0 {
				fired++
			}
		}
	}

	dayFactor := float64(daysRunning) / fullConfidenceDays
	if dayFactor > 1 {
		dayFactor = 1
	}
	confidence := float64(fired) / float64(evaluable) * dayFactor

	assessment := models.FatigueAssessment{
		AdID:        adID,
		AdName:      adName(adID, snap),
		IsFatigued:  confidence >= d.cfg.FatigueConfidenceThreshold,
		Confidence:  confidence,
		DaysRunning: daysRunning,
		Spend:       totalSpend,
		Signals:     signals,
	}
	if assessment.IsFatigued {
		if confidence > severeConfidence {
			assessment.Severity = models.FatigueSevere
		} else {
			assessment.Severity = models.FatigueModerate
		}
		assessment.Recommendation = fatigueAdvice(assessment)
	}
	return assessment, nil
}

type signalDirection int

const (
	declineSignal signalDirection = iota
	increaseSignal
)

// regress fits the series and marks significance by direction and p-value.
// The percent change over the observed window is derived from the fitted
// line; it is undefined when the fitted starting value is zero.
func (d *FatigueDetector) regress(x, y []float64, dir signalDirection) (*models.Regression, error) {
	ols, err := stats.LinRegress(x, y)
	if err != nil {
		return nil, err
	}
	reg := &models.Regression{
		Slope:     ols.Slope,
		Intercept: ols.Intercept,
		RSquared:  ols.R2,
		PValue:    ols.PValue,
	}
	switch dir {
	case declineSignal:
		reg.Significant = ols.Slope < 0 && ols.PValue < regressionAlpha
	case increaseSignal:
		reg.Significant = ols.Slope > 0 && ols.PValue < regressionAlpha
	}
	if ols.Intercept != 0 {
		last := x[len(x)-1]
		fittedEnd := ols.Intercept + ols.Slope*last
		reg.PctChange = (fittedEnd - ols.Intercept) / ols.Intercept * 100
		reg.HasPctChange = true
	}
	return reg, nil
}

// recentVelocity is the mean of the last three day-over-day deltas of the
// 3-day CTR moving average.
func recentVelocity(ctrs []float64) (float64, bool) {
	ma := stats.MovingAverage(ctrs, velocityWindow)
	if len(ma) < velocityWindow+1 {
		return 0, false
	}
	deltas := make([]float64, 0, len(ma)-1)
	for i := 1; i < len(ma); i++ {
		deltas = append(deltas, ma[i]-ma[i-1])
	}
	if len(deltas) > velocityWindow {
		deltas = deltas[len(deltas)-velocityWindow:]
	}
	return stats.Mean(deltas), true
}

func adName(adID string, snap *models.AccountSnapshot) string {
	for _, ad := range snap.Ads {
		if ad.ID == adID {
			return ad.Name
		}
	}
	for _, row := range snap.Insights {
		if row.AdID == adID && row.AdName != "" {
			return row.AdName
		}
	}
	return adID
}

func fatigueAdvice(a models.FatigueAssessment) string {
	action := "Refresh the creative or rotate in new variants"
	if a.Severity == models.FatigueSevere {
		action = "Pause this ad and replace the creative"
	}
	if reg := a.Signals.CTRRegression; reg != nil && reg.HasPctChange && reg.PctChange < 0 {
		return fmt.Sprintf("CTR declined %.1f%% over %d days. %s.",
			-reg.PctChange, a.DaysRunning, action)
	}
	return fmt.Sprintf("Fatigue signals detected over %d days. %s.", a.DaysRunning, action)
}

// fatigueRecommendations converts fatigued assessments into recommendation
// records. Savings scale with severity and confidence against the ad's
// observed spend.
func fatigueRecommendations(assessments []models.FatigueAssessment) []models.Recommendation {
	var recs []models.Recommendation
	for _, a := range assessments {
		if !a.IsFatigued {
			continue
		}
		severity := models.SeverityMedium
		rate := moderateSavingsRate
		if a.Severity == models.FatigueSevere {
			severity = models.SeverityHigh
			rate = severeSavingsRate
		}
		spend := a.Spend
		if spend <= 0 {
			spend = fatigueFallbackSpend
		}
		recs = append(recs, models.Recommendation{
			Type:             models.RecTypeAdFatigue,
			Severity:         severity,
			AdID:             a.AdID,
			AdName:           a.AdName,
			Message:          a.Recommendation,
			PotentialSavings: spend * rate * a.Confidence,
			DaysRunning:      a.DaysRunning,
			Confidence:       a.Confidence,
		})
	}
	return recs
}
