// Package insight derives performance rates from raw delivery totals. It is
// pure computation shared by every analysis component, so the zero and
// undefined cases are pinned down here once.
package insight

import "math"

// Totals are raw delivery sums over some slice of the account.
type Totals struct {
	Spend       float64
	Impressions int64
	Clicks      int64
	Conversions float64
	Revenue     float64
}

// Rates are the standard performance metrics derived from Totals.
//
// Volume-normalized rates (CTR, CPM, ConversionRate, ROAS) are 0 when their
// denominator is zero: no delivery means no measurable rate. Cost-per-result
// metrics (CPA, CPC) are NaN when there are no results, because spend with
// zero conversions is not free, it is undefined and must not enter averages
// or best/worst ranking. Callers serializing Rates must replace NaN before
// encoding.
type Rates struct {
	CTR            float64 `json:"ctr"`
	CPC            float64 `json:"cpc"`
	CPM            float64 `json:"cpm"`
	ConversionRate float64 `json:"conversion_rate"`
	CPA            float64 `json:"cpa"`
	ROAS           float64 `json:"roas"`
}

// Derive computes all standard rates from the given totals.
func Derive(t Totals) Rates {
	return Rates{
		CTR:            CTR(t.Clicks, t.Impressions),
		CPC:            CPC(t.Spend, t.Clicks),
		CPM:            CPM(t.Spend, t.Impressions),
		ConversionRate: ConversionRate(t.Conversions, t.Clicks),
		CPA:            CPA(t.Spend, t.Conversions),
		ROAS:           ROAS(t.Revenue, t.Spend),
	}
}

// CTR is clicks per impression, as a percentage. 0 with no impressions.
func CTR(clicks, impressions int64) float64 {
	if impressions == 0 {
		return 0
	}
	return float64(clicks) / float64(impressions) * 100
}

// CPC is spend per click. NaN with no clicks.
func CPC(spend float64, clicks int64) float64 {
	if clicks == 0 {
		return math.NaN()
	}
	return spend / float64(clicks)
}

// CPM is spend per thousand impressions. 0 with no impressions.
func CPM(spend float64, impressions int64) float64 {
	if impressions == 0 {
		return 0
	}
	return spend / float64(impressions) * 1000
}

// ConversionRate is conversions per click, as a percentage. 0 with no
// clicks.
func ConversionRate(conversions float64, clicks int64) float64 {
	if clicks == 0 {
		return 0
	}
	return conversions / float64(clicks) * 100
}

// CPA is spend per conversion. NaN with no conversions.
func CPA(spend, conversions float64) float64 {
	if conversions == 0 {
		return math.NaN()
	}
	return spend / conversions
}

// ROAS is revenue per unit of spend. 0 with no spend.
func ROAS(revenue, spend float64) float64 {
	if spend == 0 {
		return 0
	}
	return revenue / spend
}

// Valid reports whether a metric value is usable in averages and rankings.
func Valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Sanitize replaces NaN and Inf with 0 for JSON-safe output.
func Sanitize(v float64) float64 {
	if !Valid(v) {
		return 0
	}
	return v
}

// MeanValid averages the usable values in vs, skipping NaN and Inf. It
// returns 0 when nothing is usable.
func MeanValid(vs []float64) float64 {
	var sum float64
	var n int
	for _, v := range vs {
		if Valid(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
