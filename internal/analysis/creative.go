package analysis

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/adscope/adscope/internal/insight"
	"github.com/adscope/adscope/internal/models"
)

const (
	creativeTopBottomCount = 3
	creativePauseFraction  = 0.3 // bottom ads under this fraction of the best
	creativePauseMinSpend  = 50
	creativePauseSavings   = 0.9
)

// CreativeAnalyzer ranks ad creatives account-wide and flags the weakest
// for pausing and the strongest for scaling.
type CreativeAnalyzer struct {
	cfg    Config
	logger *slog.Logger
}

// NewCreativeAnalyzer creates a creative analyzer. Config must be valid.
func NewCreativeAnalyzer(cfg Config, logger *slog.Logger) (*CreativeAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CreativeAnalyzer{cfg: cfg, logger: logger}, nil
}

type creativeAgg struct {
	id, name    string
	impressions int64
	clicks      int64
	spend       float64
	conversions float64
	metric      float64
}

// Analyze ranks ads with enough impressions by conversion rate when
// conversion data exists, otherwise by CTR.
func (c *CreativeAnalyzer) Analyze(snap *models.AccountSnapshot) (*models.CreativeInsights, []models.Recommendation) {
	sums := make(map[string]*creativeAgg)
	var order []string
	for i := range snap.Insights {
		row := &snap.Insights[i]
		if row.AdID == "" {
			continue
		}
		agg, ok := sums[row.AdID]
		if !ok {
			agg = &creativeAgg{id: row.AdID, name: row.AdName}
			sums[row.AdID] = agg
			order = append(order, row.AdID)
		}
		agg.impressions += row.Impressions
		agg.clicks += row.Clicks
		agg.spend += row.Spend
		agg.conversions += row.Conversions
	}

	metricName := metricCTR
	if snap.HasConversions {
		metricName = metricConversionRate
	}

	var ads []creativeAgg
	for _, id := range order {
		agg := sums[id]
		if agg.impressions < c.cfg.CreativeMinImpressions {
			continue
		}
		if metricName == metricConversionRate {
			agg.metric = insight.ConversionRate(agg.conversions, agg.clicks)
		} else {
			agg.metric = insight.CTR(agg.clicks, agg.impressions)
		}
		ads = append(ads, *agg)
	}
	if len(ads) < 2 {
		c.logger.Info("creative analysis skipped, fewer than two qualifying ads")
		return nil, nil
	}

	sort.SliceStable(ads, func(i, j int) bool { return ads[i].metric > ads[j].metric })

	n := creativeTopBottomCount
	if n > len(ads) {
		n = len(ads)
	}
	insights := &models.CreativeInsights{
		TotalAdsAnalyzed: len(ads),
		TopPerformers:    performers(ads[:n], metricName),
		BottomPerformers: performers(ads[len(ads)-n:], metricName),
	}

	best := ads[0]
	var recs []models.Recommendation
	paused := 0
	for _, ad := range ads[len(ads)-n:] {
		if ad.id == best.id || ad.spend <= creativePauseMinSpend {
			continue
		}
		if best.metric <= 0 || ad.metric >= best.metric*creativePauseFraction {
			continue
		}
		recs = append(recs, models.Recommendation{
			Type:     models.RecTypeBottomCreativePausing,
			Severity: models.SeverityMedium,
			Message: fmt.Sprintf("Creative %q runs at %.2f%% %s versus %.2f%% for the best creative %q. Pause it and redistribute its spend.",
				displayName(ad.name, ad.id), ad.metric, metricName,
				best.metric, displayName(best.name, best.id)),
			PotentialSavings: ad.spend * creativePauseSavings,
			AdID:             ad.id,
			AdName:           ad.name,
			Metric:           metricName,
		})
		paused++
	}
	if paused > 0 {
		recs = append(recs, models.Recommendation{
			Type:     models.RecTypeTopCreativeScaling,
			Severity: models.SeverityLow,
			Message: fmt.Sprintf("Creative %q leads the account at %.2f%% %s. Scale its budget with the spend freed from paused creatives.",
				displayName(best.name, best.id), best.metric, metricName),
			AdID:   best.id,
			AdName: best.name,
			Metric: metricName,
		})
	}

	c.logger.Info("creative analysis complete",
		"ads_analyzed", len(ads), "recommendations", len(recs))
	return insights, recs
}

func performers(ads []creativeAgg, metricName string) []models.CreativePerformer {
	out := make([]models.CreativePerformer, 0, len(ads))
	for _, ad := range ads {
		p := models.CreativePerformer{
			AdID:        ad.id,
			AdName:      ad.name,
			Impressions: ad.impressions,
			Clicks:      ad.clicks,
			Conversions: ad.conversions,
			CTR:         insight.CTR(ad.clicks, ad.impressions),
			Metric:      metricName,
		}
		if metricName == metricConversionRate {
			p.ConversionRate = ad.metric
		}
		out = append(out, p)
	}
	return out
}
