package analysis

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/adscope/adscope/internal/insight"
	"github.com/adscope/adscope/internal/models"
)

// Metric weights for the efficiency score. Conversion metrics carry the
// most weight; the sum is 1.
var efficiencyWeights = map[string]float64{
	"ctr":             0.15,
	"cpm":             0.15,
	"cpc":             0.20,
	"conversion_rate": 0.25,
	"cpa":             0.25,
}

const (
	indexCap          = 200
	baselineScore     = 50
	lowIndexThreshold = 70

	campaignHighScoreCutoff   = 40
	campaignMediumScoreCutoff = 60
	adSetHighScoreCutoff      = 30
	adSetMediumScoreCutoff    = 50
	adHighScoreCutoff         = 30
	adMediumScoreCutoff       = 50

	campaignHighSavingsRate   = 0.30
	campaignMediumSavingsRate = 0.15
	adSetHighSavingsRate      = 0.50
	adSetMediumSavingsRate    = 0.25
	adHighSavingsRate         = 0.90
	adMediumSavingsRate       = 0.50

	imbalanceHighRatio         = 1.5
	imbalanceMediumRatio       = 1.2
	imbalanceHighSavingsRate   = 0.50
	imbalanceMediumSavingsRate = 0.30
)

// BudgetAnalyzer scores spend efficiency per entity against its peer group
// and checks how account spend distributes across performance quartiles.
type BudgetAnalyzer struct {
	cfg    Config
	logger *slog.Logger
}

// NewBudgetAnalyzer creates a budget analyzer. Config must be valid.
func NewBudgetAnalyzer(cfg Config, logger *slog.Logger) (*BudgetAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &BudgetAnalyzer{cfg: cfg, logger: logger}, nil
}

// entityAgg is one entity merged with its summed insight rows.
type entityAgg struct {
	id, name           string
	campaignID         string
	campaignName       string
	adSetID, adSetName string
	totals             insight.Totals
	rates              insight.Rates
}

// Analyze scores campaigns, ad sets and ads, and runs the spend quartile
// analysis over campaigns. Entities under the spend or data floors are
// excluded from scoring entirely.
func (b *BudgetAnalyzer) Analyze(snap *models.AccountSnapshot) (*models.BudgetInsights, []models.Recommendation) {
	campaigns := b.aggregateCampaigns(snap)
	insights := &models.BudgetInsights{}
	var recs []models.Recommendation

	// Campaigns score against the whole account.
	scored := b.scoreGroup(campaigns, snap.HasConversions)
	for _, es := range scored {
		insights.Campaigns = append(insights.Campaigns, es)
		if rec, ok := campaignRecommendation(es); ok {
			recs = append(recs, rec)
		}
	}

	// Ad sets score against siblings within their campaign.
	for _, group := range b.aggregateAdSets(snap) {
		for _, es := range b.scoreGroup(group, snap.HasConversions) {
			insights.AdSets = append(insights.AdSets, es)
			if rec, ok := adSetRecommendation(es); ok {
				recs = append(recs, rec)
			}
		}
	}

	// Ads score against siblings within their ad set; the weakest get
	// pause recommendations relative to the best peer.
	for _, group := range b.aggregateAds(snap) {
		scoredAds := b.scoreGroup(group, snap.HasConversions)
		insights.Ads = append(insights.Ads, scoredAds...)
		recs = append(recs, b.adRecommendations(scoredAds)...)
	}

	if dist, rec := b.spendDistribution(campaigns, snap.HasConversions); dist != nil {
		insights.Distribution = dist
		if rec != nil {
			recs = append(recs, *rec)
		}
	}

	if len(insights.Campaigns) == 0 && len(insights.AdSets) == 0 && len(insights.Ads) == 0 {
		return nil, nil
	}

	b.logger.Info("budget analysis complete",
		"campaigns_scored", len(insights.Campaigns),
		"adsets_scored", len(insights.AdSets),
		"ads_scored", len(insights.Ads),
		"recommendations", len(recs))
	return insights, recs
}

func (b *BudgetAnalyzer) aggregateCampaigns(snap *models.AccountSnapshot) []entityAgg {
	sums := make(map[string]*entityAgg)
	var order []string
	for i := range snap.Insights {
		row := &snap.Insights[i]
		if row.CampaignID == "" {
			continue
		}
		agg, ok := sums[row.CampaignID]
		if !ok {
			agg = &entityAgg{id: row.CampaignID, name: row.CampaignName}
			sums[row.CampaignID] = agg
			order = append(order, row.CampaignID)
		}
		addRow(&agg.totals, row)
		if agg.name == "" {
			agg.name = row.CampaignName
		}
	}
	for _, c := range snap.Campaigns {
		if agg, ok := sums[c.ID]; ok && agg.name == "" {
			agg.name = c.Name
		}
	}

	var out []entityAgg
	for _, id := range order {
		agg := sums[id]
		if agg.totals.Spend < b.cfg.MinCampaignSpend {
			continue
		}
		agg.campaignID, agg.campaignName = agg.id, agg.name
		agg.rates = insight.Derive(agg.totals)
		out = append(out, *agg)
	}
	return out
}

func (b *BudgetAnalyzer) aggregateAdSets(snap *models.AccountSnapshot) [][]entityAgg {
	sums := make(map[string]*entityAgg)
	var order []string
	for i := range snap.Insights {
		row := &snap.Insights[i]
		if row.AdSetID == "" {
			continue
		}
		agg, ok := sums[row.AdSetID]
		if !ok {
			agg = &entityAgg{
				id: row.AdSetID, name: row.AdSetName,
				campaignID: row.CampaignID, campaignName: row.CampaignName,
			}
			sums[row.AdSetID] = agg
			order = append(order, row.AdSetID)
		}
		addRow(&agg.totals, row)
	}
	for _, as := range snap.AdSets {
		if agg, ok := sums[as.ID]; ok && agg.name == "" {
			agg.name = as.Name
		}
	}

	// Peer groups are siblings under the same campaign.
	groups := make(map[string][]entityAgg)
	var groupOrder []string
	for _, id := range order {
		agg := sums[id]
		if agg.totals.Spend < b.cfg.MinAdSetSpend || agg.totals.Impressions < b.cfg.MinDataThreshold/2 {
			continue
		}
		agg.adSetID, agg.adSetName = agg.id, agg.name
		agg.rates = insight.Derive(agg.totals)
		if _, ok := groups[agg.campaignID]; !ok {
			groupOrder = append(groupOrder, agg.campaignID)
		}
		groups[agg.campaignID] = append(groups[agg.campaignID], *agg)
	}

	out := make([][]entityAgg, 0, len(groupOrder))
	for _, cid := range groupOrder {
		out = append(out, groups[cid])
	}
	return out
}

func (b *BudgetAnalyzer) aggregateAds(snap *models.AccountSnapshot) [][]entityAgg {
	sums := make(map[string]*entityAgg)
	var order []string
	for i := range snap.Insights {
		row := &snap.Insights[i]
		if row.AdID == "" {
			continue
		}
		agg, ok := sums[row.AdID]
		if !ok {
			agg = &entityAgg{
				id: row.AdID, name: row.AdName,
				campaignID: row.CampaignID, campaignName: row.CampaignName,
				adSetID: row.AdSetID, adSetName: row.AdSetName,
			}
			sums[row.AdID] = agg
			order = append(order, row.AdID)
		}
		addRow(&agg.totals, row)
	}
	for _, ad := range snap.Ads {
		if agg, ok := sums[ad.ID]; ok && agg.name == "" {
			agg.name = ad.Name
		}
	}

	// Peer groups are siblings under the same ad set, falling back to the
	// campaign when ad set attribution is missing.
	groups := make(map[string][]entityAgg)
	var groupOrder []string
	for _, id := range order {
		agg := sums[id]
		if agg.totals.Impressions < b.cfg.MinDataThreshold/4 {
			continue
		}
		agg.rates = insight.Derive(agg.totals)
		key := agg.adSetID
		if key == "" {
			key = agg.campaignID
		}
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], *agg)
	}

	out := make([][]entityAgg, 0, len(groupOrder))
	for _, key := range groupOrder {
		out = append(out, groups[key])
	}
	return out
}

func addRow(t *insight.Totals, row *models.InsightRow) {
	t.Spend += row.Spend
	t.Impressions += row.Impressions
	t.Clicks += row.Clicks
	t.Conversions += row.Conversions
	t.Revenue += row.Revenue
}

// scoreGroup scores every entity in a peer group. A group of one scores
// trivially at baseline since the entity is its own average.
func (b *BudgetAnalyzer) scoreGroup(group []entityAgg, hasConversions bool) []models.EfficiencyScore {
	if len(group) == 0 {
		return nil
	}

	avg := peerAverages(group)
	out := make([]models.EfficiencyScore, 0, len(group))
	for _, e := range group {
		es := models.EfficiencyScore{
			CampaignID:   e.campaignID,
			CampaignName: e.campaignName,
			AdSetID:      e.adSetID,
			AdSetName:    e.adSetName,
			Spend:        e.totals.Spend,
			Impressions:  e.totals.Impressions,
			Clicks:       e.totals.Clicks,
			Conversions:  e.totals.Conversions,
			CTR:          e.rates.CTR,
			CPM:          e.rates.CPM,
			CPC:          insight.Sanitize(e.rates.CPC),
		}
		if e.adSetID != e.id && e.campaignID != e.id {
			es.AdID, es.AdName = e.id, e.name
		}
		if hasConversions {
			es.ConversionRate = e.rates.ConversionRate
			es.CPA = insight.Sanitize(e.rates.CPA)
		}

		indices := map[string]float64{
			"ctr": directIndex(e.rates.CTR, avg.CTR),
			"cpm": invertedIndex(e.rates.CPM, avg.CPM),
			"cpc": invertedIndex(e.rates.CPC, avg.CPC),
		}
		if hasConversions {
			indices["conversion_rate"] = directIndex(e.rates.ConversionRate, avg.ConversionRate)
			indices["cpa"] = invertedIndex(e.rates.CPA, avg.CPA)
		}
		es.CTRIndex = indices["ctr"]
		es.CPMIndex = indices["cpm"]
		es.CPCIndex = indices["cpc"]
		es.ConversionRateIndex = indices["conversion_rate"]
		es.CPAIndex = indices["cpa"]

		es.Score = efficiencyScore(indices)
		es.MainIssue = mainIssue(indices, es.Score)
		out = append(out, es)
	}
	return out
}

// peerAverages computes the mean entity-level rates across a peer group,
// excluding undefined cost metrics.
func peerAverages(group []entityAgg) insight.Rates {
	var ctrs, cpms, cpcs, convRates, cpas []float64
	for _, e := range group {
		ctrs = append(ctrs, e.rates.CTR)
		cpms = append(cpms, e.rates.CPM)
		cpcs = append(cpcs, e.rates.CPC)
		convRates = append(convRates, e.rates.ConversionRate)
		cpas = append(cpas, e.rates.CPA)
	}
	return insight.Rates{
		CTR:            insight.MeanValid(ctrs),
		CPM:            insight.MeanValid(cpms),
		CPC:            insight.MeanValid(cpcs),
		ConversionRate: insight.MeanValid(convRates),
		CPA:            insight.MeanValid(cpas),
	}
}

// directIndex is entity/average for higher-is-better metrics, capped.
// Returns 0 when the index cannot be computed.
func directIndex(value, avg float64) float64 {
	if !insight.Valid(value) || !insight.Valid(avg) || avg <= 0 {
		return 0
	}
	return capIndex(value / avg * 100)
}

// invertedIndex is average/entity for lower-is-better metrics, capped.
func invertedIndex(value, avg float64) float64 {
	if !insight.Valid(value) || !insight.Valid(avg) || value <= 0 || avg <= 0 {
		return 0
	}
	return capIndex(avg / value * 100)
}

func capIndex(idx float64) float64 {
	if idx > indexCap {
		return indexCap
	}
	return idx
}

// efficiencyScore folds the per-metric indices into a 0-100 score around a
// baseline of 50. An index of 100 (peer average) contributes exactly its
// weight's share of the baseline. When less than half the weight mass was
// computable, the partial score blends back toward the baseline so sparse
// data cannot look decisive.
func efficiencyScore(indices map[string]float64) float64 {
	score := float64(baselineScore)
	var weightSum float64
	for metric, idx := range indices {
		if idx == 0 {
			continue
		}
		w := efficiencyWeights[metric]
		weightSum += w
		metricScore := idx / 2
		score += (metricScore - baselineScore) * w
	}
	if weightSum < 0.5 {
		score = score*(weightSum*2) + baselineScore*(1-weightSum*2)
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// mainIssue names up to two metrics dragging the score down.
func mainIssue(indices map[string]float64, score float64) string {
	if score >= adSetMediumScoreCutoff && score >= campaignMediumScoreCutoff {
		return ""
	}
	checks := []struct {
		metric string
		label  string
	}{
		{"ctr", "low CTR"},
		{"cpm", "high CPM"},
		{"cpc", "high CPC"},
		{"conversion_rate", "low conversion rate"},
		{"cpa", "high CPA"},
	}
	var issues []string
	for _, c := range checks {
		idx, ok := indices[c.metric]
		if ok && idx > 0 && idx < lowIndexThreshold {
			issues = append(issues, c.label)
			if len(issues) == 2 {
				break
			}
		}
	}
	if len(issues) == 0 {
		return "overall performance below average"
	}
	return strings.Join(issues, " and ")
}

func campaignRecommendation(es models.EfficiencyScore) (models.Recommendation, bool) {
	var severity models.Severity
	var rate float64
	switch {
	case es.Score < campaignHighScoreCutoff:
		severity, rate = models.SeverityHigh, campaignHighSavingsRate
	case es.Score < campaignMediumScoreCutoff:
		severity, rate = models.SeverityMedium, campaignMediumSavingsRate
	default:
		return models.Recommendation{}, false
	}
	return models.Recommendation{
		Type:     models.RecTypeCampaignBudgetInefficiency,
		Severity: severity,
		Message: fmt.Sprintf("Campaign %q scores %.0f/100 (%s). Reduce its budget or restructure targeting.",
			displayName(es.CampaignName, es.CampaignID), es.Score, es.MainIssue),
		PotentialSavings: es.Spend * rate,
		CampaignID:       es.CampaignID,
		CampaignName:     es.CampaignName,
		EfficiencyScore:  es.Score,
		MainIssue:        es.MainIssue,
	}, true
}

func adSetRecommendation(es models.EfficiencyScore) (models.Recommendation, bool) {
	var severity models.Severity
	var rate float64
	switch {
	case es.Score < adSetHighScoreCutoff:
		severity, rate = models.SeverityHigh, adSetHighSavingsRate
	case es.Score < adSetMediumScoreCutoff:
		severity, rate = models.SeverityMedium, adSetMediumSavingsRate
	default:
		return models.Recommendation{}, false
	}
	return models.Recommendation{
		Type:     models.RecTypeAdSetBudgetInefficiency,
		Severity: severity,
		Message: fmt.Sprintf("Ad set %q scores %.0f/100 (%s). Shift budget to stronger ad sets in the campaign.",
			displayName(es.AdSetName, es.AdSetID), es.Score, es.MainIssue),
		PotentialSavings: es.Spend * rate,
		CampaignID:       es.CampaignID,
		CampaignName:     es.CampaignName,
		AdSetID:          es.AdSetID,
		AdSetName:        es.AdSetName,
		EfficiencyScore:  es.Score,
		MainIssue:        es.MainIssue,
	}, true
}

// adRecommendations flags the weak ads in one peer group. The best scoring
// ad is the comparison anchor and never gets flagged itself; pause
// candidates additionally need meaningful spend.
func (b *BudgetAnalyzer) adRecommendations(group []models.EfficiencyScore) []models.Recommendation {
	if len(group) < 2 {
		return nil
	}
	best := group[0]
	for _, es := range group[1:] {
		if es.Score > best.Score {
			best = es
		}
	}

	minAdSpend := b.cfg.MinAdSetSpend / 4
	var recs []models.Recommendation
	for _, es := range group {
		if es.AdID == best.AdID || es.Spend < minAdSpend {
			continue
		}
		var severity models.Severity
		var rate float64
		var action string
		switch {
		case es.Score < adHighScoreCutoff:
			severity, rate = models.SeverityHigh, adHighSavingsRate
			action = "Pause this ad"
		case es.Score < adMediumScoreCutoff:
			severity, rate = models.SeverityMedium, adMediumSavingsRate
			action = "Reduce delivery for this ad"
		default:
			continue
		}
		recs = append(recs, models.Recommendation{
			Type:     models.RecTypeAdPerformanceInefficiency,
			Severity: severity,
			Message: fmt.Sprintf("Ad %q scores %.0f/100 against best peer %q (%.0f). %s and move spend to the stronger creative.",
				displayName(es.AdName, es.AdID), es.Score,
				displayName(best.AdName, best.AdID), best.Score, action),
			PotentialSavings: es.Spend * rate,
			CampaignID:       es.CampaignID,
			AdSetID:          es.AdSetID,
			AdSetName:        es.AdSetName,
			AdID:             es.AdID,
			AdName:           es.AdName,
			EfficiencyScore:  es.Score,
			MainIssue:        es.MainIssue,
		})
	}
	return recs
}

// spendDistribution ranks campaigns by the best available performance
// metric and buckets them by cumulative spend percentage. Quartile
// boundaries are spend-weighted, not campaign-count-weighted.
func (b *BudgetAnalyzer) spendDistribution(campaigns []entityAgg, hasConversions bool) (*models.SpendDistribution, *models.Recommendation) {
	if len(campaigns) < 2 {
		return nil, nil
	}

	var totalSpend float64
	for _, c := range campaigns {
		totalSpend += c.totals.Spend
	}
	if totalSpend == 0 {
		return nil, nil
	}

	ranked := make([]entityAgg, len(campaigns))
	copy(ranked, campaigns)
	metric, less := campaignRanking(ranked, hasConversions)
	sort.SliceStable(ranked, less)

	quartiles := map[string]*models.QuartileBucket{
		models.QuartileTop:     {},
		models.QuartileMidHigh: {},
		models.QuartileMidLow:  {},
		models.QuartileBottom:  {},
	}
	var cumulative float64
	for _, c := range ranked {
		cumulative += c.totals.Spend
		pct := cumulative / totalSpend * 100
		var label string
		switch {
		case pct <= 25:
			label = models.QuartileTop
		case pct <= 50:
			label = models.QuartileMidHigh
		case pct <= 75:
			label = models.QuartileMidLow
		default:
			label = models.QuartileBottom
		}
		quartiles[label].Spend += c.totals.Spend
		quartiles[label].CampaignCount++
	}
	for _, q := range quartiles {
		q.SpendPct = q.Spend / totalSpend * 100
	}

	dist := &models.SpendDistribution{
		TotalSpend:        totalSpend,
		PerformanceMetric: metric,
		Quartiles:         make(map[string]models.QuartileBucket, len(quartiles)),
	}
	for label, q := range quartiles {
		dist.Quartiles[label] = *q
	}

	top := quartiles[models.QuartileTop]
	bottom := quartiles[models.QuartileBottom]
	if top.SpendPct <= 0 {
		return dist, nil
	}

	var severity models.Severity
	var rate float64
	switch {
	case bottom.SpendPct > top.SpendPct*imbalanceHighRatio:
		severity, rate = models.SeverityHigh, imbalanceHighSavingsRate
	case bottom.SpendPct > top.SpendPct*imbalanceMediumRatio:
		severity, rate = models.SeverityMedium, imbalanceMediumSavingsRate
	default:
		return dist, nil
	}

	rec := &models.Recommendation{
		Type:     models.RecTypeBudgetAllocationImbalance,
		Severity: severity,
		Message: fmt.Sprintf("%.0f%% of spend sits in the worst-performing campaigns (by %s) versus %.0f%% in the best. Reallocate budget toward top performers.",
			bottom.SpendPct, metric, top.SpendPct),
		PotentialSavings: bottom.Spend * rate,
	}
	return dist, rec
}

// campaignRanking picks the strongest available ranking metric: CPA when
// conversions exist, then conversion rate, then CTR. Campaigns without a
// defined CPA sort last under CPA ranking.
func campaignRanking(campaigns []entityAgg, hasConversions bool) (string, func(i, j int) bool) {
	if hasConversions {
		anyCPA := false
		for _, c := range campaigns {
			if insight.Valid(c.rates.CPA) {
				anyCPA = true
				break
			}
		}
		if anyCPA {
			return metricCPA, func(i, j int) bool {
				ci, cj := campaigns[i].rates.CPA, campaigns[j].rates.CPA
				vi, vj := insight.Valid(ci), insight.Valid(cj)
				if vi != vj {
					return vi
				}
				if !vi {
					return false
				}
				return ci < cj
			}
		}
		return metricConversionRate, func(i, j int) bool {
			return campaigns[i].rates.ConversionRate > campaigns[j].rates.ConversionRate
		}
	}
	return metricCTR, func(i, j int) bool {
		return campaigns[i].rates.CTR > campaigns[j].rates.CTR
	}
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
