package analysis

import (
	"sort"
	"strings"

	"github.com/adscope/adscope/internal/models"
)

// Base priorities per recommendation type. Budget structure problems rank
// highest, trend watches lowest.
var basePriorities = map[string]float64{
	models.RecTypeBudgetAllocationImbalance:  100,
	models.RecTypeCampaignBudgetInefficiency: 90,
	models.RecTypeAdSetBudgetInefficiency:    80,
	models.RecTypeAdFatigue:                  70,
	models.RecTypeAdPerformanceInefficiency:  50,
	models.RecTypeBottomCreativePausing:      45,
	models.RecTypeTopCreativeScaling:         40,
	models.RecTypeCPATrend:                   35,
	models.RecTypeCTRTrend:                   30,
}

const defaultBasePriority = 50

var severityMultipliers = map[models.Severity]float64{
	models.SeverityHigh:   1.5,
	models.SeverityMedium: 1.0,
	models.SeverityLow:    0.5,
}

const (
	savingsBoostCap = 2.0
	improvementCap  = 50.0
)

// basePriority resolves the type priority, covering the dynamically named
// audience segment types.
func basePriority(recType string) float64 {
	if p, ok := basePriorities[recType]; ok {
		return p
	}
	switch {
	case strings.HasPrefix(recType, "cross_segment_"):
		return 65
	case strings.HasPrefix(recType, models.DimensionAge+"_"),
		strings.HasPrefix(recType, models.DimensionGender+"_"):
		return 60
	case strings.HasPrefix(recType, models.DimensionDevice+"_"),
		strings.HasPrefix(recType, models.DimensionDevicePlatform+"_"),
		strings.HasPrefix(recType, models.DimensionPlatform+"_"),
		strings.HasPrefix(recType, models.DimensionPlacement+"_"):
		return 55
	}
	return defaultBasePriority
}

// Prioritize assigns every recommendation a priority score and returns the
// list sorted by descending priority. Scores grow with potential savings,
// capped so one huge estimate cannot drown everything else.
func Prioritize(recs []models.Recommendation) []models.Recommendation {
	out := make([]models.Recommendation, len(recs))
	copy(out, recs)
	for i := range out {
		mult, ok := severityMultipliers[out[i].Severity]
		if !ok {
			mult = 1.0
		}
		boost := out[i].PotentialSavings / 100
		if boost > savingsBoostCap {
			boost = savingsBoostCap
		}
		out[i].PriorityScore = basePriority(out[i].Type) * mult * (1 + boost)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityScore > out[j].PriorityScore
	})
	return out
}

// TotalSavings sums the savings estimates across all recommendations.
func TotalSavings(recs []models.Recommendation) float64 {
	var sum float64
	for _, r := range recs {
		sum += r.PotentialSavings
	}
	return sum
}

// ImprovementPct estimates the overall account improvement, 0 to 50
// percent, from the severity mix and categories of the recommendations.
// Beyond ten findings additional ones add nothing: an account with that
// many issues gains more from fixing the top ten than from counting the
// rest.
func ImprovementPct(recs []models.Recommendation) float64 {
	if len(recs) == 0 {
		return 0
	}
	countDamper := 10.0 / float64(len(recs))
	if countDamper > 1 {
		countDamper = 1
	}

	var total float64
	for _, r := range recs {
		var impact float64
		switch r.Severity {
		case models.SeverityHigh:
			impact = 2.0
		case models.SeverityMedium:
			impact = 1.0
		default:
			impact = 0.5
		}
		total += impact * categoryFactor(r.Type)
	}
	pct := total * countDamper * 2.5
	if pct > improvementCap {
		return improvementCap
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// categoryFactor weights recommendation categories by typical realized
// impact: budget moves pay off most, fatigue fixes least.
func categoryFactor(recType string) float64 {
	switch {
	case recType == models.RecTypeBudgetAllocationImbalance,
		recType == models.RecTypeCampaignBudgetInefficiency,
		recType == models.RecTypeAdSetBudgetInefficiency,
		recType == models.RecTypeAdPerformanceInefficiency:
		return 1.2
	case strings.HasSuffix(recType, "_optimization"):
		return 1.1
	case recType == models.RecTypeAdFatigue:
		return 0.9
	default:
		return 1.0
	}
}
