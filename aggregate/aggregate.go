package aggregate

import (
	"fmt"
	"math"
	"sort"

	"infrascore/models"
)

// EmptyTopFactor is reported for regions with no scored assets.
const EmptyTopFactor = "—"

// Thresholds define a critical asset: probability OR priority at/over the
// limit.
type Thresholds struct {
	Probability float64
	Priority    float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Probability: 0.8, Priority: 80}
}

type Alert struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Summary is one region's dashboard rollup. Metrics is fixed-position:
// [avg probability %, expected cost, avg impact].
type Summary struct {
	Metrics       [3]float64 `json:"metrics"`
	CriticalCount int        `json:"critical_count"`
	TopFactorLine string     `json:"top_factor_line"`
	Alert         Alert      `json:"alert"`
}

// Build rolls per-asset scores up per region. Regions from the extra list
// that have no scored assets still appear, with zero metrics and the
// placeholder top-factor line. Tie-break for the top factor is stable: equal
// priorities keep first-seen input order.
func Build(scores []models.AssetScore, regions []string, th Thresholds) map[string]Summary {
	byRegion := make(map[string][]models.AssetScore)
	for _, s := range scores {
		region := s.Region
		if region == "" {
			region = "Unknown"
		}
		byRegion[region] = append(byRegion[region], s)
	}
	for _, r := range regions {
		if r == "" {
			continue
		}
		if _, ok := byRegion[r]; !ok {
			byRegion[r] = nil
		}
	}

	out := make(map[string]Summary, len(byRegion))
	for region, group := range byRegion {
		out[region] = summarize(group, th)
	}
	return out
}

func summarize(group []models.AssetScore, th Thresholds) Summary {
	if len(group) == 0 {
		s := Summary{TopFactorLine: EmptyTopFactor}
		s.Alert = buildAlert(0, 0, 0, 0)
		return s
	}

	var probSum, costSum, impactSum float64
	critical := 0
	for _, a := range group {
		probSum += a.Probability
		costSum += a.Probability * math.Max(0, a.CostEstimate)
		impactSum += a.Impact
		if a.Probability >= th.Probability || a.Priority >= th.Priority {
			critical++
		}
	}
	n := float64(len(group))
	avgProbPct := probSum / n * 100
	avgImpact := impactSum / n

	ranked := make([]models.AssetScore, len(group))
	copy(ranked, group)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority > ranked[j].Priority
	})
	top := ranked[0]
	topFactor := fmt.Sprintf("%s (Urgency: %d%%)", top.AssetID, int(math.Round(top.Priority)))

	return Summary{
		Metrics: [3]float64{
			round2(avgProbPct),
			round2(costSum),
			round1(avgImpact),
		},
		CriticalCount: critical,
		TopFactorLine: topFactor,
		Alert:         buildAlert(critical, avgProbPct, costSum, avgImpact),
	}
}

func buildAlert(critical int, avgProbPct, expectedCost, avgImpact float64) Alert {
	return Alert{
		Title: fmt.Sprintf("Critical Assets: %d", critical),
		Description: fmt.Sprintf("Avg Event Prob: %.1f%% | Expected Cost: %.2f | Impact: %.0f",
			avgProbPct, expectedCost, avgImpact),
	}
}

// Rounding policy for exported fields: percentages and costs to 2 decimals,
// impact to 1, so downstream consumers can diff runs.
func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round1(x float64) float64 { return math.Round(x*10) / 10 }
