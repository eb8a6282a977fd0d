package trainer

import (
	"math"
	"strings"

	"infrascore/features"
)

// Fallback probability composite: severity dominates, then traffic, recency,
// demand. The 0.15 floor encodes an irreducible base event rate — a design
// choice, not a statistical estimate.
const (
	probFloor = 0.15
	probScale = 0.85

	probSeverityWeight = 0.4
	probTrafficWeight  = 0.25
	probRecencyWeight  = 0.2
	probDemandWeight   = 0.15
)

// FallbackProbability is the rule-based probability estimator used when too
// little labeled history exists. It normalizes over the population it is
// handed, so a later scoring snapshot self-normalizes.
type FallbackProbability struct{}

func (FallbackProbability) Evaluate(recs []features.Record) []float64 {
	n := len(recs)
	sev := make([]float64, n)
	traffic := make([]float64, n)
	recency := make([]float64, n)
	demand := make([]float64, n)
	for i, r := range recs {
		sev[i] = r.Severity
		traffic[i] = r.TrafficDaily
		recency[i] = r.DaysSinceMaintenance
		demand[i] = r.DemandRecent
	}
	sev = features.MinMax(sev)
	traffic = features.MinMax(traffic)
	recency = features.MinMax(recency)
	demand = features.MinMax(demand)

	out := make([]float64, n)
	for i := range recs {
		z := probSeverityWeight*features.OrZero(sev[i]) +
			probTrafficWeight*features.OrZero(traffic[i]) +
			probRecencyWeight*features.OrZero(recency[i]) +
			probDemandWeight*features.OrZero(demand[i])
		out[i] = math.Min(1, math.Max(0, probFloor+probScale*z))
	}
	return out
}

// Per-category unit costs (cost units per km). Placeholder calibration
// carried over from the operations team's estimates.
var defaultUnitCost = map[string]float64{
	"asphalt":  0.8,
	"concrete": 1.2,
	"gravel":   0.3,
	"dirt":     0.2,
}

// DefaultUnitCost applies to categories absent from the table.
const DefaultUnitCost = 0.7

// FallbackCost is the category-keyed unit-cost heuristic:
// cost = unit_cost[category] × length, with negative or unknown lengths
// floored to zero.
type FallbackCost struct {
	UnitCost map[string]float64
	Default  float64
}

func NewFallbackCost() FallbackCost {
	return FallbackCost{UnitCost: defaultUnitCost, Default: DefaultUnitCost}
}

func (f FallbackCost) Evaluate(recs []features.Record) []float64 {
	out := make([]float64, len(recs))
	for i, r := range recs {
		unit, ok := f.UnitCost[strings.ToLower(strings.TrimSpace(r.Category))]
		if !ok {
			unit = f.Default
		}
		length := r.LengthKM
		if math.IsNaN(length) || length < 0 {
			length = 0
		}
		out[i] = unit * length
	}
	return out
}
