package scorer

import (
	"math"
	"time"

	"infrascore/features"
	"infrascore/models"
	"infrascore/trainer"
)

// Priority composite weights. Fixed rather than trained so operators can
// audit why an asset ranks where it does.
const (
	priorityProbWeight     = 0.5
	priorityImpactWeight   = 0.3
	prioritySeverityWeight = 0.18
	priorityDemandWeight   = 0.02
)

// Score applies the trained-or-fallback estimators to a feature snapshot and
// returns one bounded AssetScore per asset, in input order. An empty
// snapshot yields an empty result, not an error.
func Score(recs []features.Record, prob, cost trainer.Strategy, asOf time.Time) []models.AssetScore {
	if len(recs) == 0 {
		return nil
	}

	probs := prob.Estimator.Evaluate(recs)
	costs := cost.Estimator.Evaluate(recs)

	n := len(recs)
	sev := make([]float64, n)
	demand := make([]float64, n)
	for i, r := range recs {
		sev[i] = r.Severity
		demand[i] = r.DemandRecent
	}
	sev = features.MinMax(sev)
	demand = features.MinMax(demand)

	out := make([]models.AssetScore, n)
	for i, r := range recs {
		p := clamp(features.OrZero(probs[i]), 0, 1)
		c := math.Max(0, features.OrZero(costs[i]))

		priority := 100 * clamp(
			priorityProbWeight*p+
				priorityImpactWeight*(r.Impact/100)+
				prioritySeverityWeight*features.OrZero(sev[i])+
				priorityDemandWeight*features.OrZero(demand[i]),
			0, 1)

		out[i] = models.AssetScore{
			AsOf:         asOf,
			AssetID:      r.AssetID,
			Region:       r.Region,
			Probability:  p,
			CostEstimate: c,
			Impact:       r.Impact,
			Priority:     priority,
		}
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}
