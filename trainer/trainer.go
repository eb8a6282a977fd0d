package trainer

import (
	"math"

	"infrascore/features"
	"infrascore/labels"
)

// DefaultMinPositives is the smallest positive-label count worth training on.
const DefaultMinPositives = 25

// Mode tags which branch produced an estimator. The scorer never branches on
// it; it exists for logging and metrics.
type Mode int

const (
	ModeFallback Mode = iota
	ModeTrained
)

func (m Mode) String() string {
	if m == ModeTrained {
		return "trained"
	}
	return "fallback"
}

// Estimator evaluates one target over a feature population. Trained models
// and closed-form fallbacks satisfy the same contract.
type Estimator interface {
	Evaluate(recs []features.Record) []float64
}

// Strategy is the per-target outcome of training: a mode tag plus the
// estimator to run at scoring time.
type Strategy struct {
	Mode      Mode
	Estimator Estimator
}

type Config struct {
	// MinPositives gates both targets; zero means DefaultMinPositives.
	MinPositives int
}

func (c Config) minPositives() int {
	if c.MinPositives > 0 {
		return c.MinPositives
	}
	return DefaultMinPositives
}

// Model feature columns, in fixed order. The imputer, classifier and
// regressor all index into this layout.
func featureVector(r features.Record) []float64 {
	return []float64{
		r.Severity,
		r.DaysSinceMaintenance,
		r.TrafficDaily,
		r.LengthKM,
		r.VehicleDensity,
		r.DemandRecent,
		r.RainfallMM,
		r.BudgetUtilization,
		r.Impact,
	}
}

const numFeatures = 9

func designMatrix(recs []features.Record) [][]float64 {
	X := make([][]float64, len(recs))
	for i, r := range recs {
		X[i] = featureVector(r)
	}
	return X
}

// Train picks a strategy per target from one labeled snapshot.
//
// The probability target trains a logistic classifier only when enough
// positive labels exist. The cost target trains a least-squares regressor
// only when the classifier trained AND enough positive rows carry a real
// cost; a cost model without a usable probability model would multiply
// garbage downstream. Everything else falls back to the closed forms.
func Train(recs []features.Record, lbls []labels.Label, cfg Config) (prob Strategy, cost Strategy) {
	prob = Strategy{Mode: ModeFallback, Estimator: FallbackProbability{}}
	cost = Strategy{Mode: ModeFallback, Estimator: NewFallbackCost()}
	if len(recs) == 0 {
		return prob, cost
	}

	byAsset := make(map[string]labels.Label, len(lbls))
	for _, l := range lbls {
		byAsset[l.AssetID] = l
	}

	y := make([]float64, len(recs))
	costs := make([]float64, len(recs))
	positives := 0
	costLabeled := 0
	for i, r := range recs {
		l, ok := byAsset[r.AssetID]
		if !ok {
			costs[i] = math.NaN()
			continue
		}
		y[i] = float64(l.InHorizon)
		costs[i] = l.Cost
		if l.InHorizon == 1 {
			positives++
			if !math.IsNaN(l.Cost) {
				costLabeled++
			}
		}
	}

	X := designMatrix(recs)
	imp := fitImputer(X)

	if positives >= cfg.minPositives() {
		prob = Strategy{Mode: ModeTrained, Estimator: trainLogistic(X, y, imp)}
	}

	if prob.Mode == ModeTrained && costLabeled >= cfg.minPositives() {
		var posX [][]float64
		var posY []float64
		for i := range recs {
			if y[i] == 1 && !math.IsNaN(costs[i]) {
				posX = append(posX, X[i])
				posY = append(posY, costs[i])
			}
		}
		if lm, err := trainLinear(posX, posY, imp); err == nil {
			cost = Strategy{Mode: ModeTrained, Estimator: lm}
		}
	}

	return prob, cost
}
