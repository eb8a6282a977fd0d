package features

import (
	"fmt"
	"math"
	"time"

	"infrascore/models"
)

// Impact blend weights. Fixed design constants, not learned: closures on
// long, high-traffic roads in dense regions hurt more, rainfall adds
// fragility.
const (
	impactTrafficWeight = 0.6
	impactDensityWeight = 0.3
	impactLengthWeight  = 0.1
	impactBaseShare     = 0.85
	impactRainShare     = 0.15
)

// DefaultDemandWindow bounds the recent demand-report count at (asOf-90d, asOf].
const DefaultDemandWindow = 90 * 24 * time.Hour

// RegionSignalSource serves one optional per-region auxiliary measure.
// A missing region returns ok=false, never an error.
type RegionSignalSource interface {
	Fetch(region string) (float64, bool)
}

// RegionSignalMap is the standard map-backed signal source.
type RegionSignalMap map[string]float64

func (m RegionSignalMap) Fetch(region string) (float64, bool) {
	v, ok := m[region]
	return v, ok
}

// Input is the raw as-of snapshot the builder joins. Density, Rainfall and
// Budget are optional; nil sources degrade the matching feature to missing.
type Input struct {
	Assets   []models.Asset
	Demand   []models.DemandSignal
	Density  RegionSignalSource
	Rainfall RegionSignalSource
	Budget   RegionSignalSource

	// DemandWindow overrides DefaultDemandWindow when positive.
	DemandWindow time.Duration
}

// Record is one asset's engineered feature row at a fixed as-of instant.
// Missing numerics are NaN; derived norms keep NaN where the underlying
// value is missing so the trainer's imputer can see them.
type Record struct {
	AssetID  string
	Region   string
	Category string

	ConditionScore       float64
	LengthKM             float64
	TrafficDaily         float64
	DaysSinceMaintenance float64
	DemandRecent         float64
	VehicleDensity       float64
	RainfallMM           float64
	BudgetUtilization    float64

	Severity    float64
	TrafficNorm float64
	LengthNorm  float64
	DensityNorm float64
	DemandNorm  float64
	RainNorm    float64

	Impact float64
}

// Build joins the snapshot into one Record per asset, using only information
// valid at or before asOf. It fails only when an asset is missing its
// identifier or region key; every other absent input degrades to a neutral
// or missing value.
func Build(in Input, asOf time.Time) ([]Record, error) {
	if len(in.Assets) == 0 {
		return nil, nil
	}

	for i, a := range in.Assets {
		if a.AssetID == "" {
			return nil, fmt.Errorf("asset row %d: missing asset identifier", i)
		}
		if a.Region == "" {
			return nil, fmt.Errorf("asset %s: missing region key", a.AssetID)
		}
	}

	demand := demandByRegion(in.Demand, asOf, in.DemandWindow)

	recs := make([]Record, len(in.Assets))
	for i, a := range in.Assets {
		r := Record{
			AssetID:              a.AssetID,
			Region:               a.Region,
			Category:             a.Category,
			ConditionScore:       a.ConditionScore,
			LengthKM:             a.LengthKM,
			TrafficDaily:         a.TrafficDaily,
			DaysSinceMaintenance: daysSinceMaintenance(a, asOf),
			DemandRecent:         float64(demand[a.Region]),
			VehicleDensity:       fetchOrNaN(in.Density, a.Region),
			RainfallMM:           fetchOrNaN(in.Rainfall, a.Region),
			BudgetUtilization:    fetchOrNaN(in.Budget, a.Region),
		}
		recs[i] = r
	}

	deriveSeverity(recs)
	deriveNorms(recs)
	deriveImpact(recs)

	return recs, nil
}

// demandByRegion counts reports with asOf-window < reported_at <= asOf.
// The count is region-level by design: per-asset demand attribution is not
// available upstream, so the region total is broadcast to every asset.
func demandByRegion(signals []models.DemandSignal, asOf time.Time, window time.Duration) map[string]int {
	if window <= 0 {
		window = DefaultDemandWindow
	}
	start := asOf.Add(-window)

	counts := make(map[string]int)
	for _, s := range signals {
		if s.Region == "" {
			continue
		}
		if s.ReportedAt.After(start) && !s.ReportedAt.After(asOf) {
			counts[s.Region]++
		}
	}
	return counts
}

// daysSinceMaintenance prefers the exact last-maintenance date. With only a
// year on record it approximates the instant as July 1 of that year.
func daysSinceMaintenance(a models.Asset, asOf time.Time) float64 {
	if a.LastMaintenanceDate != nil {
		return asOf.Sub(*a.LastMaintenanceDate).Hours() / 24
	}
	if a.LastMaintenanceYear > 0 {
		mid := time.Date(a.LastMaintenanceYear, time.July, 1, 0, 0, 0, 0, time.UTC)
		return asOf.Sub(mid).Hours() / 24
	}
	return math.NaN()
}

// deriveSeverity rescales the scale-ambiguous condition score to 0–100 using
// the population maximum (<=1 means 0–1 input, <=10 means 0–10, else already
// 0–100), then inverts: severity = 100 - condition, clamped to [0,100].
func deriveSeverity(recs []Record) {
	maxCond := math.Inf(-1)
	for _, r := range recs {
		if !math.IsNaN(r.ConditionScore) && r.ConditionScore > maxCond {
			maxCond = r.ConditionScore
		}
	}

	factor := 1.0
	switch {
	case !isFinite(maxCond):
		factor = 1.0
	case maxCond <= 1.0:
		factor = 100.0
	case maxCond <= 10.0:
		factor = 10.0
	}

	for i := range recs {
		cond := recs[i].ConditionScore * factor
		recs[i].Severity = clamp(100.0-cond, 0, 100) // NaN stays NaN
	}
}

func deriveNorms(recs []Record) {
	traffic := make([]float64, len(recs))
	length := make([]float64, len(recs))
	density := make([]float64, len(recs))
	demand := make([]float64, len(recs))
	rain := make([]float64, len(recs))
	for i, r := range recs {
		traffic[i] = r.TrafficDaily
		length[i] = r.LengthKM
		density[i] = r.VehicleDensity
		demand[i] = r.DemandRecent
		rain[i] = r.RainfallMM
	}

	traffic = MinMax(traffic)
	length = MinMax(length)
	density = MinMax(density)
	demand = MinMax(demand)
	rain = MinMax(rain)

	for i := range recs {
		recs[i].TrafficNorm = traffic[i]
		recs[i].LengthNorm = length[i]
		recs[i].DensityNorm = density[i]
		recs[i].DemandNorm = demand[i]
		recs[i].RainNorm = rain[i]
	}
}

// deriveImpact blends the norms into a 0–100 disruption magnitude. Missing
// norm terms contribute 0 (neutral), so impact is always finite and bounded.
func deriveImpact(recs []Record) {
	for i := range recs {
		r := &recs[i]
		base := impactTrafficWeight*OrZero(r.TrafficNorm) +
			impactDensityWeight*OrZero(r.DensityNorm) +
			impactLengthWeight*OrZero(r.LengthNorm)
		r.Impact = 100 * clamp(impactBaseShare*base+impactRainShare*OrZero(r.RainNorm), 0, 1)
	}
}

// MinMax rescales xs to [0,1] as (x-min)/(max-min), skipping NaN when
// finding the bounds. NaN entries stay NaN. A degenerate column (no finite
// bounds, or max <= min) comes back all zeros: a constant feature carries no
// discriminative signal and must not divide by zero.
func MinMax(xs []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}

	out := make([]float64, len(xs))
	if !isFinite(lo) || !isFinite(hi) || hi <= lo {
		return out
	}
	for i, x := range xs {
		if math.IsNaN(x) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (x - lo) / (hi - lo)
	}
	return out
}

// OrZero maps NaN to the neutral 0 so composite formulas stay bounded.
func OrZero(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func fetchOrNaN(src RegionSignalSource, region string) float64 {
	if src == nil {
		return math.NaN()
	}
	v, ok := src.Fetch(region)
	if !ok {
		return math.NaN()
	}
	return v
}
