package scorer

import (
	"math"
	"testing"
	"time"

	"infrascore/features"
	"infrascore/trainer"
)

var asOf = time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

// stubEstimator returns a fixed vector regardless of input.
type stubEstimator []float64

func (s stubEstimator) Evaluate(recs []features.Record) []float64 {
	out := make([]float64, len(recs))
	copy(out, s)
	return out
}

func strategy(vals ...float64) trainer.Strategy {
	return trainer.Strategy{Mode: trainer.ModeFallback, Estimator: stubEstimator(vals)}
}

func TestScoreEmptySnapshot(t *testing.T) {
	got := Score(nil, strategy(), strategy(), asOf)
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d scores", len(got))
	}
}

func TestScorePriorityClosedForm(t *testing.T) {
	recs := []features.Record{
		{AssetID: "A", Region: "R", Severity: 0, DemandRecent: 0, Impact: 0},
		{AssetID: "B", Region: "R", Severity: 100, DemandRecent: 10, Impact: 50},
	}
	got := Score(recs, strategy(0, 0.5), strategy(10, 20), asOf)

	// B: 100 * (0.5*0.5 + 0.3*0.5 + 0.18*1 + 0.02*1) = 60.
	if math.Abs(got[1].Priority-60) > 1e-9 {
		t.Errorf("priority = %v, want 60", got[1].Priority)
	}
	// A: every term zero.
	if got[0].Priority != 0 {
		t.Errorf("priority = %v, want 0", got[0].Priority)
	}
	if got[1].Probability != 0.5 || got[1].CostEstimate != 20 {
		t.Errorf("estimator outputs not carried through: %+v", got[1])
	}
	if !got[0].AsOf.Equal(asOf) {
		t.Errorf("as_of = %v, want %v", got[0].AsOf, asOf)
	}
}

func TestScoreClampsEstimatorOutputs(t *testing.T) {
	recs := []features.Record{
		{AssetID: "A", Region: "R"},
		{AssetID: "B", Region: "R"},
		{AssetID: "C", Region: "R"},
	}
	got := Score(recs, strategy(-0.3, 1.7, math.NaN()), strategy(-50, 10, math.NaN()), asOf)

	wantProb := []float64{0, 1, 0}
	wantCost := []float64{0, 10, 0}
	for i := range got {
		if got[i].Probability != wantProb[i] {
			t.Errorf("probability[%d] = %v, want %v", i, got[i].Probability, wantProb[i])
		}
		if got[i].CostEstimate != wantCost[i] {
			t.Errorf("cost[%d] = %v, want %v", i, got[i].CostEstimate, wantCost[i])
		}
	}
}

func TestScoreFallbackEndToEnd(t *testing.T) {
	// Degenerate recency/demand columns normalize to zero, so only severity
	// and traffic drive the fallback probability.
	recs := []features.Record{
		{AssetID: "A", Region: "R", Category: "asphalt", LengthKM: 2, Severity: 0, TrafficDaily: 0, Impact: 0},
		{AssetID: "B", Region: "R", Category: "asphalt", LengthKM: 2, Severity: 30, TrafficDaily: 500, Impact: 20},
		{AssetID: "C", Region: "R", Category: "asphalt", LengthKM: 2, Severity: 60, TrafficDaily: 1000, Impact: 40},
	}
	prob := trainer.Strategy{Mode: trainer.ModeFallback, Estimator: trainer.FallbackProbability{}}
	cost := trainer.Strategy{Mode: trainer.ModeFallback, Estimator: trainer.NewFallbackCost()}

	got := Score(recs, prob, cost, asOf)

	// C: p = 0.15 + 0.85*(0.4*1 + 0.25*1) = 0.7025.
	pC := 0.15 + 0.85*0.65
	if math.Abs(got[2].Probability-pC) > 1e-12 {
		t.Errorf("probability = %v, want %v", got[2].Probability, pC)
	}
	// Asphalt, 2 km.
	if math.Abs(got[2].CostEstimate-1.6) > 1e-12 {
		t.Errorf("cost = %v, want 1.6", got[2].CostEstimate)
	}
	// priority = 100*(0.5*0.7025 + 0.3*0.4 + 0.18*1 + 0.02*0) = 65.125.
	if math.Abs(got[2].Priority-65.125) > 1e-9 {
		t.Errorf("priority = %v, want 65.125", got[2].Priority)
	}
}

func TestScoreBounds(t *testing.T) {
	recs := []features.Record{
		{AssetID: "A", Region: "R", Severity: math.NaN(), DemandRecent: 1e6, Impact: 100},
		{AssetID: "B", Region: "R", Severity: 100, DemandRecent: 0, Impact: 0},
	}
	got := Score(recs, strategy(2, -1), strategy(1e9, math.Inf(1)), asOf)
	for _, s := range got {
		if s.Probability < 0 || s.Probability > 1 {
			t.Errorf("probability out of range: %v", s.Probability)
		}
		if s.CostEstimate < 0 {
			t.Errorf("negative cost: %v", s.CostEstimate)
		}
		if s.Priority < 0 || s.Priority > 100 || math.IsNaN(s.Priority) {
			t.Errorf("priority out of range: %v", s.Priority)
		}
	}
}
