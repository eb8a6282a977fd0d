package aggregate

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"infrascore/models"
)

var asOf = time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

func score(id, region string, prob, cost, impact, priority float64) models.AssetScore {
	return models.AssetScore{
		AsOf:         asOf,
		AssetID:      id,
		Region:       region,
		Probability:  prob,
		CostEstimate: cost,
		Impact:       impact,
		Priority:     priority,
	}
}

func TestBuildMetrics(t *testing.T) {
	scores := []models.AssetScore{
		score("A", "north", 0.2, 100, 30, 40),
		score("B", "north", 0.6, 50, 70, 75),
	}
	got := Build(scores, nil, DefaultThresholds())

	north, ok := got["north"]
	if !ok {
		t.Fatal("missing north rollup")
	}
	// avg prob % = (0.2+0.6)/2*100 = 40; expected cost = 0.2*100+0.6*50 = 50;
	// avg impact = 50.
	want := [3]float64{40, 50, 50}
	if north.Metrics != want {
		t.Errorf("metrics = %v, want %v", north.Metrics, want)
	}
	if north.TopFactorLine != "B (Urgency: 75%)" {
		t.Errorf("top factor = %q, want B at 75%%", north.TopFactorLine)
	}
	if north.Alert.Title != "Critical Assets: 0" {
		t.Errorf("alert title = %q", north.Alert.Title)
	}
	wantDesc := "Avg Event Prob: 40.0% | Expected Cost: 50.00 | Impact: 50"
	if north.Alert.Description != wantDesc {
		t.Errorf("alert description = %q, want %q", north.Alert.Description, wantDesc)
	}
}

func TestBuildCriticalThresholds(t *testing.T) {
	tests := []struct {
		name         string
		prob, prio   float64
		wantCritical int
	}{
		{"neither threshold", 0.5, 50, 0},
		{"probability at threshold", 0.8, 50, 1},
		{"priority at threshold", 0.5, 80, 1},
		{"both over", 0.95, 95, 1},
		{"just under both", 0.799, 79.9, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build([]models.AssetScore{score("A", "R", tt.prob, 10, 20, tt.prio)}, nil, DefaultThresholds())
			if got["R"].CriticalCount != tt.wantCritical {
				t.Errorf("critical count = %d, want %d", got["R"].CriticalCount, tt.wantCritical)
			}
		})
	}
}

func TestBuildTopFactorStableTieBreak(t *testing.T) {
	scores := []models.AssetScore{
		score("first", "R", 0.5, 10, 20, 66),
		score("second", "R", 0.5, 10, 20, 66),
	}
	got := Build(scores, nil, DefaultThresholds())
	if got["R"].TopFactorLine != "first (Urgency: 66%)" {
		t.Errorf("top factor = %q, want first-seen asset on ties", got["R"].TopFactorLine)
	}
}

func TestBuildEmptyRegion(t *testing.T) {
	got := Build(nil, []string{"ghost", ""}, DefaultThresholds())
	if _, ok := got[""]; ok {
		t.Error("blank region names must not create rollups")
	}
	ghost, ok := got["ghost"]
	if !ok {
		t.Fatal("region with no assets must still appear")
	}
	if ghost.Metrics != [3]float64{0, 0, 0} || ghost.CriticalCount != 0 {
		t.Errorf("empty region rollup = %+v, want zeros", ghost)
	}
	if ghost.TopFactorLine != EmptyTopFactor {
		t.Errorf("top factor = %q, want placeholder %q", ghost.TopFactorLine, EmptyTopFactor)
	}
	if ghost.Alert.Title != "Critical Assets: 0" {
		t.Errorf("alert title = %q", ghost.Alert.Title)
	}
}

func TestBuildUnknownRegionBucket(t *testing.T) {
	got := Build([]models.AssetScore{score("A", "", 0.5, 10, 20, 30)}, nil, DefaultThresholds())
	if _, ok := got["Unknown"]; !ok {
		t.Errorf("blank-region assets must roll into Unknown, got keys %v", keys(got))
	}
}

func TestBuildRounding(t *testing.T) {
	scores := []models.AssetScore{
		score("A", "R", 1.0/3, 1, 10.0/3, 50),
	}
	got := Build(scores, nil, DefaultThresholds())
	want := [3]float64{33.33, 0.33, 3.3}
	if got["R"].Metrics != want {
		t.Errorf("metrics = %v, want %v rounded", got["R"].Metrics, want)
	}
}

func TestBuildDeterministic(t *testing.T) {
	scores := []models.AssetScore{
		score("A", "north", 0.9, 120, 80, 91),
		score("B", "south", 0.1, 10, 5, 12),
		score("C", "north", 0.4, 60, 40, 55),
	}
	first := Build(scores, []string{"east"}, DefaultThresholds())
	second := Build(scores, []string{"east"}, DefaultThresholds())
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs must produce identical rollups")
	}
	if len(first) != 3 {
		t.Errorf("expected 3 regions, got %d", len(first))
	}
}

func keys(m map[string]Summary) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestUrgencyRoundsToWholePercent(t *testing.T) {
	got := Build([]models.AssetScore{score("A", "R", 0.5, 10, 20, 66.6)}, nil, DefaultThresholds())
	want := fmt.Sprintf("A (Urgency: %d%%)", 67)
	if got["R"].TopFactorLine != want {
		t.Errorf("top factor = %q, want %q", got["R"].TopFactorLine, want)
	}
}
