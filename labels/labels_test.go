package labels

import (
	"math"
	"testing"
	"time"

	"infrascore/models"
)

var asOf = time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

func event(assetID string, start time.Time, cost float64) models.MaintenanceEvent {
	return models.MaintenanceEvent{AssetID: assetID, StartDate: &start, ActualCost: cost}
}

func TestBuildWindowBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  int
	}{
		{"start at as_of excluded", asOf, 0},
		{"day after as_of counts", asOf.AddDate(0, 0, 1), 1},
		{"horizon end counts", asOf.Add(DefaultHorizon), 1},
		{"past horizon excluded", asOf.Add(DefaultHorizon + 24*time.Hour), 0},
		{"before as_of excluded", asOf.AddDate(0, 0, -1), 0},
	}
	assets := []models.Asset{{AssetID: "A", Region: "R"}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(assets, []models.MaintenanceEvent{event("A", tt.start, 5)}, asOf, DefaultHorizon)
			if len(got) != 1 {
				t.Fatalf("expected 1 label, got %d", len(got))
			}
			if got[0].InHorizon != tt.want {
				t.Errorf("InHorizon = %d, want %d", got[0].InHorizon, tt.want)
			}
		})
	}
}

func TestBuildEarliestEventWins(t *testing.T) {
	assets := []models.Asset{{AssetID: "A", Region: "R"}}
	events := []models.MaintenanceEvent{
		event("A", asOf.AddDate(0, 0, 30), 200),
		event("A", asOf.AddDate(0, 0, 5), 100),
		event("A", asOf.AddDate(0, 0, 60), 300),
	}
	got := Build(assets, events, asOf, DefaultHorizon)
	if got[0].InHorizon != 1 {
		t.Fatalf("InHorizon = %d, want 1", got[0].InHorizon)
	}
	if got[0].Cost != 100 {
		t.Errorf("Cost = %v, want the earliest event's 100", got[0].Cost)
	}
}

func TestBuildEveryAssetLabeledOnce(t *testing.T) {
	assets := []models.Asset{
		{AssetID: "A", Region: "R"},
		{AssetID: "B", Region: "R"},
		{AssetID: "C", Region: "R"},
	}
	events := []models.MaintenanceEvent{
		event("A", asOf.AddDate(0, 0, 10), 50),
		event("X", asOf.AddDate(0, 0, 10), 50), // event for an unknown asset
	}
	got := Build(assets, events, asOf, DefaultHorizon)
	if len(got) != len(assets) {
		t.Fatalf("labeled %d assets, want %d", len(got), len(assets))
	}
	if got[0].InHorizon != 1 || got[1].InHorizon != 0 || got[2].InHorizon != 0 {
		t.Errorf("labels = %+v, want only A positive", got)
	}
}

func TestBuildMissingCostStaysNaN(t *testing.T) {
	assets := []models.Asset{{AssetID: "A", Region: "R"}, {AssetID: "B", Region: "R"}}
	events := []models.MaintenanceEvent{event("A", asOf.AddDate(0, 0, 10), math.NaN())}
	got := Build(assets, events, asOf, DefaultHorizon)
	if got[0].InHorizon != 1 || !math.IsNaN(got[0].Cost) {
		t.Errorf("positive with unknown cost: got %+v, want InHorizon 1 and NaN cost", got[0])
	}
	if !math.IsNaN(got[1].Cost) {
		t.Errorf("negative label cost = %v, want NaN", got[1].Cost)
	}
}

func TestBuildSkipsMalformedEvents(t *testing.T) {
	assets := []models.Asset{{AssetID: "A", Region: "R"}}
	events := []models.MaintenanceEvent{
		{AssetID: "", StartDate: nil},
		{AssetID: "A", StartDate: nil},
	}
	got := Build(assets, events, asOf, DefaultHorizon)
	if got[0].InHorizon != 0 {
		t.Errorf("malformed events should not label, got %+v", got[0])
	}
}

func TestBuildZeroHorizonDefaults(t *testing.T) {
	assets := []models.Asset{{AssetID: "A", Region: "R"}}
	events := []models.MaintenanceEvent{event("A", asOf.AddDate(0, 0, 45), 10)}
	got := Build(assets, events, asOf, 0)
	if got[0].InHorizon != 1 {
		t.Errorf("zero horizon should fall back to the 90-day default")
	}
}
