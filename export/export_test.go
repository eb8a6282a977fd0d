package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"infrascore/aggregate"
	"infrascore/models"
)

var asOf = time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

func fixtures() ([]models.AssetScore, map[string]aggregate.Summary) {
	scores := []models.AssetScore{
		{AsOf: asOf, AssetID: "A", Region: "north", Probability: 0.7, CostEstimate: 1.6, Impact: 40, Priority: 65.1},
		{AsOf: asOf, AssetID: "B", Region: "south", Probability: 0.2, CostEstimate: 0.5, Impact: 10, Priority: 15.2},
	}
	summaries := map[string]aggregate.Summary{
		"south": {Metrics: [3]float64{20, 0.1, 10}, TopFactorLine: "B (Urgency: 15%)"},
		"north": {Metrics: [3]float64{70, 1.12, 40}, CriticalCount: 1, TopFactorLine: "A (Urgency: 65%)"},
	}
	return scores, summaries
}

func TestExportWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	e := &Exporter{OutputDir: dir}
	scores, summaries := fixtures()

	if err := e.Export(context.Background(), asOf, scores, summaries); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	var gotScores []models.AssetScore
	data, err := os.ReadFile(filepath.Join(dir, "asset_scores.json"))
	if err != nil {
		t.Fatalf("reading score artifact: %v", err)
	}
	if err := json.Unmarshal(data, &gotScores); err != nil {
		t.Fatalf("score artifact not valid JSON: %v", err)
	}
	if len(gotScores) != 2 || gotScores[0].AssetID != "A" {
		t.Errorf("score artifact = %+v, want input order preserved", gotScores)
	}

	var gotSummaries map[string]aggregate.Summary
	data, err = os.ReadFile(filepath.Join(dir, "region_metrics.json"))
	if err != nil {
		t.Fatalf("reading summary artifact: %v", err)
	}
	if err := json.Unmarshal(data, &gotSummaries); err != nil {
		t.Fatalf("summary artifact not valid JSON: %v", err)
	}
	if gotSummaries["north"].CriticalCount != 1 {
		t.Errorf("summary artifact = %+v", gotSummaries)
	}
}

func TestExportArtifactsByteStable(t *testing.T) {
	scores, summaries := fixtures()

	read := func() ([]byte, []byte) {
		dir := t.TempDir()
		e := &Exporter{OutputDir: dir}
		if err := e.Export(context.Background(), asOf, scores, summaries); err != nil {
			t.Fatalf("Export() error: %v", err)
		}
		a, err := os.ReadFile(filepath.Join(dir, "asset_scores.json"))
		if err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(filepath.Join(dir, "region_metrics.json"))
		if err != nil {
			t.Fatal(err)
		}
		return a, b
	}

	a1, b1 := read()
	a2, b2 := read()
	if !bytes.Equal(a1, a2) {
		t.Error("score artifact differs between identical runs")
	}
	if !bytes.Equal(b1, b2) {
		t.Error("summary artifact differs between identical runs")
	}
}

func TestExportNoSinksConfigured(t *testing.T) {
	e := &Exporter{}
	scores, summaries := fixtures()
	if err := e.Export(context.Background(), asOf, scores, summaries); err != nil {
		t.Errorf("Export() with no sinks should be a no-op, got %v", err)
	}
}
