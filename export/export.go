package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"infrascore/aggregate"
	"infrascore/models"
)

const (
	// SummaryChannel carries freshly exported region summaries for live
	// dashboard feeds.
	SummaryChannel = "infrascore:summaries"
	// SummaryCacheKey holds the latest region summary artifact for API reads.
	SummaryCacheKey = "infrascore:summaries:latest"

	assetArtifact  = "asset_scores.json"
	regionArtifact = "region_metrics.json"
)

// Exporter writes one invocation's outputs to its configured sinks. Nil
// clients and an empty output dir disable the matching sink; nothing here is
// retried — transient failures belong to the caller.
type Exporter struct {
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	OutputDir string
}

// Export pushes per-asset scores and region summaries everywhere configured.
// Re-running with the same asOf overwrites the prior rows (last writer
// wins).
func (e *Exporter) Export(ctx context.Context, asOf time.Time, scores []models.AssetScore, summaries map[string]aggregate.Summary) error {
	if e.Pool != nil {
		stored := e.storeScores(ctx, scores)
		if err := e.storeSummaries(ctx, asOf, summaries); err != nil {
			return err
		}
		log.Printf("export: %d/%d scores stored, %d region summaries stored", stored, len(scores), len(summaries))
	}

	if e.Redis != nil {
		if err := e.publishSummaries(ctx, asOf, summaries); err != nil {
			log.Printf("export: redis publish failed: %v", err)
		}
	}

	if e.OutputDir != "" {
		if err := e.writeArtifacts(scores, summaries); err != nil {
			return fmt.Errorf("write artifacts: %w", err)
		}
	}

	return nil
}

func (e *Exporter) storeScores(ctx context.Context, scores []models.AssetScore) int {
	stored := 0
	for _, s := range scores {
		_, err := e.Pool.Exec(ctx, `
			INSERT INTO asset_scores (as_of, asset_id, region, probability, cost_estimate, impact, priority)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (as_of, asset_id) DO UPDATE SET
				region = EXCLUDED.region,
				probability = EXCLUDED.probability,
				cost_estimate = EXCLUDED.cost_estimate,
				impact = EXCLUDED.impact,
				priority = EXCLUDED.priority
		`, s.AsOf, s.AssetID, s.Region, s.Probability, s.CostEstimate, s.Impact, s.Priority)
		if err != nil {
			log.Printf("export: score insert failed for asset=%s: %v", s.AssetID, err)
			continue
		}
		stored++
	}
	return stored
}

func (e *Exporter) storeSummaries(ctx context.Context, asOf time.Time, summaries map[string]aggregate.Summary) error {
	for _, region := range sortedRegions(summaries) {
		s := summaries[region]
		_, err := e.Pool.Exec(ctx, `
			INSERT INTO region_metrics (as_of, region, avg_probability_pct, expected_cost, avg_impact,
				critical_count, top_factor_line, alert_title, alert_description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (as_of, region) DO UPDATE SET
				avg_probability_pct = EXCLUDED.avg_probability_pct,
				expected_cost = EXCLUDED.expected_cost,
				avg_impact = EXCLUDED.avg_impact,
				critical_count = EXCLUDED.critical_count,
				top_factor_line = EXCLUDED.top_factor_line,
				alert_title = EXCLUDED.alert_title,
				alert_description = EXCLUDED.alert_description
		`, asOf, region, s.Metrics[0], s.Metrics[1], s.Metrics[2],
			s.CriticalCount, s.TopFactorLine, s.Alert.Title, s.Alert.Description)
		if err != nil {
			return fmt.Errorf("summary insert failed for region=%s: %w", region, err)
		}
	}
	return nil
}

func (e *Exporter) publishSummaries(ctx context.Context, asOf time.Time, summaries map[string]aggregate.Summary) error {
	payload, err := json.Marshal(struct {
		AsOf    time.Time                    `json:"as_of"`
		Regions map[string]aggregate.Summary `json:"regions"`
	}{AsOf: asOf, Regions: summaries})
	if err != nil {
		return err
	}
	if err := e.Redis.Set(ctx, SummaryCacheKey, payload, 0).Err(); err != nil {
		return err
	}
	return e.Redis.Publish(ctx, SummaryChannel, payload).Err()
}

// writeArtifacts mirrors the warehouse export as two JSON files: an ordered
// per-asset score array and a region-keyed summary map. encoding/json sorts
// map keys, so both files are byte-stable across identical runs.
func (e *Exporter) writeArtifacts(scores []models.AssetScore, summaries map[string]aggregate.Summary) error {
	scoreData, err := json.MarshalIndent(scores, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(e.OutputDir, assetArtifact), scoreData, 0o644); err != nil {
		return err
	}

	summaryData, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(e.OutputDir, regionArtifact), summaryData, 0o644)
}

func sortedRegions(summaries map[string]aggregate.Summary) []string {
	regions := make([]string, 0, len(summaries))
	for r := range summaries {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}
