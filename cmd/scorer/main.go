package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"infrascore/aggregate"
	"infrascore/config"
	"infrascore/export"
	"infrascore/features"
	"infrascore/labels"
	"infrascore/scorer"
	"infrascore/snapshot"
	"infrascore/trainer"
)

var (
	assetsScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infrascore_scorer_assets_scored_total",
		Help: "Total number of assets scored.",
	})
	cyclesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infrascore_scorer_cycles_failed_total",
		Help: "Total number of failed scoring cycles.",
	})
	summariesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "infrascore_scorer_region_summaries_total",
		Help: "Total number of region summaries produced.",
	})
	trainedTargets = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "infrascore_scorer_target_trained",
		Help: "1 when the target used a trained model in the last cycle, 0 on fallback.",
	}, []string{"target"})
	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "infrascore_scorer_cycle_duration_seconds",
		Help:    "Duration of a full scoring cycle.",
		Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
	})
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	dbPool, err := pgxpool.New(ctx, cfg.Database.GetDSN())
	if err != nil {
		log.Fatalf("db pool init failed: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatalf("db ping failed: %v", err)
	}
	log.Printf("db connected")

	// Redis is optional for the batch path; without it the live dashboard
	// just misses the push update.
	var redisClient *redis.Client
	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	redisClient = redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("redis ping failed, summaries will not be published: %v", err)
		redisClient = nil
	} else {
		log.Printf("redis connected: %s", redisAddr)
		defer redisClient.Close()
	}

	go serveHTTP(cfg.Pipeline.MetricsAddr)

	loader := snapshot.NewLoader(dbPool).
		WithDemandWindow(time.Duration(cfg.Pipeline.DemandWindowDays) * 24 * time.Hour)
	exporter := &export.Exporter{Pool: dbPool, Redis: redisClient, OutputDir: cfg.Pipeline.OutputDir}

	log.Printf("scorer running: horizon=%dd min_positives=%d critical=(p>=%.2f | rank>=%.0f) interval=%ds",
		cfg.Pipeline.HorizonDays, cfg.Pipeline.MinTrainPositives,
		cfg.Pipeline.CriticalProbability, cfg.Pipeline.CriticalPriority,
		cfg.Pipeline.RunIntervalSec)

	runCycle(ctx, cfg, loader, exporter)

	if cfg.Pipeline.RunIntervalSec <= 0 {
		log.Printf("one-shot run complete")
		return
	}

	ticker := time.NewTicker(time.Duration(cfg.Pipeline.RunIntervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runCycle(ctx, cfg, loader, exporter)
		case <-ctx.Done():
			log.Printf("scorer shutting down")
			return
		}
	}
}

func runCycle(ctx context.Context, cfg *config.Config, loader *snapshot.Loader, exporter *export.Exporter) {
	start := time.Now()
	defer func() {
		cycleDuration.Observe(time.Since(start).Seconds())
	}()

	// The pipeline core never reads the clock: the reference instant is
	// resolved here and passed down, so pinned AS_OF reruns are bit-identical.
	asOf, err := resolveAsOf(cfg.Pipeline.AsOf)
	if err != nil {
		cyclesFailed.Inc()
		log.Printf("invalid AS_OF: %v", err)
		return
	}

	snap, err := loader.Load(ctx, asOf)
	if err != nil {
		cyclesFailed.Inc()
		log.Printf("snapshot load failed: %v", err)
		return
	}
	if len(snap.Assets) == 0 {
		log.Printf("no assets in snapshot, skipping")
		return
	}

	input := features.Input{
		Assets:       snap.Assets,
		Demand:       snap.Demand,
		Density:      snap.Density,
		Rainfall:     snap.Rainfall,
		Budget:       snap.Budget,
		DemandWindow: time.Duration(cfg.Pipeline.DemandWindowDays) * 24 * time.Hour,
	}
	recs, err := features.Build(input, asOf)
	if err != nil {
		cyclesFailed.Inc()
		log.Printf("feature build failed: %v", err)
		return
	}

	horizon := time.Duration(cfg.Pipeline.HorizonDays) * 24 * time.Hour
	lbls := labels.Build(snap.Assets, snap.Events, asOf, horizon)

	prob, cost := trainer.Train(recs, lbls, trainer.Config{MinPositives: cfg.Pipeline.MinTrainPositives})
	trainedTargets.WithLabelValues("probability").Set(modeGauge(prob.Mode))
	trainedTargets.WithLabelValues("cost").Set(modeGauge(cost.Mode))

	scores := scorer.Score(recs, prob, cost, asOf)
	assetsScored.Add(float64(len(scores)))

	regions := make([]string, 0, len(snap.Assets))
	for _, a := range snap.Assets {
		regions = append(regions, a.Region)
	}
	summaries := aggregate.Build(scores, regions, aggregate.Thresholds{
		Probability: cfg.Pipeline.CriticalProbability,
		Priority:    cfg.Pipeline.CriticalPriority,
	})
	summariesBuilt.Add(float64(len(summaries)))

	if err := exporter.Export(ctx, asOf, scores, summaries); err != nil {
		cyclesFailed.Inc()
		log.Printf("export failed: %v", err)
		return
	}

	log.Printf("scoring cycle completed: as_of=%s assets=%d regions=%d prob=%s cost=%s (%.2fs)",
		asOf.Format("2006-01-02"), len(scores), len(summaries),
		prob.Mode, cost.Mode, time.Since(start).Seconds())
}

// resolveAsOf parses a pinned AS_OF (date or RFC3339) or falls back to the
// current UTC day boundary.
func resolveAsOf(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("want YYYY-MM-DD or RFC3339, got %q", raw)
	}
	return t.UTC(), nil
}

func modeGauge(m trainer.Mode) float64 {
	if m == trainer.ModeTrained {
		return 1
	}
	return 0
}

func serveHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("metrics server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("metrics server failed: %v", err)
	}
}
