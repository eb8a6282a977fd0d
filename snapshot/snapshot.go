package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"infrascore/features"
	"infrascore/models"
)

// DefaultServiceTypes filters demand reports to the kinds that signal road
// maintenance pressure.
var DefaultServiceTypes = []string{"road repair", "pothole", "drainage", "streetlight outage"}

// Snapshot is the raw as-of material handed to the pipeline. The three
// signal maps are optional; a missing upstream table leaves them empty and
// the feature builder degrades gracefully.
type Snapshot struct {
	Assets   []models.Asset
	Events   []models.MaintenanceEvent
	Demand   []models.DemandSignal
	Density  features.RegionSignalMap
	Rainfall features.RegionSignalMap
	Budget   features.RegionSignalMap
}

// Loader reads one snapshot per invocation from Postgres. It owns all table
// access and caching concerns; the pipeline core only ever sees materialized
// record sets.
type Loader struct {
	pool         *pgxpool.Pool
	demandWindow time.Duration
	serviceTypes []string
}

func NewLoader(pool *pgxpool.Pool) *Loader {
	return &Loader{
		pool:         pool,
		demandWindow: features.DefaultDemandWindow,
		serviceTypes: DefaultServiceTypes,
	}
}

func (l *Loader) WithDemandWindow(w time.Duration) *Loader {
	if w > 0 {
		l.demandWindow = w
	}
	return l
}

// Load materializes every record set as of asOf. The asset and event tables
// are mandatory; auxiliary tables are tolerated when absent.
func (l *Loader) Load(ctx context.Context, asOf time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		Density:  features.RegionSignalMap{},
		Rainfall: features.RegionSignalMap{},
		Budget:   features.RegionSignalMap{},
	}

	var err error
	if snap.Assets, err = l.loadAssets(ctx); err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	if snap.Events, err = l.loadEvents(ctx); err != nil {
		return nil, fmt.Errorf("load maintenance events: %w", err)
	}

	snap.Demand, err = l.loadDemand(ctx, asOf)
	if err != nil {
		if !isUndefinedTable(err) {
			return nil, fmt.Errorf("load demand signals: %w", err)
		}
		log.Printf("demand_signals table missing, demand features degrade to zero")
	}

	network := networkKM(snap.Assets)

	regs, err := l.loadVehicleRegistrations(ctx)
	if err != nil {
		if !isUndefinedTable(err) {
			return nil, fmt.Errorf("load vehicle registrations: %w", err)
		}
		log.Printf("vehicle_registrations table missing, density feature degrades to missing")
	} else {
		snap.Density = DensityPerKM(regs, network)
	}

	budgets, err := l.loadBudgets(ctx)
	if err != nil {
		if !isUndefinedTable(err) {
			return nil, fmt.Errorf("load region budgets: %w", err)
		}
		log.Printf("region_budgets table missing, budget feature degrades to missing")
	} else {
		snap.Budget = BudgetUtilization(budgets)
	}

	rain, err := l.loadRainfall(ctx)
	if err != nil {
		if !isUndefinedTable(err) {
			return nil, fmt.Errorf("load rainfall: %w", err)
		}
		log.Printf("region_rainfall table missing, rainfall feature degrades to missing")
	} else {
		snap.Rainfall = RainfallLastMonth(rain, asOf)
	}

	return snap, nil
}

func (l *Loader) loadAssets(ctx context.Context) ([]models.Asset, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT asset_id, region, condition_score, length_km, category,
		       traffic_volume_daily, last_maintenance_date, last_maintenance_year, status
		FROM assets
		ORDER BY asset_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var (
			a        models.Asset
			cond     *float64
			length   *float64
			category *string
			traffic  *float64
			lastDate *time.Time
			lastYear *int
			status   *string
		)
		if err := rows.Scan(&a.AssetID, &a.Region, &cond, &length, &category,
			&traffic, &lastDate, &lastYear, &status); err != nil {
			return nil, err
		}
		a.ConditionScore = deref(cond)
		a.LengthKM = deref(length)
		a.TrafficDaily = deref(traffic)
		a.LastMaintenanceDate = lastDate
		if category != nil {
			a.Category = *category
		}
		if lastYear != nil {
			a.LastMaintenanceYear = *lastYear
		}
		if status != nil {
			a.Status = *status
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (l *Loader) loadEvents(ctx context.Context) ([]models.MaintenanceEvent, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT asset_id, start_date, completion_date, actual_cost, status
		FROM maintenance_events
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.MaintenanceEvent
	for rows.Next() {
		var (
			ev     models.MaintenanceEvent
			cost   *float64
			status *string
		)
		if err := rows.Scan(&ev.AssetID, &ev.StartDate, &ev.CompletionDate, &cost, &status); err != nil {
			return nil, err
		}
		ev.ActualCost = deref(cost)
		if status != nil {
			ev.Status = *status
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (l *Loader) loadDemand(ctx context.Context, asOf time.Time) ([]models.DemandSignal, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT report_id, region, service_type, reported_at
		FROM demand_signals
		WHERE reported_at > $1 AND reported_at <= $2
		  AND lower(service_type) = ANY($3)
	`, asOf.Add(-l.demandWindow), asOf, l.serviceTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []models.DemandSignal
	for rows.Next() {
		var s models.DemandSignal
		if err := rows.Scan(&s.ReportID, &s.Region, &s.ServiceType, &s.ReportedAt); err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

func (l *Loader) loadVehicleRegistrations(ctx context.Context) ([]VehicleRegistration, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT region, year, vehicle_count FROM vehicle_registrations
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []VehicleRegistration
	for rows.Next() {
		var r VehicleRegistration
		if err := rows.Scan(&r.Region, &r.Year, &r.Count); err != nil {
			return nil, err
		}
		regs = append(regs, r)
	}
	return regs, rows.Err()
}

func (l *Loader) loadBudgets(ctx context.Context) ([]BudgetRow, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT region, financial_year, allocated, utilized, last_updated
		FROM region_budgets
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []BudgetRow
	for rows.Next() {
		var (
			b         BudgetRow
			allocated *float64
			utilized  *float64
		)
		if err := rows.Scan(&b.Region, &b.FinancialYear, &allocated, &utilized, &b.LastUpdated); err != nil {
			return nil, err
		}
		b.Allocated = deref(allocated)
		b.Utilized = deref(utilized)
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (l *Loader) loadRainfall(ctx context.Context) ([]RainfallRow, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT region, month, rainfall_mm FROM region_rainfall
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rain []RainfallRow
	for rows.Next() {
		var r RainfallRow
		if err := rows.Scan(&r.Region, &r.Month, &r.RainfallMM); err != nil {
			return nil, err
		}
		rain = append(rain, r)
	}
	return rain, rows.Err()
}

// networkKM sums known asset lengths per region, for the density signal.
func networkKM(assets []models.Asset) map[string]float64 {
	out := make(map[string]float64)
	for _, a := range assets {
		if !math.IsNaN(a.LengthKM) && a.LengthKM > 0 {
			out[a.Region] += a.LengthKM
		}
	}
	return out
}

func deref(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}
