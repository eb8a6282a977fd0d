package snapshot

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"infrascore/features"
)

// VehicleRegistration is one region/year vehicle count row.
type VehicleRegistration struct {
	Region string
	Year   int
	Count  float64
}

// BudgetRow is one region budget line for a financial year. FinancialYear
// may be a plain year or a span like "2024-2025".
type BudgetRow struct {
	Region        string
	FinancialYear string
	Allocated     float64
	Utilized      float64
	LastUpdated   *time.Time
}

// RainfallRow is one region/month rainfall reading.
type RainfallRow struct {
	Region     string
	Month      time.Time
	RainfallMM float64
}

// DensityPerKM derives vehicles-per-network-km per region from the latest
// registration year. Regions without a positive road network stay missing
// rather than dividing by zero.
func DensityPerKM(regs []VehicleRegistration, networkKM map[string]float64) features.RegionSignalMap {
	latestYear := make(map[string]int)
	for _, r := range regs {
		if r.Year > latestYear[r.Region] {
			latestYear[r.Region] = r.Year
		}
	}

	totals := make(map[string]float64)
	for _, r := range regs {
		if r.Year == latestYear[r.Region] && !math.IsNaN(r.Count) {
			totals[r.Region] += r.Count
		}
	}

	out := features.RegionSignalMap{}
	for region, total := range totals {
		km := networkKM[region]
		if km > 0 {
			out[region] = total / km
		}
	}
	return out
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// fyEndYear extracts the end year from a financial-year string: the largest
// 4-digit number wins, so "2024-2025" sorts as 2025. Zero means unparseable.
func fyEndYear(fy string) int {
	end := 0
	for _, m := range yearPattern.FindAllString(fy, -1) {
		if y, err := strconv.Atoi(m); err == nil && y > end {
			end = y
		}
	}
	return end
}

// BudgetUtilization picks each region's latest budget row (by financial-year
// end, falling back to last-updated when no year parses) and derives
// utilized/allocated. Zero allocations stay missing.
func BudgetUtilization(rows []BudgetRow) features.RegionSignalMap {
	type candidate struct {
		year    int
		updated time.Time
		row     BudgetRow
	}
	latest := make(map[string]candidate)
	for _, b := range rows {
		c := candidate{year: fyEndYear(b.FinancialYear), row: b}
		if b.LastUpdated != nil {
			c.updated = *b.LastUpdated
		}
		prev, seen := latest[b.Region]
		if !seen || c.year > prev.year || (c.year == prev.year && c.updated.After(prev.updated)) {
			latest[b.Region] = c
		}
	}

	out := features.RegionSignalMap{}
	for region, c := range latest {
		if c.row.Allocated > 0 && !math.IsNaN(c.row.Utilized) {
			out[region] = c.row.Utilized / c.row.Allocated
		}
	}
	return out
}

// RainfallLastMonth keeps only readings from the calendar month preceding
// asOf, the freshest complete month at scoring time.
func RainfallLastMonth(rows []RainfallRow, asOf time.Time) features.RegionSignalMap {
	prev := monthStart(monthStart(asOf).AddDate(0, 0, -1))

	out := features.RegionSignalMap{}
	for _, r := range rows {
		if math.IsNaN(r.RainfallMM) {
			continue
		}
		if monthStart(r.Month).Equal(prev) {
			out[r.Region] = r.RainfallMM
		}
	}
	return out
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
