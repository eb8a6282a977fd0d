package models

import "time"

// RegionMetrics is the flattened per-region dashboard row written by the
// exporter and read back by the API.
type RegionMetrics struct {
	AsOf              time.Time `gorm:"column:as_of;primaryKey" json:"as_of"`
	Region            string    `gorm:"column:region;primaryKey" json:"region"`
	AvgProbabilityPct float64   `gorm:"column:avg_probability_pct" json:"avg_probability_pct"`
	ExpectedCost      float64   `gorm:"column:expected_cost" json:"expected_cost"`
	AvgImpact         float64   `gorm:"column:avg_impact" json:"avg_impact"`
	CriticalCount     int       `gorm:"column:critical_count" json:"critical_count"`
	TopFactorLine     string    `gorm:"column:top_factor_line" json:"top_factor_line"`
	AlertTitle        string    `gorm:"column:alert_title" json:"alert_title"`
	AlertDescription  string    `gorm:"column:alert_description" json:"alert_description"`
}

func (RegionMetrics) TableName() string { return "region_metrics" }
