package models

import "time"

// Asset is one scored infrastructure unit (e.g. a road segment) as delivered
// by the snapshot loader. Unknown numeric values are NaN, never zero.
type Asset struct {
	AssetID             string     `json:"asset_id"`
	Region              string     `json:"region"`
	ConditionScore      float64    `json:"condition_score"`
	LengthKM            float64    `json:"length_km"`
	Category            string     `json:"category"`
	TrafficDaily        float64    `json:"traffic_volume_daily"`
	LastMaintenanceDate *time.Time `json:"last_maintenance_date,omitempty"`
	LastMaintenanceYear int        `json:"last_maintenance_year,omitempty"`
	Status              string     `json:"status,omitempty"`
}
