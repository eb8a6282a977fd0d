package models

import "time"

// MaintenanceEvent is one historical or scheduled maintenance action from the
// event log. Only label building reads these. ActualCost is NaN when the
// work order has no recorded cost.
type MaintenanceEvent struct {
	AssetID        string     `json:"asset_id"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	ActualCost     float64    `json:"actual_cost"`
	Status         string     `json:"status,omitempty"`
}
