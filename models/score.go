package models

import "time"

// AssetScore is one scored asset for a single as-of instant. Probability is
// on the 0–1 scale; impact and priority are 0–100; cost estimate is in cost
// units and never negative.
type AssetScore struct {
	AsOf         time.Time `gorm:"column:as_of;primaryKey" json:"as_of"`
	AssetID      string    `gorm:"column:asset_id;primaryKey" json:"asset_id"`
	Region       string    `gorm:"column:region" json:"region"`
	Probability  float64   `gorm:"column:probability" json:"probability"`
	CostEstimate float64   `gorm:"column:cost_estimate" json:"cost_estimate"`
	Impact       float64   `gorm:"column:impact" json:"impact"`
	Priority     float64   `gorm:"column:priority" json:"priority"`
}

func (AssetScore) TableName() string { return "asset_scores" }
