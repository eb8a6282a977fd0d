package models

import "time"

// DemandSignal is one citizen demand report (pothole, drainage, ...) keyed to
// a region. Per-asset attribution is not available upstream, so the feature
// builder broadcasts region counts to every asset in the region.
type DemandSignal struct {
	ReportID    string    `json:"report_id"`
	Region      string    `json:"region"`
	ServiceType string    `json:"service_type"`
	ReportedAt  time.Time `json:"reported_at"`
}
