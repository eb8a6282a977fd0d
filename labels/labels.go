package labels

import (
	"math"
	"time"

	"infrascore/models"
)

// DefaultHorizon is the forward window for the event-in-horizon label.
const DefaultHorizon = 90 * 24 * time.Hour

// Label is one asset's forward-looking training target: InHorizon is 1 when
// a maintenance event starts inside (asOf, asOf+horizon], and Cost carries
// that event's actual cost (NaN when absent or when InHorizon is 0).
type Label struct {
	AssetID   string
	InHorizon int
	Cost      float64
}

// Build labels every asset exactly once. The window is exclusive at asOf (an
// event starting at the as-of instant is information from the present, not
// the future) and inclusive at asOf+horizon. When several events fall in
// window for one asset, the earliest start decides both label and cost.
func Build(assets []models.Asset, events []models.MaintenanceEvent, asOf time.Time, horizon time.Duration) []Label {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	end := asOf.Add(horizon)

	type hit struct {
		start time.Time
		cost  float64
	}
	first := make(map[string]hit)
	for _, ev := range events {
		if ev.AssetID == "" || ev.StartDate == nil {
			continue
		}
		start := *ev.StartDate
		if !start.After(asOf) || start.After(end) {
			continue
		}
		prev, seen := first[ev.AssetID]
		if !seen || start.Before(prev.start) {
			first[ev.AssetID] = hit{start: start, cost: ev.ActualCost}
		}
	}

	out := make([]Label, len(assets))
	for i, a := range assets {
		l := Label{AssetID: a.AssetID, Cost: math.NaN()}
		if h, ok := first[a.AssetID]; ok {
			l.InHorizon = 1
			l.Cost = h.cost
		}
		out[i] = l
	}
	return out
}
