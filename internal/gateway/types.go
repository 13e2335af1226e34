// Package gateway defines the JSON contract of the remote data gateway and a
// client for it. The same types are served by internal/gatewaysrv.
package gateway

import "study-dashboard/internal/plot"

// Participant is one study participant as listed by GET /users.
type Participant struct {
	ID   string `json:"user_id"`
	Name string `json:"name"`
}

// DataPage is one bounded chunk of a time series from GET /data.
type DataPage struct {
	Data    []plot.Sample `json:"data"`
	Page    int           `json:"page"`
	HasMore bool          `json:"has_more"`
}

// ZoneRange is the min/max bounds of one heart-rate zone.
type ZoneRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Zones maps zone name to its bounds, as returned by GET /zones.
type Zones map[string]ZoneRange

// Bands converts the zone mapping into ordered zone bands for a plot entry.
// The result is never nil, so an empty zone response still replaces stale
// bands on the entry.
func (z Zones) Bands() []plot.ZoneBand {
	bands := make([]plot.ZoneBand, 0, len(z))
	for name, rng := range z {
		bands = append(bands, plot.ZoneBand{
			Name: plot.ZoneName(name),
			Min:  rng.Min,
			Max:  rng.Max,
		})
	}
	plot.SortBands(bands)
	return bands
}

// AdherenceRecord is one participant's compliance summary.
type AdherenceRecord struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Flags []string `json:"flags"`
}

// AdherenceReport maps participant id to adherence record, as returned by
// GET /adherence.
type AdherenceReport map[string]AdherenceRecord
