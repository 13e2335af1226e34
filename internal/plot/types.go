package plot

import (
	"sort"
	"time"

	"study-dashboard/internal/metric"
)

// Sample is one point of a biometric time series.
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// ZoneName is one of the heart-rate intensity zones reported by the gateway.
type ZoneName string

const (
	ZonePeak       ZoneName = "Peak"
	ZoneCardio     ZoneName = "Cardio"
	ZoneFatBurn    ZoneName = "Fat Burn"
	ZoneOutOfRange ZoneName = "Out of Range"
)

// ZoneBand is a heart-rate intensity range with participant-specific bounds
// for a given date. Valid only together with the heart-rate metric.
type ZoneBand struct {
	Name ZoneName `json:"name"`
	Min  float64  `json:"min"`
	Max  float64  `json:"max"`
}

// Entry is the state of one active plot. Samples accumulate across pages in
// fetch order; ZoneBands are replaced wholesale on every fetch that carries
// zone data. RangeStart/RangeEnd are fixed at creation so that "load more"
// and the zone lookup keep using the range the plot was created with.
type Entry struct {
	Key           Key           `json:"key"`
	Metric        metric.Metric `json:"metric"`
	ParticipantID string        `json:"participant_id"`
	RangeStart    time.Time     `json:"range_start"`
	RangeEnd      time.Time     `json:"range_end"`
	Samples       []Sample      `json:"samples"`
	ZoneBands     []ZoneBand    `json:"zone_bands,omitempty"`
	Page          int           `json:"page"`
	HasMore       bool          `json:"has_more"`
	CreatedAt     time.Time     `json:"created_at"`
}

// clone returns a copy whose slices are detached from the registry's state.
func (e *Entry) clone() Entry {
	out := *e
	out.Samples = make([]Sample, len(e.Samples))
	copy(out.Samples, e.Samples)
	if e.ZoneBands != nil {
		out.ZoneBands = make([]ZoneBand, len(e.ZoneBands))
		copy(out.ZoneBands, e.ZoneBands)
	}
	return out
}

// SortBands orders zone bands from the highest range down (Peak first), so
// snapshots are deterministic regardless of the gateway's map ordering.
func SortBands(bands []ZoneBand) {
	sort.Slice(bands, func(i, j int) bool {
		if bands[i].Min != bands[j].Min {
			return bands[i].Min > bands[j].Min
		}
		return bands[i].Name < bands[j].Name
	})
}
