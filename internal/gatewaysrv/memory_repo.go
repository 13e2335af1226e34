package gatewaysrv

import (
	"context"
	"math"
	"sort"
	"time"

	"study-dashboard/internal/gateway"
	"study-dashboard/internal/metric"
	"study-dashboard/internal/plot"
)

// MemoryRepository is an in-memory Repository for tests and local runs
// without a database.
type MemoryRepository struct {
	participants []gateway.Participant
	samples      map[string]map[string][]plot.Sample // participant -> metric -> samples
	zones        map[string]map[string]gateway.Zones // participant -> date -> zones
	report       gateway.AdherenceReport
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		samples: make(map[string]map[string][]plot.Sample),
		zones:   make(map[string]map[string]gateway.Zones),
		report:  gateway.AdherenceReport{},
	}
}

// AddParticipant registers a participant.
func (r *MemoryRepository) AddParticipant(p gateway.Participant) {
	r.participants = append(r.participants, p)
}

// AddSamples appends samples for a participant and metric. Samples should be
// added in timestamp order.
func (r *MemoryRepository) AddSamples(participantID, metricName string, samples ...plot.Sample) {
	byMetric, ok := r.samples[participantID]
	if !ok {
		byMetric = make(map[string][]plot.Sample)
		r.samples[participantID] = byMetric
	}
	byMetric[metricName] = append(byMetric[metricName], samples...)
}

// SetZones stores the zone bounds for a participant and date (YYYY-MM-DD).
func (r *MemoryRepository) SetZones(participantID, date string, zones gateway.Zones) {
	byDate, ok := r.zones[participantID]
	if !ok {
		byDate = make(map[string]gateway.Zones)
		r.zones[participantID] = byDate
	}
	byDate[date] = zones
}

// SetAdherence stores a participant's adherence record.
func (r *MemoryRepository) SetAdherence(participantID string, record gateway.AdherenceRecord) {
	r.report[participantID] = record
}

func (r *MemoryRepository) Participants(ctx context.Context) ([]gateway.Participant, error) {
	out := make([]gateway.Participant, len(r.participants))
	copy(out, r.participants)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) Samples(ctx context.Context, start, end time.Time, participantIDs []string, metricName string, limit, offset int) ([]plot.Sample, error) {
	var matched []plot.Sample
	for _, id := range participantIDs {
		for _, s := range r.samples[id][metricName] {
			if s.Time.Before(start) || s.Time.After(end) {
				continue
			}
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Time.Before(matched[j].Time) })

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepository) Zones(ctx context.Context, date string, participantID string) (gateway.Zones, error) {
	return r.zones[participantID][date], nil
}

func (r *MemoryRepository) Adherence(ctx context.Context) (gateway.AdherenceReport, error) {
	out := gateway.AdherenceReport{}
	for id, record := range r.report {
		out[id] = record
	}
	return out, nil
}

// SeedDemo fills the repository with a small synthetic study so the gateway
// is usable without a database: two participants, a day of heart-rate and
// SpO2 samples, zone bounds and adherence flags.
func SeedDemo(r *MemoryRepository) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	r.AddParticipant(gateway.Participant{ID: "p001", Name: "Alice Hart"})
	r.AddParticipant(gateway.Participant{ID: "p002", Name: "Ben Okafor"})

	for minuteOfDay := 0; minuteOfDay < 24*60; minuteOfDay++ {
		ts := day.Add(time.Duration(minuteOfDay) * time.Minute)
		phase := float64(minuteOfDay) / (24 * 60)

		hr := 62 + 18*math.Sin(2*math.Pi*phase) + 6*math.Sin(14*math.Pi*phase)
		r.AddSamples("p001", string(metric.IntradayHeartRate), plot.Sample{Time: ts, Value: math.Round(hr)})
		r.AddSamples("p002", string(metric.IntradayHeartRate), plot.Sample{Time: ts, Value: math.Round(hr + 7)})

		if minuteOfDay%5 == 0 {
			spo2 := 96 + 1.5*math.Sin(6*math.Pi*phase)
			r.AddSamples("p001", string(metric.IntradaySpO2), plot.Sample{Time: ts, Value: math.Round(spo2*10) / 10})
		}
	}

	zones := gateway.Zones{
		"Peak":         {Min: 169, Max: 220},
		"Cardio":       {Min: 139, Max: 169},
		"Fat Burn":     {Min: 104, Max: 139},
		"Out of Range": {Min: 30, Max: 104},
	}
	r.SetZones("p001", "2024-01-01", zones)
	r.SetZones("p002", "2024-01-01", gateway.Zones{
		"Peak":         {Min: 172, Max: 220},
		"Cardio":       {Min: 141, Max: 172},
		"Fat Burn":     {Min: 106, Max: 141},
		"Out of Range": {Min: 30, Max: 106},
	})

	r.SetAdherence("p001", gateway.AdherenceRecord{
		Name:  "Alice Hart",
		Email: "alice.hart@example.org",
		Flags: []string{},
	})
	r.SetAdherence("p002", gateway.AdherenceRecord{
		Name:  "Ben Okafor",
		Email: "ben.okafor@example.org",
		Flags: []string{"No data uploaded in last 48 hours", "Low Wear Time (58.3%)"},
	})
}
