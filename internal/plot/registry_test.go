package plot

import (
	"testing"
	"time"

	"study-dashboard/internal/metric"
)

var (
	rangeStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
)

func samplesAt(base time.Time, values ...float64) []Sample {
	out := make([]Sample, 0, len(values))
	for i, v := range values {
		out = append(out, Sample{Time: base.Add(time.Duration(i) * time.Minute), Value: v})
	}
	return out
}

func TestRegistry_PaginationConcatenation(t *testing.T) {
	r := NewRegistry()
	key := NewKey()

	page1 := samplesAt(rangeStart, 72, 73)
	page2 := samplesAt(rangeStart.Add(10*time.Minute), 74, 75, 76)
	page3 := samplesAt(rangeStart.Add(20*time.Minute), 77)

	r.Upsert(key, metric.IntradaySpO2, "p1", rangeStart, rangeEnd, page1, nil, 1, true)
	r.Upsert(key, metric.IntradaySpO2, "p1", rangeStart, rangeEnd, page2, nil, 2, true)
	r.Upsert(key, metric.IntradaySpO2, "p1", rangeStart, rangeEnd, page3, nil, 3, false)

	entry, ok := r.Get(key)
	if !ok {
		t.Fatalf("Expected entry for key %s", key)
	}
	if len(entry.Samples) != 6 {
		t.Fatalf("Expected 6 samples after 3 pages, got %d", len(entry.Samples))
	}

	// Per-page internal order and inter-page order must both survive.
	want := append(append(append([]Sample{}, page1...), page2...), page3...)
	for i, s := range entry.Samples {
		if s != want[i] {
			t.Errorf("Sample %d: expected %+v, got %+v", i, want[i], s)
		}
	}

	if entry.Page != 3 {
		t.Errorf("Expected page=3, got %d", entry.Page)
	}
	if entry.HasMore {
		t.Errorf("Expected has_more=false after final page")
	}
}

func TestRegistry_ZoneBandsReplacedNotAccumulated(t *testing.T) {
	r := NewRegistry()
	key := NewKey()

	z1 := []ZoneBand{
		{Name: ZonePeak, Min: 169, Max: 220},
		{Name: ZoneCardio, Min: 139, Max: 169},
	}
	z2 := []ZoneBand{
		{Name: ZonePeak, Min: 171, Max: 220},
	}

	r.Upsert(key, metric.IntradayHeartRate, "p1", rangeStart, rangeEnd, samplesAt(rangeStart, 72), z1, 1, true)
	r.Upsert(key, metric.IntradayHeartRate, "p1", rangeStart, rangeEnd, samplesAt(rangeStart.Add(time.Hour), 75), z2, 2, false)

	entry, _ := r.Get(key)
	if len(entry.ZoneBands) != 1 {
		t.Fatalf("Expected zone bands to be replaced (1 band), got %d", len(entry.ZoneBands))
	}
	if entry.ZoneBands[0].Min != 171 {
		t.Errorf("Expected latest zone bounds, got %+v", entry.ZoneBands[0])
	}
}

func TestRegistry_NilBandsKeepPreviousZones(t *testing.T) {
	r := NewRegistry()
	key := NewKey()

	z1 := []ZoneBand{{Name: ZonePeak, Min: 169, Max: 220}}
	r.Upsert(key, metric.IntradayHeartRate, "p1", rangeStart, rangeEnd, samplesAt(rangeStart, 72), z1, 1, true)
	r.Upsert(key, metric.IntradayHeartRate, "p1", rangeStart, rangeEnd, samplesAt(rangeStart.Add(time.Hour), 75), nil, 2, false)

	entry, _ := r.Get(key)
	if len(entry.ZoneBands) != 1 || entry.ZoneBands[0].Min != 169 {
		t.Errorf("Expected zones from page 1 to persist, got %+v", entry.ZoneBands)
	}
}

func TestRegistry_NonZoneMetricNeverPopulatesBands(t *testing.T) {
	r := NewRegistry()
	key := NewKey()

	for page := 1; page <= 3; page++ {
		r.Upsert(key, metric.BreathingRateFull, "p1", rangeStart, rangeEnd,
			samplesAt(rangeStart.Add(time.Duration(page)*time.Hour), 14.2), nil, page, page < 3)
	}

	entry, _ := r.Get(key)
	if entry.ZoneBands != nil {
		t.Errorf("Expected no zone bands for %s, got %+v", entry.Metric, entry.ZoneBands)
	}
}

func TestRegistry_RangeFixedAtCreation(t *testing.T) {
	r := NewRegistry()
	key := NewKey()

	otherStart := rangeStart.AddDate(0, 1, 0)
	r.Upsert(key, metric.IntradaySpO2, "p1", rangeStart, rangeEnd, nil, nil, 1, true)
	r.Upsert(key, metric.IntradaySpO2, "p1", otherStart, otherStart.AddDate(0, 0, 1), nil, nil, 2, false)

	entry, _ := r.Get(key)
	if !entry.RangeStart.Equal(rangeStart) || !entry.RangeEnd.Equal(rangeEnd) {
		t.Errorf("Expected creation range to stick, got [%s, %s]", entry.RangeStart, entry.RangeEnd)
	}
}

func TestRegistry_ListPreservesCreationOrder(t *testing.T) {
	r := NewRegistry()

	k1 := NewKey()
	k2 := NewKey()
	k3 := NewKey()
	r.Upsert(k1, metric.IntradaySpO2, "p1", rangeStart, rangeEnd, nil, nil, 1, false)
	r.Upsert(k2, metric.AZMCardio, "p1", rangeStart, rangeEnd, nil, nil, 1, false)
	r.Upsert(k3, metric.HRVRMSSD, "p1", rangeStart, rangeEnd, nil, nil, 1, false)

	// A later page for the first plot must not move it.
	r.Upsert(k1, metric.IntradaySpO2, "p1", rangeStart, rangeEnd, nil, nil, 2, false)

	entries := r.List()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	for i, want := range []Key{k1, k2, k3} {
		if entries[i].Key != want {
			t.Errorf("Entry %d: expected key %s, got %s", i, want, entries[i].Key)
		}
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.Upsert(NewKey(), metric.IntradaySpO2, "p1", rangeStart, rangeEnd, samplesAt(rangeStart, 97), nil, 1, false)
	r.Upsert(NewKey(), metric.AZMTotal, "p1", rangeStart, rangeEnd, samplesAt(rangeStart, 12), nil, 1, false)

	r.Clear()

	if r.Len() != 0 {
		t.Errorf("Expected empty registry after Clear, got %d entries", r.Len())
	}
	if entries := r.List(); len(entries) != 0 {
		t.Errorf("Expected empty list after Clear, got %d", len(entries))
	}
}

func TestRegistry_ListReturnsCopies(t *testing.T) {
	r := NewRegistry()
	key := NewKey()
	r.Upsert(key, metric.IntradayHeartRate, "p1", rangeStart, rangeEnd,
		samplesAt(rangeStart, 72), []ZoneBand{{Name: ZonePeak, Min: 169, Max: 220}}, 1, true)

	entries := r.List()
	entries[0].Samples[0].Value = -1
	entries[0].ZoneBands[0].Min = -1

	entry, _ := r.Get(key)
	if entry.Samples[0].Value != 72 || entry.ZoneBands[0].Min != 169 {
		t.Errorf("Mutating a snapshot leaked into the registry: %+v", entry)
	}
}

func TestNewKey_Unique(t *testing.T) {
	seen := make(map[Key]bool)
	for i := 0; i < 1000; i++ {
		k := NewKey()
		if seen[k] {
			t.Fatalf("Duplicate key generated: %s", k)
		}
		seen[k] = true
	}
}

func TestSortBands_PeakFirst(t *testing.T) {
	bands := []ZoneBand{
		{Name: ZoneOutOfRange, Min: 30, Max: 104},
		{Name: ZonePeak, Min: 169, Max: 220},
		{Name: ZoneFatBurn, Min: 104, Max: 139},
		{Name: ZoneCardio, Min: 139, Max: 169},
	}
	SortBands(bands)

	want := []ZoneName{ZonePeak, ZoneCardio, ZoneFatBurn, ZoneOutOfRange}
	for i, name := range want {
		if bands[i].Name != name {
			t.Errorf("Band %d: expected %s, got %s", i, name, bands[i].Name)
		}
	}
}
