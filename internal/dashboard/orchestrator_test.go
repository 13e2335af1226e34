package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"study-dashboard/internal/gateway"
	"study-dashboard/internal/metric"
	"study-dashboard/internal/plot"
)

// fakeGateway serves canned /data and /zones responses and counts calls.
type fakeGateway struct {
	server *httptest.Server

	mu        sync.Mutex
	dataCalls int
	zoneCalls int
	dataPages map[int]string
	zonesBody string
	failData  bool
	failZones bool
}

func newFakeGateway() *fakeGateway {
	fg := &fakeGateway{
		dataPages: make(map[int]string),
		zonesBody: `{}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		fg.mu.Lock()
		fg.dataCalls++
		fail := fg.failData
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		body, ok := fg.dataPages[page]
		fg.mu.Unlock()

		if fail {
			http.Error(w, "data unavailable", http.StatusInternalServerError)
			return
		}
		if !ok {
			body = `{"data":[],"page":` + strconv.Itoa(page) + `,"has_more":false}`
		}
		w.Write([]byte(body))
	})
	mux.HandleFunc("/zones", func(w http.ResponseWriter, r *http.Request) {
		fg.mu.Lock()
		fg.zoneCalls++
		fail := fg.failZones
		body := fg.zonesBody
		fg.mu.Unlock()

		if fail {
			http.Error(w, "zones unavailable", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(body))
	})
	fg.server = httptest.NewServer(mux)
	return fg
}

func (fg *fakeGateway) counts() (data, zones int) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	return fg.dataCalls, fg.zoneCalls
}

func (fg *fakeGateway) set(f func(fg *fakeGateway)) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	f(fg)
}

type recordingSink struct {
	mu        sync.Mutex
	snapshots [][]plot.Entry
}

func (s *recordingSink) BroadcastSnapshot(entries []plot.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, entries)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

func newTestOrchestrator(fg *fakeGateway, sink SnapshotSink) (*Orchestrator, *plot.Registry, *SelectionController) {
	client := gateway.NewClient(fg.server.URL, 5*time.Second)
	registry := plot.NewRegistry()
	selection := NewSelectionController(registry)
	return NewOrchestrator(client, registry, selection, sink), registry, selection
}

func testRange() DateRange {
	return DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestOrchestrator_HeartRateScenario(t *testing.T) {
	fg := newFakeGateway()
	defer fg.server.Close()

	fg.set(func(fg *fakeGateway) {
		fg.dataPages[1] = `{"data":[{"time":"2024-01-01T00:05:00Z","value":72}],"page":1,"has_more":true}`
		fg.dataPages[2] = `{"data":[{"time":"2024-01-01T00:10:00Z","value":75}],"page":2,"has_more":false}`
		fg.zonesBody = `{"Peak":{"min":169,"max":220},"Cardio":{"min":139,"max":169}}`
	})

	orch, registry, selection := newTestOrchestrator(fg, nil)
	selection.Select(gateway.Participant{ID: "p1", Name: "Alice"})

	key, err := orch.AddPlot(context.Background(), metric.IntradayHeartRate, testRange())
	if err != nil {
		t.Fatalf("AddPlot failed: %v", err)
	}

	entry, ok := registry.Get(key)
	if !ok {
		t.Fatalf("Expected entry after AddPlot")
	}
	if len(entry.Samples) != 1 || entry.Samples[0].Value != 72 {
		t.Errorf("Unexpected page 1 samples: %+v", entry.Samples)
	}
	if len(entry.ZoneBands) != 2 {
		t.Fatalf("Expected 2 zone bands, got %d", len(entry.ZoneBands))
	}
	if entry.Page != 1 || !entry.HasMore {
		t.Errorf("Unexpected pagination state: page=%d has_more=%t", entry.Page, entry.HasMore)
	}

	if err := orch.LoadMore(context.Background(), key); err != nil {
		t.Fatalf("LoadMore failed: %v", err)
	}

	entry, _ = registry.Get(key)
	if len(entry.Samples) != 2 {
		t.Fatalf("Expected 2 samples after load more, got %d", len(entry.Samples))
	}
	if !entry.Samples[0].Time.Before(entry.Samples[1].Time) {
		t.Errorf("Samples out of order: %+v", entry.Samples)
	}
	if entry.Page != 2 || entry.HasMore {
		t.Errorf("Unexpected pagination state after load more: page=%d has_more=%t", entry.Page, entry.HasMore)
	}
	if len(entry.ZoneBands) != 2 {
		t.Errorf("Expected zone bands to survive load more, got %+v", entry.ZoneBands)
	}

	// Zones are refetched per page, always with the plot's start date.
	_, zoneCalls := fg.counts()
	if zoneCalls != 2 {
		t.Errorf("Expected 2 zone lookups, got %d", zoneCalls)
	}
}

func TestOrchestrator_NoParticipantIsSilentNoOp(t *testing.T) {
	fg := newFakeGateway()
	defer fg.server.Close()

	orch, registry, _ := newTestOrchestrator(fg, nil)

	err := orch.RequestPage(context.Background(), plot.NewKey(), metric.IntradayHeartRate, testRange(), 1)
	if err != nil {
		t.Fatalf("Expected silent no-op, got error: %v", err)
	}

	if registry.Len() != 0 {
		t.Errorf("Expected empty registry, got %d entries", registry.Len())
	}
	dataCalls, zoneCalls := fg.counts()
	if dataCalls != 0 || zoneCalls != 0 {
		t.Errorf("Expected no gateway calls, got data=%d zones=%d", dataCalls, zoneCalls)
	}
}

func TestOrchestrator_NonZoneMetricSkipsZoneCall(t *testing.T) {
	fg := newFakeGateway()
	defer fg.server.Close()

	fg.set(func(fg *fakeGateway) {
		fg.dataPages[1] = `{"data":[{"time":"2024-01-01T01:00:00Z","value":97.5}],"page":1,"has_more":false}`
	})

	orch, registry, selection := newTestOrchestrator(fg, nil)
	selection.Select(gateway.Participant{ID: "p1"})

	key, err := orch.AddPlot(context.Background(), metric.IntradaySpO2, testRange())
	if err != nil {
		t.Fatalf("AddPlot failed: %v", err)
	}

	_, zoneCalls := fg.counts()
	if zoneCalls != 0 {
		t.Errorf("Expected no zone lookups for spo2, got %d", zoneCalls)
	}

	entry, _ := registry.Get(key)
	if entry.ZoneBands != nil {
		t.Errorf("Expected no zone bands for spo2, got %+v", entry.ZoneBands)
	}
}

func TestOrchestrator_ZoneFailureFailsWholeOperation(t *testing.T) {
	fg := newFakeGateway()
	defer fg.server.Close()

	fg.set(func(fg *fakeGateway) {
		fg.dataPages[1] = `{"data":[{"time":"2024-01-01T00:05:00Z","value":72}],"page":1,"has_more":true}`
		fg.failZones = true
	})

	orch, registry, selection := newTestOrchestrator(fg, nil)
	selection.Select(gateway.Participant{ID: "p1"})

	if _, err := orch.AddPlot(context.Background(), metric.IntradayHeartRate, testRange()); err == nil {
		t.Fatalf("Expected zone failure to fail the whole operation")
	}
	if registry.Len() != 0 {
		t.Errorf("Expected registry untouched after joined-fetch failure, got %d entries", registry.Len())
	}
}

func TestOrchestrator_FailedLoadMoreLeavesEntryUntouched(t *testing.T) {
	fg := newFakeGateway()
	defer fg.server.Close()

	fg.set(func(fg *fakeGateway) {
		fg.dataPages[1] = `{"data":[{"time":"2024-01-01T00:05:00Z","value":97},{"time":"2024-01-01T00:06:00Z","value":96}],"page":1,"has_more":true}`
		fg.dataPages[2] = `{"data":[{"time":"2024-01-01T00:07:00Z","value":95}],"page":2,"has_more":true}`
	})

	orch, registry, selection := newTestOrchestrator(fg, nil)
	selection.Select(gateway.Participant{ID: "p1"})

	key, err := orch.AddPlot(context.Background(), metric.IntradaySpO2, testRange())
	if err != nil {
		t.Fatalf("AddPlot failed: %v", err)
	}
	if err := orch.LoadMore(context.Background(), key); err != nil {
		t.Fatalf("LoadMore failed: %v", err)
	}

	before, _ := registry.Get(key)

	fg.set(func(fg *fakeGateway) { fg.failData = true })
	if err := orch.LoadMore(context.Background(), key); err == nil {
		t.Fatalf("Expected LoadMore to fail")
	}

	after, _ := registry.Get(key)
	if len(after.Samples) != len(before.Samples) || after.Page != before.Page || after.HasMore != before.HasMore {
		t.Errorf("Failed fetch mutated the entry: before=%+v after=%+v", before, after)
	}
	if after.Page != 2 {
		t.Errorf("Expected entry to stay at page 2, got %d", after.Page)
	}
}

func TestOrchestrator_LoadMoreUnknownKey(t *testing.T) {
	fg := newFakeGateway()
	defer fg.server.Close()

	orch, _, selection := newTestOrchestrator(fg, nil)
	selection.Select(gateway.Participant{ID: "p1"})

	if err := orch.LoadMore(context.Background(), plot.NewKey()); err == nil {
		t.Errorf("Expected error for unknown plot key")
	}
}

func TestOrchestrator_EmptyResultStillCreatesEntry(t *testing.T) {
	fg := newFakeGateway()
	defer fg.server.Close()

	fg.set(func(fg *fakeGateway) {
		fg.dataPages[1] = `{"data":[],"page":1,"has_more":false}`
	})

	orch, registry, selection := newTestOrchestrator(fg, nil)
	selection.Select(gateway.Participant{ID: "p1"})

	key, err := orch.AddPlot(context.Background(), metric.AZMTotal, testRange())
	if err != nil {
		t.Fatalf("AddPlot failed: %v", err)
	}

	entry, ok := registry.Get(key)
	if !ok {
		t.Fatalf("Expected entry for empty result")
	}
	if len(entry.Samples) != 0 {
		t.Errorf("Expected zero samples, got %d", len(entry.Samples))
	}
	if entry.HasMore {
		t.Errorf("Expected has_more=false")
	}
}

func TestOrchestrator_TwoAddPlotsProduceDistinctEntries(t *testing.T) {
	fg := newFakeGateway()
	defer fg.server.Close()

	fg.set(func(fg *fakeGateway) {
		fg.dataPages[1] = `{"data":[],"page":1,"has_more":false}`
	})

	orch, registry, selection := newTestOrchestrator(fg, nil)
	selection.Select(gateway.Participant{ID: "p1"})

	k1, err := orch.AddPlot(context.Background(), metric.IntradaySpO2, testRange())
	if err != nil {
		t.Fatalf("First AddPlot failed: %v", err)
	}
	k2, err := orch.AddPlot(context.Background(), metric.IntradaySpO2, testRange())
	if err != nil {
		t.Fatalf("Second AddPlot failed: %v", err)
	}

	if k1 == k2 {
		t.Errorf("Expected distinct keys for two Add Plot actions")
	}
	if registry.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", registry.Len())
	}
}

func TestOrchestrator_BroadcastsSnapshotAfterUpsert(t *testing.T) {
	fg := newFakeGateway()
	defer fg.server.Close()

	fg.set(func(fg *fakeGateway) {
		fg.dataPages[1] = `{"data":[],"page":1,"has_more":false}`
	})

	sink := &recordingSink{}
	orch, _, selection := newTestOrchestrator(fg, sink)
	selection.Select(gateway.Participant{ID: "p1"})

	if _, err := orch.AddPlot(context.Background(), metric.IntradaySpO2, testRange()); err != nil {
		t.Fatalf("AddPlot failed: %v", err)
	}

	if sink.count() != 1 {
		t.Errorf("Expected 1 snapshot broadcast, got %d", sink.count())
	}
}
