package dashboard

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"study-dashboard/internal/gateway"
	"study-dashboard/internal/metric"
	"study-dashboard/internal/plot"
)

// DateRange is the half-open window a plot was requested for.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// SnapshotSink receives the full plot snapshot after every registry change.
// The WebSocket hub implements it; a nil sink disables pushes.
type SnapshotSink interface {
	BroadcastSnapshot(entries []plot.Entry)
}

// Orchestrator turns plot requests into gateway calls and funnels the results
// into the plot registry. For zone-bearing metrics the sample fetch and the
// zone lookup are joined: the registry is only touched once both have
// succeeded, so a zone failure never produces a plot without its bands.
type Orchestrator struct {
	client    *gateway.Client
	registry  *plot.Registry
	selection *SelectionController
	sink      SnapshotSink
}

// NewOrchestrator wires an orchestrator. sink may be nil.
func NewOrchestrator(client *gateway.Client, registry *plot.Registry, selection *SelectionController, sink SnapshotSink) *Orchestrator {
	return &Orchestrator{
		client:    client,
		registry:  registry,
		selection: selection,
		sink:      sink,
	}
}

// AddPlot creates a fresh plot key and fetches its first page.
func (o *Orchestrator) AddPlot(ctx context.Context, m metric.Metric, rng DateRange) (plot.Key, error) {
	key := plot.NewKey()
	if err := o.RequestPage(ctx, key, m, rng, 1); err != nil {
		return "", err
	}
	return key, nil
}

// LoadMore fetches the next page for an existing plot, reusing the date range
// the plot was created with. Callers must not overlap LoadMore calls for the
// same key; pages have to arrive in increasing order.
func (o *Orchestrator) LoadMore(ctx context.Context, key plot.Key) error {
	entry, ok := o.registry.Get(key)
	if !ok {
		return fmt.Errorf("unknown plot key %s", key)
	}
	rng := DateRange{Start: entry.RangeStart, End: entry.RangeEnd}
	return o.RequestPage(ctx, key, entry.Metric, rng, entry.Page+1)
}

// RequestPage fetches one page for key and merges it into the registry. With
// no participant selected it logs and no-ops. On any gateway failure the
// registry is left untouched for key and the error is returned.
func (o *Orchestrator) RequestPage(ctx context.Context, key plot.Key, m metric.Metric, rng DateRange, page int) error {
	participant, ok := o.selection.Selected()
	if !ok {
		log.Printf("[PLOT] No participant selected, ignoring %s request", m)
		return nil
	}

	var (
		wg       sync.WaitGroup
		dataPage *gateway.DataPage
		bands    []plot.ZoneBand
	)
	errChan := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		dp, err := o.client.Data(ctx, rng.Start, rng.End, participant.ID, m, page)
		if err != nil {
			errChan <- err
			return
		}
		dataPage = dp
	}()

	// Zone bounds depend on the participant and the plot's start date, not on
	// the page, so the lookup always uses rng.Start.
	if metric.RequiresZoneOverlay(m) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			zones, err := o.client.Zones(ctx, rng.Start, participant.ID)
			if err != nil {
				errChan <- err
				return
			}
			bands = zones.Bands()
		}()
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		log.Printf("[PLOT] Fetch failed for plot %s page %d: %v", key, page, err)
		return err
	}

	o.registry.Upsert(key, m, participant.ID, rng.Start, rng.End,
		dataPage.Data, bands, dataPage.Page, dataPage.HasMore)
	o.notify()
	return nil
}

func (o *Orchestrator) notify() {
	if o.sink != nil {
		o.sink.BroadcastSnapshot(o.registry.List())
	}
}

// Notify pushes the current snapshot to the sink. The HTTP layer calls it
// after clearing plots or switching participants.
func (o *Orchestrator) Notify() {
	o.notify()
}
