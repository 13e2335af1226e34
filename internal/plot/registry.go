package plot

import (
	"log"
	"sync"
	"time"

	"study-dashboard/internal/metric"
)

// Registry owns every active plot entry, keyed by plot key. All mutation goes
// through Upsert and Clear; callers only ever see copies of the entries.
type Registry struct {
	mu      sync.RWMutex
	entries map[Key]*Entry
	order   []Key
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Key]*Entry),
	}
}

// Upsert merges one fetched page into the registry. A new key creates an
// entry; an existing key appends samples in arrival order and updates the
// pagination state. Zone bands, when present, replace the previous set
// wholesale. The caller must request pages for a key in increasing order -
// the registry does not reorder or deduplicate.
func (r *Registry) Upsert(key Key, m metric.Metric, participantID string, rangeStart, rangeEnd time.Time, samples []Sample, bands []ZoneBand, page int, hasMore bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[key]
	if !exists {
		entry = &Entry{
			Key:           key,
			Metric:        m,
			ParticipantID: participantID,
			RangeStart:    rangeStart,
			RangeEnd:      rangeEnd,
			Samples:       make([]Sample, 0, len(samples)),
			CreatedAt:     time.Now(),
		}
		r.entries[key] = entry
		r.order = append(r.order, key)
	}

	entry.Samples = append(entry.Samples, samples...)
	if bands != nil {
		replaced := make([]ZoneBand, len(bands))
		copy(replaced, bands)
		SortBands(replaced)
		entry.ZoneBands = replaced
	}
	entry.Page = page
	entry.HasMore = hasMore

	log.Printf("[PLOT] Upserted plot %s: metric=%s participant=%s samples=%d page=%d has_more=%t",
		key, m, participantID, len(entry.Samples), page, hasMore)
}

// Clear drops every entry. Used on participant switch and on an explicit
// "clear plots" action.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) > 0 {
		log.Printf("[PLOT] Clearing %d plot(s)", len(r.entries))
	}
	r.entries = make(map[Key]*Entry)
	r.order = nil
}

// Get returns a copy of the entry for key, if present.
func (r *Registry) Get(key Key) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[key]
	if !ok {
		return Entry{}, false
	}
	return entry.clone(), true
}

// List returns copies of all entries in creation order.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key].clone())
	}
	return out
}

// Len returns the number of active plots.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
