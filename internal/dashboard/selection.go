package dashboard

import (
	"log"
	"sync"

	"study-dashboard/internal/gateway"
	"study-dashboard/internal/plot"
)

// SelectionController tracks the active participant. Switching participants
// always discards every plot, including re-selecting the current one - there
// is no per-participant plot cache.
type SelectionController struct {
	mu       sync.RWMutex
	registry *plot.Registry
	selected *gateway.Participant
}

// NewSelectionController creates a controller with no participant selected.
func NewSelectionController(registry *plot.Registry) *SelectionController {
	return &SelectionController{registry: registry}
}

// Select makes p the active participant and clears the plot registry.
func (c *SelectionController) Select(p gateway.Participant) {
	c.mu.Lock()
	c.selected = &p
	c.mu.Unlock()

	c.registry.Clear()
	log.Printf("[SESSION] Selected participant %s (%s)", p.ID, p.Name)
}

// Selected returns the active participant, if any.
func (c *SelectionController) Selected() (gateway.Participant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.selected == nil {
		return gateway.Participant{}, false
	}
	return *c.selected, true
}
