package dashboard

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"study-dashboard/internal/gateway"
	"study-dashboard/internal/metric"
	"study-dashboard/internal/plot"
)

// HTTPHandler exposes the dashboard state machine over HTTP (Presentation
// Layer). It also enforces the caller obligation the registry documents: at
// most one in-flight fetch per plot key, so pages always arrive in order.
type HTTPHandler struct {
	orchestrator *Orchestrator
	selection    *SelectionController
	registry     *plot.Registry

	mu           sync.Mutex
	participants []gateway.Participant
	report       gateway.AdherenceReport
	inflight     map[plot.Key]bool
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(orchestrator *Orchestrator, selection *SelectionController, registry *plot.Registry) *HTTPHandler {
	return &HTTPHandler{
		orchestrator: orchestrator,
		selection:    selection,
		registry:     registry,
		inflight:     make(map[plot.Key]bool),
	}
}

// SetParticipants stores the participant list fetched at startup.
func (h *HTTPHandler) SetParticipants(participants []gateway.Participant) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.participants = participants
}

// SetReport stores the adherence report fetched at startup.
func (h *HTTPHandler) SetReport(report gateway.AdherenceReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.report = report
}

// RegisterRoutes registers the dashboard API on router.
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/participants", h.ListParticipants).Methods("GET")
	api.HandleFunc("/participants/{id}/select", h.SelectParticipant).Methods("POST")
	api.HandleFunc("/metrics", h.ListMetrics).Methods("GET")
	api.HandleFunc("/plots", h.AddPlot).Methods("POST")
	api.HandleFunc("/plots", h.ListPlots).Methods("GET")
	api.HandleFunc("/plots", h.ClearPlots).Methods("DELETE")
	api.HandleFunc("/plots/{key}/more", h.LoadMore).Methods("POST")
	api.HandleFunc("/adherence", h.Adherence).Methods("GET")
}

// AddPlotRequest is the body of POST /api/plots.
type AddPlotRequest struct {
	Metric    string `json:"metric"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// MetricInfo is one row of GET /api/metrics.
type MetricInfo struct {
	Name                string `json:"name"`
	Label               string `json:"label"`
	RequiresZoneOverlay bool   `json:"requires_zone_overlay"`
}

// ListParticipants returns the participant list.
// @Summary List study participants
// @Produce json
// @Success 200 {array} gateway.Participant
// @Router /api/participants [get]
func (h *HTTPHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	participants := h.participants
	h.mu.Unlock()

	if participants == nil {
		participants = []gateway.Participant{}
	}
	respondJSON(w, http.StatusOK, participants)
}

// SelectParticipant makes a participant active and clears all plots.
// @Summary Select the active participant
// @Produce json
// @Param id path string true "Participant id"
// @Success 200 {object} gateway.Participant
// @Failure 404 {object} map[string]interface{}
// @Router /api/participants/{id}/select [post]
func (h *HTTPHandler) SelectParticipant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	h.mu.Lock()
	var found *gateway.Participant
	for i := range h.participants {
		if h.participants[i].ID == id {
			found = &h.participants[i]
			break
		}
	}
	h.mu.Unlock()

	if found == nil {
		respondError(w, http.StatusNotFound, "Unknown participant")
		return
	}

	h.selection.Select(*found)
	h.orchestrator.Notify()
	respondJSON(w, http.StatusOK, found)
}

// ListMetrics returns the metric catalog for the plot controls.
// @Summary List supported metrics
// @Produce json
// @Success 200 {array} dashboard.MetricInfo
// @Router /api/metrics [get]
func (h *HTTPHandler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := metric.All()
	infos := make([]MetricInfo, 0, len(metrics))
	for _, m := range metrics {
		infos = append(infos, MetricInfo{
			Name:                string(m),
			Label:               metric.Label(m),
			RequiresZoneOverlay: metric.RequiresZoneOverlay(m),
		})
	}
	respondJSON(w, http.StatusOK, infos)
}

// AddPlot creates a new plot and fetches its first page.
// @Summary Add a plot
// @Accept json
// @Produce json
// @Param request body dashboard.AddPlotRequest true "Plot request"
// @Success 201 {object} plot.Entry
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/plots [post]
func (h *HTTPHandler) AddPlot(w http.ResponseWriter, r *http.Request) {
	var req AddPlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, ok := metric.Lookup(req.Metric)
	if !ok {
		respondError(w, http.StatusBadRequest, "Unknown metric")
		return
	}

	rng, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, ok := h.selection.Selected(); !ok {
		respondError(w, http.StatusBadRequest, "No participant selected")
		return
	}

	key, err := h.orchestrator.AddPlot(r.Context(), m, rng)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Fetch failed")
		return
	}

	entry, _ := h.registry.Get(key)
	respondJSON(w, http.StatusCreated, entry)
}

// LoadMore fetches the next page for an existing plot.
// @Summary Load the next page of a plot
// @Produce json
// @Param key path string true "Plot key"
// @Success 200 {object} plot.Entry
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/plots/{key}/more [post]
func (h *HTTPHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	key := plot.Key(mux.Vars(r)["key"])

	if _, ok := h.registry.Get(key); !ok {
		respondError(w, http.StatusNotFound, "Unknown plot key")
		return
	}

	if !h.acquire(key) {
		respondError(w, http.StatusConflict, "A fetch for this plot is already in flight")
		return
	}
	defer h.release(key)

	if err := h.orchestrator.LoadMore(r.Context(), key); err != nil {
		respondError(w, http.StatusBadGateway, "Fetch failed")
		return
	}

	entry, _ := h.registry.Get(key)
	respondJSON(w, http.StatusOK, entry)
}

// ListPlots returns the registry snapshot in creation order.
// @Summary List active plots
// @Produce json
// @Success 200 {array} plot.Entry
// @Router /api/plots [get]
func (h *HTTPHandler) ListPlots(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.registry.List())
}

// ClearPlots empties the plot registry.
// @Summary Clear all plots
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/plots [delete]
func (h *HTTPHandler) ClearPlots(w http.ResponseWriter, r *http.Request) {
	h.registry.Clear()
	h.orchestrator.Notify()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Plots cleared",
	})
}

// Adherence returns the adherence record of the selected participant. An
// absent record is not an error; the record field is simply null.
// @Summary Adherence record for the selected participant
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/adherence [get]
func (h *HTTPHandler) Adherence(w http.ResponseWriter, r *http.Request) {
	participant, ok := h.selection.Selected()
	if !ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{"record": nil})
		return
	}

	h.mu.Lock()
	report := h.report
	h.mu.Unlock()

	record, ok := LookupAdherence(report, participant.ID)
	if !ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{"record": nil})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"record": record})
}

func (h *HTTPHandler) acquire(key plot.Key) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inflight[key] {
		return false
	}
	h.inflight[key] = true
	return true
}

func (h *HTTPHandler) release(key plot.Key) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inflight, key)
}

func parseRange(start, end string) (DateRange, error) {
	startTime, err := parseTimestamp(start)
	if err != nil {
		return DateRange{}, err
	}
	endTime, err := parseTimestamp(end)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: startTime, End: endTime}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(gateway.TimeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// CORS returns the permissive middleware the browser display layer needs to
// call the API from another origin.
func CORS() func(http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
}

// ===== Utilities =====

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[ERROR] Failed to encode JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":  message,
		"status": status,
	})
}
