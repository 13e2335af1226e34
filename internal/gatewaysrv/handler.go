package gatewaysrv

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"study-dashboard/internal/gateway"
	"study-dashboard/internal/metric"
	"study-dashboard/internal/plot"
)

// Handler serves the gateway HTTP endpoints.
type Handler struct {
	repo     Repository
	pageSize int
}

// NewHandler creates a gateway handler with the given page size for /data.
func NewHandler(repo Repository, pageSize int) *Handler {
	return &Handler{
		repo:     repo,
		pageSize: pageSize,
	}
}

// RegisterRoutes registers the gateway endpoints on router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users", h.Users).Methods("GET")
	router.HandleFunc("/adherence", h.Adherence).Methods("GET")
	router.HandleFunc("/data", h.Data).Methods("GET")
	router.HandleFunc("/zones", h.Zones).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Users returns the participant list.
// GET /users
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	participants, err := h.repo.Participants(r.Context())
	if err != nil {
		log.Printf("[ERROR] Failed to list participants: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list participants")
		return
	}
	respondJSON(w, http.StatusOK, participants)
}

// Adherence returns the adherence report keyed by participant id.
// GET /adherence
func (h *Handler) Adherence(w http.ResponseWriter, r *http.Request) {
	report, err := h.repo.Adherence(r.Context())
	if err != nil {
		log.Printf("[ERROR] Failed to build adherence report: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to build adherence report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Data returns one page of samples.
// GET /data?start_date&end_date&user_ids&metric&page
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := parseTimestamp(q.Get("start_date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid start_date. Use ISO format.")
		return
	}
	end, err := parseTimestamp(q.Get("end_date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid end_date. Use ISO format.")
		return
	}

	metricName := q.Get("metric")
	if _, ok := metric.Lookup(metricName); !ok {
		respondError(w, http.StatusBadRequest, "Unknown metric")
		return
	}
	dataRequestsTotal.WithLabelValues(metricName).Inc()

	participantIDs := splitIDs(q.Get("user_ids"))
	if len(participantIDs) == 0 {
		respondError(w, http.StatusBadRequest, "Missing user_ids")
		return
	}

	page := 1
	if raw := q.Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			respondError(w, http.StatusBadRequest, "Invalid page")
			return
		}
	}

	samples, hasMore, err := h.fetchPage(r.Context(), start, end, participantIDs, metricName, page)
	if err != nil {
		log.Printf("[ERROR] Failed to query %s samples: %v", metricName, err)
		respondError(w, http.StatusInternalServerError, "Failed to query samples")
		return
	}

	respondJSON(w, http.StatusOK, gateway.DataPage{
		Data:    samples,
		Page:    page,
		HasMore: hasMore,
	})
}

// fetchPage asks the repository for one extra row beyond the page size; the
// presence of that row is the has_more signal and it is trimmed before
// responding.
func (h *Handler) fetchPage(ctx context.Context, start, end time.Time, participantIDs []string, metricName string, page int) ([]plot.Sample, bool, error) {
	offset := (page - 1) * h.pageSize
	samples, err := h.repo.Samples(ctx, start, end, participantIDs, metricName, h.pageSize+1, offset)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(samples) > h.pageSize
	if hasMore {
		samples = samples[:h.pageSize]
	}
	if samples == nil {
		samples = []plot.Sample{}
	}
	return samples, hasMore, nil
}

// Zones returns the zone bounds for a participant and date. Only the date
// part of the timestamp is used.
// GET /zones?date&user_id
func (h *Handler) Zones(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date := q.Get("date")
	if idx := strings.Index(date, "T"); idx > 0 {
		date = date[:idx]
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date. Use ISO format.")
		return
	}

	participantID := q.Get("user_id")
	if participantID == "" {
		respondError(w, http.StatusBadRequest, "Missing user_id")
		return
	}

	zones, err := h.repo.Zones(r.Context(), date, participantID)
	if err != nil {
		log.Printf("[ERROR] Failed to query zones: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to query zones")
		return
	}
	if zones == nil {
		zones = gateway.Zones{}
	}
	respondJSON(w, http.StatusOK, zones)
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(gateway.TimeLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

// CORS returns the permissive middleware browser clients need; the dashboard
// frontend calls this service from a different origin.
func CORS() func(http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
}

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
