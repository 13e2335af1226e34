// Package gatewaysrv implements the data gateway: the HTTP service the
// dashboard fetches participants, samples, zones and the adherence report
// from. Metric values and adherence flags are read pre-computed; this service
// only serves them.
package gatewaysrv

import (
	"context"
	"time"

	"study-dashboard/internal/gateway"
	"study-dashboard/internal/plot"
)

// Repository is the storage behind the gateway endpoints.
type Repository interface {
	// Participants lists all participants ordered by name.
	Participants(ctx context.Context) ([]gateway.Participant, error)

	// Samples returns samples for the given participants and metric within
	// [start, end], ordered by time, honoring limit and offset.
	Samples(ctx context.Context, start, end time.Time, participantIDs []string, metricName string, limit, offset int) ([]plot.Sample, error)

	// Zones returns the heart-rate zone bounds of a participant for a date
	// (YYYY-MM-DD).
	Zones(ctx context.Context, date string, participantID string) (gateway.Zones, error)

	// Adherence returns the pre-computed adherence report for all
	// participants.
	Adherence(ctx context.Context) (gateway.AdherenceReport, error)
}
