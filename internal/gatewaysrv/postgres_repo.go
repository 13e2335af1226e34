package gatewaysrv

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"study-dashboard/internal/gateway"
	"study-dashboard/internal/plot"
)

// PostgresRepository serves gateway data from PostgreSQL (Infrastructure
// Layer). Raw samples live in biometric_data; pre-aggregated rollups in
// data_1m, data_1h and data_1d. Adherence flags are written by the ingestion
// pipeline into adherence_flags; this repository only reads them.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository connects to PostgreSQL and verifies the connection.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// tableForInterval picks the aggregate table for a query window. Short
// windows read raw rows; longer ones fall back to coarser rollups.
func tableForInterval(start, end time.Time) (table, valueColumn string) {
	duration := end.Sub(start)
	switch {
	case duration <= 48*time.Hour:
		return "biometric_data", "value"
	case duration <= 30*24*time.Hour:
		return "data_1m", "avg_value"
	case duration <= 365*24*time.Hour:
		return "data_1h", "avg_value"
	default:
		return "data_1d", "avg_value"
	}
}

func (r *PostgresRepository) Participants(ctx context.Context) ([]gateway.Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id, name FROM users ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var participants []gateway.Participant
	for rows.Next() {
		var p gateway.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *PostgresRepository) Samples(ctx context.Context, start, end time.Time, participantIDs []string, metricName string, limit, offset int) ([]plot.Sample, error) {
	table, valueColumn := tableForInterval(start, end)

	query := fmt.Sprintf(`
		SELECT time, %s FROM %s
		WHERE user_id = ANY($1) AND metric_name = $2 AND time BETWEEN $3 AND $4
		ORDER BY time
		LIMIT $5 OFFSET $6`, valueColumn, table)

	rows, err := r.db.QueryContext(ctx, query,
		pq.Array(participantIDs), metricName, start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var samples []plot.Sample
	for rows.Next() {
		var s plot.Sample
		if err := rows.Scan(&s.Time, &s.Value); err != nil {
			return nil, fmt.Errorf("failed to scan sample row: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func (r *PostgresRepository) Zones(ctx context.Context, date string, participantID string) (gateway.Zones, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT zone_name, min_hr, max_hr FROM daily_zones WHERE user_id = $1 AND date = $2",
		participantID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily_zones: %w", err)
	}
	defer rows.Close()

	zones := gateway.Zones{}
	for rows.Next() {
		var name string
		var zone gateway.ZoneRange
		if err := rows.Scan(&name, &zone.Min, &zone.Max); err != nil {
			return nil, fmt.Errorf("failed to scan zone row: %w", err)
		}
		zones[name] = zone
	}
	return zones, rows.Err()
}

func (r *PostgresRepository) Adherence(ctx context.Context) (gateway.AdherenceReport, error) {
	report := gateway.AdherenceReport{}

	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id, name, email FROM users")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	for rows.Next() {
		var id string
		var record gateway.AdherenceRecord
		if err := rows.Scan(&id, &record.Name, &record.Email); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		record.Flags = []string{}
		report[id] = record
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	flagRows, err := r.db.QueryContext(ctx,
		"SELECT user_id, flag FROM adherence_flags ORDER BY user_id, position")
	if err != nil {
		return nil, fmt.Errorf("failed to query adherence_flags: %w", err)
	}
	defer flagRows.Close()

	for flagRows.Next() {
		var id, flag string
		if err := flagRows.Scan(&id, &flag); err != nil {
			return nil, fmt.Errorf("failed to scan flag row: %w", err)
		}
		record, ok := report[id]
		if !ok {
			continue
		}
		record.Flags = append(record.Flags, flag)
		report[id] = record
	}
	return report, flagRows.Err()
}
