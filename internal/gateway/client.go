package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"study-dashboard/internal/metric"
)

// TimeLayout is the timestamp format used in gateway query parameters,
// matching the datetime-local values the dashboard controls produce.
const TimeLayout = "2006-01-02T15:04"

// Client talks to the remote data gateway. Every call is a single HTTP
// round trip; a network error, a non-2xx status or a malformed body all
// surface as an error with no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Users fetches the participant list.
func (c *Client) Users(ctx context.Context) ([]Participant, error) {
	var participants []Participant
	if err := c.get(ctx, "/users", nil, &participants); err != nil {
		return nil, fmt.Errorf("failed to fetch participants: %w", err)
	}
	return participants, nil
}

// Adherence fetches the full adherence report, keyed by participant id.
func (c *Client) Adherence(ctx context.Context) (AdherenceReport, error) {
	var report AdherenceReport
	if err := c.get(ctx, "/adherence", nil, &report); err != nil {
		return nil, fmt.Errorf("failed to fetch adherence report: %w", err)
	}
	return report, nil
}

// Data fetches one page of samples for a participant, metric and date range.
func (c *Client) Data(ctx context.Context, start, end time.Time, participantID string, m metric.Metric, page int) (*DataPage, error) {
	params := url.Values{}
	params.Set("start_date", start.Format(TimeLayout))
	params.Set("end_date", end.Format(TimeLayout))
	params.Set("user_ids", participantID)
	params.Set("metric", string(m))
	params.Set("page", fmt.Sprintf("%d", page))

	var dataPage DataPage
	if err := c.get(ctx, "/data", params, &dataPage); err != nil {
		return nil, fmt.Errorf("failed to fetch %s page %d: %w", m, page, err)
	}
	return &dataPage, nil
}

// Zones fetches the heart-rate zone bounds for a participant on the given
// date. The gateway only uses the date part of the timestamp.
func (c *Client) Zones(ctx context.Context, date time.Time, participantID string) (Zones, error) {
	params := url.Values{}
	params.Set("date", date.Format(TimeLayout))
	params.Set("user_id", participantID)

	var zones Zones
	if err := c.get(ctx, "/zones", params, &zones); err != nil {
		return nil, fmt.Errorf("failed to fetch zones: %w", err)
	}
	return zones, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request for %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned %d for %s: %s", resp.StatusCode, path, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
