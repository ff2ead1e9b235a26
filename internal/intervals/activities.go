package intervals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"activity-recap/internal/activity"
	"activity-recap/internal/metrics"
	"activity-recap/internal/provider"
)

// queryLayout is the local datetime format the activities endpoint accepts
const queryLayout = "2006-01-02T15:04:05"

// Time parses timestamps that may or may not carry a zone offset
type Time struct {
	time.Time
}

func (it *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		return nil
	}

	// Try RFC3339 first
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		it.Time = t
		return nil
	}

	// Try ISO-8601 without offset
	t, err = time.Parse(queryLayout, s)
	if err == nil {
		it.Time = t
		return nil
	}

	return fmt.Errorf("could not parse time %s", s)
}

// Activity is one entry of GET /api/v1/athlete/0/activities
type Activity struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	StartDate          Time     `json:"start_date"`
	StartDateLocal     Time     `json:"start_date_local"`
	Distance           *float64 `json:"distance"`
	MovingTime         *int64   `json:"moving_time"`
	TotalElevationGain *float64 `json:"total_elevation_gain"`
	AverageHeartrate   *float64 `json:"average_heartrate"`
	MaxHeartrate       *float64 `json:"max_heartrate"`
}

// ParseActivities parses an activities response body
func ParseActivities(data []byte) ([]Activity, error) {
	var activities []Activity
	if err := json.Unmarshal(data, &activities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activities: %w", err)
	}
	return activities, nil
}

// Record maps the wire activity to the provider-independent record. When
// only the local start time is known it is used as the UTC start.
func (a Activity) Record() activity.Record {
	start := a.StartDate.Time
	if start.IsZero() {
		start = a.StartDateLocal.Time
	}

	return activity.Record{
		ID:                  a.ID,
		Name:                a.Name,
		Type:                a.Type,
		StartTime:           start.UTC(),
		LocalStartTime:      a.StartDateLocal.Time,
		DistanceMeters:      max(deref(a.Distance), 0),
		MovingTimeSeconds:   max(deref(a.MovingTime), 0),
		ElevationGainMeters: max(deref(a.TotalElevationGain), 0),
		AverageHeartRate:    a.AverageHeartrate,
		MaxHeartRate:        a.MaxHeartrate,
	}
}

func deref[T int64 | float64](v *T) T {
	if v == nil {
		return 0
	}
	return *v
}

// ListActivities fetches up to limit activities starting at oldest
func (c *Client) ListActivities(ctx context.Context, creds provider.Credentials, oldest, newest time.Time, limit int) ([]activity.Record, error) {
	params := url.Values{
		"oldest": {oldest.UTC().Format(queryLayout)},
		"newest": {newest.UTC().Format(queryLayout)},
		"limit":  {strconv.Itoa(limit)},
	}

	respBody, err := c.api.Do(ctx, metrics.OpListActivities, http.MethodGet, "/api/v1/athlete/0/activities", params, nil, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	list, err := ParseActivities(respBody)
	if err != nil {
		return nil, provider.Unexpected(provider.Intervals, metrics.OpListActivities, err)
	}

	records := make([]activity.Record, 0, len(list))
	for _, a := range list {
		records = append(records, a.Record())
	}
	return records, nil
}

// FetchActivities returns every activity in the window. Each page request
// moves the oldest bound past the latest activity already seen.
func (c *Client) FetchActivities(ctx context.Context, creds provider.Credentials, window activity.Window) ([]activity.Record, error) {
	if creds.AccessToken == "" {
		return nil, provider.Unexpected(provider.Intervals, metrics.OpListActivities, fmt.Errorf("missing access token"))
	}

	records, pages, err := c.pager.Paginate(ctx, window, func(ctx context.Context, req provider.PageRequest) ([]activity.Record, error) {
		return c.ListActivities(ctx, creds, req.Oldest, req.Newest, req.Size)
	})
	if err != nil {
		c.logger.Warn("activity fetch failed", "provider", provider.Intervals, "pages", pages, "kind", provider.KindOf(err))
		return nil, err
	}

	c.logger.Debug("activities fetched", "provider", provider.Intervals, "pages", pages, "activities", len(records))
	return records, nil
}
