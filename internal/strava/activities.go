package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"activity-recap/internal/activity"
	"activity-recap/internal/metrics"
	"activity-recap/internal/provider"
)

// SummaryActivity is one entry of GET /athlete/activities
type SummaryActivity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	StartDateLocal     string    `json:"start_date_local"`
	Distance           float64   `json:"distance"`
	MovingTime         int64     `json:"moving_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	AverageHeartrate   *float64  `json:"average_heartrate"`
	MaxHeartrate       *float64  `json:"max_heartrate"`
}

// ParseActivitiesSummary parses a list-activities response body
func ParseActivitiesSummary(data []byte) ([]SummaryActivity, error) {
	var activities []SummaryActivity
	if err := json.Unmarshal(data, &activities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activities: %w", err)
	}
	return activities, nil
}

// Record maps the wire activity to the provider-independent record.
// sport_type is preferred over the legacy type field.
func (a SummaryActivity) Record() activity.Record {
	activityType := a.SportType
	if activityType == "" {
		activityType = a.Type
	}

	r := activity.Record{
		ID:                  strconv.FormatInt(a.ID, 10),
		Name:                a.Name,
		Type:                activityType,
		StartTime:           a.StartDate.UTC(),
		DistanceMeters:      max(a.Distance, 0),
		MovingTimeSeconds:   max(a.MovingTime, 0),
		ElevationGainMeters: max(a.TotalElevationGain, 0),
		AverageHeartRate:    a.AverageHeartrate,
		MaxHeartRate:        a.MaxHeartrate,
	}

	// start_date_local carries the wall clock with a misleading Z suffix
	if local, err := time.Parse(time.RFC3339, a.StartDateLocal); err == nil {
		r.LocalStartTime = local
	}
	return r
}

// ListActivities fetches one page of activities between after and before.
// Returns the mapped records for the page.
func (c *Client) ListActivities(ctx context.Context, creds provider.Credentials, after, before time.Time, page, perPage int) ([]activity.Record, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > MaxPageSize {
		perPage = MaxPageSize
	}

	params := url.Values{
		"after":    {strconv.FormatInt(after.Unix(), 10)},
		"before":   {strconv.FormatInt(before.Unix(), 10)},
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}

	respBody, err := c.api.Do(ctx, metrics.OpListActivities, http.MethodGet, "/athlete/activities", params, nil, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	summaries, err := ParseActivitiesSummary(respBody)
	if err != nil {
		return nil, provider.Unexpected(provider.Strava, metrics.OpListActivities, err)
	}

	records := make([]activity.Record, len(summaries))
	for i, s := range summaries {
		records[i] = s.Record()
	}
	return records, nil
}

// FetchActivities returns every activity in the window, paging until Strava
// returns a short page.
func (c *Client) FetchActivities(ctx context.Context, creds provider.Credentials, window activity.Window) ([]activity.Record, error) {
	if creds.AccessToken == "" {
		return nil, provider.Unexpected(provider.Strava, metrics.OpListActivities, fmt.Errorf("missing access token"))
	}

	records, pages, err := c.pager.Paginate(ctx, window, func(ctx context.Context, req provider.PageRequest) ([]activity.Record, error) {
		return c.ListActivities(ctx, creds, req.Oldest, req.Newest, req.Page, req.Size)
	})
	if err != nil {
		c.logger.Warn("activity fetch failed", "provider", provider.Strava, "pages", pages, "kind", provider.KindOf(err))
		return nil, err
	}

	c.logger.Debug("activities fetched", "provider", provider.Strava, "pages", pages, "activities", len(records))
	return records, nil
}
