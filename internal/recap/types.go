// Package recap turns a uniform activity list into totals, a per-type
// breakdown, per-day heatmap entries and highlight selections.
package recap

import (
	"time"

	"activity-recap/internal/activity"
)

// Total sums a set of activities
type Total struct {
	Activities          int     `json:"activities"`
	DistanceMeters      float64 `json:"distanceMeters"`
	MovingTimeSeconds   int64   `json:"movingTimeSeconds"`
	ElevationGainMeters float64 `json:"elevationGainMeters"`
}

func (t *Total) add(r activity.Record) {
	t.Activities++
	t.DistanceMeters += r.DistanceMeters
	t.MovingTimeSeconds += r.MovingTimeSeconds
	t.ElevationGainMeters += r.ElevationGainMeters
}

// TypeTotal is the total for one exact activity type
type TypeTotal struct {
	Type string `json:"type"`
	Total
}

// EffortMetric is the measure a day's effort score was derived from
type EffortMetric string

const (
	EffortDistance EffortMetric = "distance"
	EffortTime     EffortMetric = "time"
	EffortNone     EffortMetric = "none"
)

// Valid reports whether m is one of the known metrics
func (m EffortMetric) Valid() bool {
	return m == EffortDistance || m == EffortTime || m == EffortNone
}

// Day is one heatmap cell
type Day struct {
	Date              string       `json:"date"`
	ActivityCount     int          `json:"activityCount"`
	DistanceMeters    float64      `json:"distanceMeters"`
	MovingTimeSeconds int64        `json:"movingTimeSeconds"`
	EffortScore       int          `json:"effortScore"`
	EffortMetric      EffortMetric `json:"effortMetric"`
	EffortValue       float64      `json:"effortValue"`
	EffortType        *string      `json:"effortType"`
	Types             []string     `json:"types"`
}

// ActivityHighlight references a single activity
type ActivityHighlight struct {
	ActivityID string    `json:"activityId"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	StartTime  time.Time `json:"startTime"`
	Value      float64   `json:"value"`
}

// DayHighlight references a single day
type DayHighlight struct {
	Date           string  `json:"date"`
	ActivityCount  int     `json:"activityCount"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// WeekHighlight is a trailing seven day span
type WeekHighlight struct {
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
	DistanceMeters float64 `json:"distanceMeters"`
	Activities     int     `json:"activities"`
}

// TimeOfDay buckets an activity start hour
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// TimeOfDayHighlight is the bucket most activities started in
type TimeOfDayHighlight struct {
	Bucket     TimeOfDay `json:"bucket"`
	Activities int       `json:"activities"`
	Percent    int       `json:"percent"`
}

// Highlights holds one optional slot per highlight kind
type Highlights struct {
	Longest             *ActivityHighlight  `json:"longest,omitempty"`
	Farthest            *ActivityHighlight  `json:"farthest,omitempty"`
	BiggestClimb        *ActivityHighlight  `json:"biggestClimb,omitempty"`
	FastestPace         *ActivityHighlight  `json:"fastestPace,omitempty"`
	Best5K              *ActivityHighlight  `json:"best5k,omitempty"`
	Best10K             *ActivityHighlight  `json:"best10k,omitempty"`
	MostActiveDay       *DayHighlight       `json:"mostActiveDay,omitempty"`
	LongestWeek         *WeekHighlight      `json:"longestWeek,omitempty"`
	TimeOfDay           *TimeOfDayHighlight `json:"timeOfDay,omitempty"`
	HighestAvgHeartRate *ActivityHighlight  `json:"highestAvgHeartRate,omitempty"`
	HighestMaxHeartRate *ActivityHighlight  `json:"highestMaxHeartRate,omitempty"`
}

// Result is a complete recap for one provider and window
type Result struct {
	Provider               string          `json:"provider"`
	Window                 activity.Window `json:"window"`
	Total                  Total           `json:"total"`
	Breakdown              []TypeTotal     `json:"breakdown"`
	AvailableActivityTypes []string        `json:"availableActivityTypes"`
	ActiveDays             []string        `json:"activeDays"`
	ActivityDays           []Day           `json:"activityDays"`
	Highlights             Highlights      `json:"highlights"`
	GeneratedAt            time.Time       `json:"generatedAt,omitzero"`
}
