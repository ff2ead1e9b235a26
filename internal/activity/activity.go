// Package activity holds the provider-independent workout record and the
// date window a recap is computed over.
package activity

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date key format used for active days.
const DateLayout = "2006-01-02"

// Record is one workout as reported by a provider, mapped into a uniform shape
type Record struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Type                string    `json:"type"`
	StartTime           time.Time `json:"startTime"`
	LocalStartTime      time.Time `json:"localStartTime,omitzero"`
	DistanceMeters      float64   `json:"distanceMeters"`
	MovingTimeSeconds   int64     `json:"movingTimeSeconds"`
	ElevationGainMeters float64   `json:"elevationGainMeters"`
	AverageHeartRate    *float64  `json:"averageHeartRate,omitempty"`
	MaxHeartRate        *float64  `json:"maxHeartRate,omitempty"`
}

// Date returns the UTC calendar date the activity started on
func (r Record) Date() string {
	return r.StartTime.UTC().Format(DateLayout)
}

// StartHour returns the wall-clock hour the activity started at. The
// provider's local start time is preferred; UTC is used when it is unknown.
func (r Record) StartHour() int {
	if !r.LocalStartTime.IsZero() {
		return r.LocalStartTime.Hour()
	}
	return r.StartTime.UTC().Hour()
}

// PaceSecondsPerKm returns moving time per kilometre, or 0 when either
// distance or moving time is missing.
func (r Record) PaceSecondsPerKm() float64 {
	if r.DistanceMeters <= 0 || r.MovingTimeSeconds <= 0 {
		return 0
	}
	return float64(r.MovingTimeSeconds) / (r.DistanceMeters / 1000)
}

// Profile is the connected athlete as reported by a provider
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// DisplayName returns the best human-readable name available
func (p Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		return name
	}
	if p.Username != "" {
		return p.Username
	}
	return p.ID
}
