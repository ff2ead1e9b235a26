// Package provider defines the capability interface every fitness data
// source implements, the shared failure taxonomy, and the HTTP and
// pagination machinery the concrete clients are built on.
package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"activity-recap/internal/activity"
)

// ID identifies a provider
type ID string

const (
	Strava    ID = "strava"
	Intervals ID = "intervals"
)

var aliases = map[string]ID{
	"strava":        Strava,
	"intervals":     Intervals,
	"intervals.icu": Intervals,
	"intervals-icu": Intervals,
	"icu":           Intervals,
}

// KnownIDs lists every provider identifier in a stable order
func KnownIDs() []ID {
	return []ID{Strava, Intervals}
}

// ParseID maps a raw, case-insensitive identifier or alias to an ID
func ParseID(raw string) (ID, bool) {
	id, ok := aliases[strings.ToLower(strings.TrimSpace(raw))]
	return id, ok
}

// Credentials are the bearer token and optional expiry handed in by the caller
type Credentials struct {
	AccessToken string
	ExpiresAt   *int64 // epoch seconds
}

// Valid reports whether the token is present and not yet expired
func (c Credentials) Valid(now time.Time) bool {
	if strings.TrimSpace(c.AccessToken) == "" {
		return false
	}
	if c.ExpiresAt == nil {
		return true
	}
	return *c.ExpiresAt > now.Unix()
}

// Account returns an opaque, stable key for the caller behind the token.
// It is empty when there is no token.
func (c Credentials) Account() string {
	token := strings.TrimSpace(c.AccessToken)
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// Provider is the set of capabilities each data source offers
type Provider interface {
	// FetchActivities returns every activity in the window, or a *Error.
	// Partial results are never returned.
	FetchActivities(ctx context.Context, creds Credentials, window activity.Window) ([]activity.Record, error)
	GenerateAuthURL(redirectURI, state string) string
	FetchProfile(ctx context.Context, creds Credentials) (*activity.Profile, error)
	RevokeAccess(ctx context.Context, creds Credentials) error
}
