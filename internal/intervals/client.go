// Package intervals is the Intervals.icu provider client.
package intervals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"activity-recap/internal/activity"
	"activity-recap/internal/metrics"
	"activity-recap/internal/provider"
)

const (
	baseURL = "https://intervals.icu"

	// DefaultPageSize is the limit sent with each activities request
	DefaultPageSize = 100

	authScope = "ACTIVITY:READ"
)

// Endpoint is the Intervals.icu OAuth endpoint
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://intervals.icu/oauth/authorize",
	TokenURL: "https://intervals.icu/api/oauth/token",
}

// Config holds the Intervals.icu application credentials and fetch tuning
type Config struct {
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	PageSize     int
	MaxPages     int
}

// Client is an Intervals.icu API client
type Client struct {
	api    *provider.API
	oauth  *oauth2.Config
	pager  *provider.Pager
	logger *slog.Logger
}

var _ provider.Provider = (*Client)(nil)

// NewClient creates a new Intervals.icu API client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	return &Client{
		api: provider.NewAPI(provider.Intervals, baseURL, httpClient, logger),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     Endpoint,
			Scopes:       []string{authScope},
		},
		pager: &provider.Pager{
			Provider: provider.Intervals,
			Style:    provider.CursorPages,
			PageSize: pageSize,
			MaxPages: cfg.MaxPages,
			Logger:   logger,
		},
		logger: logger,
	}
}

// SetBaseURL sets the API base URL (for testing)
func (c *Client) SetBaseURL(u string) {
	c.api.BaseURL = u
}

// GenerateAuthURL builds the Intervals.icu authorize URL
func (c *Client) GenerateAuthURL(redirectURI, state string) string {
	conf := *c.oauth
	conf.RedirectURL = redirectURI
	return conf.AuthCodeURL(state)
}

type athlete struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Avatar    string `json:"profile_medium"`
}

// FetchProfile returns the athlete the token belongs to
func (c *Client) FetchProfile(ctx context.Context, creds provider.Credentials) (*activity.Profile, error) {
	body, err := c.api.Do(ctx, metrics.OpGetProfile, http.MethodGet, "/api/v1/athlete/0", nil, nil, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to get athlete: %w", err)
	}

	var a athlete
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, provider.Unexpected(provider.Intervals, metrics.OpGetProfile, fmt.Errorf("failed to unmarshal athlete: %w", err))
	}

	p := &activity.Profile{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		City:      a.City,
		Country:   a.Country,
		AvatarURL: a.Avatar,
	}
	if p.FirstName == "" && p.LastName == "" {
		p.Username = a.Name
	}
	return p, nil
}

// RevokeAccess is a no-op: Intervals.icu has no endpoint for revoking a
// bearer token, so disconnecting only drops local state.
func (c *Client) RevokeAccess(ctx context.Context, creds provider.Credentials) error {
	c.logger.Debug("revoke skipped", "provider", provider.Intervals)
	return nil
}
