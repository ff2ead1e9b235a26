package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"activity-recap/internal/activity"
	"activity-recap/internal/metrics"
	"activity-recap/internal/provider"
)

const (
	baseURL        = "https://www.strava.com/api/v3"
	deauthorizeURL = "https://www.strava.com/oauth/deauthorize"

	// MaxPageSize is the largest per_page Strava accepts
	MaxPageSize = 200

	authScope = "read,activity:read_all"
)

// Config holds the Strava application credentials and fetch tuning
type Config struct {
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	PageSize     int
	MaxPages     int
}

// Client is a Strava API client
type Client struct {
	api            *provider.API
	oauth          *oauth2.Config
	deauthorizeURL string
	pager          *provider.Pager
	logger         *slog.Logger
}

var _ provider.Provider = (*Client)(nil)

// NewClient creates a new Strava API client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	pageSize := cfg.PageSize
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return &Client{
		api: provider.NewAPI(provider.Strava, baseURL, httpClient, logger),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoints.Strava,
			Scopes:       []string{authScope},
		},
		deauthorizeURL: deauthorizeURL,
		pager: &provider.Pager{
			Provider: provider.Strava,
			Style:    provider.OffsetPages,
			PageSize: pageSize,
			MaxPages: cfg.MaxPages,
			Logger:   logger,
		},
		logger: logger,
	}
}

// SetBaseURL sets the API base URL and the deauthorize endpoint (for testing)
func (c *Client) SetBaseURL(u string) {
	c.api.BaseURL = u
	c.deauthorizeURL = u + "/oauth/deauthorize"
}

// GenerateAuthURL builds the Strava authorize URL for the given redirect and state
func (c *Client) GenerateAuthURL(redirectURI, state string) string {
	conf := *c.oauth
	conf.RedirectURL = redirectURI
	return conf.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto"))
}

// athlete is the subset of the Strava athlete payload we keep
type athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Profile   string `json:"profile"`
}

// FetchProfile returns the authenticated athlete
func (c *Client) FetchProfile(ctx context.Context, creds provider.Credentials) (*activity.Profile, error) {
	body, err := c.api.Do(ctx, metrics.OpGetProfile, http.MethodGet, "/athlete", nil, nil, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to get athlete: %w", err)
	}

	var a athlete
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, provider.Unexpected(provider.Strava, metrics.OpGetProfile, fmt.Errorf("failed to unmarshal athlete: %w", err))
	}

	return &activity.Profile{
		ID:        strconv.FormatInt(a.ID, 10),
		Username:  a.Username,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		City:      a.City,
		Country:   a.Country,
		AvatarURL: a.Profile,
	}, nil
}

// RevokeAccess deauthorizes the application for the token's athlete
func (c *Client) RevokeAccess(ctx context.Context, creds provider.Credentials) error {
	form := url.Values{"access_token": {creds.AccessToken}}
	if _, err := c.api.Do(ctx, metrics.OpRevokeAccess, http.MethodPost, c.deauthorizeURL, nil, form, creds); err != nil {
		return fmt.Errorf("failed to deauthorize: %w", err)
	}
	return nil
}
