// Package service runs the recap pipeline: cache check, provider
// resolution, paginated fetch, aggregation and cache write.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"activity-recap/internal/activity"
	"activity-recap/internal/cache"
	"activity-recap/internal/metrics"
	"activity-recap/internal/provider"
	"activity-recap/internal/recap"
)

// ErrNotConnected is returned before any network call when the caller has
// no usable credentials.
var ErrNotConnected = errors.New("not connected")

// Options tune aggregation for every recap the service builds
type Options struct {
	AvailableTypes []string
	Groups         recap.GroupMapping
	PaceGroups     []string
}

// Service builds recaps on behalf of one caller at a time. It holds no
// per-request state.
type Service struct {
	registry *provider.Registry
	cache    cache.RecapCache
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Service. cache may be nil to disable caching.
func New(registry *provider.Registry, rc cache.RecapCache, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		cache:    rc,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the time source (for testing)
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// RecapRequest is one recap query
type RecapRequest struct {
	Provider    string
	Credentials provider.Credentials
	Window      activity.WindowParams
	// Refresh skips the cache read but still writes the fresh result
	Refresh bool
}

// Fingerprint is the exact query string a recap is cached under
func Fingerprint(id provider.ID, params activity.WindowParams) string {
	return "provider=" + string(id) + "&" + params.Values().Encode()
}

// Recap returns the recap for the request, from cache when possible. A
// provider failure is returned unchanged as a *provider.Error; a
// connected user with no activities gets an empty recap, not an error.
func (s *Service) Recap(ctx context.Context, req RecapRequest) (*recap.Result, error) {
	if !req.Credentials.Valid(s.now()) {
		return nil, ErrNotConnected
	}

	p, id, err := s.registry.Resolve(req.Provider)
	if err != nil {
		return nil, err
	}

	params := req.Window.Normalize()
	// Tokens are per caller, so a recap is never served across accounts
	fp := cache.AccountKey(req.Credentials.Account(), Fingerprint(id, params))

	if s.cache != nil && !req.Refresh {
		if cached, ok := s.cache.Read(ctx, fp); ok {
			s.logger.Debug("recap served from cache", "provider", id, "fingerprint", fp)
			return cached, nil
		}
	}

	window := params.Resolve(s.now())
	records, err := p.FetchActivities(ctx, req.Credentials, window)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}

	start := time.Now()
	result := recap.Aggregate(records, window, recap.Options{
		AvailableTypes: s.opts.AvailableTypes,
		Groups:         s.opts.Groups,
		PaceGroups:     s.opts.PaceGroups,
	})
	metrics.RecapAggregationDuration.Observe(time.Since(start).Seconds())
	metrics.RecapActivitiesCount.Observe(float64(len(records)))

	result.Provider = string(id)
	result.GeneratedAt = s.now().UTC()

	if s.cache != nil {
		if err := s.cache.Write(ctx, fp, result); err != nil {
			s.logger.Warn("failed to cache recap", "provider", id, "fingerprint", fp, "error", err)
		}
	}

	s.logger.Info("recap_built",
		"provider", id,
		"window_type", params.Type,
		"activities", result.Total.Activities,
		"active_days", len(result.ActiveDays))

	return &result, nil
}

// Profile returns the connected athlete
func (s *Service) Profile(ctx context.Context, providerID string, creds provider.Credentials) (*activity.Profile, provider.ID, error) {
	if !creds.Valid(s.now()) {
		return nil, "", ErrNotConnected
	}

	p, id, err := s.registry.Resolve(providerID)
	if err != nil {
		return nil, id, err
	}

	profile, err := p.FetchProfile(ctx, creds)
	if err != nil {
		return nil, id, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return profile, id, nil
}

// Disconnect drops the caller's cached recaps, revokes access at the
// provider and reports whether a token was revoked. With no valid
// credentials there is nothing to revoke and it succeeds.
func (s *Service) Disconnect(ctx context.Context, providerID string, creds provider.Credentials) (provider.ID, bool, error) {
	p, id, err := s.registry.Resolve(providerID)
	if err != nil {
		return id, false, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateAccount(ctx, creds.Account()); err != nil {
			s.logger.Warn("failed to purge cached recaps", "provider", id, "error", err)
		}
	}

	if !creds.Valid(s.now()) {
		return id, false, nil
	}

	if err := p.RevokeAccess(ctx, creds); err != nil {
		return id, false, fmt.Errorf("failed to revoke access: %w", err)
	}
	return id, true, nil
}

// ProviderID returns the provider a raw identifier resolves to
func (s *Service) ProviderID(raw string) provider.ID {
	_, id, _ := s.registry.Resolve(raw)
	return id
}

// AuthURL returns the provider authorize URL for a redirect and state
func (s *Service) AuthURL(providerID, redirectURI, state string) (string, provider.ID, error) {
	p, id, err := s.registry.Resolve(providerID)
	if err != nil {
		return "", id, err
	}
	return p.GenerateAuthURL(redirectURI, state), id, nil
}
