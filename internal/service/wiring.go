package service

import (
	"fmt"
	"log/slog"
	"net/http"

	"activity-recap/internal/cache"
	"activity-recap/internal/config"
	"activity-recap/internal/intervals"
	"activity-recap/internal/provider"
	"activity-recap/internal/strava"
)

// NewRegistry registers a client for every provider with configured credentials
func NewRegistry(cfg *config.Config, logger *slog.Logger) *provider.Registry {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	reg := provider.NewRegistry(cfg.DefaultProvider)

	for _, id := range cfg.ProviderIDs() {
		pc, _ := cfg.GetProvider(id)
		switch id {
		case provider.Strava:
			reg.Register(id, strava.NewClient(strava.Config{
				ClientID:     pc.ClientID,
				ClientSecret: pc.ClientSecret,
				HTTPClient:   httpClient,
				PageSize:     cfg.PageSize,
				MaxPages:     cfg.MaxPages,
			}, logger))
		case provider.Intervals:
			reg.Register(id, intervals.NewClient(intervals.Config{
				ClientID:     pc.ClientID,
				ClientSecret: pc.ClientSecret,
				HTTPClient:   httpClient,
				PageSize:     cfg.PageSize,
				MaxPages:     cfg.MaxPages,
			}, logger))
		}
	}
	return reg
}

// OptionsFromConfig returns the aggregation options configured for recaps
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AvailableTypes: cfg.AvailableTypes,
		Groups:         cfg.ActivityGroups,
		PaceGroups:     cfg.PaceGroups,
	}
}

// OpenCache opens the configured cache store and wraps it in a session.
// It returns nil when caching is disabled.
func OpenCache(cfg *config.Config, logger *slog.Logger) (*cache.Session, error) {
	if cfg.CacheBackend == cache.BackendNone {
		return nil, nil
	}
	store, err := cache.Open(cfg.CacheBackend, cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return cache.NewSession(store, cfg.CachePrefix, cfg.CacheSchemaVersion, logger), nil
}
