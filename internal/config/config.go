package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"activity-recap/internal/cache"
	"activity-recap/internal/provider"
	"activity-recap/internal/recap"
)

// DefaultFile is the dotenv file read from the working directory when present
const DefaultFile = ".env"

// ProviderConfig holds the OAuth application registered with one provider
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	Host     string
	Port     int
	LogLevel string

	// Provider configuration
	DefaultProvider provider.ID
	Providers       map[provider.ID]*ProviderConfig
	HTTPTimeout     time.Duration
	PageSize        int
	MaxPages        int

	// Cache configuration
	CacheBackend       cache.Backend
	CachePath          string
	CachePrefix        string
	CacheSchemaVersion int
	AppVersion         string

	// Aggregation configuration
	AvailableTypes []string
	ActivityGroups recap.GroupMapping
	PaceGroups     []string

	// Metrics configuration
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int
}

// New returns a viper instance with every default set and environment
// lookup enabled. Callers may bind flags to it before passing it to FromViper.
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("host", "localhost")
	v.SetDefault("port", 4101)
	v.SetDefault("log_level", "info")
	v.SetDefault("default_provider", string(provider.Strava))
	v.SetDefault("strava_client_id", "")
	v.SetDefault("strava_client_secret", "")
	v.SetDefault("intervals_client_id", "")
	v.SetDefault("intervals_client_secret", "")
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("page_size", 0)
	v.SetDefault("max_pages", provider.DefaultMaxPages)
	v.SetDefault("cache_backend", string(cache.BackendNone))
	v.SetDefault("cache_path", "./recap-cache.db")
	v.SetDefault("cache_prefix", cache.DefaultPrefix)
	v.SetDefault("cache_schema_version", 1)
	v.SetDefault("app_version", "dev")
	v.SetDefault("available_activity_types", "")
	v.SetDefault("activity_groups", "")
	v.SetDefault("pace_groups", "")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("metrics_host", "localhost")
	v.SetDefault("metrics_port", 4102)
	return v
}

// Load reads configuration from environment variables and an optional .env
// file in the working directory. It fails fast if required values are missing.
func Load() (*Config, error) {
	return LoadFile(DefaultFile)
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	v := New()
	if err := ReadFile(v, path); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// ReadFile merges a dotenv file into v. Environment variables still win.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// FromViper builds and validates a Config from resolved viper values
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Host:               v.GetString("host"),
		Port:               v.GetInt("port"),
		LogLevel:           strings.ToLower(v.GetString("log_level")),
		HTTPTimeout:        v.GetDuration("http_timeout"),
		PageSize:           v.GetInt("page_size"),
		MaxPages:           v.GetInt("max_pages"),
		CachePath:          v.GetString("cache_path"),
		CachePrefix:        v.GetString("cache_prefix"),
		CacheSchemaVersion: v.GetInt("cache_schema_version"),
		AppVersion:         v.GetString("app_version"),
		AvailableTypes:     splitList(v.GetString("available_activity_types")),
		PaceGroups:         splitList(v.GetString("pace_groups")),
		MetricsEnabled:     v.GetBool("metrics_enabled"),
		MetricsHost:        v.GetString("metrics_host"),
		MetricsPort:        v.GetInt("metrics_port"),
		Providers:          make(map[provider.ID]*ProviderConfig),
	}

	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %q", v.GetString("http_timeout"))
	}
	if cfg.MaxPages < 1 {
		return nil, fmt.Errorf("invalid MAX_PAGES: %d", cfg.MaxPages)
	}

	backend, err := cache.ParseBackend(v.GetString("cache_backend"))
	if err != nil {
		return nil, err
	}
	cfg.CacheBackend = backend

	groups, err := recap.ParseGroupMapping(v.GetString("activity_groups"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACTIVITY_GROUPS: %w", err)
	}
	cfg.ActivityGroups = groups

	for _, id := range provider.KnownIDs() {
		prefix := string(id)
		clientID := strings.TrimSpace(v.GetString(prefix + "_client_id"))
		secret := strings.TrimSpace(v.GetString(prefix + "_client_secret"))
		if clientID == "" && secret == "" {
			continue
		}
		if clientID == "" || secret == "" {
			return nil, fmt.Errorf("incomplete credentials for provider %s: both %s and %s are required",
				id, envName(prefix+"_client_id"), envName(prefix+"_client_secret"))
		}
		cfg.Providers[id] = &ProviderConfig{ClientID: clientID, ClientSecret: secret}
	}

	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("missing required environment variables: at least one of %v",
			[]string{"STRAVA_CLIENT_ID", "INTERVALS_CLIENT_ID"})
	}

	def, ok := provider.ParseID(v.GetString("default_provider"))
	if !ok {
		return nil, fmt.Errorf("unknown DEFAULT_PROVIDER: %q", v.GetString("default_provider"))
	}
	if !cfg.HasProvider(def) {
		return nil, fmt.Errorf("default provider %s is not configured", def)
	}
	cfg.DefaultProvider = def

	return cfg, nil
}

// GetProvider returns the configuration for a provider
func (c *Config) GetProvider(id provider.ID) (*ProviderConfig, error) {
	p, ok := c.Providers[id]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", id)
	}
	return p, nil
}

// HasProvider reports whether credentials are configured for a provider
func (c *Config) HasProvider(id provider.ID) bool {
	_, ok := c.Providers[id]
	return ok
}

// ProviderIDs returns the configured providers in sorted order
func (c *Config) ProviderIDs() []provider.ID {
	ids := make([]provider.ID, 0, len(c.Providers))
	for id := range c.Providers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RequireProviderCredentials fails unless id is configured. Used by the CLI
// before it talks to a provider.
func (c *Config) RequireProviderCredentials(id provider.ID) error {
	if !c.HasProvider(id) {
		return fmt.Errorf("provider %s is not configured: set %s and %s", id,
			envName(string(id)+"_client_id"), envName(string(id)+"_client_secret"))
	}
	return nil
}

func envName(key string) string {
	return strings.ToUpper(key)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
