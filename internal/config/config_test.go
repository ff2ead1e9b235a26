package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"activity-recap/internal/cache"
	"activity-recap/internal/provider"
)

var allKeys = []string{
	"HOST", "PORT", "LOG_LEVEL", "DEFAULT_PROVIDER",
	"STRAVA_CLIENT_ID", "STRAVA_CLIENT_SECRET", "INTERVALS_CLIENT_ID", "INTERVALS_CLIENT_SECRET",
	"HTTP_TIMEOUT", "PAGE_SIZE", "MAX_PAGES",
	"CACHE_BACKEND", "CACHE_PATH", "CACHE_PREFIX", "CACHE_SCHEMA_VERSION", "APP_VERSION",
	"AVAILABLE_ACTIVITY_TYPES", "ACTIVITY_GROUPS", "PACE_GROUPS",
	"METRICS_ENABLED", "METRICS_HOST", "METRICS_PORT",
}

// clearTestEnv blanks every key; empty variables are treated as unset
func clearTestEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func setTestEnv(t *testing.T, env map[string]string) {
	t.Helper()
	clearTestEnv(t)
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create .env file: %v", err)
	}
	return path
}

func TestLoadConfigWithDefaults(t *testing.T) {
	setTestEnv(t, map[string]string{
		"STRAVA_CLIENT_ID":     "test_client_id",
		"STRAVA_CLIENT_SECRET": "test_client_secret",
	})

	config, err := LoadFile("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %s", config.Host)
	}
	if config.Port != 4101 {
		t.Errorf("Expected default port 4101, got %d", config.Port)
	}
	if config.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got %s", config.LogLevel)
	}
	if config.DefaultProvider != provider.Strava {
		t.Errorf("Expected default provider strava, got %s", config.DefaultProvider)
	}
	if config.HTTPTimeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %s", config.HTTPTimeout)
	}
	if config.MaxPages != provider.DefaultMaxPages {
		t.Errorf("Expected default max pages %d, got %d", provider.DefaultMaxPages, config.MaxPages)
	}
	if config.CacheBackend != cache.BackendNone {
		t.Errorf("Expected default cache backend none, got %s", config.CacheBackend)
	}
	if config.CachePrefix != cache.DefaultPrefix {
		t.Errorf("Expected default cache prefix %s, got %s", cache.DefaultPrefix, config.CachePrefix)
	}
	if !config.MetricsEnabled || config.MetricsPort != 4102 {
		t.Errorf("Expected metrics enabled on 4102, got %v on %d", config.MetricsEnabled, config.MetricsPort)
	}

	strava, err := config.GetProvider(provider.Strava)
	if err != nil {
		t.Fatalf("Expected strava to be configured: %v", err)
	}
	if strava.ClientID != "test_client_id" || strava.ClientSecret != "test_client_secret" {
		t.Errorf("Unexpected strava credentials: %+v", strava)
	}
	if config.HasProvider(provider.Intervals) {
		t.Error("Expected intervals to be unconfigured")
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	setTestEnv(t, map[string]string{
		"HOST":                    "0.0.0.0",
		"PORT":                    "8080",
		"LOG_LEVEL":               "DEBUG",
		"DEFAULT_PROVIDER":        "Intervals.icu",
		"INTERVALS_CLIENT_ID":     "icu_id",
		"INTERVALS_CLIENT_SECRET": "icu_secret",
		"HTTP_TIMEOUT":            "5s",
		"PAGE_SIZE":               "50",
		"MAX_PAGES":               "3",
		"CACHE_BACKEND":           "sqlite",
		"CACHE_PATH":              "/tmp/recap.db",
		"CACHE_SCHEMA_VERSION":    "4",
		"ACTIVITY_GROUPS":         "Run:run, TrailRun:run",
		"PACE_GROUPS":             "run, ",
		"METRICS_ENABLED":         "false",
	})

	config, err := LoadFile("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Host != "0.0.0.0" {
		t.Errorf("Expected host '0.0.0.0', got %s", config.Host)
	}
	if config.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", config.Port)
	}
	if config.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got %s", config.LogLevel)
	}
	if config.DefaultProvider != provider.Intervals {
		t.Errorf("Expected default provider intervals, got %s", config.DefaultProvider)
	}
	if config.HTTPTimeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %s", config.HTTPTimeout)
	}
	if config.PageSize != 50 || config.MaxPages != 3 {
		t.Errorf("Expected page size 50 and max pages 3, got %d and %d", config.PageSize, config.MaxPages)
	}
	if config.CacheBackend != cache.BackendSQLite || config.CachePath != "/tmp/recap.db" {
		t.Errorf("Unexpected cache config: %s at %s", config.CacheBackend, config.CachePath)
	}
	if config.CacheSchemaVersion != 4 {
		t.Errorf("Expected schema version 4, got %d", config.CacheSchemaVersion)
	}
	if config.ActivityGroups.GroupOf("TrailRun") != "run" {
		t.Errorf("Expected TrailRun in group run, got %s", config.ActivityGroups.GroupOf("TrailRun"))
	}
	if len(config.PaceGroups) != 1 || config.PaceGroups[0] != "run" {
		t.Errorf("Expected pace groups [run], got %v", config.PaceGroups)
	}
	if config.MetricsEnabled {
		t.Error("Expected metrics disabled")
	}
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	clearTestEnv(t)
	path := writeEnvFile(t, `# Test .env file
HOST=192.168.1.1
PORT=9000
STRAVA_CLIENT_ID=env_file_client_id
STRAVA_CLIENT_SECRET=env_file_client_secret
LOG_LEVEL=warn
`)

	config, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Host != "192.168.1.1" {
		t.Errorf("Expected host '192.168.1.1' from .env, got %s", config.Host)
	}
	if config.Port != 9000 {
		t.Errorf("Expected port 9000 from .env, got %d", config.Port)
	}
	if config.LogLevel != "warn" {
		t.Errorf("Expected log level 'warn' from .env, got %s", config.LogLevel)
	}
}

func TestEnvVarsPrecedenceOverEnvFile(t *testing.T) {
	path := writeEnvFile(t, `HOST=from_file
PORT=9000
STRAVA_CLIENT_ID=file_client_id
STRAVA_CLIENT_SECRET=file_client_secret
`)
	setTestEnv(t, map[string]string{
		"HOST":             "from_env_var",
		"STRAVA_CLIENT_ID": "env_client_id",
	})

	config, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Host != "from_env_var" {
		t.Errorf("Expected host 'from_env_var' from env var, got %s", config.Host)
	}
	if config.Port != 9000 {
		t.Errorf("Expected port 9000 from .env file, got %d", config.Port)
	}
	strava, _ := config.GetProvider(provider.Strava)
	if strava.ClientID != "env_client_id" {
		t.Errorf("Expected client ID 'env_client_id' from env var, got %s", strava.ClientID)
	}
	if strava.ClientSecret != "file_client_secret" {
		t.Errorf("Expected client secret 'file_client_secret' from .env, got %s", strava.ClientSecret)
	}
}

func TestMissingEnvFileIsIgnored(t *testing.T) {
	setTestEnv(t, map[string]string{
		"STRAVA_CLIENT_ID":     "id",
		"STRAVA_CLIENT_SECRET": "secret",
	})

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Expected missing file to be ignored, got %v", err)
	}
}

func TestValidationNoProviders(t *testing.T) {
	clearTestEnv(t)

	_, err := LoadFile("")
	if err == nil {
		t.Fatal("Expected validation error with no providers configured")
	}
	if !strings.Contains(err.Error(), "STRAVA_CLIENT_ID") {
		t.Errorf("Expected error to name STRAVA_CLIENT_ID, got: %v", err)
	}
}

func TestValidationIncompleteProvider(t *testing.T) {
	setTestEnv(t, map[string]string{
		"STRAVA_CLIENT_ID": "test_client_id",
	})

	_, err := LoadFile("")
	if err == nil {
		t.Fatal("Expected validation error for missing STRAVA_CLIENT_SECRET")
	}
	if !strings.Contains(err.Error(), "STRAVA_CLIENT_SECRET") {
		t.Errorf("Expected error to name STRAVA_CLIENT_SECRET, got: %v", err)
	}
}

func TestValidationDefaultProviderNotConfigured(t *testing.T) {
	setTestEnv(t, map[string]string{
		"STRAVA_CLIENT_ID":     "id",
		"STRAVA_CLIENT_SECRET": "secret",
		"DEFAULT_PROVIDER":     "intervals",
	})

	if _, err := LoadFile(""); err == nil {
		t.Error("Expected error when the default provider has no credentials")
	}

	t.Setenv("DEFAULT_PROVIDER", "garmin")
	if _, err := LoadFile(""); err == nil {
		t.Error("Expected error for an unknown default provider")
	}
}

func TestValidationBadValues(t *testing.T) {
	cases := map[string]string{
		"CACHE_BACKEND":   "redis",
		"ACTIVITY_GROUPS": "Run",
		"MAX_PAGES":       "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setTestEnv(t, map[string]string{
				"STRAVA_CLIENT_ID":     "id",
				"STRAVA_CLIENT_SECRET": "secret",
				key:                    value,
			})
			if _, err := LoadFile(""); err == nil {
				t.Errorf("Expected error for %s=%s", key, value)
			}
		})
	}
}

func TestProviderIDsAndRequire(t *testing.T) {
	setTestEnv(t, map[string]string{
		"STRAVA_CLIENT_ID":        "id",
		"STRAVA_CLIENT_SECRET":    "secret",
		"INTERVALS_CLIENT_ID":     "icu",
		"INTERVALS_CLIENT_SECRET": "icu_secret",
	})

	config, err := LoadFile("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	ids := config.ProviderIDs()
	if len(ids) != 2 || ids[0] != provider.Intervals || ids[1] != provider.Strava {
		t.Errorf("Expected [intervals strava], got %v", ids)
	}
	if err := config.RequireProviderCredentials(provider.Intervals); err != nil {
		t.Errorf("Expected intervals to be configured: %v", err)
	}

	delete(config.Providers, provider.Intervals)
	if err := config.RequireProviderCredentials(provider.Intervals); err == nil {
		t.Error("Expected error for removed provider")
	}
	if _, err := config.GetProvider(provider.Intervals); err == nil {
		t.Error("Expected GetProvider error for removed provider")
	}
}
