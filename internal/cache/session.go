package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"activity-recap/internal/activity"
	"activity-recap/internal/metrics"
	"activity-recap/internal/recap"
)

// DefaultPrefix namespaces every key the session writes
const DefaultPrefix = "activity-recap"

// Entry is one cached recap as stored, before normalization
type Entry struct {
	SchemaKey   string
	Fingerprint string
	Payload     []byte
	WrittenAt   time.Time
}

// RecapCache is the read-through contract the recap service depends on
type RecapCache interface {
	Read(ctx context.Context, fingerprint string) (*recap.Result, bool)
	Write(ctx context.Context, fingerprint string, result recap.Result) error
	InvalidatePrefix(ctx context.Context, prefix string) error
	InvalidateAccount(ctx context.Context, account string) error
}

// Session owns the key layout for one client:
//
//	<prefix>:profile
//	<prefix>:provider
//	<prefix>:app-version
//	<prefix>:recap:v<schema>:<account>:<fingerprint>
//
// Bumping the schema version makes older recap keys unreachable.
type Session struct {
	store         Store
	prefix        string
	schemaVersion int
	logger        *slog.Logger
}

var _ RecapCache = (*Session)(nil)

// NewSession creates a session over store
func NewSession(store Store, prefix string, schemaVersion int, logger *slog.Logger) *Session {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if schemaVersion < 1 {
		schemaVersion = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{store: store, prefix: prefix, schemaVersion: schemaVersion, logger: logger}
}

// Prefix returns the key namespace
func (s *Session) Prefix() string {
	return s.prefix
}

// SchemaKey returns the versioned key every recap entry lives under
func (s *Session) SchemaKey() string {
	return s.prefix + ":recap:v" + strconv.Itoa(s.schemaVersion)
}

// RecapKey returns the full key for a fingerprint
func (s *Session) RecapKey(fingerprint string) string {
	return s.SchemaKey() + ":" + fingerprint
}

func (s *Session) key(name string) string {
	return s.prefix + ":" + name
}

// Lookup returns the raw stored entry for a fingerprint
func (s *Session) Lookup(ctx context.Context, fingerprint string) (*Entry, error) {
	item, err := s.store.Get(ctx, s.RecapKey(fingerprint))
	if err != nil {
		return nil, err
	}
	return &Entry{
		SchemaKey:   s.SchemaKey(),
		Fingerprint: fingerprint,
		Payload:     item.Value,
		WrittenAt:   item.WrittenAt,
	}, nil
}

// Read returns the cached recap for a fingerprint, normalized into the
// current shape. Store errors and unparseable payloads count as a miss.
func (s *Session) Read(ctx context.Context, fingerprint string) (*recap.Result, bool) {
	entry, err := s.Lookup(ctx, fingerprint)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("cache read failed", "fingerprint", fingerprint, "error", err)
		}
		metrics.CacheRequestsTotal.WithLabelValues(metrics.CacheMiss).Inc()
		return nil, false
	}

	res, fixed, err := Normalize(entry.Payload)
	if err != nil {
		s.logger.Warn("discarding unreadable cache entry", "fingerprint", fingerprint, "error", err)
		metrics.CacheRequestsTotal.WithLabelValues(metrics.CacheMiss).Inc()
		return nil, false
	}

	for _, field := range fixed {
		metrics.CacheRepairsTotal.WithLabelValues(field).Inc()
	}
	if len(fixed) > 0 {
		s.logger.Debug("cache entry repaired", "fingerprint", fingerprint, "fields", fixed)
	}

	metrics.CacheRequestsTotal.WithLabelValues(metrics.CacheHit).Inc()
	return &res, true
}

// Write stores a recap under its fingerprint
func (s *Session) Write(ctx context.Context, fingerprint string, result recap.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode recap: %w", err)
	}
	return s.store.Set(ctx, s.RecapKey(fingerprint), payload, s.schemaVersion)
}

// InvalidatePrefix deletes every key that starts with prefix
func (s *Session) InvalidatePrefix(ctx context.Context, prefix string) error {
	n, err := s.store.DeletePrefix(ctx, prefix)
	if err != nil {
		return err
	}
	s.logger.Info("cache invalidated", "prefix", prefix, "entries", n)
	return nil
}

// AccountKey returns the fingerprint scoped to one caller
func AccountKey(account, fingerprint string) string {
	return account + ":" + fingerprint
}

// InvalidateAccount deletes every recap cached for one caller
func (s *Session) InvalidateAccount(ctx context.Context, account string) error {
	if account == "" {
		return nil
	}
	return s.InvalidatePrefix(ctx, s.RecapKey(AccountKey(account, "")))
}

// Disconnect purges everything the session owns
func (s *Session) Disconnect(ctx context.Context) error {
	return s.InvalidatePrefix(ctx, s.prefix+":")
}

// MigrateAppVersion purges the session when the stored app version differs
// from version, then records version. It reports whether a purge happened.
func (s *Session) MigrateAppVersion(ctx context.Context, version string) (bool, error) {
	item, err := s.store.Get(ctx, s.key("app-version"))
	switch {
	case err == nil && string(item.Value) == version:
		return false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return false, err
	}

	purged := err == nil
	if purged {
		s.logger.Info("app version changed, purging cache", "from", string(item.Value), "to", version)
		if err := s.Disconnect(ctx); err != nil {
			return false, err
		}
	}

	if err := s.store.Set(ctx, s.key("app-version"), []byte(version), s.schemaVersion); err != nil {
		return purged, err
	}
	return purged, nil
}

// SaveProfile stores the connected athlete
func (s *Session) SaveProfile(ctx context.Context, p *activity.Profile) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return s.store.Set(ctx, s.key("profile"), payload, s.schemaVersion)
}

// LoadProfile returns the stored athlete, if any
func (s *Session) LoadProfile(ctx context.Context) (*activity.Profile, bool) {
	item, err := s.store.Get(ctx, s.key("profile"))
	if err != nil {
		return nil, false
	}
	var p activity.Profile
	if err := json.Unmarshal(item.Value, &p); err != nil {
		s.logger.Warn("discarding unreadable profile", "error", err)
		return nil, false
	}
	return &p, true
}

// SaveProvider stores the provider the client is connected to
func (s *Session) SaveProvider(ctx context.Context, id string) error {
	return s.store.Set(ctx, s.key("provider"), []byte(id), s.schemaVersion)
}

// LoadProvider returns the stored provider id, if any
func (s *Session) LoadProvider(ctx context.Context) (string, bool) {
	item, err := s.store.Get(ctx, s.key("provider"))
	if err != nil || len(item.Value) == 0 {
		return "", false
	}
	return string(item.Value), true
}

// Status reports what the underlying store holds
func (s *Session) Status(ctx context.Context) (Status, error) {
	return s.store.Status(ctx)
}

// CountEntries reports the number of stored entries
func (s *Session) CountEntries(ctx context.Context) (int, error) {
	st, err := s.store.Status(ctx)
	if err != nil {
		return 0, err
	}
	return st.Entries, nil
}

// Close closes the underlying store
func (s *Session) Close() error {
	return s.store.Close()
}
