package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"activity-recap/internal/metrics"
)

// Schema creates the cache table
const Schema = `
CREATE TABLE IF NOT EXISTS recap_cache (
	cache_key TEXT PRIMARY KEY,
	cache_value BLOB NOT NULL,
	cache_version INTEGER NOT NULL,
	cache_timestamp INTEGER NOT NULL
);
`

// SQLiteStore keeps cache entries in a local SQLite file
type SQLiteStore struct {
	conn *sql.DB
	path string
}

var _ Store = &SQLiteStore{}

// OpenSQLite opens (creating if needed) the cache database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite cache requires a path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Single connection avoids "database is locked"; last write wins
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &SQLiteStore{conn: conn, path: path}, nil
}

// Get retrieves an entry by key
func (s *SQLiteStore) Get(ctx context.Context, key string) (Item, error) {
	timer := prometheus.NewTimer(metrics.CacheOperationDuration.WithLabelValues(metrics.CacheOpGet))
	defer timer.ObserveDuration()

	item := Item{Key: key}
	var ts int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT cache_value, cache_version, cache_timestamp FROM recap_cache WHERE cache_key = ?`,
		key,
	).Scan(&item.Value, &item.Version, &ts)

	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		metrics.CacheOperationErrorsTotal.WithLabelValues(metrics.CacheOpGet).Inc()
		return Item{}, fmt.Errorf("failed to get cache entry: %w", err)
	}

	item.WrittenAt = time.UnixMilli(ts).UTC()
	return item, nil
}

// Set inserts or replaces an entry
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, version int) error {
	timer := prometheus.NewTimer(metrics.CacheOperationDuration.WithLabelValues(metrics.CacheOpSet))
	defer timer.ObserveDuration()

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO recap_cache (cache_key, cache_value, cache_version, cache_timestamp)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			cache_value = excluded.cache_value,
			cache_version = excluded.cache_version,
			cache_timestamp = excluded.cache_timestamp
	`, key, value, version, time.Now().UnixMilli())
	if err != nil {
		metrics.CacheOperationErrorsTotal.WithLabelValues(metrics.CacheOpSet).Inc()
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix
func (s *SQLiteStore) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	timer := prometheus.NewTimer(metrics.CacheOperationDuration.WithLabelValues(metrics.CacheOpDeletePrefix))
	defer timer.ObserveDuration()

	// substr avoids LIKE wildcard escaping for keys containing % or _
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM recap_cache WHERE substr(cache_key, 1, ?) = ?`,
		utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		metrics.CacheOperationErrorsTotal.WithLabelValues(metrics.CacheOpDeletePrefix).Inc()
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// Status reports entry count and write-time range
func (s *SQLiteStore) Status(ctx context.Context) (Status, error) {
	timer := prometheus.NewTimer(metrics.CacheOperationDuration.WithLabelValues(metrics.CacheOpStatus))
	defer timer.ObserveDuration()

	st := Status{Backend: BackendSQLite, Location: s.path}
	var oldest, newest sql.NullInt64
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(cache_timestamp), MAX(cache_timestamp) FROM recap_cache`,
	).Scan(&st.Entries, &oldest, &newest)
	if err != nil {
		metrics.CacheOperationErrorsTotal.WithLabelValues(metrics.CacheOpStatus).Inc()
		return Status{}, fmt.Errorf("failed to query cache status: %w", err)
	}

	if oldest.Valid {
		st.Oldest = time.UnixMilli(oldest.Int64).UTC()
	}
	if newest.Valid {
		st.Newest = time.UnixMilli(newest.Int64).UTC()
	}
	return st, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
