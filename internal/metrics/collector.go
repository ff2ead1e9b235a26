package metrics

import (
	"context"
	"log/slog"
	"time"
)

// EntryCounter reports how many entries a cache store holds
type EntryCounter interface {
	CountEntries(ctx context.Context) (int, error)
}

// StartCacheCollector periodically samples the cache store size until ctx is done
func StartCacheCollector(ctx context.Context, store EntryCounter, interval time.Duration) {
	logger := slog.Default()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect once immediately
	collectCacheEntries(ctx, store, logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cache collector stopping")
			return
		case <-ticker.C:
			collectCacheEntries(ctx, store, logger)
		}
	}
}

func collectCacheEntries(ctx context.Context, store EntryCounter, logger *slog.Logger) {
	count, err := store.CountEntries(ctx)
	if err != nil {
		logger.Error("Failed to count cache entries", "error", err)
		return
	}
	CacheEntries.Set(float64(count))
}
