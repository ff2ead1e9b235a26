package provider

import (
	"net/http"
	"strconv"
	"strings"
)

// NearLimitPct is the usage percentage at which a warning is logged
const NearLimitPct = 80.0

// RateLimit is a snapshot of the provider's "15min,daily" rate counters
type RateLimit struct {
	Limit15Min int `json:"limit15Min"`
	Usage15Min int `json:"usage15Min"`
	LimitDaily int `json:"limitDaily"`
	UsageDaily int `json:"usageDaily"`
}

// ParseRateLimitHeaders reads X-RateLimit-Limit and X-RateLimit-Usage.
// It returns nil when either header is missing or malformed.
func ParseRateLimitHeaders(headers http.Header) *RateLimit {
	limitHeader := headers.Get("X-RateLimit-Limit")
	usageHeader := headers.Get("X-RateLimit-Usage")
	if limitHeader == "" || usageHeader == "" {
		return nil
	}

	limits := strings.Split(limitHeader, ",")
	usages := strings.Split(usageHeader, ",")
	if len(limits) != 2 || len(usages) != 2 {
		return nil
	}

	var vals [4]int
	for i, raw := range []string{limits[0], usages[0], limits[1], usages[1]} {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil
		}
		vals[i] = n
	}

	return &RateLimit{
		Limit15Min: vals[0],
		Usage15Min: vals[1],
		LimitDaily: vals[2],
		UsageDaily: vals[3],
	}
}

// Usage15MinPct returns the 15 minute usage as a percentage of its limit
func (rl RateLimit) Usage15MinPct() float64 {
	return pct(rl.Usage15Min, rl.Limit15Min)
}

// UsageDailyPct returns the daily usage as a percentage of its limit
func (rl RateLimit) UsageDailyPct() float64 {
	return pct(rl.UsageDaily, rl.LimitDaily)
}

// IsNearLimit returns true if either window is at or above threshold percent
func (rl RateLimit) IsNearLimit(threshold float64) bool {
	return rl.Usage15MinPct() >= threshold || rl.UsageDailyPct() >= threshold
}

func pct(usage, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(usage) / float64(limit) * 100
}
