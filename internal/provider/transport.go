package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"activity-recap/internal/metrics"
)

// API performs authenticated calls against one provider's REST API and
// classifies every failure into an *Error.
type API struct {
	Provider   ID
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewAPI creates an API bound to a provider and base URL
func NewAPI(id ID, baseURL string, httpClient *http.Client, logger *slog.Logger) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &API{Provider: id, BaseURL: baseURL, HTTPClient: httpClient, Logger: logger}
}

// Do sends one request and returns the response body for 2xx statuses.
// path may be absolute, in which case BaseURL is ignored. form, when
// non-nil, is sent as an urlencoded body.
func (a *API) Do(ctx context.Context, op, method, path string, query, form url.Values, creds Credentials) ([]byte, error) {
	reqURL := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		reqURL = a.BaseURL + path
	}
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, Unexpected(a.Provider, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := a.HTTPClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		perr := ClassifyTransport(a.Provider, op, err)
		a.Logger.Error("provider_api_request failed",
			"provider", a.Provider,
			"operation", op,
			"kind", perr.Kind,
			"error", err,
			"duration_ms", duration.Milliseconds())
		metrics.ProviderAPIRequestsTotal.WithLabelValues(string(a.Provider), op, "error").Inc()
		metrics.ProviderAPIRequestDuration.WithLabelValues(string(a.Provider), op, "error").Observe(duration.Seconds())
		return nil, perr
	}
	defer resp.Body.Close()

	statusCode := strconv.Itoa(resp.StatusCode)
	metrics.ProviderAPIRequestsTotal.WithLabelValues(string(a.Provider), op, statusCode).Inc()
	metrics.ProviderAPIRequestDuration.WithLabelValues(string(a.Provider), op, statusCode).Observe(duration.Seconds())

	a.Logger.Info("provider_api_request",
		"provider", a.Provider,
		"operation", op,
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds())

	if rl := ParseRateLimitHeaders(resp.Header); rl != nil {
		a.recordRateLimit(rl)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, ClassifyTransport(a.Provider, op, fmt.Errorf("failed to read response: %w", err))
		}
		respBody = nil
	}

	if perr := ClassifyStatus(a.Provider, op, resp.StatusCode, resp.Header, respBody); perr != nil {
		return nil, perr
	}

	return respBody, nil
}

func (a *API) recordRateLimit(rl *RateLimit) {
	id := string(a.Provider)
	metrics.ProviderRateLimitUsage.WithLabelValues(id, metrics.RateLimitOverall15Min, metrics.BucketLimit).Set(float64(rl.Limit15Min))
	metrics.ProviderRateLimitUsage.WithLabelValues(id, metrics.RateLimitOverall15Min, metrics.BucketUsage).Set(float64(rl.Usage15Min))
	metrics.ProviderRateLimitUsage.WithLabelValues(id, metrics.RateLimitOverallDaily, metrics.BucketLimit).Set(float64(rl.LimitDaily))
	metrics.ProviderRateLimitUsage.WithLabelValues(id, metrics.RateLimitOverallDaily, metrics.BucketUsage).Set(float64(rl.UsageDaily))

	a.Logger.Debug("rate_limit",
		"provider", a.Provider,
		"limit_15min", rl.Limit15Min,
		"usage_15min", rl.Usage15Min,
		"limit_daily", rl.LimitDaily,
		"usage_daily", rl.UsageDaily,
		"usage_15min_pct", rl.Usage15MinPct(),
		"usage_daily_pct", rl.UsageDailyPct(),
	)

	if rl.IsNearLimit(NearLimitPct) {
		a.Logger.Warn("rate_limit_near",
			"provider", a.Provider,
			"usage_15min", rl.Usage15Min,
			"limit_15min", rl.Limit15Min,
			"usage_daily", rl.UsageDaily,
			"limit_daily", rl.LimitDaily)
	}
}
