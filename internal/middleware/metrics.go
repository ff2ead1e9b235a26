package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"activity-recap/internal/metrics"
)

// RequestIDHeader carries the request id back to the caller
const RequestIDHeader = "X-Request-Id"

type ctxKey struct{}

// RequestID returns the id assigned to the request, or "" outside the middleware
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Instrument records Prometheus metrics and an access log line for every
// request to endpoint. Each request gets a uuid request id, reused from the
// incoming header when present.
func Instrument(endpoint string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(reqID); err != nil {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)
			r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, reqID))

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			statusStr := strconv.Itoa(wrapped.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(endpoint, statusStr).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(endpoint, statusStr).Observe(duration.Seconds())

			logger.Info("http_request",
				"request_id", reqID,
				"endpoint", endpoint,
				"method", r.Method,
				"status", wrapped.statusCode,
				"duration_ms", duration.Milliseconds())
		})
	}
}

// WrapHandler is a convenience function to wrap a HandlerFunc with Instrument
func WrapHandler(endpoint string, logger *slog.Logger, handler http.HandlerFunc) http.Handler {
	return Instrument(endpoint, logger)(handler)
}
