package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"activity-recap/internal/provider"
	"activity-recap/internal/service"
)

// Request headers carrying the caller's connection
const (
	HeaderProvider  = "X-Provider"
	HeaderExpiresAt = "X-Token-Expires-At"
)

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Error     string              `json:"error"`
	Kind      provider.Kind       `json:"kind"`
	RateLimit *provider.RateLimit `json:"rateLimit,omitempty"`
}

// notConnectedResponse is returned before any provider call when the caller
// has no usable token
type notConnectedResponse struct {
	Connected bool   `json:"connected"`
	Provider  string `json:"provider,omitempty"`
	Error     string `json:"error"`
}

// credentialsFromRequest reads the bearer token and optional expiry. A
// malformed expiry is treated as already expired.
func credentialsFromRequest(r *http.Request) provider.Credentials {
	var creds provider.Credentials

	auth := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
		creds.AccessToken = strings.TrimSpace(token)
	}

	if raw := strings.TrimSpace(r.Header.Get(HeaderExpiresAt)); raw != "" {
		exp, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			exp = 0
		}
		creds.ExpiresAt = &exp
	}
	return creds
}

// providerFromRequest prefers the query parameter over the header
func providerFromRequest(r *http.Request) string {
	if p := r.URL.Query().Get("provider"); p != "" {
		return p
	}
	return r.Header.Get(HeaderProvider)
}

// StatusForKind maps a failure kind to the HTTP status returned to callers
func StatusForKind(k provider.Kind) int {
	switch k {
	case provider.KindAuthExpired:
		return http.StatusUnauthorized
	case provider.KindInsufficientScope:
		return http.StatusForbidden
	case provider.KindRateLimited:
		return http.StatusTooManyRequests
	case provider.KindProviderError, provider.KindNetworkError:
		return http.StatusBadGateway
	case provider.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError translates a service error into the API error shape
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if errors.Is(err, service.ErrNotConnected) {
		writeJSON(w, http.StatusUnauthorized, notConnectedResponse{Error: "Not connected"})
		return
	}
	if errors.Is(err, provider.ErrNotRegistered) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Provider is not available",
			Kind:  provider.KindUnexpected,
		})
		return
	}

	resp := ErrorResponse{Kind: provider.KindOf(err)}
	resp.Error = resp.Kind.Message()

	var perr *provider.Error
	if errors.As(err, &perr) {
		resp.RateLimit = perr.RateLimit
	}

	status := StatusForKind(resp.Kind)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "kind", resp.Kind, "status", status, "error", err)
	} else {
		logger.Warn("Request failed", "kind", resp.Kind, "status", status, "retryable", resp.Kind.Retryable(), "error", err)
	}
	writeJSON(w, status, resp)
}
