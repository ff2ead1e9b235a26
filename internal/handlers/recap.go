package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"activity-recap/internal/activity"
	"activity-recap/internal/provider"
	"activity-recap/internal/service"
)

// RecapHandler serves the per-request recap, profile and disconnect endpoints.
// It keeps no state between requests.
type RecapHandler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewRecapHandler creates a new recap handler
func NewRecapHandler(svc *service.Service) *RecapHandler {
	return &RecapHandler{
		svc:    svc,
		logger: slog.Default(),
	}
}

// HandleRecap handles GET /api/recap
// Query parameters:
//   - provider: strava or intervals (default: configured provider)
//   - type: rolling or calendar (default: rolling)
//   - days: rolling window length, clamped to [1, 365] (default: 7)
//   - unit: month or year for calendar windows (default: month)
//   - offset: year offset for calendar year windows (default: 0)
//   - refresh: bypass the cache read when true
//
// Authentication: Bearer token of the provider
func (h *RecapHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	refresh, _ := strconv.ParseBool(query.Get("refresh"))

	result, err := h.svc.Recap(r.Context(), service.RecapRequest{
		Provider:    providerFromRequest(r),
		Credentials: credentialsFromRequest(r),
		Window:      activity.ParseWindowParams(query),
		Refresh:     refresh,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type profileResponse struct {
	Connected bool              `json:"connected"`
	Provider  provider.ID       `json:"provider"`
	Profile   *activity.Profile `json:"profile"`
}

// HandleProfile handles GET /api/profile. A caller without a usable token
// gets connected=false rather than an error.
func (h *RecapHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	profile, id, err := h.svc.Profile(r.Context(), providerFromRequest(r), credentialsFromRequest(r))
	switch {
	case errors.Is(err, service.ErrNotConnected):
		writeJSON(w, http.StatusOK, profileResponse{Connected: false, Provider: h.svc.ProviderID(providerFromRequest(r))})
		return
	case err != nil:
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Connected: true, Provider: id, Profile: profile})
}

type disconnectResponse struct {
	Connected bool        `json:"connected"`
	Provider  provider.ID `json:"provider"`
	Revoked   bool        `json:"revoked"`
}

// HandleDisconnect handles POST /api/disconnect. Revocation is best effort:
// the caller is always reported as disconnected so it can drop its token.
func (h *RecapHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, revoked, err := h.svc.Disconnect(r.Context(), providerFromRequest(r), credentialsFromRequest(r))
	if errors.Is(err, provider.ErrNotRegistered) {
		writeError(w, h.logger, err)
		return
	}
	if err != nil {
		h.logger.Warn("Failed to revoke access", "provider", id, "error", err)
	}

	h.logger.Info("Provider disconnected", "provider", id, "revoked", revoked)
	writeJSON(w, http.StatusOK, disconnectResponse{Connected: false, Provider: id, Revoked: revoked})
}
