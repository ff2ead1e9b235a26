package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"activity-recap/internal/provider"
	"activity-recap/internal/service"
)

// CallbackPath is where providers send the user after authorization. The
// code exchange behind it is owned by the web application, not this server.
const CallbackPath = "/oauth-callback"

// OAuthHandler starts the provider authorization flow
type OAuthHandler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(svc *service.Service) *OAuthHandler {
	return &OAuthHandler{
		svc:    svc,
		logger: slog.Default(),
	}
}

// HandleAuthStart redirects to the provider's authorize page
// Query parameters:
//   - provider: strava or intervals (default: configured provider)
//   - redirect_uri: absolute callback URL (default: this host's /oauth-callback)
func (h *OAuthHandler) HandleAuthStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" {
		// Build redirect URI (same host/port as current request)
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		redirectURI = fmt.Sprintf("%s://%s%s", scheme, r.Host, CallbackPath)
	} else if u, err := url.Parse(redirectURI); err != nil || !u.IsAbs() {
		h.logger.Warn("Invalid redirect_uri", "redirect_uri", redirectURI)
		http.Error(w, "Invalid redirect_uri", http.StatusBadRequest)
		return
	}

	state := uuid.NewString()
	authURL, id, err := h.svc.AuthURL(providerFromRequest(r), redirectURI, state)
	if err != nil {
		if errors.Is(err, provider.ErrNotRegistered) {
			h.logger.Warn("Provider not available", "provider", id)
			http.Error(w, "Provider not available", http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to generate auth URL", "error", err)
		http.Error(w, "Failed to start OAuth flow", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Starting OAuth flow", "provider", id, "state", state, "redirect_uri", redirectURI)

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}
