package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"shorts-web/internal/auth"
	"shorts-web/internal/common/errors"
	"shorts-web/internal/common/logging"
	"shorts-web/internal/guard"
	"shorts-web/internal/session"
)

// Auth handlers

// HandleLogin redirects to the OAuth provider
// @Summary Start OAuth login
// @Description Redirects the browser to the provider's authorization page
// @Tags auth
// @Success 302 {string} string "Redirect to the provider"
// @Router /auth/login [get]
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.authService(r).LoginURL(), http.StatusFound)
}

// HandleOAuthCallback exchanges the authorization code for a session
// @Summary Complete OAuth login
// @Description Exchanges the provider's authorization code with the backend and stores the Session Credential
// @Tags auth
// @Param provider path string true "OAuth provider"
// @Param code query string true "Authorization code"
// @Success 302 {string} string "Redirect to / on success, /login?error=... on failure"
// @Router /oauth/callback/{provider} [get]
func (h *Handlers) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	svc := h.authService(r)
	log := logging.WithContext(r.Context())

	if provider, ok := mux.Vars(r)["provider"]; ok && provider != svc.Provider() {
		log.Warn("OAuth callback for unknown provider", logging.String("provider", provider))
		redirectToLogin(w, r, "unsupported_provider")
		return
	}

	query := r.URL.Query()
	if denied := query.Get("error"); denied != "" {
		log.Info("OAuth authorization denied", logging.String("reason", denied))
		redirectToLogin(w, r, denied)
		return
	}

	if _, err := svc.HandleCallback(r.Context(), query.Get("code")); err != nil {
		if errors.IsType(err, errors.ErrTypeAuth) {
			log.Warn("OAuth login rejected", logging.Err(err))
		} else {
			log.Error("OAuth login failed", err)
		}
		redirectToLogin(w, r, auth.StatusText(err))
		return
	}

	log.Info("OAuth login completed", logging.String("provider", svc.Provider()))
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleLogout processes logout requests
// @Summary Process logout
// @Description Notifies the backend, clears the Session Credential and redirects to login
// @Tags auth
// @Success 302 {string} string "Redirect to login page"
// @Router /auth/logout [post]
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService(r).Logout(r.Context()); err != nil {
		logging.WithContext(r.Context()).Warn("Failed to clear session on logout", logging.Err(err))
	}
	h.clearDraft(w, r)
	http.Redirect(w, r, guard.LoginPath, http.StatusFound)
}

// GetCurrentUser returns the user owning the session
// @Summary Get current user
// @Description Returns the backend's current-user document
// @Tags auth
// @Produce json
// @Security SessionCookie
// @Success 200 {object} map[string]interface{} "Current user"
// @Failure 401 {object} errorResponse "No session"
// @Failure 502 {object} errorResponse "Backend unavailable"
// @Router /api/me [get]
func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService(r).CurrentUser(r.Context())
	if err != nil {
		sendJSONError(w, r, err)
		return
	}
	sendRawJSON(w, http.StatusOK, user.Raw)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, reason string) {
	target := guard.LoginPath
	if reason != "" {
		target += "?" + url.Values{"error": {reason}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// VerifySession is the strict-mode guard check: the credential is accepted
// only when the backend still returns the current user for it.
func (h *Handlers) VerifySession(ctx context.Context, store session.Store) error {
	_, err := auth.New(h.authOpts, h.api, store).CurrentUser(ctx)
	return err
}
