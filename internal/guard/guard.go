// Package guard gates navigation to protected routes.
//
// Each navigation is evaluated once: Evaluating -> Allowed or Redirected.
// A route that does not require authentication is always allowed. A protected
// route without a Session Credential is always redirected to the login page.
// In strict mode the credential is additionally confirmed with a live
// current-user lookup and any failure, including network errors, redirects.
package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"shorts-web/internal/common/logging"
	"shorts-web/internal/session"
)

// LoginPath is where denied page navigations are sent.
const LoginPath = "/login"

// Mode selects how much the guard trusts a stored credential.
type Mode string

const (
	// ModeStrict confirms the credential with the backend on every protected
	// page navigation.
	ModeStrict Mode = "strict"
	// ModePresence trusts credential presence alone.
	ModePresence Mode = "presence"
)

// ParseMode maps a configuration value to a Mode, defaulting to strict.
func ParseMode(value string) Mode {
	if Mode(strings.ToLower(value)) == ModePresence {
		return ModePresence
	}
	return ModeStrict
}

// Decision is the outcome of one navigation attempt.
type Decision int

const (
	Allowed Decision = iota
	Redirected
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "redirected"
}

// Verifier confirms that the credential held by store is still accepted,
// typically by fetching the current user.
type Verifier func(ctx context.Context, store session.Store) error

// Route names a navigable path and whether it is protected.
type Route struct {
	Name         string
	Path         string
	RequiresAuth bool
}

// Guard evaluates navigations against a table of named routes.
type Guard struct {
	mode      Mode
	verify    Verifier
	protected map[string]bool
}

// New creates a guard. verify is only consulted in strict mode; a strict guard
// without a verifier behaves like a presence guard.
func New(mode Mode, verify Verifier, routes []Route) *Guard {
	protected := make(map[string]bool, len(routes))
	for _, route := range routes {
		if route.RequiresAuth {
			protected[route.Name] = true
		}
	}
	return &Guard{mode: mode, verify: verify, protected: protected}
}

// Mode returns the configured strictness.
func (g *Guard) Mode() Mode {
	return g.mode
}

// RequiresAuth reports whether the named route is protected.
func (g *Guard) RequiresAuth(name string) bool {
	return g.protected[name]
}

// Evaluate decides one navigation. live selects whether strict mode performs
// the backend check for this navigation.
func (g *Guard) Evaluate(ctx context.Context, store session.Store, requiresAuth, live bool) (Decision, string) {
	if !requiresAuth {
		return Allowed, "public route"
	}
	if store == nil {
		return Redirected, "no session"
	}

	_, found, err := store.Get(ctx)
	if err != nil {
		return Redirected, "credential unreadable"
	}
	if !found {
		return Redirected, "no credential"
	}

	if live && g.mode == ModeStrict && g.verify != nil {
		if err := g.verify(ctx, store); err != nil {
			return Redirected, "credential rejected"
		}
	}
	return Allowed, "credential present"
}

// Middleware is a gorilla/mux middleware. The matched route's name selects the
// protection rule. Denied page navigations are redirected to LoginPath; denied
// /api calls get a 401 JSON body instead. API calls are checked for presence
// only, since the backend validates the credential on the call itself.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var name string
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		requiresAuth := g.RequiresAuth(name)
		if !requiresAuth {
			next.ServeHTTP(w, r)
			return
		}

		store, _ := session.FromContext(r.Context())
		isAPI := isAPIRequest(r)
		decision, reason := g.Evaluate(r.Context(), store, requiresAuth, !isAPI)

		logging.WithContext(r.Context()).Debug("Navigation evaluated",
			logging.String("route", name),
			logging.String("decision", decision.String()),
			logging.String("reason", reason),
			logging.String("mode", string(g.mode)))

		if decision == Allowed {
			next.ServeHTTP(w, r)
			return
		}

		if isAPI {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
			return
		}
		http.Redirect(w, r, LoginPath, http.StatusFound)
	})
}

func isAPIRequest(r *http.Request) bool {
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}
