package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shorts-web/internal/common/errors"
	"shorts-web/internal/session"
)

type fixedFactory struct{ store session.Store }

func (f fixedFactory) ForRequest(http.ResponseWriter, *http.Request) session.Store { return f.store }

type brokenStore struct{ session.Holder }

func (*brokenStore) Get(context.Context) (session.Credential, bool, error) {
	return session.Credential{}, false, errors.ConnectionError("redis down", nil)
}

const apiMe = "api-me"

func newRouter(g *Guard, store session.Store) *mux.Router {
	router := mux.NewRouter()
	router.Use(session.Middleware(fixedFactory{store: store}))
	router.Use(g.Middleware)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("rendered"))
	})
	for _, route := range PageRoutes() {
		router.Handle(route.Path, ok).Methods(http.MethodGet).Name(route.Name)
	}
	router.Handle("/api/me", ok).Methods(http.MethodGet).Name(apiMe)
	return router
}

func routesWithAPI() []Route {
	return append(PageRoutes(), Route{Name: apiMe, Path: "/api/me", RequiresAuth: true})
}

func protectedPaths() []string {
	var paths []string
	for _, route := range PageRoutes() {
		if route.RequiresAuth {
			paths = append(paths, route.Path)
		}
	}
	return paths
}

func serve(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModePresence, ParseMode("presence"))
	assert.Equal(t, ModePresence, ParseMode("PRESENCE"))
	assert.Equal(t, ModeStrict, ParseMode("strict"))
	assert.Equal(t, ModeStrict, ParseMode(""))
	assert.Equal(t, ModeStrict, ParseMode("anything"))
}

func TestPageRoutes_Protection(t *testing.T) {
	g := New(ModeStrict, nil, PageRoutes())

	assert.ElementsMatch(t, []string{"/", "/upload", "/preview", "/my-videos", "/profile"}, protectedPaths())
	assert.False(t, g.RequiresAuth(RouteLogin))
	assert.False(t, g.RequiresAuth(RouteOAuthCallback))
	assert.False(t, g.RequiresAuth("unknown"))
}

func TestGuard_RedirectsWithoutCredential(t *testing.T) {
	for _, mode := range []Mode{ModeStrict, ModePresence} {
		verifyCalls := 0
		verify := func(context.Context, session.Store) error {
			verifyCalls++
			return nil
		}
		router := newRouter(New(mode, verify, routesWithAPI()), session.NewHolder(session.Credential{}))

		for _, path := range protectedPaths() {
			rec := serve(router, path)
			assert.Equal(t, http.StatusFound, rec.Code, "%s %s", mode, path)
			assert.Equal(t, LoginPath, rec.Header().Get("Location"), "%s %s", mode, path)
		}
		assert.Zero(t, verifyCalls, "no backend call without a credential")
	}
}

func TestGuard_UploadWithoutCredential(t *testing.T) {
	router := newRouter(New(ModeStrict, nil, PageRoutes()), session.NewHolder(session.Credential{}))

	rec := serve(router, "/upload")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestGuard_AllowsWithCredential(t *testing.T) {
	verifyCalls := 0
	verify := func(ctx context.Context, store session.Store) error {
		verifyCalls++
		cred, found, err := store.Get(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "valid", cred.AccessToken)
		return nil
	}

	for _, mode := range []Mode{ModeStrict, ModePresence} {
		verifyCalls = 0
		router := newRouter(New(mode, verify, PageRoutes()), session.NewHolder(session.Credential{AccessToken: "valid"}))

		for _, path := range protectedPaths() {
			rec := serve(router, path)
			assert.Equal(t, http.StatusOK, rec.Code, "%s %s", mode, path)
			assert.Equal(t, "rendered", rec.Body.String())
		}

		if mode == ModeStrict {
			assert.Equal(t, len(protectedPaths()), verifyCalls)
		} else {
			assert.Zero(t, verifyCalls)
		}
	}
}

func TestGuard_StrictRedirectsOnVerifyFailure(t *testing.T) {
	failures := []error{
		errors.FetchError("failed to get user info", http.StatusUnauthorized),
		errors.ConnectionError("request failed", nil),
	}

	for _, failure := range failures {
		verify := func(context.Context, session.Store) error { return failure }

		strict := newRouter(New(ModeStrict, verify, PageRoutes()), session.NewHolder(session.Credential{AccessToken: "stale"}))
		rec := serve(strict, "/profile")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, LoginPath, rec.Header().Get("Location"))

		presence := newRouter(New(ModePresence, verify, PageRoutes()), session.NewHolder(session.Credential{AccessToken: "stale"}))
		rec = serve(presence, "/profile")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestGuard_PublicRoutesAlwaysAllowed(t *testing.T) {
	verify := func(context.Context, session.Store) error { return assert.AnError }
	router := newRouter(New(ModeStrict, verify, PageRoutes()), session.NewHolder(session.Credential{}))

	for _, path := range []string{"/login", "/videos", "/video/detail", "/oauth/callback/kakao", "/login/oauth2/code/kakao"} {
		rec := serve(router, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestGuard_StoreErrorRedirects(t *testing.T) {
	router := newRouter(New(ModePresence, nil, PageRoutes()), &brokenStore{})

	rec := serve(router, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestGuard_APIGets401(t *testing.T) {
	verifyCalls := 0
	verify := func(context.Context, session.Store) error {
		verifyCalls++
		return nil
	}

	router := newRouter(New(ModeStrict, verify, routesWithAPI()), session.NewHolder(session.Credential{}))
	rec := serve(router, "/api/me")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Authentication required"}`, rec.Body.String())

	router = newRouter(New(ModeStrict, verify, routesWithAPI()), session.NewHolder(session.Credential{AccessToken: "tok"}))
	rec = serve(router, "/api/me")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, verifyCalls, "API calls rely on the backend to validate the credential")
}

func TestEvaluate(t *testing.T) {
	g := New(ModeStrict, func(context.Context, session.Store) error { return assert.AnError }, nil)
	ctx := context.Background()

	decision, _ := g.Evaluate(ctx, nil, false, true)
	assert.Equal(t, Allowed, decision)

	decision, reason := g.Evaluate(ctx, nil, true, true)
	assert.Equal(t, Redirected, decision)
	assert.Equal(t, "no session", reason)

	decision, reason = g.Evaluate(ctx, session.NewHolder(session.Credential{AccessToken: "x"}), true, true)
	assert.Equal(t, Redirected, decision)
	assert.Equal(t, "credential rejected", reason)

	decision, _ = g.Evaluate(ctx, session.NewHolder(session.Credential{AccessToken: "x"}), true, false)
	assert.Equal(t, Allowed, decision)

	assert.Equal(t, "allowed", Allowed.String())
	assert.Equal(t, "redirected", Redirected.String())
}
