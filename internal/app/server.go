package app

import (
	"context"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"shorts-web/internal/auth"
	"shorts-web/internal/guard"
	"shorts-web/internal/handlers"
	"shorts-web/internal/server"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

func (app *App) authOptions() auth.Options {
	return auth.Options{
		Provider:    app.Config.OAuthProvider,
		ClientID:    app.Config.OAuthClientID,
		RedirectURI: app.Config.OAuthRedirectURI,
		AuthURL:     app.Config.OAuthAuthURL,
		Scopes:      app.Config.OAuthScopes,
	}
}

func (app *App) healthChecks() map[string]handlers.HealthCheck {
	checks := make(map[string]handlers.HealthCheck)
	if app.RedisClient != nil {
		client := app.RedisClient
		checks["redis"] = func(context.Context) error {
			return client.Health()
		}
	}
	return checks
}

// Handler builds the routed handler chain without binding a listener.
func (app *App) Handler(webFS fs.FS) http.Handler {
	h := handlers.New(handlers.Options{
		WebFS:       webFS,
		API:         app.API,
		Auth:        app.authOptions(),
		Drafts:      app.Drafts,
		DraftTTL:    app.Config.DraftTTL,
		Compensator: app.Compensator,
		Cookies:     app.cookieOptions(),
		Checks:      app.healthChecks(),
		Version:     Version,
	})

	g := guard.New(guard.ParseMode(app.Config.GuardMode), h.VerifySession, Routes())

	router := mux.NewRouter()
	SetupRoutes(router, h, app.Sessions, g)
	return router
}

// RunServer creates the HTTP server with all handlers configured
func (app *App) RunServer(webFS fs.FS) (*server.Server, http.Handler) {
	router := app.Handler(webFS)
	srv := server.New(router, app.Config.Port, app.Config.TLSCert, app.Config.TLSKey)
	return srv, router
}

// Shutdown stops the background sweepers before the listener drains. Stores
// stay readable until Cleanup so in-flight requests can finish.
func (app *App) Shutdown(ctx context.Context) error {
	for _, store := range app.memoryStores {
		store.Stop()
	}
	app.Logger.Info("Background sweepers stopped")
	return ctx.Err()
}
