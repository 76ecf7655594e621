package app

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"shorts-web/internal/guard"
	"shorts-web/internal/handlers"
	"shorts-web/internal/middleware"
	"shorts-web/internal/session"
)

// API route names. Each registered route carries one so the guard can find
// its rule; names are unique per method.
const (
	routeAPIMe           = "api-me"
	routeAPIVideos       = "api-videos"
	routeAPIVideo        = "api-video"
	routeAPIMyVideos     = "api-my-videos"
	routeAPIUploadVideo  = "api-upload-video"
	routeAPIProfile      = "api-profile"
	routeAPIProfileEdit  = "api-profile-edit"
	routeAPIProfileImage = "api-profile-image"
	routeAPIAccount      = "api-account"
	routeAPIDrafts       = "api-drafts"
	routeAPIDraftDelete  = "api-draft-delete"
	routeAPIDraftMedia   = "api-draft-media"
	routeAPIDraftStore   = "api-draft-store"
	routeAPIDraftPublish = "api-draft-publish"
)

func apiRoutes() []guard.Route {
	return []guard.Route{
		{Name: routeAPIMe, Path: "/api/me", RequiresAuth: true},
		{Name: routeAPIVideos, Path: "/api/videos"},
		{Name: routeAPIVideo, Path: "/api/videos/{id}"},
		{Name: routeAPIMyVideos, Path: "/api/my/videos", RequiresAuth: true},
		{Name: routeAPIUploadVideo, Path: "/api/videos", RequiresAuth: true},
		{Name: routeAPIProfile, Path: "/api/profile", RequiresAuth: true},
		{Name: routeAPIProfileEdit, Path: "/api/profile", RequiresAuth: true},
		{Name: routeAPIProfileImage, Path: "/api/profile/image", RequiresAuth: true},
		{Name: routeAPIAccount, Path: "/api/account", RequiresAuth: true},
		{Name: routeAPIDrafts, Path: "/api/drafts", RequiresAuth: true},
		{Name: routeAPIDraftDelete, Path: "/api/drafts", RequiresAuth: true},
		{Name: routeAPIDraftMedia, Path: "/api/drafts/{kind}", RequiresAuth: true},
		{Name: routeAPIDraftStore, Path: "/api/drafts/{kind}", RequiresAuth: true},
		{Name: routeAPIDraftPublish, Path: "/api/drafts/publish", RequiresAuth: true},
	}
}

// Routes returns the guard table covering pages and API calls.
func Routes() []guard.Route {
	return append(guard.PageRoutes(), apiRoutes()...)
}

// SetupRoutes configures all HTTP routes for the application
func SetupRoutes(router *mux.Router, h *handlers.Handlers, sessions session.Factory, g *guard.Guard) {
	// The session is bound first so request logs carry the subject
	router.Use(session.Middleware(sessions))
	router.Use(middleware.LoggingMiddleware)
	router.Use(g.Middleware)

	// Health check and API docs (no auth required)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// OAuth flow
	router.HandleFunc("/auth/login", h.HandleLogin).Methods(http.MethodGet)
	router.HandleFunc("/auth/logout", h.HandleLogout).Methods(http.MethodPost)

	// JSON API
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/me", h.GetCurrentUser).Methods(http.MethodGet).Name(routeAPIMe)

	api.HandleFunc("/videos", h.ListVideos).Methods(http.MethodGet).Name(routeAPIVideos)
	api.HandleFunc("/videos", h.UploadVideo).Methods(http.MethodPost).Name(routeAPIUploadVideo)
	api.HandleFunc("/videos/{id}", h.GetVideo).Methods(http.MethodGet).Name(routeAPIVideo)
	api.HandleFunc("/my/videos", h.ListMyVideos).Methods(http.MethodGet).Name(routeAPIMyVideos)

	api.HandleFunc("/profile", h.GetProfile).Methods(http.MethodGet).Name(routeAPIProfile)
	api.HandleFunc("/profile", h.UpdateProfile).Methods(http.MethodPut).Name(routeAPIProfileEdit)
	api.HandleFunc("/profile/image", h.UploadProfileImage).Methods(http.MethodPost).Name(routeAPIProfileImage)
	api.HandleFunc("/account", h.DeleteAccount).Methods(http.MethodDelete).Name(routeAPIAccount)

	// Draft routes; publish is registered before the {kind} pattern
	api.HandleFunc("/drafts", h.GetDraft).Methods(http.MethodGet).Name(routeAPIDrafts)
	api.HandleFunc("/drafts", h.DeleteDraft).Methods(http.MethodDelete).Name(routeAPIDraftDelete)
	api.HandleFunc("/drafts/publish", h.PublishDraft).Methods(http.MethodPost).Name(routeAPIDraftPublish)
	api.HandleFunc("/drafts/{kind:video|thumbnail}", h.GetDraftMedia).Methods(http.MethodGet).Name(routeAPIDraftMedia)
	api.HandleFunc("/drafts/{kind:video|thumbnail}", h.PutDraftMedia).Methods(http.MethodPut).Name(routeAPIDraftStore)

	// Pages of the single-page app; the guard decides by route name
	for _, route := range guard.PageRoutes() {
		switch route.Name {
		case guard.RouteLogin:
			router.HandleFunc(route.Path, h.ServeLogin).Methods(http.MethodGet).Name(route.Name)
		case guard.RouteOAuthCallback, guard.RouteKakaoCallback:
			router.HandleFunc(route.Path, h.HandleOAuthCallback).Methods(http.MethodGet).Name(route.Name)
		default:
			router.HandleFunc(route.Path, h.ServeApp).Methods(http.MethodGet).Name(route.Name)
		}
	}
}
