package handlers

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"shorts-web/internal/apiclient"
	"shorts-web/internal/auth"
	"shorts-web/internal/common/errors"
	"shorts-web/internal/common/logging"
	"shorts-web/internal/drafts"
	"shorts-web/internal/member"
	"shorts-web/internal/session"
	"shorts-web/internal/upload"
	"shorts-web/internal/video"
)

// HealthCheck reports the state of one dependency.
type HealthCheck func(ctx context.Context) error

// Options wires the handlers to their collaborators.
type Options struct {
	WebFS       fs.FS
	API         *apiclient.Client
	Auth        auth.Options
	Drafts      *drafts.Service
	DraftTTL    time.Duration
	Compensator upload.Compensator
	Cookies     session.CookieOptions
	Checks      map[string]HealthCheck
	Version     string
}

// Handlers serves pages, the OAuth flow and the JSON API. Every backend call
// is made with the credential of the request's session.
type Handlers struct {
	webFS       fs.FS
	api         *apiclient.Client
	authOpts    auth.Options
	drafts      *drafts.Service
	draftTTL    time.Duration
	compensator upload.Compensator
	cookies     session.CookieOptions
	checks      map[string]HealthCheck
	version     string
}

// New creates the handler set.
func New(opts Options) *Handlers {
	version := opts.Version
	if version == "" {
		version = "1.0.0"
	}
	draftTTL := opts.DraftTTL
	if draftTTL <= 0 {
		draftTTL = drafts.DefaultTTL
	}
	return &Handlers{
		webFS:       opts.WebFS,
		api:         opts.API,
		authOpts:    opts.Auth,
		drafts:      opts.Drafts,
		draftTTL:    draftTTL,
		compensator: opts.Compensator,
		cookies:     opts.Cookies,
		checks:      opts.Checks,
		version:     version,
	}
}

// store returns the request's session store. session.Middleware always binds
// one; a missing store is a wiring bug.
func (h *Handlers) store(r *http.Request) session.Store {
	store, ok := session.FromContext(r.Context())
	if !ok {
		return nil
	}
	return store
}

func (h *Handlers) authService(r *http.Request) *auth.Service {
	return auth.New(h.authOpts, h.api, h.store(r))
}

func (h *Handlers) sessionAPI(r *http.Request) *apiclient.Client {
	if store := h.store(r); store != nil {
		return h.api.WithSession(store)
	}
	return h.api
}

func (h *Handlers) videoService(r *http.Request) *video.Service {
	return video.New(h.sessionAPI(r), h.compensator)
}

func (h *Handlers) memberService(r *http.Request) *member.Service {
	return member.New(h.sessionAPI(r), h.compensator)
}

// errorResponse is the JSON body of every failed API call.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Type  string `json:"type,omitempty"`
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// sendRawJSON relays a backend document untouched.
func sendRawJSON(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	w.Write(raw)
}

func sendJSONError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	body := errorResponse{Error: http.StatusText(status), Type: string(errors.GetType(err))}

	if appErr, ok := errors.As(err); ok {
		body.Error = appErr.Message
		body.Code = appErr.Code
	}

	log := logging.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", err, logging.Int("status", status))
	} else {
		log.Debug("Request rejected", logging.Err(err), logging.Int("status", status))
	}

	sendJSON(w, status, body)
}
