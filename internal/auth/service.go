// Package auth drives the OAuth login flow against the backend: it builds the
// provider redirect, exchanges the authorization code for a Session
// Credential, looks up the current user and logs out.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"shorts-web/internal/apiclient"
	"shorts-web/internal/common/errors"
	"shorts-web/internal/common/logging"
	"shorts-web/internal/session"
)

// Error codes carried by authentication errors.
const (
	CodeMissingCode       = "missing_code"
	CodeExchangeRejected  = "exchange_rejected"
	CodeMissingCredential = "missing_credential"
	CodeNoCredential      = "no_credential"
)

// Backend endpoints.
const (
	callbackPathFormat = "/api/auth/%s/callback"
	currentUserPath    = "/api/user"
	logoutPath         = "/api/auth/logout"
)

// Options configures the OAuth provider.
type Options struct {
	Provider    string
	ClientID    string
	RedirectURI string
	AuthURL     string
	Scopes      []string
}

// User is the current-user payload returned by the backend. Raw keeps the
// full document for callers that need fields beyond the typed ones.
type User struct {
	ID              FlexibleID      `json:"id"`
	Nickname        string          `json:"nickname,omitempty"`
	Email           string          `json:"email,omitempty"`
	ProfileImageURL string          `json:"profileImageUrl,omitempty"`
	Raw             json.RawMessage `json:"-"`
}

// FlexibleID accepts both numeric and string identifiers.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}

type tokenPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service is bound to one browser session through its Store.
type Service struct {
	oauth    *oauth2.Config
	provider string
	api      *apiclient.Client
	authed   *apiclient.Client
	store    session.Store
}

// New builds a Service. api is the shared backend client; store may be nil
// when only LoginURL is needed.
func New(opts Options, api *apiclient.Client, store session.Store) *Service {
	s := &Service{
		oauth:    NewOAuthConfig(opts),
		provider: opts.Provider,
		api:      api,
		store:    store,
	}
	if api != nil && store != nil {
		s.authed = api.WithSession(store)
	}
	return s
}

// NewOAuthConfig maps Options onto an oauth2.Config. Only the authorization
// endpoint is used; the code exchange goes through the backend.
func NewOAuthConfig(opts Options) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    opts.ClientID,
		RedirectURL: opts.RedirectURI,
		Scopes:      opts.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   opts.AuthURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Provider returns the configured provider name, e.g. "kakao".
func (s *Service) Provider() string {
	return s.provider
}

// LoginURL returns the provider authorization URL carrying response_type=code,
// client_id, redirect_uri and scope. It is a pure function of the options.
func (s *Service) LoginURL() string {
	loginURL := s.oauth.AuthCodeURL("")
	// Kakao expects comma separated scopes.
	if s.provider == "kakao" && len(s.oauth.Scopes) > 1 {
		if u, err := url.Parse(loginURL); err == nil {
			q := u.Query()
			q.Set("scope", strings.Join(s.oauth.Scopes, ","))
			u.RawQuery = q.Encode()
			loginURL = u.String()
		}
	}
	return loginURL
}

// HandleCallback exchanges code for a Session Credential through the backend.
// The credential is persisted only when the backend answers 2xx and the payload
// carries an accessToken. The raw backend payload is returned on success.
func (s *Service) HandleCallback(ctx context.Context, code string) (json.RawMessage, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.AuthError("authorization code is missing").WithCode(CodeMissingCode)
	}
	if s.store == nil {
		return nil, errors.InternalError("auth service has no session store", nil)
	}

	path := fmt.Sprintf(callbackPathFormat, url.PathEscape(s.provider))
	resp, err := s.api.Request(ctx, &apiclient.RequestOptions{
		Method: http.MethodGet,
		Path:   path,
		Query:  url.Values{"code": {code}},
	})
	if err != nil {
		if appErr, ok := errors.As(err); ok && appErr.Type == errors.ErrTypeFetch {
			return nil, errors.RejectedAuthError("authorization code exchange rejected", appErr.Status).
				WithCode(CodeExchangeRejected).
				WithContext("provider", s.provider)
		}
		return nil, err
	}

	var tokens tokenPayload
	if len(resp.RawBody) > 0 {
		if err := json.Unmarshal(resp.RawBody, &tokens); err != nil {
			return nil, errors.AuthError("authorization response is not valid JSON").WithCode(CodeMissingCredential)
		}
	}
	if tokens.AccessToken == "" {
		return nil, errors.AuthError("authorization response has no access token").WithCode(CodeMissingCredential)
	}

	cred := session.Credential{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}
	if err := s.store.Set(ctx, cred); err != nil {
		return nil, err
	}

	logging.WithContext(ctx).Info("OAuth login completed",
		logging.String("provider", s.provider),
		logging.String("subject", session.Subject(cred.AccessToken)))

	return json.RawMessage(resp.RawBody), nil
}

// CurrentUser fetches the user owning the stored credential.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	if err := s.requireCredential(ctx); err != nil {
		return nil, err
	}

	resp, err := s.authed.Request(ctx, &apiclient.RequestOptions{Method: http.MethodGet, Path: currentUserPath})
	if err != nil {
		if appErr, ok := errors.As(err); ok && appErr.Type == errors.ErrTypeFetch {
			return nil, errors.FetchError("failed to get user info", appErr.Status)
		}
		return nil, err
	}

	user := &User{Raw: json.RawMessage(resp.RawBody)}
	if err := json.Unmarshal(resp.RawBody, user); err != nil {
		return nil, errors.FetchError("user info response is not valid JSON", resp.StatusCode)
	}
	return user, nil
}

// Logout notifies the backend when a credential is present, then clears the
// store. A failed notification is logged and does not stop the local logout.
func (s *Service) Logout(ctx context.Context) error {
	if s.store == nil {
		return errors.InternalError("auth service has no session store", nil)
	}

	_, found, err := s.store.Get(ctx)
	if err != nil {
		logging.WithContext(ctx).Warn("Could not read credential before logout", logging.Err(err))
	}
	if found {
		if err := s.authed.Post(ctx, logoutPath, nil, nil); err != nil {
			logging.WithContext(ctx).Warn("Backend logout request failed", logging.Err(err))
		}
	}

	return s.store.Clear(ctx)
}

func (s *Service) requireCredential(ctx context.Context) error {
	if s.store == nil {
		return errors.AuthError("no session credential").WithCode(CodeNoCredential)
	}
	_, found, err := s.store.Get(ctx)
	if err != nil {
		return errors.AuthError("failed to read session credential").WithCode(CodeNoCredential)
	}
	if !found {
		return errors.AuthError("no session credential").WithCode(CodeNoCredential)
	}
	return nil
}

// StatusText renders an error code for the login page query string.
func StatusText(err error) string {
	if appErr, ok := errors.As(err); ok {
		if appErr.Code != "" {
			return appErr.Code
		}
		if appErr.Status != 0 {
			return "status_" + strconv.Itoa(appErr.Status)
		}
		return string(appErr.Type)
	}
	return "login_failed"
}
