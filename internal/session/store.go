// Package session owns the Session Credential: the bearer token issued by the
// backend after an OAuth login, plus an optional refresh token.
//
// A Store is bound to one browser session for the lifetime of one HTTP
// request. Factory implementations build a Store per request, and Middleware
// attaches it to the request context so handlers can pass it on explicitly to
// the API client and the domain services.
//
// Two alternative strategies exist and exactly one is chosen at start-up:
//   - cookie: the credential travels in sealed HttpOnly cookies
//   - key-value: an opaque session id cookie points at a Redis or in-memory entry
package session

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Cookie names. The credential cookies keep the names the browser client used.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
	SessionIDCookie    = "sid"
)

// DefaultTTL is how long a credential survives in storage.
const DefaultTTL = 7 * 24 * time.Hour

// Credential is the opaque bearer credential and its optional refresh token.
type Credential struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Present reports whether the credential carries an access token.
func (c Credential) Present() bool {
	return c.AccessToken != ""
}

// Store persists and retrieves the Session Credential.
//
// Get returns found=false with a nil error when no credential is stored.
type Store interface {
	Get(ctx context.Context) (Credential, bool, error)
	Set(ctx context.Context, cred Credential) error
	Clear(ctx context.Context) error
}

// Factory binds a Store to one request/response pair.
type Factory interface {
	ForRequest(w http.ResponseWriter, r *http.Request) Store
}

// CookieOptions controls lifetime and scoping of every cookie a Store writes.
type CookieOptions struct {
	// TTL is the credential lifetime; DefaultTTL when zero.
	TTL time.Duration
	// CDNSuffix marks CDN hosts. Requests to such hosts get cookies scoped to
	// the whole suffix domain, flagged Secure and SameSite=Strict.
	CDNSuffix string
}

func (o CookieOptions) ttl() time.Duration {
	if o.TTL <= 0 {
		return DefaultTTL
	}
	return o.TTL
}

// Cookie builds a cookie scoped for the request host. A negative maxAge
// produces an expired cookie that deletes the browser copy.
func (o CookieOptions) Cookie(r *http.Request, name, value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	}

	if o.isCDNHost(requestHost(r)) {
		cookie.Domain = "." + o.CDNSuffix
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	if maxAge < 0 {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	} else {
		cookie.MaxAge = maxAge
		cookie.Expires = time.Now().Add(time.Duration(maxAge) * time.Second)
	}
	return cookie
}

func (o CookieOptions) isCDNHost(host string) bool {
	if o.CDNSuffix == "" || host == "" {
		return false
	}
	return host == o.CDNSuffix || strings.HasSuffix(host, "."+o.CDNSuffix)
}

func requestHost(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}

// Subject returns the "sub" claim of a JWT access token without verifying it.
// The backend is the only party that verifies tokens; the subject is used for
// request logs only. Opaque or malformed tokens yield "".
func Subject(accessToken string) string {
	if accessToken == "" {
		return ""
	}
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return subject
}

// Holder keeps a single credential in process memory. It backs tests and
// callers that act outside a browser session.
type Holder struct {
	mu   sync.RWMutex
	cred Credential
}

// NewHolder returns a Holder preloaded with cred; a zero Credential means absent.
func NewHolder(cred Credential) *Holder {
	return &Holder{cred: cred}
}

func (h *Holder) Get(context.Context) (Credential, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cred, h.cred.Present(), nil
}

func (h *Holder) Set(_ context.Context, cred Credential) error {
	h.mu.Lock()
	h.cred = cred
	h.mu.Unlock()
	return nil
}

func (h *Holder) Clear(context.Context) error {
	h.mu.Lock()
	h.cred = Credential{}
	h.mu.Unlock()
	return nil
}
