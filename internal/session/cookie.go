package session

import (
	"context"
	"net/http"

	"shorts-web/internal/common/errors"
	"shorts-web/internal/common/logging"
	"shorts-web/internal/crypto"
)

// CookieFactory builds cookie-backed stores that seal the credential into the
// accessToken and refreshToken cookies.
type CookieFactory struct {
	sealer *crypto.Sealer
	opts   CookieOptions
}

func NewCookieFactory(sealer *crypto.Sealer, opts CookieOptions) *CookieFactory {
	return &CookieFactory{sealer: sealer, opts: opts}
}

func (f *CookieFactory) ForRequest(w http.ResponseWriter, r *http.Request) Store {
	return &CookieStore{w: w, r: r, sealer: f.sealer, opts: f.opts}
}

// CookieStore reads the credential from the request cookies and writes changes
// to the response. Writes are also remembered so later reads within the same
// request observe them.
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	sealer *crypto.Sealer
	opts   CookieOptions

	loaded bool
	cred   Credential
}

func (s *CookieStore) Get(context.Context) (Credential, bool, error) {
	if !s.loaded {
		s.cred = s.readCookies()
		s.loaded = true
	}
	return s.cred, s.cred.Present(), nil
}

// readCookies treats cookies that fail to open as absent.
func (s *CookieStore) readCookies() Credential {
	var cred Credential

	cookie, err := s.r.Cookie(AccessTokenCookie)
	if err != nil || cookie.Value == "" {
		return cred
	}
	access, err := s.sealer.Open(cookie.Value)
	if err != nil {
		logging.Debug("Ignoring unreadable credential cookie", logging.Err(err))
		return cred
	}
	cred.AccessToken = access

	if cookie, err := s.r.Cookie(RefreshTokenCookie); err == nil && cookie.Value != "" {
		if refresh, err := s.sealer.Open(cookie.Value); err == nil {
			cred.RefreshToken = refresh
		}
	}
	return cred
}

func (s *CookieStore) Set(_ context.Context, cred Credential) error {
	if !cred.Present() {
		return errors.ValidationError("credential has no access token")
	}

	sealedAccess, err := s.sealer.Seal(cred.AccessToken)
	if err != nil {
		return err
	}
	maxAge := int(s.opts.ttl().Seconds())
	http.SetCookie(s.w, s.opts.Cookie(s.r, AccessTokenCookie, sealedAccess, maxAge))

	if cred.RefreshToken != "" {
		sealedRefresh, err := s.sealer.Seal(cred.RefreshToken)
		if err != nil {
			return err
		}
		http.SetCookie(s.w, s.opts.Cookie(s.r, RefreshTokenCookie, sealedRefresh, maxAge))
	} else {
		http.SetCookie(s.w, s.opts.Cookie(s.r, RefreshTokenCookie, "", -1))
	}

	s.cred = cred
	s.loaded = true
	return nil
}

func (s *CookieStore) Clear(context.Context) error {
	http.SetCookie(s.w, s.opts.Cookie(s.r, AccessTokenCookie, "", -1))
	http.SetCookie(s.w, s.opts.Cookie(s.r, RefreshTokenCookie, "", -1))

	s.cred = Credential{}
	s.loaded = true
	return nil
}
