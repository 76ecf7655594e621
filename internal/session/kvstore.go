package session

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"shorts-web/internal/common/errors"
	"shorts-web/internal/kv"
)

// KeyPrefix namespaces session entries in a shared key-value backend.
const KeyPrefix = "shorts:session:"

// KVFactory builds stores that keep the credential in a key-value backend and
// hand the browser only a random session id.
type KVFactory struct {
	store kv.Store
	opts  CookieOptions
}

// NewKVFactory expects store to apply KeyPrefix itself, as kv.NewRedisStore
// does, or to be dedicated to sessions.
func NewKVFactory(store kv.Store, opts CookieOptions) *KVFactory {
	return &KVFactory{store: store, opts: opts}
}

func (f *KVFactory) ForRequest(w http.ResponseWriter, r *http.Request) Store {
	return &KVStore{w: w, r: r, store: f.store, opts: f.opts}
}

// KVStore maps the sid cookie to a stored credential.
type KVStore struct {
	w     http.ResponseWriter
	r     *http.Request
	store kv.Store
	opts  CookieOptions

	loaded bool
	id     string
	cred   Credential
}

func (s *KVStore) sessionID() string {
	if s.id != "" {
		return s.id
	}
	cookie, err := s.r.Cookie(SessionIDCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

func (s *KVStore) Get(ctx context.Context) (Credential, bool, error) {
	if s.loaded {
		return s.cred, s.cred.Present(), nil
	}

	id := s.sessionID()
	if id == "" {
		s.loaded = true
		return Credential{}, false, nil
	}

	data, found, err := s.store.Get(ctx, id)
	if err != nil {
		return Credential{}, false, errors.ConnectionError("failed to load session", err)
	}

	var cred Credential
	if found {
		if err := json.Unmarshal(data, &cred); err != nil {
			return Credential{}, false, errors.InternalError("stored session is corrupt", err)
		}
	}

	s.id = id
	s.cred = cred
	s.loaded = true
	return cred, cred.Present(), nil
}

// Set always issues a fresh session id and drops the previous entry, so an id
// planted before login never becomes authenticated.
func (s *KVStore) Set(ctx context.Context, cred Credential) error {
	if !cred.Present() {
		return errors.ValidationError("credential has no access token")
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return errors.InternalError("failed to encode session", err)
	}

	previous := s.sessionID()
	id := uuid.NewString()
	ttl := s.opts.ttl()

	if err := s.store.Set(ctx, id, data, ttl); err != nil {
		return errors.ConnectionError("failed to save session", err)
	}
	if previous != "" {
		_ = s.store.Delete(ctx, previous)
	}

	http.SetCookie(s.w, s.opts.Cookie(s.r, SessionIDCookie, id, int(ttl.Seconds())))

	s.id = id
	s.cred = cred
	s.loaded = true
	return nil
}

func (s *KVStore) Clear(ctx context.Context) error {
	if id := s.sessionID(); id != "" {
		if err := s.store.Delete(ctx, id); err != nil {
			return errors.ConnectionError("failed to delete session", err)
		}
	}
	http.SetCookie(s.w, s.opts.Cookie(s.r, SessionIDCookie, "", -1))

	s.id = ""
	s.cred = Credential{}
	s.loaded = true
	return nil
}
