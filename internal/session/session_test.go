package session

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shorts-web/internal/common/logging"
	"shorts-web/internal/crypto"
	"shorts-web/internal/kv"
	"shorts-web/internal/redis"
)

func newSealer(t *testing.T) *crypto.Sealer {
	t.Helper()
	sealer, err := crypto.NewSealer("test-session-secret-that-is-long-enough")
	require.NoError(t, err)
	return sealer
}

// carryCookies copies the cookies set on rec into a new request, the way a
// browser would on its next navigation.
func carryCookies(rec *httptest.ResponseRecorder, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			continue
		}
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCookieStore_Lifecycle(t *testing.T) {
	factory := NewCookieFactory(newSealer(t), CookieOptions{CDNSuffix: "cloudfront.net"})
	ctx := context.Background()

	// Empty browser.
	rec := httptest.NewRecorder()
	store := factory.ForRequest(rec, httptest.NewRequest(http.MethodGet, "http://localhost:8080/", nil))
	_, found, err := store.Get(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	// Login.
	require.NoError(t, store.Set(ctx, Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}))

	cred, found, err := store.Get(ctx)
	require.NoError(t, err)
	assert.True(t, found, "writes are visible within the same request")
	assert.Equal(t, "access-1", cred.AccessToken)

	access := findCookie(rec, AccessTokenCookie)
	require.NotNil(t, access)
	assert.NotEqual(t, "access-1", access.Value, "cookie value is sealed")
	assert.True(t, access.HttpOnly)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, int(DefaultTTL.Seconds()), access.MaxAge)
	assert.Empty(t, access.Domain)

	// Next request sees the credential.
	rec2 := httptest.NewRecorder()
	store2 := factory.ForRequest(rec2, carryCookies(rec, "http://localhost:8080/upload"))
	cred, found, err = store2.Get(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}, cred)

	// Logout expires both cookies.
	require.NoError(t, store2.Clear(ctx))
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c := findCookie(rec2, name)
		require.NotNil(t, c, name)
		assert.Equal(t, -1, c.MaxAge)
		assert.Empty(t, c.Value)
	}
	_, found, err = store2.Get(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCookieStore_CDNScoping(t *testing.T) {
	factory := NewCookieFactory(newSealer(t), CookieOptions{CDNSuffix: "cloudfront.net", TTL: time.Hour})
	ctx := context.Background()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "https://d111111abcdef8.cloudfront.net/oauth/callback/kakao", nil)
	store := factory.ForRequest(rec, req)
	require.NoError(t, store.Set(ctx, Credential{AccessToken: "access"}))

	access := findCookie(rec, AccessTokenCookie)
	require.NotNil(t, access)
	assert.Equal(t, "cloudfront.net", access.Domain)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
	assert.Equal(t, 3600, access.MaxAge)

	require.NoError(t, store.Clear(ctx))
	cookies := rec.Result().Cookies()
	last := cookies[len(cookies)-1]
	assert.Equal(t, "cloudfront.net", last.Domain, "clearing uses the same scope")
}

func TestCookieStore_SecureOverTLS(t *testing.T) {
	factory := NewCookieFactory(newSealer(t), CookieOptions{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "https://shorts.example/", nil)
	req.TLS = &tls.ConnectionState{}
	require.NoError(t, factory.ForRequest(rec, req).Set(context.Background(), Credential{AccessToken: "a"}))

	access := findCookie(rec, AccessTokenCookie)
	require.NotNil(t, access)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
}

func TestCookieStore_RejectsForeignCookies(t *testing.T) {
	factory := NewCookieFactory(newSealer(t), CookieOptions{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "plain-token-written-elsewhere"})

	_, found, err := factory.ForRequest(httptest.NewRecorder(), req).Get(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCookieStore_SetRequiresAccessToken(t *testing.T) {
	factory := NewCookieFactory(newSealer(t), CookieOptions{})
	store := factory.ForRequest(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Error(t, store.Set(context.Background(), Credential{RefreshToken: "only-refresh"}))
}

func newRedisKV(t *testing.T) (*kv.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return kv.NewRedisStore(client, KeyPrefix), mr
}

func TestKVStore_Redis(t *testing.T) {
	backend, mr := newRedisKV(t)
	factory := NewKVFactory(backend, CookieOptions{})
	ctx := context.Background()

	rec := httptest.NewRecorder()
	store := factory.ForRequest(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, store.Set(ctx, Credential{AccessToken: "access", RefreshToken: "refresh"}))

	sid := findCookie(rec, SessionIDCookie)
	require.NotNil(t, sid)
	assert.True(t, mr.Exists(KeyPrefix+sid.Value))
	assert.Equal(t, DefaultTTL, mr.TTL(KeyPrefix+sid.Value))

	rec2 := httptest.NewRecorder()
	store2 := factory.ForRequest(rec2, carryCookies(rec, "/profile"))
	cred, found, err := store2.Get(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "access", cred.AccessToken)
	assert.Equal(t, "refresh", cred.RefreshToken)

	require.NoError(t, store2.Clear(ctx))
	assert.False(t, mr.Exists(KeyPrefix+sid.Value))
	assert.Equal(t, -1, findCookie(rec2, SessionIDCookie).MaxAge)
}

func TestKVStore_RotatesSessionID(t *testing.T) {
	backend := kv.NewMemoryStore()
	factory := NewKVFactory(backend, CookieOptions{})
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, factory.ForRequest(rec, httptest.NewRequest(http.MethodGet, "/", nil)).
		Set(ctx, Credential{AccessToken: "first"}))
	first := findCookie(rec, SessionIDCookie).Value

	rec2 := httptest.NewRecorder()
	require.NoError(t, factory.ForRequest(rec2, carryCookies(rec, "/")).
		Set(ctx, Credential{AccessToken: "second"}))
	second := findCookie(rec2, SessionIDCookie).Value

	assert.NotEqual(t, first, second)
	_, found, err := backend.Get(ctx, first)
	require.NoError(t, err)
	assert.False(t, found, "previous session entry is dropped")
}

func TestKVStore_UnknownOrMalformedID(t *testing.T) {
	factory := NewKVFactory(kv.NewMemoryStore(), CookieOptions{})
	ctx := context.Background()

	for _, value := range []string{"not-a-uuid", "7c4a4c1e-8a3b-4a51-9f3e-2b1f7a4c9d10"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionIDCookie, Value: value})

		_, found, err := factory.ForRequest(httptest.NewRecorder(), req).Get(ctx)
		require.NoError(t, err)
		assert.False(t, found, value)
	}
}

func TestKVStore_MemoryExpiry(t *testing.T) {
	backend := kv.NewMemoryStore()
	factory := NewKVFactory(backend, CookieOptions{TTL: 50 * time.Millisecond})
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, factory.ForRequest(rec, httptest.NewRequest(http.MethodGet, "/", nil)).
		Set(ctx, Credential{AccessToken: "short-lived"}))

	time.Sleep(100 * time.Millisecond)

	_, found, err := factory.ForRequest(httptest.NewRecorder(), carryCookies(rec, "/")).Get(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "member-42"})
	signed, err := token.SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	assert.Equal(t, "member-42", Subject(signed))
	assert.Empty(t, Subject("opaque-token"))
	assert.Empty(t, Subject(""))
}

func TestMiddleware(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "member-7"})
	signed, err := token.SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	factory := NewKVFactory(kv.NewMemoryStore(), CookieOptions{})
	rec := httptest.NewRecorder()
	require.NoError(t, factory.ForRequest(rec, httptest.NewRequest(http.MethodGet, "/", nil)).
		Set(context.Background(), Credential{AccessToken: signed}))

	var (
		gotStore   Store
		gotSubject string
	)
	handler := Middleware(factory)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStore, _ = FromContext(r.Context())
		gotSubject = logging.SubjectFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), carryCookies(rec, "/"))

	require.NotNil(t, gotStore)
	cred, found, err := gotStore.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, signed, cred.AccessToken)
	assert.Equal(t, "member-7", gotSubject)
}

func TestHolder(t *testing.T) {
	ctx := context.Background()
	holder := NewHolder(Credential{})

	_, found, err := holder.Get(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, holder.Set(ctx, Credential{AccessToken: "a"}))
	cred, found, _ := holder.Get(ctx)
	assert.True(t, found)
	assert.Equal(t, "a", cred.AccessToken)

	require.NoError(t, holder.Clear(ctx))
	_, found, _ = holder.Get(ctx)
	assert.False(t, found)
}
