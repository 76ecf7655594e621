package member_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shorts-web/internal/apiclient"
	"shorts-web/internal/common/errors"
	"shorts-web/internal/member"
	"shorts-web/internal/session"
	"shorts-web/internal/upload"
)

type call struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Body   string
}

type fakeBackend struct {
	mu     sync.Mutex
	calls  []call
	server *httptest.Server
}

func (f *fakeBackend) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
}

func (f *fakeBackend) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func setup(t *testing.T, handler func(f *fakeBackend, w http.ResponseWriter, r *http.Request), opts ...apiclient.ClientOption) (*fakeBackend, *member.Service) {
	t.Helper()
	f := &fakeBackend{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		handler(f, w, r)
	}))
	t.Cleanup(f.server.Close)

	client, err := apiclient.New(f.server.URL, opts...)
	require.NoError(t, err)
	store := session.NewHolder(session.Credential{AccessToken: "tok"})
	return f, member.New(client.WithSession(store), nil)
}

func TestProfile(t *testing.T) {
	f, svc := setup(t, func(_ *fakeBackend, w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nickname":"mina","profileImageUrl":"https://img/1.png","level":3}`))
	})

	profile, err := svc.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mina", profile.Nickname)
	assert.Equal(t, "https://img/1.png", profile.ProfileImageURL)

	data, err := json.Marshal(profile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nickname":"mina","profileImageUrl":"https://img/1.png","level":3}`, string(data))

	calls := f.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "/my/profile", calls[0].Path)
	assert.Equal(t, "Bearer tok", calls[0].Auth)
}

func TestUpdateNickname(t *testing.T) {
	f, svc := setup(t, func(_ *fakeBackend, w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, svc.UpdateNickname(context.Background(), "  새 닉네임 "))

	calls := f.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPut, calls[0].Method)
	assert.Equal(t, "/my/profile", calls[0].Path)
	assert.Equal(t, "새 닉네임", calls[0].Query.Get("nickname"))
	assert.Empty(t, calls[0].Body)
}

func TestUpdateNickname_Validation(t *testing.T) {
	f, svc := setup(t, func(_ *fakeBackend, w http.ResponseWriter, r *http.Request) {})

	err := svc.UpdateNickname(context.Background(), " ")
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
	assert.Empty(t, f.recorded())
}

func TestUpdateNickname_LengthIsLeftToBackend(t *testing.T) {
	f, svc := setup(t, func(_ *fakeBackend, w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"nickname too long"}`))
	})

	long := strings.Repeat("가", 31)
	err := svc.UpdateNickname(context.Background(), long)
	require.Error(t, err)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrTypeFetch, appErr.Type)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)

	calls := f.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, long, calls[0].Query.Get("nickname"))
}

func TestPresignedURLAndImage(t *testing.T) {
	f, svc := setup(t, func(_ *fakeBackend, w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/my/profile/presigned-url" {
			w.Write([]byte(`"https://bucket.s3.amazonaws.com/p/me.png?sig=1"`))
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	slot, err := svc.PresignedURL(context.Background(), "me.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/p/me.png?sig=1", slot.UploadURL)

	require.NoError(t, svc.UpdateImageURL(context.Background(), "https://bucket.s3.amazonaws.com/p/me.png"))

	calls := f.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, "me.png", calls[0].Query.Get("filename"))
	assert.Equal(t, "image/png", calls[0].Query.Get("contentType"))
	assert.Equal(t, "/my/profile/image", calls[1].Path)
	assert.JSONEq(t, `{"imageUrl":"https://bucket.s3.amazonaws.com/p/me.png"}`, calls[1].Body)
}

func TestLeave(t *testing.T) {
	f, svc := setup(t, func(_ *fakeBackend, w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, svc.Leave(context.Background()))
	calls := f.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodDelete, calls[0].Method)
	assert.Equal(t, "/my/leave", calls[0].Path)
}

func TestUpdateProfileImage(t *testing.T) {
	f, svc := setup(t, func(f *fakeBackend, w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/my/profile/presigned-url" {
			json.NewEncoder(w).Encode(map[string]string{"presignedUrl": f.server.URL + "/storage/me.png?sig=1"})
			return
		}
		w.WriteHeader(http.StatusOK)
	}, apiclient.WithObjectStorageHosts("127.0.0.1"))

	file := upload.File{Name: "me.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")}
	result, err := svc.UpdateProfileImage(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, upload.StateConfirmed, result.State)

	calls := f.recorded()
	require.Len(t, calls, 3)
	assert.Equal(t, "/storage/me.png", calls[1].Path)
	assert.Empty(t, calls[1].Auth, "object storage must not see the credential")
	assert.Equal(t, "png", calls[1].Body)
	assert.Equal(t, "/my/profile/image", calls[2].Path)
	assert.JSONEq(t, `{"imageUrl":"`+f.server.URL+`/storage/me.png"}`, calls[2].Body)
}

func TestUpdateProfileImage_TransferFailure(t *testing.T) {
	f, svc := setup(t, func(f *fakeBackend, w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/my/profile/presigned-url" {
			json.NewEncoder(w).Encode(f.server.URL + "/storage/me.png?sig=1")
			return
		}
		w.WriteHeader(http.StatusForbidden)
	})

	file := upload.File{Name: "me.png", ContentType: "image/png", Body: strings.NewReader("png")}
	result, err := svc.UpdateProfileImage(context.Background(), file)
	require.Error(t, err)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrTypeUpload, appErr.Type)
	assert.Equal(t, errors.StageTransfer, appErr.Code)
	assert.Equal(t, upload.StateFailed, result.State)

	for _, c := range f.recorded() {
		assert.NotEqual(t, "/my/profile/image", c.Path, "profile must not be updated")
	}
}

func TestUpdateProfileImage_RejectsNonImage(t *testing.T) {
	f, svc := setup(t, func(_ *fakeBackend, w http.ResponseWriter, r *http.Request) {})

	_, err := svc.UpdateProfileImage(context.Background(), upload.File{Name: "a.txt", ContentType: "text/plain", Body: strings.NewReader("x")})
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
	assert.Empty(t, f.recorded())
}
