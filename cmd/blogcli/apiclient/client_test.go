package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholar-blog/cmd/blogcli/credentials"
	"scholar-blog/dto"
)

const (
	expiredToken = "eyJhbGciOiJIUzI1NiJ9.ZXhwaXJlZA.c2ln"
	freshToken   = "eyJhbGciOiJIUzI1NiJ9.ZnJlc2g.c2ln"
	refreshToken = "eyJhbGciOiJIUzI1NiJ9.cmVmcmVzaA.c2ln"
)

// fakeAPI accepts freshToken only and counts calls per endpoint.
type fakeAPI struct {
	refreshCalls atomic.Int32
	meCalls      atomic.Int32
	postsCalls   atomic.Int32

	// refreshStatus is the status of POST /auth/refresh-token, 200 by default.
	refreshStatus int
	// alwaysReject makes /auth/me answer 401 even with freshToken.
	alwaysReject bool
	// refreshGate, when set, holds the refresh answer until closed.
	refreshGate chan struct{}

	mu         sync.Mutex
	lastAuth   string
	gotRefresh string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		var in dto.RefreshTokenRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		f.gotRefresh = in.RefreshToken
		f.mu.Unlock()

		if f.refreshGate != nil {
			<-f.refreshGate
		}
		if f.refreshStatus != 0 && f.refreshStatus != http.StatusOK {
			writeJSON(w, f.refreshStatus, dto.Fail("invalid_refresh_token"))
			return
		}
		writeJSON(w, http.StatusOK, dto.RefreshTokenResponse{Success: true, AccessToken: freshToken})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		f.meCalls.Add(1)
		auth := r.Header.Get("Authorization")
		f.mu.Lock()
		f.lastAuth = auth
		f.mu.Unlock()

		if f.alwaysReject || auth != "Bearer "+freshToken {
			writeJSON(w, http.StatusUnauthorized, dto.Fail("invalid_token"))
			return
		}
		writeJSON(w, http.StatusOK, dto.OK(dto.UserProfileDTO{ID: "u1", Email: "ada@lab.test", Role: "reader"}))
	})
	mux.HandleFunc("GET /posts", func(w http.ResponseWriter, r *http.Request) {
		f.postsCalls.Add(1)
		writeJSON(w, http.StatusUnauthorized, dto.Fail("invalid_token"))
	})
	mux.HandleFunc("GET /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, dto.Fail("post_not_found"))
	})
	mux.HandleFunc("GET /posts/search/suggestions", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "boom" {
			writeJSON(w, http.StatusInternalServerError, dto.Fail("internal_error"))
			return
		}
		writeJSON(w, http.StatusOK, dto.OK(dto.SuggestionListDTO{Suggestions: []dto.SuggestionDTO{
			{Type: r.URL.Query().Get("type"), Value: "Viral Replication", Display: "Viral Replication", PostID: "p2"},
		}}))
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in dto.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "correct horse" {
			writeJSON(w, http.StatusUnauthorized, dto.Fail("invalid_credentials"))
			return
		}
		writeJSON(w, http.StatusOK, dto.OK(dto.LoginResponseDTO{
			AccessToken:  freshToken,
			RefreshToken: refreshToken,
			User:         dto.UserProfileDTO{ID: "u1", Email: in.Email, Role: "reader"},
		}))
	})
	return mux
}

func (f *fakeAPI) auth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, api *fakeAPI, creds credentials.Credentials, opts ...Option) (*Client, credentials.Store) {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), creds))

	opts = append([]Option{WithPublicPaths(
		"/auth/login",
		"/auth/register",
		"GET /posts",
		"GET /posts/*",
		"GET /posts/search/suggestions",
	)}, opts...)
	return New(srv.URL, store, opts...), store
}

func expiredSession() credentials.Credentials {
	return credentials.Credentials{
		AccessToken:  expiredToken,
		RefreshToken: refreshToken,
		User:         &dto.UserProfileDTO{ID: "u1"},
	}
}

func TestAttachesBearerToken(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestClient(t, api, credentials.Credentials{AccessToken: freshToken, RefreshToken: refreshToken})

	me, err := c.Me(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "u1", me.ID)
	assert.Equal(t, "Bearer "+freshToken, api.auth())
	assert.Zero(t, api.refreshCalls.Load())
}

func TestMalformedTokenIsClearedAndRequestSentWithoutAuth(t *testing.T) {
	api := &fakeAPI{}
	c, store := newTestClient(t, api, credentials.Credentials{AccessToken: "not-a-token", RefreshToken: refreshToken})

	_, err := c.GetPost(context.Background(), "abc")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "post_not_found", apiErr.Code)

	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, creds.Empty(), "malformed session must be dropped")
}

func TestExpiredTokenIsRefreshedAndRequestRetried(t *testing.T) {
	api := &fakeAPI{}
	c, store := newTestClient(t, api, expiredSession())

	me, err := c.Me(context.Background())
	require.NoError(t, err, "caller never sees the intermediate 401")

	assert.Equal(t, "ada@lab.test", me.Email)
	assert.EqualValues(t, 1, api.refreshCalls.Load())
	assert.EqualValues(t, 2, api.meCalls.Load())
	assert.Equal(t, refreshToken, api.gotRefresh)

	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, freshToken, creds.AccessToken)
	assert.Equal(t, refreshToken, creds.RefreshToken)
	assert.NotNil(t, creds.User)
}

func TestSecondUnauthorizedIsTerminal(t *testing.T) {
	api := &fakeAPI{alwaysReject: true}
	c, _ := newTestClient(t, api, expiredSession())

	_, err := c.Me(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnauthorized())
	assert.False(t, errors.Is(err, ErrSessionEnded))
	assert.EqualValues(t, 1, api.refreshCalls.Load(), "exactly one refresh")
	assert.EqualValues(t, 2, api.meCalls.Load(), "at most one retried request")
}

func TestPublicPathNeverRefreshes(t *testing.T) {
	api := &fakeAPI{}
	c, store := newTestClient(t, api, expiredSession())

	_, err := c.ListPosts(context.Background(), ListPostsParams{Page: 1})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Zero(t, api.refreshCalls.Load())
	assert.EqualValues(t, 1, api.postsCalls.Load())

	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expiredToken, creds.AccessToken, "public 401 leaves the session alone")
}

func TestFailedRefreshEndsSession(t *testing.T) {
	api := &fakeAPI{refreshStatus: http.StatusUnauthorized}
	var ended atomic.Int32
	c, store := newTestClient(t, api, expiredSession(), WithOnSessionEnded(func(context.Context) {
		ended.Add(1)
	}))

	_, err := c.Me(context.Background())

	require.ErrorIs(t, err, ErrSessionEnded)
	assert.EqualValues(t, 1, api.refreshCalls.Load())
	assert.EqualValues(t, 1, api.meCalls.Load(), "no retried request after a failed refresh")
	assert.EqualValues(t, 1, ended.Load())

	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, creds.Empty())
	assert.Nil(t, creds.User, "tokens and profile are cleared together")
}

func TestLogoutDuringRefreshKeepsSessionCleared(t *testing.T) {
	api := &fakeAPI{refreshGate: make(chan struct{})}
	c, store := newTestClient(t, api, expiredSession())

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Me(context.Background())
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		return api.refreshCalls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Logout(context.Background()))
	close(api.refreshGate)

	require.ErrorIs(t, <-errCh, ErrSessionEnded)
	assert.EqualValues(t, 1, api.meCalls.Load(), "no retry once the session is gone")

	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, creds.Empty(), "refreshed token must not outlive the logout")
}

func TestMissingRefreshTokenEndsSessionWithoutExchange(t *testing.T) {
	api := &fakeAPI{}
	c, store := newTestClient(t, api, credentials.Credentials{})

	_, err := c.Me(context.Background())

	require.ErrorIs(t, err, ErrSessionEnded)
	assert.Zero(t, api.refreshCalls.Load())
	creds, _ := store.Load(context.Background())
	assert.True(t, creds.Empty())
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	api := &fakeAPI{refreshGate: make(chan struct{})}
	c, _ := newTestClient(t, api, expiredSession())

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Me(context.Background())
		}(i)
	}

	// hold the refresh until every request has been rejected once
	require.Eventually(t, func() bool {
		return api.meCalls.Load() >= n
	}, 2*time.Second, 5*time.Millisecond)
	close(api.refreshGate)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, api.refreshCalls.Load())
	assert.EqualValues(t, 2*n, api.meCalls.Load())
}

func TestSuggestionsCollapseErrorsToEmptyList(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestClient(t, api, credentials.Credentials{})

	got := c.Suggestions(context.Background(), "vir", "title")
	require.Len(t, got, 1)
	assert.Equal(t, "title", got[0].Type)
	assert.Equal(t, "p2", got[0].PostID)

	got = c.Suggestions(context.Background(), "boom", "")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoginStoresSession(t *testing.T) {
	api := &fakeAPI{}
	c, store := newTestClient(t, api, credentials.Credentials{})

	_, err := c.Login(context.Background(), "ada@lab.test", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_credentials", apiErr.Code)
	assert.Zero(t, api.refreshCalls.Load(), "login is public")

	out, err := c.Login(context.Background(), "ada@lab.test", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "ada@lab.test", out.User.Email)

	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, freshToken, creds.AccessToken)
	assert.Equal(t, refreshToken, creds.RefreshToken)
	require.NotNil(t, creds.User)

	require.NoError(t, c.Logout(context.Background()))
	creds, _ = store.Load(context.Background())
	assert.True(t, creds.Empty())
}

func TestIsPublic(t *testing.T) {
	c := New("http://api.test", credentials.NewMemoryStore(), WithPublicPaths(
		"/auth/login",
		"GET /posts",
		"GET /posts/*",
		"POST /posts/*/view",
	))

	tests := []struct {
		method, path string
		want         bool
	}{
		{http.MethodPost, "/auth/login", true},
		{http.MethodGet, "/posts", true},
		{http.MethodGet, "/posts/abc", true},
		{http.MethodPost, "/posts", false},
		{http.MethodPost, "/posts/abc/view", true},
		{http.MethodGet, "/posts/abc/view", false},
		{http.MethodGet, "/auth/me", false},
		{http.MethodPost, "/auth/refresh-token", true},
		{"", "posts", true},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.method+" "+tt.path), func(t *testing.T) {
			assert.Equal(t, tt.want, c.isPublic(tt.method, tt.path))
		})
	}
}

func TestIsTokenShaped(t *testing.T) {
	assert.True(t, isTokenShaped(freshToken))
	assert.False(t, isTokenShaped(""))
	assert.False(t, isTokenShaped("a.b"))
	assert.False(t, isTokenShaped("a..c"))
	assert.False(t, isTokenShaped("a.b.c.d"))
	assert.False(t, isTokenShaped("a.b.c d"))
}
