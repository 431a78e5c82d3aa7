package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholar-blog/cmd/blogcli/credentials"
	"scholar-blog/config"
	"scholar-blog/dto"
)

// syncBuffer lets suggestion callbacks write while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func samplePosts() []dto.PostDTO {
	return []dto.PostDTO{
		{
			ID:        "p1",
			Title:     "Bacterial Growth",
			Author:    dto.AuthorDTO{FirstName: "Ada", LastName: "Lovelace"},
			Category:  dto.CategoryDTO{ID: "c1", Name: "Biology", Slug: "biology"},
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Views:     10,
		},
		{
			ID:        "p2",
			Title:     "Viral Replication",
			Author:    dto.AuthorDTO{FirstName: "Rosalind", LastName: "Franklin"},
			Category:  dto.CategoryDTO{ID: "c2", Name: "Virology", Slug: "virology"},
			CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Views:     50,
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "published", r.URL.Query().Get("status"))
		_ = json.NewEncoder(w).Encode(dto.OK(dto.PostListDTO{Posts: samplePosts(), Total: 2, TotalPages: 1}))
	})
	mux.HandleFunc("GET /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(dto.Fail("post_not_found"))
	})
	mux.HandleFunc("GET /posts/search/suggestions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.OK(dto.SuggestionListDTO{Suggestions: []dto.SuggestionDTO{
			{Type: "title", Value: "Viral Replication", Display: "Viral Replication", PostID: "p2"},
		}}))
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in dto.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(dto.Fail("invalid_credentials"))
			return
		}
		_ = json.NewEncoder(w).Encode(dto.OK(dto.LoginResponseDTO{
			AccessToken:  "aaa.bbb.ccc",
			RefreshToken: "rrr.sss.ttt",
			User:         dto.UserProfileDTO{ID: "u1", Email: in.Email, FirstName: "Ada", LastName: "Lovelace", Role: "reader"},
		}))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) config.AppConfig {
	t.Helper()
	cfg := *config.Default()
	cfg.Client.BaseURL = baseURL
	cfg.Client.CredentialStore = credentials.KindFile
	cfg.Client.CredentialFile = t.TempDir() + "/session.json"
	cfg.Filter.Debounce = 10 * time.Millisecond
	return cfg
}

func TestPostsCommandFiltersAndSorts(t *testing.T) {
	srv := newTestServer(t)
	var out, errOut bytes.Buffer

	code := run(testConfig(t, srv.URL), []string{"posts", "-q", "viral", "-type", "title"}, strings.NewReader(""), &out, &errOut)

	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "Viral Replication")
	assert.NotContains(t, out.String(), "Bacterial Growth")
	assert.Contains(t, out.String(), "page 1 of 1, 1 matching posts")
}

func TestPostsCommandNoMatches(t *testing.T) {
	srv := newTestServer(t)
	var out, errOut bytes.Buffer

	code := run(testConfig(t, srv.URL), []string{"posts", "-category", "chemistry"}, strings.NewReader(""), &out, &errOut)

	require.Equal(t, 0, code)
	assert.Contains(t, out.String(), "No posts found.")
}

func TestViewReportsNotFound(t *testing.T) {
	srv := newTestServer(t)
	var out, errOut bytes.Buffer

	code := run(testConfig(t, srv.URL), []string{"view", "missing"}, strings.NewReader(""), &out, &errOut)

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "error: not found")
}

func TestLoginReadsPasswordFromStdinAndPersistsSession(t *testing.T) {
	srv := newTestServer(t)
	cfg := testConfig(t, srv.URL)
	var out, errOut bytes.Buffer

	code := run(cfg, []string{"login", "-email", "ada@lab.test"}, strings.NewReader("s3cret\n"), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "Logged in as Ada Lovelace (reader)")

	store := credentials.NewFileStore(cfg.Client.CredentialFile)
	creds, err := store.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "rrr.sss.ttt", creds.RefreshToken)

	code = run(cfg, []string{"logout"}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, 0, code)
	creds, err = store.Load(t.Context())
	require.NoError(t, err)
	assert.True(t, creds.Empty())
}

func TestBrowseAppliesQueryAtEndOfInput(t *testing.T) {
	srv := newTestServer(t)
	out := &syncBuffer{}
	var errOut bytes.Buffer

	cfg := testConfig(t, srv.URL)
	// only the end-of-input flush may apply the query
	cfg.Filter.Debounce = time.Hour

	in := strings.NewReader(":sort popular\nviral\n")
	code := run(cfg, []string{"browse"}, in, out, &errOut)

	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "Type to search.")
	assert.Contains(t, out.String(), `for "viral" in all, sorted by popular`)
}

func TestUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer

	code := run(*config.Default(), []string{"frobnicate"}, strings.NewReader(""), &out, &errOut)

	assert.Equal(t, 2, code)
	assert.Contains(t, errOut.String(), `unknown command "frobnicate"`)
	assert.Contains(t, errOut.String(), "usage: blogcli")
}
