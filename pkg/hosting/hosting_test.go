package hosting_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/exhume/pkg/hosting"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewUnknownHost(t *testing.T) {
	t.Parallel()

	_, err := hosting.New("bitbucket", hosting.Options{})
	require.ErrorIs(t, err, hosting.ErrUnknownHost)

	lister, err := hosting.New("GitHub", hosting.Options{})
	require.NoError(t, err)
	assert.IsType(t, &hosting.GitHubLister{}, lister)

	lister, err = hosting.New(hosting.GitLab, hosting.Options{})
	require.NoError(t, err)
	assert.IsType(t, &hosting.GitLabLister{}, lister)
}

func TestCloneUser(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "x-access-token", hosting.GitHub.CloneUser())
	assert.Equal(t, "oauth2", hosting.GitLab.CloneUser())
}

func TestGitHubListRepos(t *testing.T) {
	t.Parallel()

	var server *httptest.Server

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octo/repos", r.URL.Path)
		assert.Equal(t, "owner", r.URL.Query().Get("type"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		switch r.URL.Query().Get("page") {
		case "1", "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/users/octo/repos?page=2&per_page=100&type=owner>; rel="next"`, server.URL))
			writeJSON(t, w, []map[string]any{
				{"name": "alpha", "clone_url": "https://example.com/octo/alpha.git", "fork": false},
				{"name": "forked", "clone_url": "https://example.com/octo/forked.git", "fork": true},
			})
		case "2":
			writeJSON(t, w, []map[string]any{
				{"name": "beta", "clone_url": "https://example.com/octo/beta.git", "fork": false},
			})
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer server.Close()

	lister, err := hosting.NewGitHub(hosting.Options{Token: "secret", BaseURL: server.URL, Rate: 100})
	require.NoError(t, err)

	repos, err := lister.ListRepos(context.Background(), "octo")
	require.NoError(t, err)

	assert.Equal(t, []hosting.Repo{
		{Name: "alpha", CloneURL: "https://example.com/octo/alpha.git"},
		{Name: "beta", CloneURL: "https://example.com/octo/beta.git"},
	}, repos)
}

func TestGitHubListReposAnonymous(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, []map[string]any{})
	}))
	defer server.Close()

	lister, err := hosting.NewGitHub(hosting.Options{BaseURL: server.URL + "/"})
	require.NoError(t, err)

	repos, err := lister.ListRepos(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestGitHubListReposNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(t, w, map[string]string{"message": "Not Found"})
	}))
	defer server.Close()

	lister, err := hosting.NewGitHub(hosting.Options{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = lister.ListRepos(context.Background(), "ghost")
	require.ErrorIs(t, err, hosting.ErrAccountLookup)
	assert.Contains(t, err.Error(), "ghost")
}

func TestGitHubListReposTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	lister, err := hosting.NewGitHub(hosting.Options{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = lister.ListRepos(context.Background(), "slow")

	require.ErrorIs(t, err, hosting.ErrAccountLookup)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestListReposEmptyAccount(t *testing.T) {
	t.Parallel()

	for _, host := range []hosting.Host{hosting.GitHub, hosting.GitLab} {
		lister, err := hosting.New(host, hosting.Options{BaseURL: "http://127.0.0.1:1"})
		require.NoError(t, err)

		_, err = lister.ListRepos(context.Background(), "  ")
		require.ErrorIs(t, err, hosting.ErrEmptyAccount, host)
	}
}

func TestGitLabListRepos(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/users/alice/projects", r.URL.Path)
		assert.False(t, r.URL.Query().Has("owned"), "owned filters by the token user")
		assert.Equal(t, "glpat", r.Header.Get("Private-Token"))

		switch r.URL.Query().Get("page") {
		case "1", "":
			w.Header().Set("X-Next-Page", "2")
			writeJSON(t, w, []map[string]any{
				{"id": 1, "path": "one", "http_url_to_repo": "https://gitlab.example.com/alice/one.git"},
				{
					"id": 2, "path": "copy", "http_url_to_repo": "https://gitlab.example.com/alice/copy.git",
					"forked_from_project": map[string]any{"id": 99, "path": "upstream"},
				},
			})
		case "2":
			writeJSON(t, w, []map[string]any{
				{"id": 3, "path": "two", "http_url_to_repo": "https://gitlab.example.com/alice/two.git"},
			})
		}
	}))
	defer server.Close()

	lister, err := hosting.NewGitLab(hosting.Options{Token: "glpat", BaseURL: server.URL, Rate: 100})
	require.NoError(t, err)

	repos, err := lister.ListRepos(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, []hosting.Repo{
		{Name: "one", CloneURL: "https://gitlab.example.com/alice/one.git"},
		{Name: "two", CloneURL: "https://gitlab.example.com/alice/two.git"},
	}, repos)
}

func TestGitLabListReposFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(t, w, map[string]string{"message": "401 Unauthorized"})
	}))
	defer server.Close()

	lister, err := hosting.NewGitLab(hosting.Options{Token: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = lister.ListRepos(context.Background(), "alice")
	require.ErrorIs(t, err, hosting.ErrAccountLookup)
}
