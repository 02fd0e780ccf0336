package resolve_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/exhume/pkg/hosting"
	"github.com/Sumatoshi-tech/exhume/pkg/resolve"
)

func TestParseReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sel  resolve.Selectors
		want resolve.Reference
	}{
		{
			name: "url",
			sel:  resolve.Selectors{RepoURL: "https://github.com/o/r.git"},
			want: resolve.Reference{Kind: resolve.KindURL, Value: "https://github.com/o/r.git"},
		},
		{
			name: "path",
			sel:  resolve.Selectors{RepoPath: " ./repo "},
			want: resolve.Reference{Kind: resolve.KindPath, Value: "./repo"},
		},
		{
			name: "github account",
			sel:  resolve.Selectors{GitHubUser: "octo"},
			want: resolve.Reference{Kind: resolve.KindAccount, Value: "octo", Host: hosting.GitHub},
		},
		{
			name: "gitlab account",
			sel:  resolve.Selectors{GitLabUser: "alice"},
			want: resolve.Reference{Kind: resolve.KindAccount, Value: "alice", Host: hosting.GitLab},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolve.ParseReference(tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReferenceErrors(t *testing.T) {
	t.Parallel()

	_, err := resolve.ParseReference(resolve.Selectors{})
	require.ErrorIs(t, err, resolve.ErrNoSelector)

	_, err = resolve.ParseReference(resolve.Selectors{RepoPath: "  "})
	require.ErrorIs(t, err, resolve.ErrNoSelector)

	_, err = resolve.ParseReference(resolve.Selectors{RepoURL: "https://x/y", GitHubUser: "octo"})
	require.ErrorIs(t, err, resolve.ErrMultipleSelectors)

	_, err = resolve.ParseReference(resolve.Selectors{RepoPath: "git@github.com:owner/project.git"})
	require.ErrorIs(t, err, resolve.ErrPathIsRemote)
}

func TestShortNameURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://github.com/owner/project.git":  "project",
		"https://github.com/owner/project":      "project",
		"https://github.com/owner/project/":     "project",
		"https://gitlab.com/group/sub/tool.git": "tool",
		"git@github.com:owner/project.git":      "project",
		"git@host:project.git":                  "project",
		"file:///srv/git/mirror.git":            "mirror",
		"https://github.com/owner/site.io":      "site.io",
	}

	for in, want := range tests {
		assert.Equal(t, want, resolve.ShortName(resolve.Reference{Kind: resolve.KindURL, Value: in}), in)
	}
}

func TestShortNamePath(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "checkout")
	require.NoError(t, os.Mkdir(dir, 0o755))

	assert.Equal(t, "checkout", resolve.ShortName(resolve.Reference{Kind: resolve.KindPath, Value: dir}))
	assert.Equal(t, "checkout", resolve.ShortName(resolve.Reference{Kind: resolve.KindPath, Value: dir + "/"}))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(wd), resolve.ShortName(resolve.Reference{Kind: resolve.KindPath, Value: "."}))
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "url", resolve.KindURL.String())
	assert.Equal(t, "path", resolve.KindPath.String())
	assert.Equal(t, "account", resolve.KindAccount.String())
	assert.Equal(t, "unknown", resolve.Kind(42).String())
}
