// Package resolve turns command-line repository selectors into local working copies.
package resolve

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/exhume/pkg/gitlib"
	"github.com/Sumatoshi-tech/exhume/pkg/hosting"
)

// Selector errors.
var (
	ErrNoSelector        = errors.New("one of --repo-url, --repo-path, --github-username or --gitlab-username is required")
	ErrMultipleSelectors = errors.New("--repo-url, --repo-path, --github-username and --gitlab-username are mutually exclusive")
	ErrPathIsRemote      = errors.New("--repo-path names a remote repository, use --repo-url")
)

// Kind is the type of a repository reference.
type Kind int

// Reference kinds.
const (
	KindURL Kind = iota
	KindPath
	KindAccount
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindPath:
		return "path"
	case KindAccount:
		return "account"
	default:
		return "unknown"
	}
}

// Reference is one repository selector: a remote URL, a local path or an account name.
type Reference struct {
	Kind  Kind
	Value string
	// Host is the hosting service of an account, or of a URL found through one.
	Host hosting.Host
}

// Selectors are the raw primary selector flags. Exactly one must be set.
type Selectors struct {
	RepoURL    string
	RepoPath   string
	GitHubUser string
	GitLabUser string
}

// ParseReference validates that exactly one selector is set and returns it.
func ParseReference(sel Selectors) (Reference, error) {
	var refs []Reference

	if v := strings.TrimSpace(sel.RepoURL); v != "" {
		refs = append(refs, Reference{Kind: KindURL, Value: v})
	}

	if v := strings.TrimSpace(sel.RepoPath); v != "" {
		if gitlib.IsRemoteURI(v) {
			return Reference{}, fmt.Errorf("%w: %s", ErrPathIsRemote, v)
		}

		refs = append(refs, Reference{Kind: KindPath, Value: v})
	}

	if v := strings.TrimSpace(sel.GitHubUser); v != "" {
		refs = append(refs, Reference{Kind: KindAccount, Value: v, Host: hosting.GitHub})
	}

	if v := strings.TrimSpace(sel.GitLabUser); v != "" {
		refs = append(refs, Reference{Kind: KindAccount, Value: v, Host: hosting.GitLab})
	}

	switch len(refs) {
	case 0:
		return Reference{}, ErrNoSelector
	case 1:
		return refs[0], nil
	default:
		return Reference{}, ErrMultipleSelectors
	}
}

// ShortName derives the name used for clone and output directories.
// URLs yield their last path segment without a ".git" suffix; local paths yield the
// base name of their absolute form.
func ShortName(ref Reference) string {
	if ref.Kind == KindPath {
		abs, err := filepath.Abs(ref.Value)
		if err != nil {
			abs = ref.Value
		}

		return filepath.Base(abs)
	}

	return urlShortName(ref.Value)
}

func urlShortName(raw string) string {
	name := raw

	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Path != "" {
		name = u.Path
	}

	name = strings.TrimRight(name, "/")

	if idx := strings.LastIndexAny(name, "/:"); idx >= 0 {
		name = name[idx+1:]
	}

	return strings.TrimSuffix(name, ".git")
}
