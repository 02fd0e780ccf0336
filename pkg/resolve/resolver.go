package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/Sumatoshi-tech/exhume/pkg/hosting"
)

// Resolver errors.
var (
	ErrCloneFailed     = errors.New("clone failed")
	ErrPathNotFound    = errors.New("repository path does not exist")
	ErrNotSingleRepo   = errors.New("account references must be expanded first")
	// ErrUnsafeCloneName is returned when a URL does not end in a usable directory name.
	ErrUnsafeCloneName = errors.New("clone URL does not name a repository directory")
)

// Credential is an access token used for clones from one domain.
type Credential struct {
	Host   hosting.Host
	Domain string
	Token  string
}

// Workspace is a local working copy ready to be scanned.
type Workspace struct {
	Path   string
	Name   string
	Cloned bool
}

// Cleanup removes the working copy when it was cloned for this run.
func (w *Workspace) Cleanup() error {
	if !w.Cloned {
		return nil
	}

	err := os.RemoveAll(w.Path)
	if err != nil {
		return fmt.Errorf("remove clone %s: %w", w.Path, err)
	}

	return nil
}

// Resolver clones remote references and lists account repositories.
type Resolver struct {
	// CloneRoot is the directory clones are created in. Empty means the working directory.
	CloneRoot string
	// Credentials are matched against the host of each clone URL.
	Credentials []Credential
	// Listers enumerate accounts per hosting service.
	Listers map[hosting.Host]hosting.Lister
	// Progress receives clone progress output when set.
	Progress io.Writer

	logger *slog.Logger
}

// NewResolver creates a resolver. A nil logger discards log records.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Resolver{Listers: map[hosting.Host]hosting.Lister{}, logger: logger}
}

// Expand turns an account reference into one URL reference per owned non-fork
// repository. URL and path references are returned unchanged.
func (r *Resolver) Expand(ctx context.Context, ref Reference) ([]Reference, error) {
	if ref.Kind != KindAccount {
		return []Reference{ref}, nil
	}

	lister, ok := r.Listers[ref.Host]
	if !ok {
		return nil, fmt.Errorf("%w: %q", hosting.ErrUnknownHost, ref.Host)
	}

	repos, err := lister.ListRepos(ctx, ref.Value)
	if err != nil {
		return nil, err
	}

	refs := make([]Reference, 0, len(repos))
	for _, repo := range repos {
		refs = append(refs, Reference{Kind: KindURL, Value: repo.CloneURL, Host: ref.Host})
	}

	r.logger.InfoContext(ctx, "listed account repositories",
		"account", ref.Value, "host", string(ref.Host), "repositories", len(refs))

	return refs, nil
}

// Resolve returns a local working copy for a URL or path reference. URLs are cloned
// afresh into CloneRoot, replacing any directory of the same name.
func (r *Resolver) Resolve(ctx context.Context, ref Reference) (*Workspace, error) {
	name := ShortName(ref)

	switch ref.Kind {
	case KindPath:
		_, err := os.Stat(ref.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrPathNotFound, ref.Value, err)
		}

		return &Workspace{Path: ref.Value, Name: name}, nil
	case KindURL:
		dir, err := r.cloneDir(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCloneFailed, ref.Value, err)
		}

		err = r.clone(ctx, ref, dir)
		if err != nil {
			return nil, err
		}

		return &Workspace{Path: dir, Name: name, Cloned: true}, nil
	default:
		return nil, ErrNotSingleRepo
	}
}

// cloneDir places a clone named name directly below CloneRoot. Names that would
// resolve to the root itself or anywhere outside it are refused, since the
// directory is removed before cloning and again on cleanup.
func (r *Resolver) cloneDir(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeCloneName, name)
	}

	root, err := filepath.Abs(r.CloneRoot)
	if err != nil {
		return "", fmt.Errorf("resolve clone root: %w", err)
	}

	dir := filepath.Join(root, name)

	rel, err := filepath.Rel(root, dir)
	if err != nil || rel != name {
		return "", fmt.Errorf("%w: %q", ErrUnsafeCloneName, name)
	}

	return filepath.Join(r.CloneRoot, name), nil
}

func (r *Resolver) clone(ctx context.Context, ref Reference, dir string) error {
	err := os.RemoveAll(dir)
	if err != nil {
		return fmt.Errorf("%w: clear %s: %w", ErrCloneFailed, dir, err)
	}

	r.logger.InfoContext(ctx, "cloning repository", "url", ref.Value, "dir", dir)

	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      ref.Value,
		Auth:     r.auth(ref),
		Progress: r.Progress,
	})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		r.logger.WarnContext(ctx, "empty remote", "url", ref.Value)

		_, err = git.PlainInit(dir, false)
	}

	if err != nil {
		_ = os.RemoveAll(dir)

		return fmt.Errorf("%w: %s: %w", ErrCloneFailed, ref.Value, err)
	}

	return nil
}

// auth picks the credential whose domain matches the URL host. Non-HTTP URLs get none.
func (r *Resolver) auth(ref Reference) transport.AuthMethod {
	u, err := url.Parse(ref.Value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil
	}

	for _, cred := range r.Credentials {
		if cred.Token == "" || !strings.EqualFold(u.Hostname(), cred.Domain) {
			continue
		}

		if ref.Host != "" && ref.Host != cred.Host {
			continue
		}

		return &http.BasicAuth{Username: cred.Host.CloneUser(), Password: cred.Token}
	}

	return nil
}
