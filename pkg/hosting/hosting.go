// Package hosting enumerates the repositories an account owns on a code hosting service.
package hosting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Errors returned by listers.
var (
	ErrUnknownHost   = errors.New("unknown hosting service")
	ErrAccountLookup = errors.New("account lookup failed")
	ErrEmptyAccount  = errors.New("account name is empty")
)

// Host names a hosting service.
type Host string

// Supported hosts.
const (
	GitHub Host = "github"
	GitLab Host = "gitlab"
)

// CloneUser is the basic-auth user name paired with an access token when cloning over HTTPS.
func (h Host) CloneUser() string {
	if h == GitLab {
		return "oauth2"
	}

	return "x-access-token"
}

// Default API settings.
const (
	DefaultTimeout = 10 * time.Second
	DefaultRate    = 5.0
	pageSize       = 100
)

// Repo is one repository returned by a lister.
type Repo struct {
	Name     string
	CloneURL string
	Fork     bool
}

// Lister enumerates an account's own repositories, forks excluded.
type Lister interface {
	ListRepos(ctx context.Context, account string) ([]Repo, error)
}

// Options configure a lister.
type Options struct {
	// Token is an optional bearer credential.
	Token string
	// BaseURL overrides the public API endpoint.
	BaseURL string
	// Timeout bounds one whole ListRepos call. Zero means DefaultTimeout.
	Timeout time.Duration
	// Rate is the number of page requests per second. Zero or less disables pacing.
	Rate float64
}

// New creates the lister for host.
func New(host Host, opts Options) (Lister, error) {
	switch Host(strings.ToLower(string(host))) {
	case GitHub:
		return NewGitHub(opts)
	case GitLab:
		return NewGitLab(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHost, host)
	}
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}

	return o.Timeout
}

func (o Options) limiter() *rate.Limiter {
	if o.Rate <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}

	return rate.NewLimiter(rate.Limit(o.Rate), 1)
}

func ownRepos(repos []Repo) []Repo {
	out := make([]Repo, 0, len(repos))

	for _, repo := range repos {
		if !repo.Fork && repo.CloneURL != "" {
			out = append(out, repo)
		}
	}

	return out
}

func checkAccount(account string) error {
	if strings.TrimSpace(account) == "" {
		return ErrEmptyAccount
	}

	return nil
}
