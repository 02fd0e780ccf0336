package hosting

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// GitHubLister lists repositories through the GitHub REST API.
type GitHubLister struct {
	client  *github.Client
	opts    Options
	limiter *rate.Limiter
}

// NewGitHub creates a GitHub lister. With a token, requests carry it as a bearer credential.
func NewGitHub(opts Options) (*GitHubLister, error) {
	httpClient := http.DefaultClient
	if opts.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(context.Background(), src)
	}

	client := github.NewClient(httpClient)

	if opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}

		client.BaseURL = base
	}

	return &GitHubLister{client: client, opts: opts, limiter: opts.limiter()}, nil
}

// ListRepos returns the account's own non-fork repositories across all pages.
func (g *GitHubLister) ListRepos(ctx context.Context, account string) ([]Repo, error) {
	err := checkAccount(account)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.timeout())
	defer cancel()

	opts := &github.RepositoryListByUserOptions{
		Type:        "owner",
		ListOptions: github.ListOptions{PerPage: pageSize, Page: 1},
	}

	var all []Repo

	for {
		err = g.limiter.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrAccountLookup, account, err)
		}

		repos, resp, listErr := g.client.Repositories.ListByUser(ctx, account, opts)
		if listErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrAccountLookup, account, listErr)
		}

		for _, repo := range repos {
			all = append(all, Repo{
				Name:     repo.GetName(),
				CloneURL: repo.GetCloneURL(),
				Fork:     repo.GetFork(),
			})
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return ownRepos(all), nil
}
