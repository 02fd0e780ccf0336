package hosting

import (
	"context"
	"fmt"

	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"
)

// GitLabLister lists projects through the GitLab REST API.
type GitLabLister struct {
	client  *gitlab.Client
	opts    Options
	limiter *rate.Limiter
}

// NewGitLab creates a GitLab lister. BaseURL defaults to gitlab.com.
func NewGitLab(opts Options) (*GitLabLister, error) {
	clientOpts := []gitlab.ClientOptionFunc{gitlab.WithCustomRetryMax(0)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, gitlab.WithBaseURL(opts.BaseURL))
	}

	client, err := gitlab.NewClient(opts.Token, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}

	return &GitLabLister{client: client, opts: opts, limiter: opts.limiter()}, nil
}

// ListRepos returns the account's own projects that are not forks.
func (g *GitLabLister) ListRepos(ctx context.Context, account string) ([]Repo, error) {
	err := checkAccount(account)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.timeout())
	defer cancel()

	// The users/:id/projects endpoint is already scoped to the account's namespace.
	// Its "owned" filter refers to the token's user, so it is left unset.
	opts := &gitlab.ListProjectsOptions{
		ListOptions: gitlab.ListOptions{PerPage: pageSize, Page: 1},
	}

	var all []Repo

	for {
		err = g.limiter.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrAccountLookup, account, err)
		}

		projects, resp, listErr := g.client.Projects.ListUserProjects(account, opts, gitlab.WithContext(ctx))
		if listErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrAccountLookup, account, listErr)
		}

		for _, project := range projects {
			all = append(all, Repo{
				Name:     project.Path,
				CloneURL: project.HTTPURLToRepo,
				Fork:     project.ForkedFromProject != nil,
			})
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return ownRepos(all), nil
}
