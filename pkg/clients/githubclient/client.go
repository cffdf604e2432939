package githubclient

import (
	"context"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub Contents API for one repository/branch and
// implements store.DocumentStore. Document paths are repository-relative
// file paths; version tokens are blob SHAs.
type Client struct {
	gh     *github.Client
	owner  string
	repo   string
	branch string
}

// NewClient creates a client authenticated with a personal access token.
func NewClient(ctx context.Context, token, owner, repo, branch string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)

	return &Client{
		gh:     github.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
		branch: branch,
	}
}

// NewClientWithGitHub creates a client around an existing GitHub API client.
// Used by tests to point at a fake server.
func NewClientWithGitHub(gh *github.Client, owner, repo, branch string) *Client {
	return &Client{
		gh:     gh,
		owner:  owner,
		repo:   repo,
		branch: branch,
	}
}
