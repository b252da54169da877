// Package github publishes a GitHub release for the tag a bump created.
// Publishing is an optional, best-effort follow-on step: a failure here is
// reported but never rolls back the version files or the tag.
package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

type Client struct {
	Client *github.Client
}

func NewClient(ctx context.Context, token string) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("github client: token is required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)
	return &Client{Client: github.NewClient(httpClient)}, nil
}

// ParseRepo splits an OWNER/REPO selector.
func ParseRepo(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected OWNER/REPO", s)
	}
	return owner, repo, nil
}

// PublishRelease creates a release for an existing tag and returns its URL.
func (c *Client) PublishRelease(ctx context.Context, owner, repo, tag, commitish string) (string, error) {
	rel := &github.RepositoryRelease{
		TagName: github.String(tag),
		Name:    github.String(tag),
	}
	if commitish != "" {
		rel.TargetCommitish = github.String(commitish)
	}
	created, _, err := c.Client.Repositories.CreateRelease(ctx, owner, repo, rel)
	if err != nil {
		return "", fmt.Errorf("create release %s on %s/%s: %w", tag, owner, repo, err)
	}
	return created.GetHTMLURL(), nil
}
