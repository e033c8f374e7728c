// Package github implements the PullRequestSource port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/reviewmarks/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PullRequestSource = (*Client)(nil)

// ghostAuthor is the login GitHub shows for deleted accounts.
const ghostAuthor = "ghost"

// Client implements the driven.PullRequestSource port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a client for api.github.com. Requests go through an
// ETag cache, then the secondary rate limit middleware, then go-github.
// An empty token yields an anonymous client limited to public repositories.
func NewClient(token string) *Client {
	return newClient(token, httpcache.NewMemoryCacheTransport())
}

// NewClientWithBaseURL is NewClient against another API root, such as a
// GitHub Enterprise server or an httptest server.
func NewClientWithBaseURL(token, baseURL string) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	c := newClient(token, httpcache.NewMemoryCacheTransport())
	c.gh.BaseURL = u
	return c, nil
}

func newClient(token string, transport http.RoundTripper) *Client {
	client := gh.NewClient(github_ratelimit.NewClient(transport))
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &Client{gh: client}
}

// FetchReviewComments returns every inline review comment of a pull request
// in creation order, following pagination.
func (c *Client) FetchReviewComments(ctx context.Context, repoFullName string, prNumber int) ([]driven.PullRequestComment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListCommentsOptions{
		Sort:        "created",
		Direction:   "asc",
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	allComments := []driven.PullRequestComment{}

	for {
		comments, resp, err := c.gh.PullRequests.ListComments(ctx, owner, repo, prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("listing review comments for %s#%d (page %d): %w", repoFullName, prNumber, opts.Page, err)
		}

		logRateLimit(resp, fmt.Sprintf("%s#%d/comments", repoFullName, prNumber), opts.Page, len(comments))

		for _, comment := range comments {
			allComments = append(allComments, mapReviewComment(comment))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allComments, nil
}

// mapReviewComment converts a go-github comment to the import shape. A
// deleted account has no user and is imported as ghostAuthor.
func mapReviewComment(c *gh.PullRequestComment) driven.PullRequestComment {
	author := c.GetUser().GetLogin()
	if author == "" {
		author = ghostAuthor
	}

	out := driven.PullRequestComment{
		ID:        c.GetID(),
		Author:    author,
		Body:      c.GetBody(),
		Path:      c.GetPath(),
		CreatedAt: c.GetCreatedAt().UTC(),
		UpdatedAt: c.GetUpdatedAt().UTC(),
	}
	if c.InReplyTo != nil {
		parent := c.GetInReplyTo()
		out.InReplyToID = &parent
	}
	return out
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

func splitRepo(fullName string) (string, string, error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return owner, repo, nil
}
