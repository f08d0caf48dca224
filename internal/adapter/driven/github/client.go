// Package github implements the GitHub driven ports: the REST API client
// used by the compare sweep and the raw-content client used for downloads.
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

	"github.com/ericfisherdev/assetsync/internal/domain/model"
	"github.com/ericfisherdev/assetsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching, repeated sweeps cost 304s)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with token auth and API version header)
//
// baseURL may be empty for api.github.com.
func NewClient(token, userAgent, baseURL string) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	return NewClientWithHTTPClient(rateLimitClient, baseURL, userAgent, token)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// Tests use it to point the client at an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, userAgent, token string) (*Client, error) {
	client := gh.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if userAgent != "" {
		client.UserAgent = userAgent
	}

	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{gh: client}, nil
}

// LatestTag returns the name of the first tag the API lists for the repository.
func (c *Client) LatestTag(ctx context.Context, repoFullName string) (string, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return "", err
	}

	tags, resp, err := c.gh.Repositories.ListTags(ctx, owner, repo, &gh.ListOptions{PerPage: 1})
	if err != nil {
		return "", fmt.Errorf("listing tags for %s: %w", repoFullName, err)
	}

	logRateLimit(resp, repoFullName+"/tags", 0, len(tags))

	if len(tags) == 0 || tags[0].GetName() == "" {
		return "", fmt.Errorf("%s: %w", repoFullName, driven.ErrNoTags)
	}

	return tags[0].GetName(), nil
}

// CompareRefs compares head against base and maps the result to the domain
// model. The changed files list is paged, so every page is fetched and merged.
func (c *Client) CompareRefs(ctx context.Context, repoFullName, base, head string) (*model.CompareResult, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	var cmp *gh.CommitsComparison
	opts := &gh.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.gh.Repositories.CompareCommits(ctx, owner, repo, base, head, opts)
		if err != nil {
			return nil, fmt.Errorf("comparing %s...%s for %s (page %d): %w", base, head, repoFullName, opts.Page, err)
		}

		logRateLimit(resp, repoFullName+"/compare", opts.Page, len(page.Files))

		if cmp == nil {
			cmp = page
		} else {
			cmp.Files = append(cmp.Files, page.Files...)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return mapComparison(cmp, base, head), nil
}

// mapComparison converts a go-github CommitsComparison to a domain CompareResult.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapComparison(cmp *gh.CommitsComparison, base, head string) *model.CompareResult {
	files := make([]model.FileChange, 0, len(cmp.Files))
	for _, f := range cmp.Files {
		files = append(files, model.FileChange{
			Filename:         f.GetFilename(),
			PreviousFilename: f.GetPreviousFilename(),
			Status:           model.FileStatus(f.GetStatus()),
		})
	}

	return &model.CompareResult{
		Base:         base,
		Head:         head,
		Status:       model.CompareStatus(cmp.GetStatus()),
		TotalCommits: cmp.GetTotalCommits(),
		Files:        files,
	}
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

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
