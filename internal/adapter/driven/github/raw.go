package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ericfisherdev/assetsync/internal/domain/port/driven"
)

// DefaultRawBaseURL is the public raw-content host.
const DefaultRawBaseURL = "https://raw.githubusercontent.com/"

// Compile-time interface satisfaction check.
var _ driven.ContentSource = (*RawClient)(nil)

// RawClient streams file content from the raw-content host by repository,
// branch and path.
type RawClient struct {
	http      *http.Client
	baseURL   string
	userAgent string
	token     string
}

// NewRawClient creates a RawClient. An empty baseURL selects DefaultRawBaseURL.
// token is optional; when set it is sent so private repositories resolve.
func NewRawClient(httpClient *http.Client, baseURL, userAgent, token string) *RawClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultRawBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &RawClient{
		http:      httpClient,
		baseURL:   baseURL,
		userAgent: userAgent,
		token:     token,
	}
}

// StatusError is returned when the raw host answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Unwrap maps a 404 to driven.ErrContentNotFound.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return driven.ErrContentNotFound
	}
	return nil
}

// OpenRaw issues GET <base>/<owner>/<repo>/<branch>/<path> and returns the body.
func (c *RawClient) OpenRaw(ctx context.Context, repoFullName, branch, path string) (io.ReadCloser, error) {
	if _, _, err := splitRepo(repoFullName); err != nil {
		return nil, err
	}

	rawURL := c.baseURL + repoFullName + "/" + escapePath(branch) + "/" + escapePath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}

// escapePath percent-encodes each slash-separated segment of p.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
