// Package github is a thin client for the GitHub REST API, covering the
// endpoints the unlock pipeline needs: branch lookup, archive download,
// releases, and the rate-limit probe. Responses are mapped onto typed errors
// (ErrNotFound, RateLimitError, NetworkError) so callers can give precise
// diagnostics instead of retrying blindly.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
)

// Client performs authenticated HTTP access to the GitHub API. A zero token
// is valid; the unauthenticated per-IP rate limit then applies.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	token      string
}

// NewClient returns a client using token for authorization when non-empty.
func NewClient(token string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		BaseURL:    defaultBaseURL,
		token:      token,
	}
}

// Get fetches an API path (e.g. "/repos/owner/repo/branches/730") and
// returns the response body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, c.BaseURL+path, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: c.BaseURL + path, Err: err}
	}
	return data, nil
}

// do issues a GET with bounded retries. Only transport-level failures are
// retried; NotFound and rate limiting surface immediately because retrying
// them cannot help.
func (c *Client) do(ctx context.Context, url, accept string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
		}

		resp, err := c.doOnce(ctx, url, accept)
		if err == nil {
			return resp, nil
		}
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case isRateLimited(resp):
		reset := parseReset(resp)
		resp.Body.Close()
		return nil, &RateLimitError{Reset: reset}
	default:
		code := resp.StatusCode
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, code)
	}
}

func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden &&
		resp.Header.Get("X-RateLimit-Remaining") == "0"
}

func parseReset(resp *http.Response) time.Time {
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(unix, 0)
		}
	}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Now().Add(time.Duration(secs) * time.Second)
		}
	}
	return time.Time{}
}

// RateLimitInfo is the core quota slice of GitHub's /rate_limit response.
type RateLimitInfo struct {
	Remaining int
	Limit     int
	Reset     time.Time
}

// RateLimit queries the remaining API quota for the current credentials.
func (c *Client) RateLimit(ctx context.Context) (*RateLimitInfo, error) {
	data, err := c.Get(ctx, "/rate_limit")
	if err != nil {
		return nil, err
	}

	var body struct {
		Rate struct {
			Limit     int   `json:"limit"`
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"rate"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("parsing rate limit response: %w", err)
	}

	return &RateLimitInfo{
		Remaining: body.Rate.Remaining,
		Limit:     body.Rate.Limit,
		Reset:     time.Unix(body.Rate.Reset, 0),
	}, nil
}

// Branch describes a repository branch: its head commit and when that commit
// was authored.
type Branch struct {
	Name       string
	SHA        string
	CommitDate time.Time
}

// Branch looks up a branch by name. A missing branch surfaces as ErrNotFound.
func (c *Client) Branch(ctx context.Context, repo, name string) (*Branch, error) {
	data, err := c.Get(ctx, fmt.Sprintf("/repos/%s/branches/%s", repo, name))
	if err != nil {
		return nil, err
	}

	var body struct {
		Name   string `json:"name"`
		Commit struct {
			SHA    string `json:"sha"`
			Commit struct {
				Author struct {
					Date time.Time `json:"date"`
				} `json:"author"`
			} `json:"commit"`
		} `json:"commit"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("parsing branch %s of %s: %w", name, repo, err)
	}

	return &Branch{
		Name:       body.Name,
		SHA:        body.Commit.SHA,
		CommitDate: body.Commit.Commit.Author.Date,
	}, nil
}

// Zipball downloads the archive of a repository at ref into memory.
// onProgress, when non-nil, is called as bytes arrive; total is -1 when the
// service does not announce a length.
func (c *Client) Zipball(ctx context.Context, repo, ref string, onProgress func(written, total int64)) ([]byte, error) {
	url := fmt.Sprintf("%s/repos/%s/zipball/%s", c.BaseURL, repo, ref)
	resp, err := c.do(ctx, url, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	r := io.Reader(resp.Body)
	if onProgress != nil {
		r = &progressReader{r: resp.Body, total: resp.ContentLength, fn: onProgress}
	}
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	return buf.Bytes(), nil
}

// DownloadTo streams an arbitrary URL (e.g. a release asset) to w.
func (c *Client) DownloadTo(ctx context.Context, url string, w io.Writer, onProgress func(written, total int64)) (int64, error) {
	resp, err := c.do(ctx, url, "application/octet-stream")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	r := io.Reader(resp.Body)
	if onProgress != nil {
		r = &progressReader{r: resp.Body, total: resp.ContentLength, fn: onProgress}
	}
	n, err := io.Copy(w, r)
	if err != nil {
		return n, &NetworkError{URL: url, Err: err}
	}
	return n, nil
}

type progressReader struct {
	r       io.Reader
	total   int64
	written int64
	fn      func(written, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		p.fn(p.written, p.total)
	}
	return n, err
}

// Release is the subset of GitHub's release API response the updater needs.
type Release struct {
	TagName string         `json:"tag_name"`
	Assets  []ReleaseAsset `json:"assets"`
}

// ReleaseAsset represents a downloadable file attached to a release.
type ReleaseAsset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// LatestRelease fetches the latest published release of a repository.
func (c *Client) LatestRelease(ctx context.Context, repo string) (*Release, error) {
	data, err := c.Get(ctx, fmt.Sprintf("/repos/%s/releases/latest", repo))
	if err != nil {
		return nil, err
	}

	var rel Release
	if err := json.Unmarshal(data, &rel); err != nil {
		return nil, fmt.Errorf("parsing latest release of %s: %w", repo, err)
	}
	return &rel, nil
}
