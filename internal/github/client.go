// internal/github/client.go
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "repo-intel/internal/errors"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com/"
	// DefaultUserAgent identifies this service to GitHub.
	DefaultUserAgent = "repo-intel/1.0"

	mediaType = "application/vnd.github+json"
)

// Options configures a Client. Zero values fall back to the public GitHub defaults.
type Options struct {
	Token      string
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// Client is a read-only wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance.
// When a token is provided every request carries it as a bearer credential;
// otherwise requests go out unauthenticated.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	var httpClient http.Client
	if opts.HTTPClient != nil {
		httpClient = *opts.HTTPClient
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient.Transport = acceptTransport{base: base}

	client := &httpClient
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token},
		)
		client = oauth2.NewClient(ctx, ts)
	}

	gh := github.NewClient(client)

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub base URL %q: %w", opts.BaseURL, err)
	}
	gh.BaseURL = u

	gh.UserAgent = opts.UserAgent
	if gh.UserAgent == "" {
		gh.UserAgent = DefaultUserAgent
	}

	return &Client{gh: gh, logger: logger}, nil
}

// acceptTransport pins the GitHub media type on every outgoing request,
// replacing the preview types go-github's services ask for.
type acceptTransport struct {
	base http.RoundTripper
}

func (t acceptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", mediaType)
	return t.base.RoundTrip(req)
}

// Fetch GETs a path relative to the base URL and decodes the JSON body into v.
// The query string is sent exactly as given. A non-success status yields an
// *errors.UpstreamError holding the status and the head of the response body.
func (c *Client) Fetch(ctx context.Context, path string, v any) error {
	req, err := c.gh.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}

	c.logger.Debug("GitHub request", "path", path)

	resp, err := c.gh.Do(ctx, req, v)
	return upstreamError(path, resp, err)
}

// upstreamError converts the outcome of a go-github call. A non-success
// response becomes an UpstreamError; transport failures are wrapped as is.
func upstreamError(op string, resp *github.Response, err error) error {
	if err == nil {
		return nil
	}
	if resp != nil && resp.Response != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return classify(resp.Response, err)
	}
	return fmt.Errorf("fetch %s: %w", op, err)
}

// classify turns a failed response into an UpstreamError. go-github has already
// drained the body for its own error parsing and re-populated it, so it can be read again.
func classify(resp *http.Response, cause error) error {
	var body string
	if resp.Body != nil {
		if b, err := io.ReadAll(resp.Body); err == nil {
			body = string(b)
		}
	}
	if body == "" {
		var ghErr *github.ErrorResponse
		if errors.As(cause, &ghErr) {
			body = ghErr.Message
		} else {
			body = cause.Error()
		}
	}
	return custom_errors.NewUpstreamError(resp.StatusCode, body)
}

// SearchRepositories runs a repository search. The query must already be encoded.
func (c *Client) SearchRepositories(ctx context.Context, encodedQuery, sort string, perPage int) (*github.RepositoriesSearchResult, error) {
	path := fmt.Sprintf("search/repositories?q=%s&sort=%s&order=desc&per_page=%d", encodedQuery, url.QueryEscape(sort), perPage)
	var result github.RepositoriesSearchResult
	if err := c.Fetch(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRepository fetches the full repository record.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*github.Repository, error) {
	c.logger.Debug("GitHub request", "call", "repository", "owner", owner, "repo", name)
	repo, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	if err := upstreamError(owner+"/"+name, resp, err); err != nil {
		return nil, err
	}
	return repo, nil
}

// ListContributors fetches the first page of contributors, most active first.
func (c *Client) ListContributors(ctx context.Context, owner, name string, perPage int) ([]*github.Contributor, error) {
	c.logger.Debug("GitHub request", "call", "contributors", "owner", owner, "repo", name)
	opts := &github.ListContributorsOptions{ListOptions: github.ListOptions{PerPage: perPage}}
	contributors, resp, err := c.gh.Repositories.ListContributors(ctx, owner, name, opts)
	if err := upstreamError(owner+"/"+name+" contributors", resp, err); err != nil {
		return nil, err
	}
	return contributors, nil
}

// ListLanguages fetches the byte count per language.
func (c *Client) ListLanguages(ctx context.Context, owner, name string) (map[string]int, error) {
	c.logger.Debug("GitHub request", "call", "languages", "owner", owner, "repo", name)
	languages, resp, err := c.gh.Repositories.ListLanguages(ctx, owner, name)
	if err := upstreamError(owner+"/"+name+" languages", resp, err); err != nil {
		return nil, err
	}
	return languages, nil
}

// ListReleases fetches the newest releases, letting GitHub cap the page size.
func (c *Client) ListReleases(ctx context.Context, owner, name string, perPage int) ([]*github.RepositoryRelease, error) {
	c.logger.Debug("GitHub request", "call", "releases", "owner", owner, "repo", name)
	releases, resp, err := c.gh.Repositories.ListReleases(ctx, owner, name, &github.ListOptions{PerPage: perPage})
	if err := upstreamError(owner+"/"+name+" releases", resp, err); err != nil {
		return nil, err
	}
	return releases, nil
}
