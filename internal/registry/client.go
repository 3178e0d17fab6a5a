// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/npmverified/npm-verified/internal/logging"
)

const (
	// DefaultRegistry is the public npm registry.
	DefaultRegistry = "https://registry.npmjs.org"

	// maxPackumentBytes bounds the packument body. Popular packages publish
	// documents well above 10 MB.
	maxPackumentBytes = 64 << 20

	// maxTarballBytes bounds a downloaded tarball.
	maxTarballBytes = 512 << 20
)

// ErrNotFound is returned when the registry has no such package.
var ErrNotFound = errors.New("package not found in registry")

type (
	// Client talks to an npm registry.
	Client struct {
		httpClient *http.Client
		baseURL    string
		token      string
		userAgent  string
		logger     *log.Logger
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	// StatusError reports an unexpected HTTP status.
	StatusError struct {
		URL    string
		Status int
	}
)

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(r *Client) {
		r.httpClient = c
	}
}

// WithBaseURL overrides the registry URL.
func WithBaseURL(base string) ClientOption {
	return func(r *Client) {
		if base != "" {
			r.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithToken sets a bearer token sent to the registry host only.
func WithToken(token string) ClientOption {
	return func(r *Client) {
		r.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(r *Client) {
		r.userAgent = ua
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) ClientOption {
	return func(r *Client) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewClient creates a Client for the public registry unless overridden.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultRegistry,
		userAgent:  "npm-verified/dev",
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the registry URL requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// Packument fetches the full package document for name.
func (c *Client) Packument(ctx context.Context, name string) (*Packument, error) {
	docURL := c.baseURL + "/" + url.PathEscape(name)
	c.logger.Debug("fetching packument", "url", docURL)

	resp, err := c.doRequest(ctx, docURL, "application/json")
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	default:
		return nil, &StatusError{URL: redactURL(docURL), Status: resp.StatusCode}
	}

	var doc Packument
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPackumentBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding packument for %s: %w", name, err)
	}
	return &doc, nil
}

// openTarball starts a tarball download. The caller closes the body.
func (c *Client) openTarball(ctx context.Context, tarballURL string) (io.ReadCloser, error) {
	c.logger.Debug("downloading tarball", "url", redactURL(tarballURL))
	resp, err := c.doRequest(ctx, tarballURL, "application/octet-stream")
	if err != nil {
		return nil, fmt.Errorf("downloading tarball: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: redactURL(tarballURL), Status: resp.StatusCode}
	}
	return resp.Body, nil
}

func (c *Client) doRequest(ctx context.Context, reqURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	// Tarballs may live on a CDN host; the token stays with the registry.
	if c.token != "" && isRegistryHost(req.URL, c.baseURL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

func isRegistryHost(reqURL *url.URL, baseURL string) bool {
	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(reqURL.Host, base.Host)
}

// redactURL strips query strings and fragments, which may carry credentials.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}
