package dirinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sagarc03/fsapi"
)

// DefaultTimeout bounds a single directory lookup.
const DefaultTimeout = 5 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 64 << 10

// Client looks up user roots on a remote directory service.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout bounds every directory request. It applies to a copy of the
// HTTP client, so a client passed to WithHTTPClient is left untouched.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient creates a Client for endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("parse directory endpoint: %w", err)
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// GetRoot implements fsapi.DirectoryInfo. A 404 answer means the service
// knows no root for user and is reported as Exists=false.
func (c *Client) GetRoot(ctx context.Context, user string) (fsapi.RootInfo, error) {
	u := c.endpoint + "/users/" + url.PathEscape(user) + "/root"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fsapi.RootInfo{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fsapi.RootInfo{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fsapi.RootInfo{}, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fsapi.RootInfo{Exists: false}, nil
	default:
		return fsapi.RootInfo{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var info fsapi.RootInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return fsapi.RootInfo{}, fmt.Errorf("parse response: %w", err)
	}
	return info, nil
}
