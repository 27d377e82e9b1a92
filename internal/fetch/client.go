// Package fetch retrieves remote resources over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 60 * time.Second
	chunkSize      = 32 * 1024
	maxErrorBody   = 512
)

// Options configures a Client.
type Options struct {
	// Timeout bounds Get requests. Streams are bounded only by their context.
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client fetches catalog documents, images and archives.
type Client struct {
	http      *http.Client
	timeout   time.Duration
	userAgent string
}

// New creates a Client.
func New(opts Options) *Client {
	c := &Client{
		http:      opts.HTTPClient,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
	}
	if c.http == nil {
		c.http = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	return c
}

// Get reads a small resource whole.
func (c *Client) Get(ctx context.Context, url, accept string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, url, accept)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: reading body: %w", url, err)
	}
	return data, nil
}

// Stream opens a resource for chunked reading. The response must declare a
// positive content length.
func (c *Client) Stream(ctx context.Context, url, accept string) (*Stream, error) {
	resp, err := c.do(ctx, url, accept)
	if err != nil {
		return nil, err
	}
	if resp.ContentLength <= 0 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w", url, ErrNoContentLength)
	}
	return &Stream{
		body:  resp.Body,
		total: uint64(resp.ContentLength),
		buf:   make([]byte, chunkSize),
	}, nil
}

func (c *Client) do(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if err := checkStatus(resp); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return resp, nil
}

// checkStatus returns a typed error for non-2xx responses.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("%w %d", ErrStatus, resp.StatusCode)
	}
	return fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, msg)
}
