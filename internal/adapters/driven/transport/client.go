// Package transport provides the HTTP implementation of the media
// client port used by the fetch and download engines.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/boorufind/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.MediaClient = (*Client)(nil)

// defaultUserAgent is sent when the caller supplies no User-Agent.
// Several platforms reject requests without one.
const defaultUserAgent = "boorufind/1.0"

// Client fetches media payloads over HTTP.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a media client. A nil httpClient gets a default
// with a generous timeout; media files can be large.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{httpClient: httpClient}
}

// Fetch returns the payload bytes behind the URL. Non-2xx statuses
// are errors so callers can treat them as isolated failures.
func (c *Client) Fetch(ctx context.Context, rawURL string, headers, cookies map[string]string) ([]byte, error) {
	resp, err := c.get(ctx, rawURL, headers, cookies)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// FetchTo streams the payload into w.
func (c *Client) FetchTo(ctx context.Context, rawURL string, headers, cookies map[string]string, w io.Writer) error {
	resp, err := c.get(ctx, rawURL, headers, cookies)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("stream body: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string, headers, cookies map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	for k, v := range cookies {
		if v != "" {
			req.AddCookie(&http.Cookie{Name: k, Value: v})
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %q: %w", rawURL, err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("request %q: status %d", rawURL, resp.StatusCode)
	}
	return resp, nil
}
