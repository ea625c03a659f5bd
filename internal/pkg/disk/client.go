// Package disk provides a client for the Yandex Disk REST API, the remote
// storage backing the synchronized spreadsheet. Transfers are two-phase:
// the API returns a one-time href which the actual GET/PUT targets.
package disk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the production Yandex Disk API endpoint.
const DefaultBaseURL = "https://cloud-api.yandex.net/v1/disk"

const defaultTimeout = 30 * time.Second

// Info describes a remote file.
type Info struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Client talks to the Yandex Disk REST API. The zero value is not usable;
// construct with NewClient.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Client authenticating with the given OAuth token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// hrefResponse is the API's pointer to a one-time transfer URL.
type hrefResponse struct {
	Href string `json:"href"`
}

// api performs an authenticated API request and decodes the JSON response
// into out (when out is non-nil).
func (c *Client) api(ctx context.Context, method, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("disk api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read api response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(resp.StatusCode, string(body))
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode api response: %w", err)
		}
	}
	return nil
}

// Download fetches the contents of the remote file at path.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	var href hrefResponse
	q := url.Values{"path": {path}}
	if err := c.api(ctx, http.MethodGet, "/resources/download", q, &href); err != nil {
		return nil, fmt.Errorf("failed to request download url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href.Href, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, classify(resp.StatusCode, string(body))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download body: %w", err)
	}
	return data, nil
}

// Upload stores data at the remote path.
func (c *Client) Upload(ctx context.Context, data []byte, path string, overwrite bool) error {
	var href hrefResponse
	q := url.Values{
		"path":      {path},
		"overwrite": {fmt.Sprintf("%t", overwrite)},
	}
	if err := c.api(ctx, http.MethodGet, "/resources/upload", q, &href); err != nil {
		return fmt.Errorf("failed to request upload url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, href.Href, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classify(resp.StatusCode, string(body))
	}
	return nil
}

// Copy copies the remote file at from onto to, overwriting the target.
// A Locked error means the target is held open elsewhere.
func (c *Client) Copy(ctx context.Context, from, to string) error {
	q := url.Values{
		"from":      {from},
		"path":      {to},
		"overwrite": {"true"},
	}
	if err := c.api(ctx, http.MethodPost, "/resources/copy", q, nil); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", from, to, err)
	}
	return nil
}

// Stat returns metadata for the remote file at path, including its
// modification time.
func (c *Client) Stat(ctx context.Context, path string) (*Info, error) {
	var info Info
	q := url.Values{"path": {path}}
	if err := c.api(ctx, http.MethodGet, "/resources", q, &info); err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return &info, nil
}

// Delete permanently removes the remote file at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	q := url.Values{
		"path":        {path},
		"permanently": {"true"},
	}
	if err := c.api(ctx, http.MethodDelete, "/resources", q, nil); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}
