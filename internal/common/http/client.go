// internal/common/http/client.go
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodyBytes caps how much of a provider reply is read into memory.
const maxBodyBytes = 1 << 20

// Response is a fully read HTTP reply. Non-2xx statuses are data, not errors.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Client struct {
	httpClient *http.Client
	userAgent  string
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "captcha-workers/1.0",
	}
}

// NewClientWith wraps a preconfigured http.Client (httptest servers, custom transports).
func NewClientWith(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{httpClient: hc, userAgent: "captcha-workers/1.0"}
}

// Do sends req. Transport errors carry the endpoint without its query string.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redactQuery(urlErr.URL)
			return nil, urlErr
		}
		return nil, err
	}
	return resp, nil
}

// PostForm sends form as application/x-www-form-urlencoded and reads the whole reply.
// A returned error always means the exchange did not complete (DNS, connect, TLS,
// cancellation, truncated body).
func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", redactQuery(endpoint), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("read body: response exceeds %d bytes", maxBodyBytes)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func redactQuery(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	u.RawQuery = ""
	return u.String()
}
