// Package api is a thin authenticated client for the Pocket HTTP API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hpungsan/pocket/internal/errors"
	"github.com/hpungsan/pocket/internal/logger"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 30 * time.Second

// Client issues authenticated GET requests against a fixed base URL.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a Client. A zero timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get requests endpoint and returns the raw JSON body. Any transport failure,
// non-2xx status or non-JSON body is reported as a single API_ERROR; there
// are no retries.
func (c *Client) Get(ctx context.Context, endpoint, token string, params url.Values) (json.RawMessage, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.NewAPI(err, 0)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewAPI(err, 0)
	}
	defer resp.Body.Close()

	logger.Logger.Debug().
		Str("method", http.MethodGet).
		Str("path", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewAPI(fmt.Errorf("read response: %w", err), resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewAPI(fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet(body)), resp.StatusCode)
	}

	if !json.Valid(body) {
		return nil, errors.NewAPI(fmt.Errorf("response is not valid JSON: %s", snippet(body)), resp.StatusCode)
	}

	return body, nil
}

// GetJSON requests endpoint and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, endpoint, token string, params url.Values, v any) error {
	body, err := c.Get(ctx, endpoint, token, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewAPI(fmt.Errorf("decode response: %w", err), 0)
	}
	return nil
}

// snippet trims a response body for inclusion in an error message.
func snippet(body []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
