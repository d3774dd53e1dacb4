// internal/common/http/client.go
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"fuel-economy/internal/common/errors"
)

// maxBodySize caps a single upstream body; detail records are a few KB.
const maxBodySize = 4 << 20

// Client fetches JSON bodies. It never retries: every failure is returned to
// the caller as a FETCH_FAILED StandardError.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithHTTP wraps an existing *http.Client, e.g. httptest.Server.Client().
func NewClientWithHTTP(c *http.Client) *Client {
	return &Client{httpClient: c}
}

// Fetch issues a GET for url and returns the body of a 2xx response.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewFetchFailedError(url, err)
	}
	// The data source answers XML unless JSON is asked for.
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewFetchFailedError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, errors.NewFetchStatusError(url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, errors.NewFetchFailedError(url, fmt.Errorf("read body: %w", err))
	}
	if len(body) > maxBodySize {
		return nil, errors.NewFetchFailedError(url, fmt.Errorf("body exceeds %d bytes", maxBodySize))
	}

	return body, nil
}
