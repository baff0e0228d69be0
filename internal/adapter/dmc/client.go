// Package dmc adapts the DMC flood-data artifacts hosted in public
// source repositories into the source-agnostic shapes the merge engine
// consumes. Each upstream format generation gets its own adapter so
// upstream churn stays isolated from the calculator, normalizer, and cache.
package dmc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/floodwatch-lk/flood-data-api/internal/observability"
)

// Client fetches upstream JSON and TSV artifacts. One attempt per call, no
// retries; the fixed timeout means a hung upstream degrades the endpoint
// instead of wedging the process.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an upstream artifact client.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// GetJSON fetches url and decodes the body into v. The source label is used
// for metrics and error context only.
func (c *Client) GetJSON(ctx context.Context, source, url string, v any) error {
	body, err := c.get(ctx, source, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", source, err)
	}
	return nil
}

// GetText fetches url and returns the body verbatim.
func (c *Client) GetText(ctx context.Context, source, url string) (string, error) {
	body, err := c.get(ctx, source, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, source, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.count(source, "error")
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.count(source, "error")
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.count(source, "error")
		return nil, fmt.Errorf("fetch %s: status %d", source, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.count(source, "error")
		return nil, fmt.Errorf("read %s body: %w", source, err)
	}

	c.count(source, "success")
	c.logger.Debug("fetched upstream artifact", "source", source, "url", url, "bytes", len(body))
	return body, nil
}

func (c *Client) count(source, outcome string) {
	c.metrics.UpstreamRequests.WithLabelValues(source, outcome).Inc()
}
