package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/lightpivot/internal/logging"
	"github.com/aretw0/lightpivot/pkg/config"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
)

// DefaultTimeout bounds a query request when the data source sets no timeout.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 512

// Client implements ports.Fetcher against an MDX query server.
// Queries are posted as {"MDX": "..."} to {server}/MDX.
type Client struct {
	endpoint string
	username string
	password string
	http     *http.Client
	logger   *slog.Logger
}

var _ ports.Fetcher = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithClientLogger configures the structured logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a query client for the server described by cfg.
func NewClient(cfg config.DataSource, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	endpoint := strings.TrimRight(cfg.Server, "/") + "/MDX"
	if cfg.Namespace != "" {
		endpoint += "?Namespace=" + url.QueryEscape(cfg.Namespace)
	}

	c := &Client{
		endpoint: endpoint,
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type queryRequest struct {
	MDX string `json:"MDX"`
}

// Fetch posts query to the server and decodes the result.
func (c *Client) Fetch(ctx context.Context, query string) (*domain.Result, error) {
	body, err := json.Marshal(queryRequest{MDX: query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("query answered", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.FetchError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var result domain.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &result, nil
}
