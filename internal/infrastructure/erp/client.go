package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erpsync/backend/internal/domain/ordersync"
)

// maxResponseSize is the maximum allowed response size from the ERP (10MB)
const maxResponseSize = 10 * 1024 * 1024

// healthCheckTimeout bounds the connection probe regardless of the
// configured request timeout
const healthCheckTimeout = 5 * time.Second

// Client implements ordersync.ERPClient over HTTP. Transport failures never
// surface as errors; they become responses with status code zero so the
// retry classification handles them uniformly.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an ERP client with the given configuration. The base URL
// may still be empty here; SendOrder fails fast in that case so a partially
// configured deployment starts up and reports the problem per request.
func NewClient(config *Config, logger *zap.Logger) *Client {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if config.TimeoutSeconds <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("erp-client"),
	}
}

// SendOrder posts the order payload to {baseURL}/orders/sync with the
// idempotency key and optional authentication headers
func (c *Client) SendOrder(ctx context.Context, payload ordersync.OrderPayload, idempotencyKey string) (*ordersync.ERPResponse, error) {
	if c.config.BaseURL == "" {
		return nil, ordersync.ErrMissingBaseURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("erp: failed to serialize payload: %w", err)
	}

	endpoint := strings.TrimSuffix(c.config.BaseURL, "/") + "/orders/sync"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("erp: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", idempotencyKey)
	if c.config.APIKey != "" {
		req.Header.Set("X-API-KEY", c.config.APIKey)
	}
	if sig := c.config.Sign(body); sig != "" {
		req.Header.Set("X-Signature", sig)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No response received; report a zero status so the caller treats
		// this as retryable
		c.logger.Warn("ERP request failed at transport level",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return ordersync.NewERPResponse(0, err.Error()), nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Warn("failed to read ERP response body",
			zap.Int("status_code", resp.StatusCode),
			zap.Error(err),
		)
		return ordersync.NewERPResponse(0, err.Error()), nil
	}

	return ordersync.NewERPResponse(resp.StatusCode, string(respBody)), nil
}

// TestConnection probes {baseURL}/health with a short fixed timeout. All
// failures collapse to false.
func (c *Client) TestConnection(ctx context.Context) bool {
	if c.config.BaseURL == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	endpoint := strings.TrimSuffix(c.config.BaseURL, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

var _ ordersync.ERPClient = (*Client)(nil)
