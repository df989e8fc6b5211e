// Package casemanagement fetches case data from the case-management API.
package casemanagement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/garyjia/possession-response/internal/application/port"
	"github.com/garyjia/possession-response/pkg/retry"
)

// Config holds case-management API settings
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Retry   retry.Config
	// RateLimit caps outgoing requests per second; zero means unlimited
	RateLimit float64
	// RateBurst is the number of requests allowed above RateLimit at once
	RateBurst int
}

// Client implements port.CaseDataProvider over HTTP
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	lookups    singleflight.Group
	logger     *zap.Logger
}

// NewClient creates a new case-management client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return client
}

// statusError is returned for unexpected HTTP responses
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("case api returned status %d", e.code)
}

// GetCase implements port.CaseDataProvider.
// 404 maps to port.ErrCaseNotFound; 5xx and network errors are retried.
// Concurrent lookups of the same case share one request and its result,
// which callers must treat as read-only.
func (c *Client) GetCase(ctx context.Context, caseReference string) (map[string]interface{}, error) {
	v, err, _ := c.lookups.Do(caseReference, func() (interface{}, error) {
		return c.lookup(ctx, caseReference)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]interface{}), nil
}

func (c *Client) lookup(ctx context.Context, caseReference string) (map[string]interface{}, error) {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/cases/" + url.PathEscape(caseReference)

	var data map[string]interface{}
	attempt := 0
	err := retry.Do(ctx, c.config.Retry, func(ctx context.Context) error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Permanent(fmt.Errorf("rate limited: %w", err))
			}
		}

		result, err := c.fetch(ctx, endpoint)
		if err != nil {
			c.logger.Warn("Case data request failed",
				zap.String("case_reference", caseReference),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		data = result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get case %s: %w", caseReference, err)
	}
	return data, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Permanent(port.ErrCaseNotFound)
	case resp.StatusCode >= 500:
		return nil, &statusError{code: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, retry.Permanent(&statusError{code: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to decode case data: %w", err))
	}
	return data, nil
}

// Verify interface compliance
var _ port.CaseDataProvider = (*Client)(nil)
