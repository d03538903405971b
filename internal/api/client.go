package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/dbxsync/dbx-sync/internal/config"
	"github.com/dbxsync/dbx-sync/internal/constants"
	"github.com/dbxsync/dbx-sync/internal/http"
	"github.com/dbxsync/dbx-sync/internal/logging"
	"github.com/dbxsync/dbx-sync/internal/models"
	"github.com/dbxsync/dbx-sync/internal/ratelimit"
	"github.com/dbxsync/dbx-sync/internal/version"
)

// Client talks to the workspace API of one host.
type Client struct {
	httpClient *nethttp.Client
	baseURL    string
	token      string
	limiter    *ratelimit.RateLimiter
	logger     *logging.Logger
}

// Option customizes a Client.
type Option func(*clientOptions)

type clientOptions struct {
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	limiter      *ratelimit.RateLimiter
}

// WithRetry overrides the retry policy of the transport.
func WithRetry(max int, waitMin, waitMax time.Duration) Option {
	return func(o *clientOptions) {
		o.retryMax = max
		o.retryWaitMin = waitMin
		o.retryWaitMax = waitMax
	}
}

// WithRateLimiter replaces the default workspace limiter.
func WithRateLimiter(l *ratelimit.RateLimiter) Option {
	return func(o *clientOptions) { o.limiter = l }
}

// NewClient creates a new API client
func NewClient(cfg *config.Config, logger *logging.Logger, opts ...Option) (*Client, error) {
	if err := cfg.ValidateForConnection(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}

	o := clientOptions{
		retryMax:     constants.APIRetryMax,
		retryWaitMin: constants.APIRetryWaitMin,
		retryWaitMax: constants.APIRetryWaitMax,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.limiter == nil {
		o.limiter = ratelimit.NewWorkspaceRateLimiter()
	}

	httpClient, err := http.NewAPIClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimSuffix(cfg.Host, "/"),
		token:   cfg.Token,
		limiter: o.limiter,
		logger:  logger,
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = o.retryMax
	retryClient.RetryWaitMin = o.retryWaitMin
	retryClient.RetryWaitMax = o.retryWaitMax
	retryClient.Logger = logging.RetryLogger{L: logger}
	retryClient.CheckRetry = c.checkRetry
	// hand the final error response back so its body can be decoded
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c.httpClient = retryClient.StandardClient()
	return c, nil
}

// checkRetry feeds 429 responses into the limiter cooldown before applying
// the stock retry policy.
func (c *Client) checkRetry(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == nethttp.StatusTooManyRequests {
		cooldown := retryAfter(resp.Header.Get("Retry-After"))
		c.limiter.SetCooldown(cooldown)
		c.logger.Warn().
			Str("url", resp.Request.URL.Path).
			Dur("cooldown", cooldown).
			Msg("throttled by workspace API")
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// retryAfter parses a Retry-After header in seconds, falling back to the
// default cooldown.
func retryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return ratelimit.DefaultCooldown
}

// doRequest performs an authenticated, rate limited request. Non-2xx
// responses are turned into *APIError.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter cancelled: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := nethttp.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constants.AppName+"/"+version.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("API call failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("API call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(method, endpoint, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func decodeError(method, endpoint string, resp *nethttp.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode}

	var body models.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && (body.ErrorCode != "" || body.Message != "") {
		apiErr.ErrorCode = body.ErrorCode
		apiErr.Message = body.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
