package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/turtacn/RateCraft/pkg/errors"
	"github.com/turtacn/RateCraft/pkg/types/common"
)

const Version = "0.1.0"

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}

// Client is the RateCraft SDK client.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	apiKey       string
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	premiums     *PremiumsClient
	premiumsOnce sync.Once
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("ratecraft: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg + " [request_id=" + e.RequestID + "]"
}

func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

func (e *APIError) IsRateLimited() bool { return e.StatusCode == http.StatusTooManyRequests }

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// NewClient creates a client for the API served at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New(errors.ErrCodeValidation, "client: baseURL is required")
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "client: invalid baseURL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.New(errors.ErrCodeValidation, "client: baseURL scheme must be http or https")
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    fmt.Sprintf("ratecraft-go-sdk/%s", Version),
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 200 * time.Millisecond,
		retryWaitMax: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Premiums returns the rating sub-client.
func (c *Client) Premiums() *PremiumsClient {
	c.premiumsOnce.Do(func() {
		c.premiums = &PremiumsClient{client: c}
	})
	return c.premiums
}

// Health calls the readiness probe.  A 503 still decodes into the report
// and is returned alongside the APIError.
func (c *Client) Health(ctx context.Context) (*common.HealthReport, error) {
	var report common.HealthReport
	err := c.doRaw(ctx, http.MethodGet, "/readyz", nil, &report)
	if err != nil && report.Status == "" {
		return nil, err
	}
	return &report, err
}

// do sends a request to an /api route and unwraps the response envelope
// into result.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	env := common.APIResponse[json.RawMessage]{}
	if err := c.doRaw(ctx, method, path, body, &env); err != nil {
		return err
	}
	if result == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "client: failed to decode response data")
	}
	return nil
}

// doRaw performs the request with retries and decodes the body into out.
// 5xx and transport errors are retried with exponential backoff, 429 honours
// Retry-After and other 4xx answers fail immediately.
func (c *Client) doRaw(ctx context.Context, method, path string, body, out interface{}) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + path

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "client: failed to marshal request body")
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debugf("retry attempt %d after %v", attempt, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeValidation, "client: failed to create request")
		}
		requestID := uuid.NewString()
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Errorf("request failed: %v", err)
			lastErr = err
			continue
		}
		c.logger.Debugf("%s %s %d (%v)", method, path, resp.StatusCode, time.Since(start))

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("client: failed to read response body: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.retryMax {
			if seconds, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil {
				c.logger.Infof("rate limited, retrying after %d seconds", seconds)
				select {
				case <-time.After(time.Duration(seconds) * time.Second):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			lastErr = c.apiError(resp, respBody, requestID)
			continue
		}

		if resp.StatusCode >= 400 {
			apiErr := c.apiError(resp, respBody, requestID)
			if out != nil && len(respBody) > 0 {
				_ = json.Unmarshal(respBody, out)
			}
			if apiErr.IsServerError() && attempt < c.retryMax {
				lastErr = apiErr
				continue
			}
			return apiErr
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "client: failed to unmarshal response")
			}
		}
		return nil
	}
	return lastErr
}

func (c *Client) apiError(resp *http.Response, body []byte, requestID string) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
	if id := resp.Header.Get("X-Request-ID"); id != "" {
		apiErr.RequestID = id
	}
	var env common.APIResponse[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Detail = env.Error.Detail
		return apiErr
	}
	apiErr.Code = http.StatusText(resp.StatusCode)
	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	if q := int64(backoff / 4); q > 0 {
		backoff += time.Duration(rand.Int63n(q))
	}
	return backoff
}

//Personal.AI order the ending
