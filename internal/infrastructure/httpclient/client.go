// Package httpclient is the pooled JSON-over-HTTP client shared by the
// external signal provider and the remote risk scorer.  It runs on fasthttp,
// derives each call's deadline from the caller's context, and trips a
// circuit breaker when the remote keeps failing.
package httpclient

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

// ErrCircuitOpen is returned without a network round trip while the
// breaker is open.
var ErrCircuitOpen = errors.New(errors.ErrCodeExternalService, "circuit breaker open")

const (
	defaultTimeout          = 50 * time.Millisecond
	defaultMaxConnsPerHost  = 64
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 5 * time.Second
	maxErrorBody            = 256
)

// Config configures a Client.
type Config struct {
	Name    string
	BaseURL string
	APIKey  string
	// Timeout applies when the context carries no deadline.
	Timeout          time.Duration
	MaxConnsPerHost  int
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Doer is the subset of *fasthttp.Client used here.
type Doer interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Client issues JSON requests against one base URL.
type Client struct {
	doer    Doer
	cfg     Config
	breaker *Breaker
	logger  logging.Logger
}

func New(cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = defaultMaxConnsPerHost
	}
	doer := &fasthttp.Client{
		Name:                cfg.Name,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		MaxIdleConnDuration: 30 * time.Second,
		ReadTimeout:         time.Second,
		WriteTimeout:        time.Second,
	}
	return NewWithDoer(doer, cfg, logger)
}

// NewWithDoer builds a Client around an existing Doer.
func NewWithDoer(doer Doer, cfg Config, logger logging.Logger) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, errors.Newf(errors.ErrCodeValidation, "%s: base URL %q must be http(s)", cfg.Name, cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = defaultBreakerThreshold
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = defaultBreakerCooldown
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Named("httpclient").With(logging.String("client", cfg.Name))
	return &Client{
		doer:    doer,
		cfg:     cfg,
		breaker: NewBreaker(cfg.Name, cfg.BreakerThreshold, cfg.BreakerCooldown, logger),
		logger:  logger,
	}, nil
}

// Breaker exposes the client's circuit breaker.
func (c *Client) Breaker() *Breaker { return c.breaker }

// GetJSON issues GET path?query and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query map[string]string, out interface{}) error {
	return c.do(ctx, fasthttp.MethodGet, path, query, nil, out)
}

// PostJSON posts body as JSON and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, fasthttp.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeTimeout, "request cancelled")
	}
	if !c.breaker.Allow() {
		return ErrCircuitOpen
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}
	if rid := logging.RequestIDFrom(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}
	if len(query) > 0 {
		keys := make([]string, 0, len(query))
		for k := range query {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		args := req.URI().QueryArgs()
		for _, k := range keys {
			args.Add(k, query[k])
		}
	}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encode request body")
		}
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(raw)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.cfg.Timeout)
	}
	if err := c.doer.DoDeadline(req, resp, deadline); err != nil {
		c.breaker.Failure()
		if errors.Is(err, fasthttp.ErrTimeout) {
			return errors.Wrap(err, errors.ErrCodeTimeout, c.cfg.Name+" request timed out")
		}
		return errors.Wrap(err, errors.ErrCodeExternalService, c.cfg.Name+" request failed")
	}

	status := resp.StatusCode()
	if status >= fasthttp.StatusInternalServerError {
		c.breaker.Failure()
		return errors.Newf(errors.ErrCodeExternalService, "%s returned %d", c.cfg.Name, status).
			WithDetail(truncate(resp.Body()))
	}
	c.breaker.Success()
	if status == fasthttp.StatusNotFound {
		return errors.NotFound(c.cfg.Name + ": " + path + " not found")
	}
	if status >= fasthttp.StatusBadRequest {
		return errors.Newf(errors.ErrCodeExternalService, "%s rejected request with %d", c.cfg.Name, status).
			WithDetail(truncate(resp.Body()))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "decode "+c.cfg.Name+" response")
	}
	return nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}

//Personal.AI order the ending
