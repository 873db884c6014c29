package httpclient

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

// serve runs handler on an in-memory listener and returns a client wired to it.
func serve(t *testing.T, cfg Config, handler fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://upstream.test/"
	}
	if cfg.Name == "" {
		cfg.Name = "upstream"
	}
	doer := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
	c, err := NewWithDoer(doer, cfg, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

type reading struct {
	Multiplier string `json:"multiplier"`
}

func TestClient_GetJSON(t *testing.T) {
	var gotPath, gotQuery, gotKey, gotRID string
	c := serve(t, Config{APIKey: "k-1", Timeout: time.Second}, func(ctx *fasthttp.RequestCtx) {
		gotPath = string(ctx.Path())
		gotQuery = string(ctx.QueryArgs().QueryString())
		gotKey = string(ctx.Request.Header.Peek("X-API-Key"))
		gotRID = string(ctx.Request.Header.Peek("X-Request-ID"))
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"multiplier":"1.05"}`)
	})

	ctx := logging.WithRequestID(context.Background(), "req-9")
	var out reading
	require.NoError(t, c.GetJSON(ctx, "/v1/signals/weather", map[string]string{"territory": "33101", "state": "FL"}, &out))
	assert.Equal(t, "1.05", out.Multiplier)
	assert.Equal(t, "/v1/signals/weather", gotPath)
	assert.Equal(t, "state=FL&territory=33101", gotQuery)
	assert.Equal(t, "k-1", gotKey)
	assert.Equal(t, "req-9", gotRID)
}

func TestClient_PostJSON(t *testing.T) {
	c := serve(t, Config{Timeout: time.Second}, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Method()) != fasthttp.MethodPost || string(ctx.Request.Header.ContentType()) != "application/json" {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			return
		}
		ctx.SetBody(ctx.PostBody())
	})

	var out map[string]int
	require.NoError(t, c.PostJSON(context.Background(), "/echo", map[string]int{"age": 35}, &out))
	assert.Equal(t, 35, out["age"])
}

func TestClient_StatusErrors(t *testing.T) {
	var status atomic.Int32
	c := serve(t, Config{Timeout: time.Second, BreakerThreshold: -1}, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(int(status.Load()))
		ctx.SetBodyString("nope")
	})
	ctx := context.Background()

	status.Store(fasthttp.StatusNotFound)
	assert.True(t, errors.IsNotFound(c.GetJSON(ctx, "/x", nil, nil)))

	status.Store(fasthttp.StatusBadRequest)
	err := c.GetJSON(ctx, "/x", nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))

	status.Store(fasthttp.StatusBadGateway)
	err = c.GetJSON(ctx, "/x", nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
	assert.Contains(t, err.Error(), "502")
}

func TestClient_DecodeError(t *testing.T) {
	c := serve(t, Config{Timeout: time.Second}, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString("{")
	})
	var out reading
	err := c.GetJSON(context.Background(), "/x", nil, &out)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

func TestClient_Timeout(t *testing.T) {
	c := serve(t, Config{}, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(200 * time.Millisecond)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.GetJSON(ctx, "/slow", nil, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestClient_CancelledContext(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, Config{}, func(*fasthttp.RequestCtx) { calls.Add(1) })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.GetJSON(ctx, "/x", nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
	assert.Zero(t, calls.Load())
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, Config{Timeout: time.Second, BreakerThreshold: 2, BreakerCooldown: time.Hour}, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	})
	ctx := context.Background()

	assert.Error(t, c.GetJSON(ctx, "/x", nil, nil))
	assert.Error(t, c.GetJSON(ctx, "/x", nil, nil))
	assert.Equal(t, "open", c.Breaker().State())

	assert.ErrorIs(t, c.GetJSON(ctx, "/x", nil, nil), ErrCircuitOpen)
	assert.EqualValues(t, 2, calls.Load())
}

func TestNewWithDoer_RejectsBadURL(t *testing.T) {
	_, err := NewWithDoer(&fasthttp.Client{}, Config{Name: "x", BaseURL: "signals.local"}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

//Personal.AI order the ending
