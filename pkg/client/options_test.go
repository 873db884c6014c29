package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	custom := &http.Client{Timeout: time.Minute}
	logger := &testLogger{}
	c, err := NewClient("http://rating.local",
		WithHTTPClient(custom),
		WithTimeout(3*time.Second),
		WithLogger(logger),
		WithAPIKey("k-1"),
		WithUserAgent("agent/2"),
		WithRetryMax(1))
	assert.NoError(t, err)

	assert.Same(t, custom, c.httpClient)
	assert.Equal(t, 3*time.Second, custom.Timeout)
	assert.Same(t, logger, c.logger)
	assert.Equal(t, "k-1", c.apiKey)
	assert.Equal(t, "agent/2", c.userAgent)
	assert.Equal(t, 1, c.retryMax)
}

func TestOptions_IgnoreInvalidValues(t *testing.T) {
	c := &Client{retryMax: 2, userAgent: "default", httpClient: &http.Client{Timeout: time.Second}}
	WithRetryMax(-1)(c)
	WithUserAgent("")(c)
	WithTimeout(0)(c)
	assert.Equal(t, 2, c.retryMax)
	assert.Equal(t, "default", c.userAgent)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}

func TestWithRetryWait(t *testing.T) {
	tests := []struct {
		name      string
		min, max  time.Duration
		expectMin time.Duration
		expectMax time.Duration
	}{
		{"valid range", time.Second, 5 * time.Second, time.Second, 5 * time.Second},
		{"equal values", 2 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second},
		{"zero min", 0, 5 * time.Second, 0, 0},
		{"max less than min", 5 * time.Second, 2 * time.Second, 5 * time.Second, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{}
			WithRetryWait(tt.min, tt.max)(c)
			assert.Equal(t, tt.expectMin, c.retryWaitMin)
			assert.Equal(t, tt.expectMax, c.retryWaitMax)
		})
	}
}

//Personal.AI order the ending
