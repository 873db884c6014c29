package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/turtacn/RateCraft/pkg/errors"
	"github.com/turtacn/RateCraft/pkg/types/rating"
)

// PremiumsClient covers the rating endpoints.
type PremiumsClient struct {
	client *Client
}

// CacheInvalidation reports how many cached lookups were dropped.
type CacheInvalidation struct {
	State   string `json:"state"`
	Removed int64  `json:"removed"`
}

// Calculate rates a quote.
func (p *PremiumsClient) Calculate(ctx context.Context, req *rating.QuoteRequest) (*rating.PremiumResponse, error) {
	if req == nil {
		return nil, errors.InvalidParam("quote request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid quote request")
	}
	var out rating.PremiumResponse
	if err := p.client.do(ctx, http.MethodPost, "/api/v1/premiums/calculate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Performance returns the server's calculation latency summary.
func (p *PremiumsClient) Performance(ctx context.Context) (*rating.PerformanceMetrics, error) {
	var out rating.PerformanceMetrics
	if err := p.client.do(ctx, http.MethodGet, "/api/v1/metrics/performance", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InvalidateState drops the server's cached rate data for state.
func (p *PremiumsClient) InvalidateState(ctx context.Context, state string) (*CacheInvalidation, error) {
	if len(state) != 2 {
		return nil, errors.InvalidParam("state must be a two-letter code")
	}
	var out CacheInvalidation
	if err := p.client.do(ctx, http.MethodDelete, "/api/v1/cache/states/"+url.PathEscape(state), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
