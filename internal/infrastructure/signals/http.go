package signals

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"

	domain "github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/httpclient"
	"github.com/turtacn/RateCraft/pkg/errors"
)

// JSONGetter is the part of httpclient.Client the provider needs.
type JSONGetter interface {
	GetJSON(ctx context.Context, path string, query map[string]string, out interface{}) error
}

var _ JSONGetter = (*httpclient.Client)(nil)

type signalResponse struct {
	Multiplier decimal.Decimal `json:"multiplier"`
	Provider   string          `json:"provider"`
}

// HTTPProvider reads signals from a risk-signal service:
//
//	GET /v1/signals/{kind}?state=FL&territory=33101
//	{"multiplier": "1.08", "provider": "noaa"}
type HTTPProvider struct {
	client JSONGetter
}

func NewHTTPProvider(client JSONGetter) *HTTPProvider {
	return &HTTPProvider{client: client}
}

func (p *HTTPProvider) FetchSignal(ctx context.Context, kind domain.SignalKind, loc domain.Location) (domain.SignalReading, error) {
	query := map[string]string{"state": loc.State}
	if loc.TerritoryCode != "" {
		query["territory"] = loc.TerritoryCode
	}
	var resp signalResponse
	if err := p.client.GetJSON(ctx, "/v1/signals/"+url.PathEscape(string(kind)), query, &resp); err != nil {
		return domain.SignalReading{}, errors.Wrap(err, errors.ErrCodeExternalSignalDegraded, string(kind)+" signal unavailable")
	}
	if !resp.Multiplier.IsPositive() {
		return domain.SignalReading{}, errors.Newf(errors.ErrCodeExternalSignalDegraded,
			"%s signal returned non-positive multiplier %s", kind, resp.Multiplier)
	}
	if resp.Provider == "" {
		resp.Provider = "http"
	}
	return domain.SignalReading{Kind: kind, Multiplier: resp.Multiplier, Provider: resp.Provider}, nil
}

//Personal.AI order the ending
