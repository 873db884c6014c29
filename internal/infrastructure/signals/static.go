package signals

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/turtacn/RateCraft/internal/domain/rating"
)

const staticProviderName = "static"

// StaticProvider serves multipliers from a fixed table.  Keys are
// "<kind>_<state>" with "<kind>" as a nationwide fallback; anything
// missing reads as 1.0.
type StaticProvider struct {
	table map[string]decimal.Decimal
}

func NewStaticProvider(table map[string]float64) *StaticProvider {
	p := &StaticProvider{table: make(map[string]decimal.Decimal, len(table))}
	for k, v := range table {
		p.table[strings.ToLower(strings.TrimSpace(k))] = decimal.NewFromFloat(v)
	}
	return p
}

func (p *StaticProvider) FetchSignal(ctx context.Context, kind domain.SignalKind, loc domain.Location) (domain.SignalReading, error) {
	if err := ctx.Err(); err != nil {
		return domain.SignalReading{}, err
	}
	reading := domain.SignalReading{Kind: kind, Multiplier: decimal.NewFromInt(1), Provider: staticProviderName}
	k := strings.ToLower(string(kind))
	if m, ok := p.table[k+"_"+strings.ToLower(loc.State)]; ok {
		reading.Multiplier = m
	} else if m, ok := p.table[k]; ok {
		reading.Multiplier = m
	}
	return reading, nil
}

//Personal.AI order the ending
