package rating

import (
	"context"

	"github.com/shopspring/decimal"
)

// SignalKind is an external risk dimension.
type SignalKind string

const (
	SignalWeather     SignalKind = "weather"
	SignalCrime       SignalKind = "crime"
	SignalCatastrophe SignalKind = "catastrophe"
)

// SignalFactorNames maps each signal to the factor it feeds.
var SignalFactorNames = map[SignalKind]string{
	SignalWeather:     FactorWeather,
	SignalCrime:       FactorCrime,
	SignalCatastrophe: FactorCatastrophe,
}

// Location is what external providers are queried with.
type Location struct {
	State         string
	TerritoryCode string
}

// SignalReading is one external multiplier.
type SignalReading struct {
	Kind       SignalKind
	Multiplier decimal.Decimal
	Provider   string
}

// ExternalSignalProvider supplies best-effort external risk multipliers.
// Callers bound every call with a timeout and fall back to 1.0.
type ExternalSignalProvider interface {
	FetchSignal(ctx context.Context, kind SignalKind, loc Location) (SignalReading, error)
}

// AIScore is the output of a statistical risk model.
type AIScore struct {
	Multiplier    decimal.Decimal
	ModelVersion  string
	Confidence    float64
	Contributions []FeatureContribution
}

// AIRiskScorer is an optional statistical risk multiplier.  Implementations
// must be explainable: every score carries its model version and per-feature
// contributions.
type AIRiskScorer interface {
	Score(ctx context.Context, q *Quote) (*AIScore, error)
	ModelVersion() string
}

//Personal.AI order the ending
