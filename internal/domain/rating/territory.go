package rating

import (
	"context"
	"math"

	"github.com/shopspring/decimal"

	"github.com/turtacn/RateCraft/pkg/errors"
)

// TerritoryStats is the loss experience of one fine-grained territory.
type TerritoryStats struct {
	State         string
	Code          string
	LocalLossCost decimal.Decimal
	Observations  int
	// Credibility, when set, overrides the square-root rule.
	Credibility *decimal.Decimal
}

// StatewideStats is the broader experience a territory is blended with.
type StatewideStats struct {
	State           string
	BaseLossCost    decimal.Decimal
	AverageLossCost decimal.Decimal
	// CredibilityThreshold is the observation count for full credibility.
	CredibilityThreshold int
}

// TerritoryFactor is the resolved territory multiplier.
type TerritoryFactor struct {
	State       string
	Code        string
	Multiplier  decimal.Decimal
	Credibility decimal.Decimal
	Known       bool
}

// Factor converts the resolution into a rating factor.
func (t TerritoryFactor) Factor() Factor {
	f := Factor{Name: FactorTerritory, Multiplier: t.Multiplier, Source: SourceRule}
	if !t.Known {
		f.Source = SourceNeutral
	}
	return f
}

// TerritoryResolver maps a territory code to a credibility-weighted
// loss-cost multiplier.
//
// Formula:
//
//	Z      = 1                                  if n ≥ threshold
//	       = stored weight, else √(n/threshold)  otherwise
//	blended = Z × local + (1 − Z) × base
//	factor  = blended / statewide average
//
// Unknown codes resolve to 1.0 (the statewide average) instead of failing.
type TerritoryResolver struct {
	store  TerritoryStore
	bounds FactorBounds
}

// NewTerritoryResolver creates a resolver over store.
func NewTerritoryResolver(store TerritoryStore, bounds FactorBounds) *TerritoryResolver {
	return &TerritoryResolver{store: store, bounds: bounds}
}

// Resolve returns the multiplier for code in state.  Only store failures
// other than not-found are returned as errors.
func (r *TerritoryResolver) Resolve(ctx context.Context, state, code string) (TerritoryFactor, error) {
	neutral := TerritoryFactor{State: state, Code: code, Multiplier: one, Credibility: zero}
	if code == "" {
		return neutral, nil
	}

	local, err := r.store.GetTerritoryStats(ctx, state, code)
	if err != nil {
		if errors.IsNotFound(err) {
			return neutral, nil
		}
		return neutral, err
	}
	statewide, err := r.store.GetStatewideStats(ctx, state)
	if err != nil {
		if errors.IsNotFound(err) {
			return neutral, nil
		}
		return neutral, err
	}
	return r.Blend(*local, *statewide), nil
}

// Blend computes the credibility-weighted factor from raw statistics.
func (r *TerritoryResolver) Blend(local TerritoryStats, statewide StatewideStats) TerritoryFactor {
	out := TerritoryFactor{State: local.State, Code: local.Code, Multiplier: one, Known: true}
	if !statewide.AverageLossCost.IsPositive() {
		out.Known = false
		return out
	}

	z := Credibility(local, statewide.CredibilityThreshold)
	blended := z.Mul(local.LocalLossCost).Add(one.Sub(z).Mul(statewide.BaseLossCost))
	factor := blended.DivRound(statewide.AverageLossCost, FactorPlaces)

	out.Credibility = z
	out.Multiplier = r.bounds.Clamp(factor)
	return out
}

// Credibility returns the weight given to a territory's own experience.
func Credibility(local TerritoryStats, threshold int) decimal.Decimal {
	if threshold <= 0 || local.Observations >= threshold {
		return one
	}
	if local.Credibility != nil {
		return clampDecimal(*local.Credibility, zero, one)
	}
	if local.Observations <= 0 {
		return zero
	}
	z := math.Sqrt(float64(local.Observations) / float64(threshold))
	return decimal.NewFromFloat(z).Round(FactorPlaces)
}

//Personal.AI order the ending
