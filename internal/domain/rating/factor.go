package rating

import (
	"github.com/shopspring/decimal"
)

// Factor names.  Order here is the order factors are reported in.
const (
	FactorDriverRisk  = "driver_risk"
	FactorVehicleRisk = "vehicle_risk"
	FactorTerritory   = "territory"
	FactorWeather     = "weather"
	FactorCrime       = "crime"
	FactorCatastrophe = "catastrophe"
	FactorAIRisk      = "ai_risk"
)

// FactorOrder lists factor names in reporting order.
var FactorOrder = []string{
	FactorDriverRisk,
	FactorVehicleRisk,
	FactorTerritory,
	FactorWeather,
	FactorCrime,
	FactorCatastrophe,
	FactorAIRisk,
}

// FactorSource tells where a multiplier came from.
type FactorSource string

const (
	SourceRule     FactorSource = "rule"
	SourceExternal FactorSource = "external"
	SourceModel    FactorSource = "model"
	SourceNeutral  FactorSource = "neutral"
)

// FeatureContribution is one explainability entry from a statistical model.
type FeatureContribution struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

// Factor is a named dimensionless multiplier.
type Factor struct {
	Name       string
	Multiplier decimal.Decimal
	Source     FactorSource
	// Degraded is set when the multiplier is a neutral stand-in for an
	// unavailable input.
	Degraded bool

	ModelVersion  string
	Contributions []FeatureContribution
}

// NeutralFactor returns the 1.0 multiplier used for degraded inputs.
func NeutralFactor(name string) Factor {
	return Factor{Name: name, Multiplier: one, Source: SourceNeutral, Degraded: true}
}

// IsNeutral reports whether the multiplier is exactly 1.
func (f Factor) IsNeutral() bool {
	return f.Multiplier.Equal(one)
}

// FactorBounds is the sanity range every multiplier is clamped into.
type FactorBounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// DefaultFactorBounds is [0.1, 5.0].
func DefaultFactorBounds() FactorBounds {
	return FactorBounds{Min: Money("0.1"), Max: Money("5.0")}
}

// Clamp limits v to the bounds.
func (b FactorBounds) Clamp(v decimal.Decimal) decimal.Decimal {
	return clampDecimal(v, b.Min, b.Max)
}

// Contains reports whether v is within the bounds.
func (b FactorBounds) Contains(v decimal.Decimal) bool {
	return !v.LessThan(b.Min) && !v.GreaterThan(b.Max)
}

// CombinedMultiplier returns the product of all factor multipliers.  The
// product is exact; nothing is rounded until it is applied to money.
func CombinedMultiplier(factors []Factor) decimal.Decimal {
	product := one
	for _, f := range factors {
		product = product.Mul(f.Multiplier)
	}
	return product
}

// ApplyFactors computes round(base × Π multipliers) in one step.
func ApplyFactors(base decimal.Decimal, factors []Factor) decimal.Decimal {
	return RoundMoney(base.Mul(CombinedMultiplier(factors)))
}

// FactorImpact is one line of the factor breakdown: the multiplier and the
// dollar amount attributed to it.
type FactorImpact struct {
	Name          string
	Multiplier    decimal.Decimal
	Impact        decimal.Decimal
	Source        FactorSource
	Degraded      bool
	ModelVersion  string
	Contributions []FeatureContribution
}

// AttributeImpacts splits the factored premium's deviation from base into
// per-factor dollar amounts.  Factors are attributed sequentially in slice
// order; the final line absorbs the rounding residue so the impacts sum to
// exactly factored − base.  The premium itself never uses these amounts.
func AttributeImpacts(base, factored decimal.Decimal, factors []Factor) []FactorImpact {
	impacts := make([]FactorImpact, 0, len(factors))
	running := base
	attributed := zero
	for i, f := range factors {
		next := running.Mul(f.Multiplier)
		var impact decimal.Decimal
		if i == len(factors)-1 {
			impact = factored.Sub(base).Sub(attributed)
		} else {
			impact = RoundMoney(next.Sub(running))
		}
		attributed = attributed.Add(impact)
		running = next
		impacts = append(impacts, FactorImpact{
			Name:          f.Name,
			Multiplier:    f.Multiplier.Round(FactorPlaces),
			Impact:        impact,
			Source:        f.Source,
			Degraded:      f.Degraded,
			ModelVersion:  f.ModelVersion,
			Contributions: append([]FeatureContribution(nil), f.Contributions...),
		})
	}
	return impacts
}

//Personal.AI order the ending
