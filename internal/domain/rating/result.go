package rating

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/RateCraft/pkg/errors"
)

// Warning is a non-fatal diagnostic attached to a result.
type Warning struct {
	Code      errors.ErrorCode
	Component string
	Message   string
}

// CoveragePremium is the base premium of one coverage line.
type CoveragePremium struct {
	Coverage         CoverageType
	Limit            decimal.Decimal
	BaseRate         decimal.Decimal
	RateTableID      string
	RateTableVersion int
	BasePremium      decimal.Decimal
	Deductible       *decimal.Decimal
}

// RatingResult is the immutable outcome of one premium calculation.  It is
// assembled once by NewRatingResult, which takes defensive copies of every
// slice; callers receive it by value and no stage mutates it afterwards.
type RatingResult struct {
	CalculationID string
	QuoteID       string
	State         string
	ProductType   ProductType
	EffectiveDate time.Time

	Coverages        []CoveragePremium
	BasePremium      decimal.Decimal
	FactoredPremium  decimal.Decimal
	CombinedFactor   decimal.Decimal
	Factors          []FactorImpact
	Discounts        AdjustmentResult
	Surcharges       AdjustmentResult
	TotalDiscount    decimal.Decimal
	TotalSurcharge   decimal.Decimal
	UnclampedPremium decimal.Decimal
	FinalPremium     decimal.Decimal
	OverridePremium  *decimal.Decimal
	RequiresSR22     bool
	Compliance       ComplianceReport
	Warnings         []Warning

	CalculatedAt time.Time
	Duration     time.Duration
}

// ResultParts are the stage outputs combined into a RatingResult.
type ResultParts struct {
	CalculationID    string
	Quote            *Quote
	ProductType      ProductType
	Coverages        []CoveragePremium
	BasePremium      decimal.Decimal
	FactoredPremium  decimal.Decimal
	Factors          []Factor
	Discounts        AdjustmentResult
	Surcharges       AdjustmentResult
	UnclampedPremium decimal.Decimal
	FinalPremium     decimal.Decimal
	OverridePremium  *decimal.Decimal
	Compliance       ComplianceReport
	Warnings         []Warning
	CalculatedAt     time.Time
	Duration         time.Duration
}

// NewRatingResult assembles the final value.
func NewRatingResult(p ResultParts) RatingResult {
	r := RatingResult{
		CalculationID:    p.CalculationID,
		QuoteID:          p.Quote.ID,
		State:            p.Quote.State,
		ProductType:      p.ProductType,
		EffectiveDate:    p.Quote.EffectiveDate,
		Coverages:        append([]CoveragePremium(nil), p.Coverages...),
		BasePremium:      p.BasePremium,
		FactoredPremium:  p.FactoredPremium,
		CombinedFactor:   CombinedMultiplier(p.Factors).Round(6),
		Factors:          AttributeImpacts(p.BasePremium, p.FactoredPremium, p.Factors),
		Discounts:        copyAdjustments(p.Discounts),
		Surcharges:       copyAdjustments(p.Surcharges),
		TotalDiscount:    p.Discounts.Total,
		TotalSurcharge:   p.Surcharges.Total,
		UnclampedPremium: p.UnclampedPremium,
		FinalPremium:     p.FinalPremium,
		RequiresSR22:     p.Surcharges.HasFlag(FlagSR22),
		Compliance:       copyCompliance(p.Compliance),
		Warnings:         append([]Warning(nil), p.Warnings...),
		CalculatedAt:     p.CalculatedAt,
		Duration:         p.Duration,
	}
	if p.OverridePremium != nil {
		o := *p.OverridePremium
		r.OverridePremium = &o
	}
	return r
}

// Factor returns the impact line for name, if present.
func (r RatingResult) Factor(name string) (FactorImpact, bool) {
	for _, f := range r.Factors {
		if f.Name == name {
			return f, true
		}
	}
	return FactorImpact{}, false
}

// HasWarning reports whether a warning with code was recorded.
func (r RatingResult) HasWarning(code errors.ErrorCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func copyAdjustments(a AdjustmentResult) AdjustmentResult {
	a.Lines = append([]AdjustmentLine(nil), a.Lines...)
	a.Suppressed = append([]string(nil), a.Suppressed...)
	a.Flags = append([]RegulatoryFlag(nil), a.Flags...)
	return a
}

func copyCompliance(c ComplianceReport) ComplianceReport {
	c.Violations = append([]ComplianceViolation(nil), c.Violations...)
	return c
}

//Personal.AI order the ending
