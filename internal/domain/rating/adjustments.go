package rating

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/turtacn/RateCraft/pkg/errors"
)

// AdjustmentLine is one applied discount or surcharge.
type AdjustmentLine struct {
	Code         string
	Name         string
	Type         AdjustmentType
	Rate         decimal.Decimal
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	Priority     int
	Stackable    bool
	Manual       bool
	// Truncated is set when the amount was cut to respect the discount cap.
	Truncated bool
}

// AdjustmentResult is the outcome of one discount or surcharge stage.
type AdjustmentResult struct {
	Before     decimal.Decimal
	After      decimal.Decimal
	Total      decimal.Decimal
	Lines      []AdjustmentLine
	Suppressed []string
	Capped     bool
	Flags      []RegulatoryFlag
}

// HasFlag reports whether the stage raised flag.
func (r AdjustmentResult) HasFlag(flag RegulatoryFlag) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Line returns the applied line with code, if any.
func (r AdjustmentResult) Line(code string) (AdjustmentLine, bool) {
	for _, l := range r.Lines {
		if l.Code == code {
			return l, true
		}
	}
	return AdjustmentLine{}, false
}

// identity returns the no-op result for amount.
func identity(amount decimal.Decimal) AdjustmentResult {
	return AdjustmentResult{Before: amount, After: amount, Total: zero}
}

// orderCandidates sorts by priority ascending, then code.
func orderCandidates(c []Candidate) []Candidate {
	out := append([]Candidate(nil), c...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// amountFor computes the rounded amount a candidate contributes against the
// current balance.
func amountFor(c Candidate, balance decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case AdjustmentFixed:
		return RoundMoney(c.Amount)
	default:
		return RoundMoney(balance.Mul(c.Rate))
	}
}

// DiscountEngine

// DiscountEngine stacks discounts by ascending priority.
//
// Each discount applies to the remaining, already-discounted balance and is
// rounded at its own application boundary, so two stackable rates compound:
//
//	after = round(round(base × (1 − r1)) × (1 − r2))
//
// Only the first non-stackable discount takes effect.  The aggregate is
// limited to Cap × base.
type DiscountEngine struct {
	cap decimal.Decimal
}

// NewDiscountEngine creates an engine with the given cap fraction (0.25 = 25%).
func NewDiscountEngine(cap decimal.Decimal) *DiscountEngine {
	return &DiscountEngine{cap: cap}
}

// Cap returns the configured cap fraction.
func (e *DiscountEngine) Cap() decimal.Decimal { return e.cap }

// capAmount is the largest total discount allowed on base.  It rounds down
// so the headroom never exceeds Cap × base by a fraction of a cent.
func (e *DiscountEngine) capAmount(base decimal.Decimal) decimal.Decimal {
	return base.Mul(e.cap).RoundDown(CurrencyPlaces)
}

// Apply runs rule-driven stacking.  The total never exceeds the cap: a
// discount that would cross it is truncated to the remaining headroom and
// the result is marked Capped.
func (e *DiscountEngine) Apply(base decimal.Decimal, candidates []Candidate) AdjustmentResult {
	res := identity(base)
	limit := e.capAmount(base)
	balance := base
	nonStackableApplied := false

	for _, c := range orderCandidates(candidates) {
		if !c.Stackable && nonStackableApplied {
			res.Suppressed = append(res.Suppressed, c.Code)
			continue
		}
		amount := minDecimal(amountFor(c, balance), balance)
		if !amount.IsPositive() {
			continue
		}
		truncated := false
		if headroom := limit.Sub(res.Total); amount.GreaterThan(headroom) {
			amount = headroom
			truncated = true
			res.Capped = true
		}
		if !amount.IsPositive() {
			res.Suppressed = append(res.Suppressed, c.Code)
			continue
		}
		balance = balance.Sub(amount)
		res.Total = res.Total.Add(amount)
		res.Lines = append(res.Lines, AdjustmentLine{
			Code:         c.Code,
			Name:         c.Name,
			Type:         c.Type,
			Rate:         c.Rate,
			Amount:       amount,
			BalanceAfter: balance,
			Priority:     c.Priority,
			Stackable:    c.Stackable,
			Truncated:    truncated,
		})
		if !c.Stackable {
			nonStackableApplied = true
		}
	}
	res.After = balance
	return res
}

// ManualDiscount is an adjustment entered outside rule evaluation, e.g. by an
// underwriter.
type ManualDiscount struct {
	Code   string
	Reason string
	Type   AdjustmentType
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// ApplyManual stacks manual discounts on top of a rule-driven result.  Unlike
// Apply it never truncates: if the combined total would exceed the cap it
// fails with DiscountLimitExceeded.
func (e *DiscountEngine) ApplyManual(prior AdjustmentResult, manual []ManualDiscount) (AdjustmentResult, error) {
	if len(manual) == 0 {
		return prior, nil
	}
	res := prior
	res.Lines = append([]AdjustmentLine(nil), prior.Lines...)
	balance := prior.After
	for _, m := range manual {
		if m.Type == AdjustmentTiered {
			return prior, errors.InvalidParam(fmt.Sprintf("manual discount %q cannot be tiered", m.Code))
		}
		if m.Rate.IsNegative() || m.Amount.IsNegative() {
			return prior, errors.InvalidParam(fmt.Sprintf("manual discount %q must be non-negative", m.Code))
		}
		amount := amountFor(Candidate{Type: m.Type, Rate: m.Rate, Amount: m.Amount}, balance)
		amount = minDecimal(amount, balance)
		balance = balance.Sub(amount)
		res.Total = res.Total.Add(amount)
		res.Lines = append(res.Lines, AdjustmentLine{
			Code:         m.Code,
			Name:         m.Reason,
			Type:         m.Type,
			Rate:         m.Rate,
			Amount:       amount,
			BalanceAfter: balance,
			Stackable:    true,
			Manual:       true,
		})
	}
	if limit := e.capAmount(prior.Before); res.Total.GreaterThan(limit) {
		return prior, errors.DiscountLimitExceeded("total discount exceeds cap").
			WithDetail(fmt.Sprintf("total=%s cap=%s base=%s", res.Total.StringFixed(2), limit.StringFixed(2), prior.Before.StringFixed(2)))
	}
	res.After = balance
	return res, nil
}

// SurchargeEngine

// SurchargeEngine mirrors DiscountEngine's priority and stacking mechanics
// but adds to the post-discount balance.  There is no aggregate cap; each
// percentage is limited to bounds.Max − 1 and each fixed amount to MaxFixed.
//
// Regulatory flags are collected from every eligible surcharge, including
// ones suppressed by stacking, and any driver with a DUI conviction always
// raises the SR-22 flag.
type SurchargeEngine struct {
	maxRate  decimal.Decimal
	maxFixed decimal.Decimal
}

// NewSurchargeEngine creates an engine bounded by the factor range.
func NewSurchargeEngine(bounds FactorBounds, maxFixed decimal.Decimal) *SurchargeEngine {
	return &SurchargeEngine{maxRate: bounds.Max.Sub(one), maxFixed: maxFixed}
}

// Apply adds surcharges to base.
func (e *SurchargeEngine) Apply(base decimal.Decimal, candidates []Candidate, q *Quote) AdjustmentResult {
	res := identity(base)
	balance := base
	nonStackableApplied := false
	flags := make(map[RegulatoryFlag]bool)

	for _, c := range orderCandidates(candidates) {
		for _, f := range c.Flags {
			flags[f] = true
		}
		if !c.Stackable && nonStackableApplied {
			res.Suppressed = append(res.Suppressed, c.Code)
			continue
		}
		c.Rate = clampDecimal(c.Rate, zero, e.maxRate)
		c.Amount = clampDecimal(c.Amount, zero, e.maxFixed)
		amount := amountFor(c, balance)
		if !amount.IsPositive() {
			continue
		}
		balance = balance.Add(amount)
		res.Total = res.Total.Add(amount)
		res.Lines = append(res.Lines, AdjustmentLine{
			Code:         c.Code,
			Name:         c.Name,
			Type:         c.Type,
			Rate:         c.Rate,
			Amount:       amount,
			BalanceAfter: balance,
			Priority:     c.Priority,
			Stackable:    c.Stackable,
		})
		if !c.Stackable {
			nonStackableApplied = true
		}
	}
	if q != nil && q.TotalDUIConvictions() > 0 {
		flags[FlagSR22] = true
	}
	for _, f := range []RegulatoryFlag{FlagSR22, FlagFR44} {
		if flags[f] {
			res.Flags = append(res.Flags, f)
		}
	}
	res.After = balance
	return res
}

//Personal.AI order the ending
