package rating

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RuleKind distinguishes discounts from surcharges.
type RuleKind string

const (
	KindDiscount  RuleKind = "discount"
	KindSurcharge RuleKind = "surcharge"
)

// AdjustmentType is how a rule's amount is computed.
type AdjustmentType string

const (
	AdjustmentPercentage AdjustmentType = "percentage"
	AdjustmentFixed      AdjustmentType = "fixed"
	AdjustmentTiered     AdjustmentType = "tiered"
)

// RegulatoryFlag is a side effect a surcharge carries beyond its dollar amount.
type RegulatoryFlag string

const (
	FlagSR22 RegulatoryFlag = "sr22"
	FlagFR44 RegulatoryFlag = "fr44"
)

// TierBasis selects the quote attribute tiers are keyed on.
type TierBasis string

const (
	TierByTenureYears TierBasis = "tenure_years"
	TierByPolicyCount TierBasis = "policy_count"
)

// Tier applies Rate once the basis value reaches Threshold.
type Tier struct {
	Threshold int             `json:"threshold"`
	Rate      decimal.Decimal `json:"rate"`
}

// RuleCondition is the structured eligibility payload of a rule.  Nil
// pointer fields are not checked.  Driver-level limits are evaluated on the
// youngest or least experienced driver; count limits on quote totals.
type RuleCondition struct {
	MinPolicyCount    *int `json:"min_policy_count,omitempty"`
	MinTenureYears    *int `json:"min_tenure_years,omitempty"`
	MinSafetyFeatures *int `json:"min_safety_features,omitempty"`

	MinViolations     *int `json:"min_violations,omitempty"`
	MaxViolations     *int `json:"max_violations,omitempty"`
	MinAccidents      *int `json:"min_accidents,omitempty"`
	MaxAccidents      *int `json:"max_accidents,omitempty"`
	MinDUIConvictions *int `json:"min_dui_convictions,omitempty"`
	MaxDUIConvictions *int `json:"max_dui_convictions,omitempty"`

	MinDriverAge     *int `json:"min_driver_age,omitempty"`
	MaxDriverAge     *int `json:"max_driver_age,omitempty"`
	MinYearsLicensed *int `json:"min_years_licensed,omitempty"`
	MaxYearsLicensed *int `json:"max_years_licensed,omitempty"`

	VehicleTypes      []VehicleType    `json:"vehicle_types,omitempty"`
	RequiredCoverages []CoverageType   `json:"required_coverages,omitempty"`
	RequiredFlags     []RegulatoryFlag `json:"required_flags,omitempty"`
}

// Rule is a DiscountConfiguration or SurchargeConfiguration.
type Rule struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Kind      RuleKind        `json:"kind"`
	Type      AdjustmentType  `json:"type"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
	TierBasis TierBasis       `json:"tier_basis,omitempty"`
	Tiers     []Tier          `json:"tiers,omitempty"`
	Condition RuleCondition   `json:"condition"`

	States       []string      `json:"states,omitempty"`
	ProductTypes []ProductType `json:"product_types,omitempty"`

	Priority  int  `json:"priority"`
	Stackable bool `json:"stackable"`
	Active    bool `json:"active"`

	EffectiveDate  time.Time  `json:"effective_date"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`

	Flags []RegulatoryFlag `json:"flags,omitempty"`
}

// Candidate is a rule resolved against a specific quote: its tier is chosen
// and its eligibility confirmed.
type Candidate struct {
	Code      string
	Name      string
	Type      AdjustmentType
	Rate      decimal.Decimal
	Amount    decimal.Decimal
	Priority  int
	Stackable bool
	Flags     []RegulatoryFlag
}

// AppliesTo reports whether the rule is active and scoped to the state,
// product and date.  Empty scope lists match everything.
func (r Rule) AppliesTo(state string, product ProductType, asOf time.Time) bool {
	if !r.Active {
		return false
	}
	if asOf.Before(r.EffectiveDate) {
		return false
	}
	if r.ExpirationDate != nil && !asOf.Before(*r.ExpirationDate) {
		return false
	}
	if len(r.States) > 0 && !containsString(r.States, state) {
		return false
	}
	if len(r.ProductTypes) > 0 {
		found := false
		for _, p := range r.ProductTypes {
			if p == product {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Matches evaluates the condition against the quote.  flags are regulatory
// flags already raised by higher-priority rules.
func (c RuleCondition) Matches(q *Quote, flags map[RegulatoryFlag]bool) bool {
	if !atLeast(c.MinPolicyCount, q.PolicyCount()) ||
		!atLeast(c.MinTenureYears, q.TenureYears()) ||
		!atLeast(c.MinSafetyFeatures, q.MaxSafetyFeatures()) ||
		!atLeast(c.MinViolations, q.TotalViolations()) ||
		!atMost(c.MaxViolations, q.TotalViolations()) ||
		!atLeast(c.MinAccidents, q.TotalAccidents()) ||
		!atMost(c.MaxAccidents, q.TotalAccidents()) ||
		!atLeast(c.MinDUIConvictions, q.TotalDUIConvictions()) ||
		!atMost(c.MaxDUIConvictions, q.TotalDUIConvictions()) ||
		!atLeast(c.MinDriverAge, q.YoungestDriverAge()) ||
		!atMost(c.MaxDriverAge, q.YoungestDriverAge()) ||
		!atLeast(c.MinYearsLicensed, q.LeastExperience()) ||
		!atMost(c.MaxYearsLicensed, q.LeastExperience()) {
		return false
	}
	if len(c.VehicleTypes) > 0 {
		found := false
		for _, v := range q.Vehicles {
			for _, t := range c.VehicleTypes {
				if v.Type == t {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	for _, cov := range c.RequiredCoverages {
		if !q.HasCoverage(cov) {
			return false
		}
	}
	for _, f := range c.RequiredFlags {
		if !flags[f] {
			return false
		}
	}
	return true
}

// resolveRate picks the rate for a tiered rule; ok is false when no tier is
// reached.
func (r Rule) resolveRate(q *Quote) (decimal.Decimal, bool) {
	if r.Type != AdjustmentTiered {
		return r.Rate, true
	}
	value := q.TenureYears()
	if r.TierBasis == TierByPolicyCount {
		value = q.PolicyCount()
	}
	var (
		best    Tier
		reached bool
	)
	for _, t := range r.Tiers {
		if value >= t.Threshold && (!reached || t.Threshold > best.Threshold) {
			best = t
			reached = true
		}
	}
	return best.Rate, reached
}

// SortRules orders rules by priority ascending, then code, so evaluation is
// deterministic regardless of store order.
func SortRules(rules []Rule) []Rule {
	out := append([]Rule(nil), rules...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// SelectCandidates filters rules down to those applicable and eligible for
// the quote, resolved and in evaluation order.
//
// Regulatory flags are accumulated in priority order from every eligible
// rule, so a lower-priority rule may require a flag raised earlier (e.g. an
// SR-22 filing fee following a DUI surcharge).
func SelectCandidates(rules []Rule, q *Quote, product ProductType) []Candidate {
	flags := make(map[RegulatoryFlag]bool)
	if q.TotalDUIConvictions() > 0 {
		flags[FlagSR22] = true
	}
	var out []Candidate
	for _, r := range SortRules(rules) {
		if !r.AppliesTo(q.State, product, q.EffectiveDate) {
			continue
		}
		if !r.Condition.Matches(q, flags) {
			continue
		}
		rate, ok := r.resolveRate(q)
		if !ok {
			continue
		}
		for _, f := range r.Flags {
			flags[f] = true
		}
		typ := r.Type
		if typ == AdjustmentTiered {
			typ = AdjustmentPercentage
		}
		out = append(out, Candidate{
			Code:      r.Code,
			Name:      r.Name,
			Type:      typ,
			Rate:      rate,
			Amount:    r.Amount,
			Priority:  r.Priority,
			Stackable: r.Stackable,
			Flags:     append([]RegulatoryFlag(nil), r.Flags...),
		})
	}
	return out
}

func atLeast(min *int, v int) bool { return min == nil || v >= *min }

func atMost(max *int, v int) bool { return max == nil || v <= *max }

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// IntPtr is a helper for building conditions.
func IntPtr(v int) *int { return &v }

//Personal.AI order the ending
