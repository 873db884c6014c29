package rating

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/turtacn/RateCraft/pkg/errors"
)

// Severity grades a compliance finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// ComplianceStatus is the overall outcome of validation.
type ComplianceStatus string

const (
	StatusCompliant             ComplianceStatus = "compliant"
	StatusCompliantWithWarnings ComplianceStatus = "compliant_with_warnings"
	StatusNonCompliant          ComplianceStatus = "non_compliant"
)

// Compliance rule identifiers.
const (
	RuleRequiredCoverage = "REQUIRED_COVERAGE"
	RuleMinimumLimit     = "MINIMUM_LIMIT"
	RulePremiumFloor     = "PREMIUM_FLOOR"
	RulePremiumCeiling   = "PREMIUM_CEILING"
	RulePremiumClamped   = "PREMIUM_CLAMPED"
	RuleOverrideApproval = "OVERRIDE_APPROVAL"
	RuleOverrideWithin   = "OVERRIDE_WITHIN_THRESHOLD"
	RuleSR22Filing       = "SR22_FILING_REQUIRED"
	RuleDiscountCapped   = "DISCOUNT_CAP_APPLIED"
)

// JurisdictionRule holds a state's coverage and premium constraints.
// Zero MinPremium or MaxPremium means no hard limit.
type JurisdictionRule struct {
	State             string
	MinimumLimits     map[CoverageType]decimal.Decimal
	RequiredCoverages []CoverageType
	MinPremium        decimal.Decimal
	MaxPremium        decimal.Decimal
}

// PremiumBounds is a min/max premium range.
type PremiumBounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Clamp limits amount to the range; a zero Max means unbounded above.
func (b PremiumBounds) Clamp(amount decimal.Decimal) decimal.Decimal {
	if amount.LessThan(b.Min) {
		return b.Min
	}
	if b.Max.IsPositive() && amount.GreaterThan(b.Max) {
		return b.Max
	}
	return amount
}

// ValidationPolicy configures BusinessRuleValidator.
type ValidationPolicy struct {
	Jurisdictions       map[string]JurisdictionRule
	DefaultJurisdiction JurisdictionRule
	CoverageBounds      map[CoverageType]PremiumBounds
	DefaultBounds       PremiumBounds
	// OverrideThreshold is the relative deviation beyond which a manual
	// override needs secondary approval (0.15 = ±15%).
	OverrideThreshold decimal.Decimal
}

// DefaultValidationPolicy returns the built-in jurisdiction rules.
func DefaultValidationPolicy() ValidationPolicy {
	liability := func(min int64) map[CoverageType]decimal.Decimal {
		return map[CoverageType]decimal.Decimal{CoverageLiability: decimal.NewFromInt(min)}
	}
	return ValidationPolicy{
		Jurisdictions: map[string]JurisdictionRule{
			"CA": {State: "CA", MinimumLimits: liability(30000), RequiredCoverages: []CoverageType{CoverageLiability},
				MinPremium: decimal.NewFromInt(100), MaxPremium: decimal.NewFromInt(50000)},
			"TX": {State: "TX", MinimumLimits: liability(30000), RequiredCoverages: []CoverageType{CoverageLiability},
				MinPremium: decimal.NewFromInt(100), MaxPremium: decimal.NewFromInt(50000)},
			"FL": {State: "FL", MinimumLimits: map[CoverageType]decimal.Decimal{
				CoverageLiability:      decimal.NewFromInt(10000),
				CoveragePersonalInjury: decimal.NewFromInt(10000),
			}, RequiredCoverages: []CoverageType{CoverageLiability, CoveragePersonalInjury},
				MinPremium: decimal.NewFromInt(100), MaxPremium: decimal.NewFromInt(50000)},
		},
		DefaultJurisdiction: JurisdictionRule{
			MinimumLimits:     liability(25000),
			RequiredCoverages: []CoverageType{CoverageLiability},
		},
		CoverageBounds: map[CoverageType]PremiumBounds{
			CoverageLiability:      {Min: decimal.NewFromInt(100), Max: decimal.NewFromInt(20000)},
			CoverageCollision:      {Min: decimal.NewFromInt(50), Max: decimal.NewFromInt(10000)},
			CoverageComprehensive:  {Min: decimal.NewFromInt(25), Max: decimal.NewFromInt(5000)},
			CoveragePersonalInjury: {Min: decimal.NewFromInt(50), Max: decimal.NewFromInt(5000)},
		},
		DefaultBounds:     PremiumBounds{Min: decimal.NewFromInt(25), Max: decimal.NewFromInt(5000)},
		OverrideThreshold: Percent(15),
	}
}

// ComplianceViolation is one finding.
type ComplianceViolation struct {
	Code     errors.ErrorCode
	Rule     string
	Severity Severity
	Message  string
}

// ComplianceReport is the structured validation outcome.
type ComplianceReport struct {
	Status           ComplianceStatus
	Violations       []ComplianceViolation
	Critical         int
	Warning          int
	Info             int
	RequiresApproval bool
}

// ValidationInput is everything the validator inspects after assembly.
type ValidationInput struct {
	Quote            *Quote
	FinalPremium     decimal.Decimal
	UnclampedPremium decimal.Decimal
	OverridePremium  *decimal.Decimal
	Flags            []RegulatoryFlag
	DiscountCapped   bool
}

// BusinessRuleValidator checks coverage selections and the assembled premium
// against jurisdiction constraints.
type BusinessRuleValidator struct {
	policy ValidationPolicy
}

// NewBusinessRuleValidator creates a validator.
func NewBusinessRuleValidator(policy ValidationPolicy) *BusinessRuleValidator {
	return &BusinessRuleValidator{policy: policy}
}

// Jurisdiction returns the rule set for state.
func (v *BusinessRuleValidator) Jurisdiction(state string) JurisdictionRule {
	if r, ok := v.policy.Jurisdictions[state]; ok {
		return r
	}
	r := v.policy.DefaultJurisdiction
	r.State = state
	return r
}

// CheckCoverageSelection fails with InvalidCoverageSelection when a selected
// limit is below the jurisdiction minimum.
func (v *BusinessRuleValidator) CheckCoverageSelection(q *Quote) error {
	rule := v.Jurisdiction(q.State)
	for _, c := range q.Coverages {
		min, ok := rule.MinimumLimits[c.Type]
		if ok && c.Limit.LessThan(min) {
			return errors.InvalidCoverage(fmt.Sprintf("%s limit below %s minimum", c.Type, q.State)).
				WithDetail(fmt.Sprintf("limit=%s minimum=%s", c.Limit.String(), min.String()))
		}
	}
	return nil
}

// CoverageBounds returns the premium bounds of one coverage type.
func (v *BusinessRuleValidator) CoverageBounds(t CoverageType) PremiumBounds {
	if b, ok := v.policy.CoverageBounds[t]; ok {
		return b
	}
	return v.policy.DefaultBounds
}

// PremiumBounds sums per-coverage bounds over the selected coverages.  A rate
// table's own MinPremium/MaxPremium take precedence when positive.
func (v *BusinessRuleValidator) PremiumBounds(q *Quote, tables map[CoverageType]RateTable) PremiumBounds {
	out := PremiumBounds{Min: zero, Max: zero}
	for _, c := range q.Coverages {
		b := v.CoverageBounds(c.Type)
		if t, ok := tables[c.Type]; ok {
			if t.MinPremium.IsPositive() {
				b.Min = t.MinPremium
			}
			if t.MaxPremium.IsPositive() {
				b.Max = t.MaxPremium
			}
		}
		out.Min = out.Min.Add(b.Min)
		out.Max = out.Max.Add(b.Max)
	}
	return out
}

// Validate produces the compliance report.  It never fails; findings are
// reported with severities and the caller decides how to act on them.
func (v *BusinessRuleValidator) Validate(in ValidationInput) ComplianceReport {
	var report ComplianceReport
	add := func(rule string, sev Severity, msg string) {
		report.Violations = append(report.Violations, ComplianceViolation{
			Code: errors.ErrCodeComplianceViolation, Rule: rule, Severity: sev, Message: msg,
		})
	}

	q := in.Quote
	rule := v.Jurisdiction(q.State)

	for _, req := range rule.RequiredCoverages {
		if !q.HasCoverage(req) {
			add(RuleRequiredCoverage, SeverityCritical, fmt.Sprintf("%s requires %s coverage", q.State, req))
		}
	}
	for _, c := range q.Coverages {
		if min, ok := rule.MinimumLimits[c.Type]; ok && c.Limit.LessThan(min) {
			add(RuleMinimumLimit, SeverityCritical,
				fmt.Sprintf("%s limit %s below minimum %s", c.Type, c.Limit.String(), min.String()))
		}
	}

	if rule.MinPremium.IsPositive() && in.FinalPremium.LessThan(rule.MinPremium) {
		add(RulePremiumFloor, SeverityCritical,
			fmt.Sprintf("premium %s below %s floor %s", in.FinalPremium.StringFixed(2), q.State, rule.MinPremium.StringFixed(2)))
	}
	if rule.MaxPremium.IsPositive() && in.FinalPremium.GreaterThan(rule.MaxPremium) {
		add(RulePremiumCeiling, SeverityCritical,
			fmt.Sprintf("premium %s above %s ceiling %s", in.FinalPremium.StringFixed(2), q.State, rule.MaxPremium.StringFixed(2)))
	}

	if !in.UnclampedPremium.Equal(in.FinalPremium) {
		add(RulePremiumClamped, SeverityWarning,
			fmt.Sprintf("premium %s clamped to %s by coverage premium bounds",
				in.UnclampedPremium.StringFixed(2), in.FinalPremium.StringFixed(2)))
	}

	if in.OverridePremium != nil && in.FinalPremium.IsPositive() {
		deviation := in.OverridePremium.Sub(in.FinalPremium).Abs().Div(in.FinalPremium)
		if deviation.GreaterThan(v.policy.OverrideThreshold) {
			report.RequiresApproval = true
			add(RuleOverrideApproval, SeverityWarning,
				fmt.Sprintf("manual override %s deviates %s%% from system premium %s; secondary approval required",
					in.OverridePremium.StringFixed(2), deviation.Mul(hundred).StringFixed(1), in.FinalPremium.StringFixed(2)))
		} else {
			add(RuleOverrideWithin, SeverityInfo,
				fmt.Sprintf("manual override %s within %s%% of system premium",
					in.OverridePremium.StringFixed(2), v.policy.OverrideThreshold.Mul(hundred).StringFixed(0)))
		}
	}

	for _, f := range in.Flags {
		if f == FlagSR22 {
			add(RuleSR22Filing, SeverityInfo, "SR-22 financial responsibility filing required")
		}
	}
	if in.DiscountCapped {
		add(RuleDiscountCapped, SeverityInfo, "rule-driven discounts limited by the discount cap")
	}

	for _, viol := range report.Violations {
		switch viol.Severity {
		case SeverityCritical:
			report.Critical++
		case SeverityWarning:
			report.Warning++
		default:
			report.Info++
		}
	}
	switch {
	case report.Critical > 0:
		report.Status = StatusNonCompliant
	case report.Warning > 0:
		report.Status = StatusCompliantWithWarnings
	default:
		report.Status = StatusCompliant
	}
	return report
}

//Personal.AI order the ending
