// Package rating defines the wire format of premium calculation requests
// and results, shared by the HTTP API, the CLI, the Kafka worker and the Go
// client.  Money travels as decimal strings.
package rating

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of effective dates.
const DateLayout = "2006-01-02"

// QuoteRequest is the body of POST /api/v1/premiums/calculate.
type QuoteRequest struct {
	QuoteID         string            `json:"quote_id"`
	State           string            `json:"state"`
	EffectiveDate   string            `json:"effective_date"`
	TerritoryCode   string            `json:"territory_code,omitempty"`
	Drivers         []Driver          `json:"drivers"`
	Vehicles        []Vehicle         `json:"vehicles"`
	Coverages       []Coverage        `json:"coverages"`
	Customer        *Customer         `json:"customer,omitempty"`
	ManualDiscounts []ManualDiscount  `json:"manual_discounts,omitempty"`
	OverridePremium *decimal.Decimal  `json:"override_premium,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

type Driver struct {
	Age                 int    `json:"age"`
	YearsLicensed       int    `json:"years_licensed"`
	Violations          int    `json:"violations"`
	Accidents           int    `json:"accidents"`
	DUIConvictions      int    `json:"dui_convictions"`
	LicenseJurisdiction string `json:"license_jurisdiction,omitempty"`
}

type Vehicle struct {
	ModelYear      int             `json:"model_year"`
	Type           string          `json:"type"`
	AnnualMileage  int             `json:"annual_mileage"`
	SafetyFeatures []string        `json:"safety_features,omitempty"`
	AssessedValue  decimal.Decimal `json:"assessed_value"`
}

type Coverage struct {
	Type       string           `json:"type"`
	Limit      decimal.Decimal  `json:"limit"`
	Deductible *decimal.Decimal `json:"deductible,omitempty"`
}

type Customer struct {
	PolicyCount  int    `json:"policy_count"`
	TenureYears  int    `json:"tenure_years"`
	PriorInsurer string `json:"prior_insurer,omitempty"`
}

// ManualDiscount is an underwriter adjustment.  Type is "percentage" (Rate
// is a fraction) or "fixed" (Amount in dollars).
type ManualDiscount struct {
	Code   string          `json:"code"`
	Reason string          `json:"reason"`
	Type   string          `json:"type"`
	Rate   decimal.Decimal `json:"rate,omitempty"`
	Amount decimal.Decimal `json:"amount,omitempty"`
}

// Validate performs the structural checks owned by the API layer: required
// fields, parseable dates and non-negative amounts.  Rating rules are
// enforced by the engine.
func (r *QuoteRequest) Validate() error {
	var problems []string
	if strings.TrimSpace(r.QuoteID) == "" {
		problems = append(problems, "quote_id is required")
	}
	if len(strings.TrimSpace(r.State)) != 2 {
		problems = append(problems, "state must be a two-letter code")
	}
	if _, err := r.ParseEffectiveDate(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(r.Drivers) == 0 {
		problems = append(problems, "at least one driver is required")
	}
	if len(r.Vehicles) == 0 {
		problems = append(problems, "at least one vehicle is required")
	}
	if len(r.Coverages) == 0 {
		problems = append(problems, "at least one coverage is required")
	}
	for i, c := range r.Coverages {
		if c.Type == "" {
			problems = append(problems, fmt.Sprintf("coverages[%d].type is required", i))
		}
		if !c.Limit.IsPositive() {
			problems = append(problems, fmt.Sprintf("coverages[%d].limit must be positive", i))
		}
		if c.Deductible != nil && c.Deductible.IsNegative() {
			problems = append(problems, fmt.Sprintf("coverages[%d].deductible must not be negative", i))
		}
	}
	for i, v := range r.Vehicles {
		if v.AssessedValue.IsNegative() {
			problems = append(problems, fmt.Sprintf("vehicles[%d].assessed_value must not be negative", i))
		}
	}
	for i, m := range r.ManualDiscounts {
		if m.Type != "percentage" && m.Type != "fixed" {
			problems = append(problems, fmt.Sprintf("manual_discounts[%d].type must be percentage or fixed", i))
		}
	}
	if r.OverridePremium != nil && !r.OverridePremium.IsPositive() {
		problems = append(problems, "override_premium must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid quote request: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ParseEffectiveDate parses EffectiveDate in DateLayout or RFC 3339.
func (r *QuoteRequest) ParseEffectiveDate() (time.Time, error) {
	if r.EffectiveDate == "" {
		return time.Time{}, fmt.Errorf("effective_date is required")
	}
	if t, err := time.Parse(DateLayout, r.EffectiveDate); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, r.EffectiveDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("effective_date %q is not YYYY-MM-DD", r.EffectiveDate)
	}
	return t.UTC(), nil
}

// PremiumResponse is the rating result on the wire.
type PremiumResponse struct {
	CalculationID    string            `json:"calculation_id"`
	QuoteID          string            `json:"quote_id"`
	State            string            `json:"state"`
	ProductType      string            `json:"product_type"`
	EffectiveDate    string            `json:"effective_date"`
	Coverages        []CoveragePremium `json:"coverages"`
	BasePremium      decimal.Decimal   `json:"base_premium"`
	CombinedFactor   decimal.Decimal   `json:"combined_factor"`
	FactoredPremium  decimal.Decimal   `json:"factored_premium"`
	Factors          []Factor          `json:"factors"`
	Discounts        []Adjustment      `json:"discounts,omitempty"`
	Surcharges       []Adjustment      `json:"surcharges,omitempty"`
	TotalDiscount    decimal.Decimal   `json:"total_discount"`
	TotalSurcharge   decimal.Decimal   `json:"total_surcharge"`
	DiscountCapped   bool              `json:"discount_capped"`
	UnclampedPremium decimal.Decimal   `json:"unclamped_premium"`
	FinalPremium     decimal.Decimal   `json:"final_premium"`
	OverridePremium  *decimal.Decimal  `json:"override_premium,omitempty"`
	RequiresSR22     bool              `json:"requires_sr22"`
	Compliance       Compliance        `json:"compliance"`
	Warnings         []Warning         `json:"warnings,omitempty"`
	CalculatedAt     time.Time         `json:"calculated_at"`
	DurationMs       float64           `json:"duration_ms"`
}

type CoveragePremium struct {
	Coverage         string          `json:"coverage"`
	Limit            decimal.Decimal `json:"limit"`
	BaseRate         decimal.Decimal `json:"base_rate"`
	RateTableID      string          `json:"rate_table_id"`
	RateTableVersion int             `json:"rate_table_version"`
	BasePremium      decimal.Decimal `json:"base_premium"`
	Deductible       *decimal.Decimal `json:"deductible,omitempty"`
}

type Factor struct {
	Name          string                `json:"name"`
	Multiplier    decimal.Decimal       `json:"multiplier"`
	Impact        decimal.Decimal       `json:"impact"`
	Source        string                `json:"source"`
	Degraded      bool                  `json:"degraded,omitempty"`
	ModelVersion  string                `json:"model_version,omitempty"`
	Contributions []FeatureContribution `json:"contributions,omitempty"`
}

type FeatureContribution struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

type Adjustment struct {
	Code         string          `json:"code"`
	Name         string          `json:"name,omitempty"`
	Type         string          `json:"type"`
	Rate         decimal.Decimal `json:"rate"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Manual       bool            `json:"manual,omitempty"`
	Truncated    bool            `json:"truncated,omitempty"`
}

type Compliance struct {
	Status           string      `json:"status"`
	RequiresApproval bool        `json:"requires_approval"`
	Violations       []Violation `json:"violations,omitempty"`
}

type Violation struct {
	Code     string `json:"code"`
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type Warning struct {
	Code      string `json:"code"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

// PerformanceMetrics is the body of GET /api/v1/metrics/performance.
type PerformanceMetrics struct {
	Count               int64   `json:"count"`
	Failures            int64   `json:"failures"`
	AverageMs           float64 `json:"average_ms"`
	TargetMs            float64 `json:"target_ms"`
	TargetMetPercentage float64 `json:"target_met_percentage"`
	Degradations        int64   `json:"degradations"`
}

// PremiumCalculatedEvent is published after every successful calculation.
type PremiumCalculatedEvent struct {
	CalculationID string          `json:"calculation_id"`
	QuoteID       string          `json:"quote_id"`
	State         string          `json:"state"`
	FinalPremium  decimal.Decimal `json:"final_premium"`
	Compliance    string          `json:"compliance_status"`
	Degraded      []string        `json:"degraded_components,omitempty"`
	CalculatedAt  time.Time       `json:"calculated_at"`
	RequestID     string          `json:"request_id,omitempty"`
}

// QuoteRequestedEvent asks the worker to rate a quote asynchronously.
type QuoteRequestedEvent struct {
	RequestID string       `json:"request_id"`
	Quote     QuoteRequest `json:"quote"`
}

//Personal.AI order the ending
