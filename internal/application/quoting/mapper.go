package quoting

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/turtacn/RateCraft/internal/application/rating"
	domain "github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/pkg/errors"
	dto "github.com/turtacn/RateCraft/pkg/types/rating"
)

// ToPremiumRequest validates the wire request and converts it to the
// engine's input.  Codes are normalised to upper case.
func ToPremiumRequest(req *dto.QuoteRequest) (rating.PremiumRequest, error) {
	if req == nil {
		return rating.PremiumRequest{}, errors.InvalidParam("request body is required")
	}
	if err := req.Validate(); err != nil {
		return rating.PremiumRequest{}, errors.Wrap(err, errors.ErrCodeValidation, "invalid quote request")
	}
	effective, _ := req.ParseEffectiveDate()

	q := &domain.Quote{
		ID:            strings.TrimSpace(req.QuoteID),
		State:         strings.ToUpper(strings.TrimSpace(req.State)),
		EffectiveDate: effective,
		TerritoryCode: strings.TrimSpace(req.TerritoryCode),
		Drivers:       make([]domain.DriverInfo, 0, len(req.Drivers)),
		Vehicles:      make([]domain.VehicleInfo, 0, len(req.Vehicles)),
		Coverages:     make([]domain.CoverageSelection, 0, len(req.Coverages)),
	}
	for _, d := range req.Drivers {
		q.Drivers = append(q.Drivers, domain.DriverInfo{
			Age:                 d.Age,
			YearsLicensed:       d.YearsLicensed,
			Violations:          d.Violations,
			Accidents:           d.Accidents,
			DUIConvictions:      d.DUIConvictions,
			LicenseJurisdiction: strings.ToUpper(d.LicenseJurisdiction),
		})
	}
	for _, v := range req.Vehicles {
		q.Vehicles = append(q.Vehicles, domain.VehicleInfo{
			ModelYear:      v.ModelYear,
			Type:           domain.VehicleType(strings.ToLower(v.Type)),
			AnnualMileage:  v.AnnualMileage,
			SafetyFeatures: append([]string(nil), v.SafetyFeatures...),
			AssessedValue:  v.AssessedValue,
		})
	}
	for _, c := range req.Coverages {
		sel := domain.CoverageSelection{Type: domain.CoverageType(strings.ToLower(c.Type)), Limit: c.Limit}
		if c.Deductible != nil {
			d := *c.Deductible
			sel.Deductible = &d
		}
		q.Coverages = append(q.Coverages, sel)
	}
	if req.Customer != nil {
		q.Customer = &domain.CustomerData{
			PolicyCount:  req.Customer.PolicyCount,
			TenureYears:  req.Customer.TenureYears,
			PriorInsurer: req.Customer.PriorInsurer,
		}
	}

	out := rating.PremiumRequest{Quote: q}
	for _, m := range req.ManualDiscounts {
		out.ManualDiscounts = append(out.ManualDiscounts, domain.ManualDiscount{
			Code:   strings.ToUpper(m.Code),
			Reason: m.Reason,
			Type:   domain.AdjustmentType(m.Type),
			Rate:   m.Rate,
			Amount: m.Amount,
		})
	}
	if req.OverridePremium != nil {
		o := *req.OverridePremium
		out.OverridePremium = &o
	}
	return out, nil
}

// ToPremiumResponse renders a result for the wire.
func ToPremiumResponse(r domain.RatingResult) *dto.PremiumResponse {
	resp := &dto.PremiumResponse{
		CalculationID:    r.CalculationID,
		QuoteID:          r.QuoteID,
		State:            r.State,
		ProductType:      string(r.ProductType),
		EffectiveDate:    r.EffectiveDate.Format(dto.DateLayout),
		Coverages:        make([]dto.CoveragePremium, 0, len(r.Coverages)),
		BasePremium:      r.BasePremium,
		CombinedFactor:   r.CombinedFactor,
		FactoredPremium:  r.FactoredPremium,
		Factors:          make([]dto.Factor, 0, len(r.Factors)),
		Discounts:        adjustments(r.Discounts.Lines),
		Surcharges:       adjustments(r.Surcharges.Lines),
		TotalDiscount:    r.TotalDiscount,
		TotalSurcharge:   r.TotalSurcharge,
		DiscountCapped:   r.Discounts.Capped,
		UnclampedPremium: r.UnclampedPremium,
		FinalPremium:     r.FinalPremium,
		RequiresSR22:     r.RequiresSR22,
		Compliance: dto.Compliance{
			Status:           string(r.Compliance.Status),
			RequiresApproval: r.Compliance.RequiresApproval,
		},
		CalculatedAt: r.CalculatedAt,
		DurationMs:   float64(r.Duration.Microseconds()) / 1000,
	}
	if r.OverridePremium != nil {
		o := *r.OverridePremium
		resp.OverridePremium = &o
	}
	for _, c := range r.Coverages {
		line := dto.CoveragePremium{
			Coverage:         string(c.Coverage),
			Limit:            c.Limit,
			BaseRate:         c.BaseRate,
			RateTableID:      c.RateTableID,
			RateTableVersion: c.RateTableVersion,
			BasePremium:      c.BasePremium,
		}
		if c.Deductible != nil {
			d := *c.Deductible
			line.Deductible = &d
		}
		resp.Coverages = append(resp.Coverages, line)
	}
	for _, f := range r.Factors {
		out := dto.Factor{
			Name:         f.Name,
			Multiplier:   f.Multiplier,
			Impact:       f.Impact,
			Source:       string(f.Source),
			Degraded:     f.Degraded,
			ModelVersion: f.ModelVersion,
		}
		for _, c := range f.Contributions {
			out.Contributions = append(out.Contributions, dto.FeatureContribution(c))
		}
		resp.Factors = append(resp.Factors, out)
	}
	for _, v := range r.Compliance.Violations {
		resp.Compliance.Violations = append(resp.Compliance.Violations, dto.Violation{
			Code:     v.Code.String(),
			Rule:     v.Rule,
			Severity: string(v.Severity),
			Message:  v.Message,
		})
	}
	for _, w := range r.Warnings {
		resp.Warnings = append(resp.Warnings, dto.Warning{Code: w.Code.String(), Component: w.Component, Message: w.Message})
	}
	return resp
}

func adjustments(lines []domain.AdjustmentLine) []dto.Adjustment {
	if len(lines) == 0 {
		return nil
	}
	out := make([]dto.Adjustment, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.Adjustment{
			Code:         l.Code,
			Name:         l.Name,
			Type:         string(l.Type),
			Rate:         l.Rate,
			Amount:       l.Amount,
			BalanceAfter: l.BalanceAfter,
			Manual:       l.Manual,
			Truncated:    l.Truncated,
		})
	}
	return out
}

// ToPerformanceMetrics renders a monitor snapshot.
func ToPerformanceMetrics(s rating.PerformanceSnapshot) dto.PerformanceMetrics {
	return dto.PerformanceMetrics{
		Count:               s.Count,
		Failures:            s.Failures,
		AverageMs:           s.AverageMs,
		TargetMs:            s.TargetMs,
		TargetMetPercentage: s.TargetMetPercentage,
		Degradations:        s.Degradations,
	}
}

// DegradedComponents lists the factors that fell back to neutral.
func DegradedComponents(r domain.RatingResult) []string {
	var out []string
	for _, f := range r.Factors {
		if f.Degraded {
			out = append(out, f.Name)
		}
	}
	return out
}

// PremiumCalculated builds the event published after a calculation.
func PremiumCalculated(r domain.RatingResult, requestID string) dto.PremiumCalculatedEvent {
	return dto.PremiumCalculatedEvent{
		CalculationID: r.CalculationID,
		QuoteID:       r.QuoteID,
		State:         r.State,
		FinalPremium:  effectivePremium(r),
		Compliance:    string(r.Compliance.Status),
		Degraded:      DegradedComponents(r),
		CalculatedAt:  r.CalculatedAt,
		RequestID:     requestID,
	}
}

// effectivePremium is the override when one was accepted, otherwise the
// rated premium.
func effectivePremium(r domain.RatingResult) decimal.Decimal {
	if r.OverridePremium != nil {
		return *r.OverridePremium
	}
	return r.FinalPremium
}

//Personal.AI order the ending
