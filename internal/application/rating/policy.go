// Package rating orchestrates premium calculation.  The RatingEngine wires the
// pure domain stages in internal/domain/rating to the rate-table store, the
// cache, external signal providers and the AI scorer, and records latency in
// a PerformanceMonitor.
package rating

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/RateCraft/internal/config"
	domain "github.com/turtacn/RateCraft/internal/domain/rating"
)

// Policy holds every tunable of the pipeline.  The engine swaps whole
// policies atomically; a calculation always runs against a single snapshot.
type Policy struct {
	DiscountCap       decimal.Decimal
	FactorBounds      domain.FactorBounds
	AIBounds          domain.FactorBounds
	MaxFixedSurcharge decimal.Decimal

	SignalTimeout time.Duration
	AITimeout     time.Duration
	StoreTimeout  time.Duration
	CacheTTL      time.Duration
	LatencyTarget time.Duration

	Signals         []domain.SignalKind
	Validation      domain.ValidationPolicy
	DriverSchedule  domain.DriverRiskSchedule
	VehicleSchedule domain.VehicleRiskSchedule
}

// DefaultPolicy mirrors config.ApplyDefaults plus the built-in jurisdiction
// rules and risk schedules.
func DefaultPolicy() Policy {
	return Policy{
		DiscountCap:       decimal.NewFromFloat(config.DefaultDiscountCap),
		FactorBounds:      domain.DefaultFactorBounds(),
		AIBounds:          boundsFrom(config.BoundsConfig{Min: config.DefaultAIMultiplierMin, Max: config.DefaultAIMultiplierMax}),
		MaxFixedSurcharge: decimal.NewFromFloat(config.DefaultMaxFixedSurcharge),
		SignalTimeout:     config.DefaultSignalTimeout,
		AITimeout:         config.DefaultAITimeout,
		StoreTimeout:      config.DefaultStoreTimeout,
		CacheTTL:          config.DefaultCacheTTL,
		LatencyTarget:     config.DefaultLatencyTarget,
		Signals:           []domain.SignalKind{domain.SignalWeather, domain.SignalCrime, domain.SignalCatastrophe},
		Validation:        domain.DefaultValidationPolicy(),
		DriverSchedule:    domain.DefaultDriverRiskSchedule(),
		VehicleSchedule:   domain.DefaultVehicleRiskSchedule(),
	}
}

// PolicyFromConfig builds a Policy from an already defaulted and validated
// rating section.  Coverage bounds and jurisdictions given in configuration
// are layered over the built-in ones.
func PolicyFromConfig(cfg config.RatingConfig) Policy {
	p := DefaultPolicy()
	p.DiscountCap = decimal.NewFromFloat(cfg.DiscountCap)
	p.FactorBounds = boundsFrom(cfg.FactorBounds)
	p.AIBounds = boundsFrom(cfg.AIMultiplierBounds)
	p.MaxFixedSurcharge = decimal.NewFromFloat(cfg.MaxFixedSurcharge)
	p.SignalTimeout = cfg.SignalTimeout
	p.AITimeout = cfg.AITimeout
	p.StoreTimeout = cfg.StoreTimeout
	p.CacheTTL = cfg.CacheTTL
	p.LatencyTarget = cfg.LatencyTarget
	p.Validation.OverrideThreshold = decimal.NewFromFloat(cfg.OverrideApprovalThreshold)

	// viper lower-cases map keys; states are upper-case in quotes.
	for cov, b := range cfg.CoverageBounds {
		if p.Validation.CoverageBounds == nil {
			p.Validation.CoverageBounds = make(map[domain.CoverageType]domain.PremiumBounds)
		}
		p.Validation.CoverageBounds[domain.CoverageType(strings.ToLower(cov))] = domain.PremiumBounds{
			Min: decimal.NewFromFloat(b.Min),
			Max: decimal.NewFromFloat(b.Max),
		}
	}
	for state, j := range cfg.Jurisdictions {
		if p.Validation.Jurisdictions == nil {
			p.Validation.Jurisdictions = make(map[string]domain.JurisdictionRule)
		}
		st := strings.ToUpper(state)
		rule := domain.JurisdictionRule{
			State:         st,
			MinimumLimits: make(map[domain.CoverageType]decimal.Decimal, len(j.MinimumLimits)),
			MinPremium:    decimal.NewFromFloat(j.MinPremium),
			MaxPremium:    decimal.NewFromFloat(j.MaxPremium),
		}
		for cov, limit := range j.MinimumLimits {
			rule.MinimumLimits[domain.CoverageType(strings.ToLower(cov))] = decimal.NewFromFloat(limit)
		}
		for _, cov := range j.RequiredCoverages {
			rule.RequiredCoverages = append(rule.RequiredCoverages, domain.CoverageType(strings.ToLower(cov)))
		}
		p.Validation.Jurisdictions[st] = rule
	}
	return p
}

func boundsFrom(b config.BoundsConfig) domain.FactorBounds {
	return domain.FactorBounds{Min: decimal.NewFromFloat(b.Min), Max: decimal.NewFromFloat(b.Max)}
}

// pipeline is the set of domain stages compiled from one Policy.
type pipeline struct {
	policy    Policy
	drivers   *domain.DriverRiskCalculator
	vehicles  *domain.VehicleRiskCalculator
	discounts *domain.DiscountEngine
	surcharge *domain.SurchargeEngine
	validator *domain.BusinessRuleValidator
	territory *domain.TerritoryResolver
}

func compile(p Policy, territories domain.TerritoryStore) *pipeline {
	return &pipeline{
		policy:    p,
		territory: domain.NewTerritoryResolver(territories, p.FactorBounds),
		drivers:   domain.NewDriverRiskCalculator(p.DriverSchedule, p.FactorBounds),
		vehicles:  domain.NewVehicleRiskCalculator(p.VehicleSchedule, p.FactorBounds),
		discounts: domain.NewDiscountEngine(p.DiscountCap),
		surcharge: domain.NewSurchargeEngine(p.FactorBounds, p.MaxFixedSurcharge),
		validator: domain.NewBusinessRuleValidator(p.Validation),
	}
}

//Personal.AI order the ending
