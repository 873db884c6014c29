package testutil

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/pkg/errors"
)

// Reference dates for the fixture quotes.  Now is before Effective so the
// quotes validate under a fixed clock.
var (
	FixtureNow       = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	FixtureEffective = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
)

// FixedClock returns a clock that always reads t.
func FixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func deductible(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// NewCAQuote: experienced clean driver in 90210 with a well-equipped sedan,
// liability 300k plus physical damage, two policies.
func NewCAQuote() *rating.Quote {
	return &rating.Quote{
		ID:            "Q-CA-001",
		State:         "CA",
		EffectiveDate: FixtureEffective,
		TerritoryCode: "90210",
		Drivers:       []rating.DriverInfo{{Age: 35, YearsLicensed: 17, LicenseJurisdiction: "CA"}},
		Vehicles: []rating.VehicleInfo{{
			ModelYear:      2022,
			Type:           rating.VehicleSedan,
			AnnualMileage:  12000,
			SafetyFeatures: []string{"abs", "airbags", "backup_camera", "blind_spot_monitoring"},
			AssessedValue:  decimal.NewFromInt(28000),
		}},
		Coverages: []rating.CoverageSelection{
			{Type: rating.CoverageLiability, Limit: decimal.NewFromInt(300000)},
			{Type: rating.CoverageCollision, Limit: decimal.NewFromInt(50000), Deductible: deductible(500)},
			{Type: rating.CoverageComprehensive, Limit: decimal.NewFromInt(50000), Deductible: deductible(500)},
		},
		Customer: &rating.CustomerData{PolicyCount: 2},
	}
}

// NewTXQuote: 19-year-old with three violations and an accident in a sports
// car, state-minimum liability plus collision.
func NewTXQuote() *rating.Quote {
	return &rating.Quote{
		ID:            "Q-TX-001",
		State:         "TX",
		EffectiveDate: FixtureEffective,
		TerritoryCode: "77001",
		Drivers:       []rating.DriverInfo{{Age: 19, YearsLicensed: 1, Violations: 3, Accidents: 1, LicenseJurisdiction: "TX"}},
		Vehicles: []rating.VehicleInfo{{
			ModelYear:      2024,
			Type:           rating.VehicleSports,
			AnnualMileage:  14000,
			SafetyFeatures: []string{"abs", "airbags"},
			AssessedValue:  decimal.NewFromInt(45000),
		}},
		Coverages: []rating.CoverageSelection{
			{Type: rating.CoverageLiability, Limit: decimal.NewFromInt(30000)},
			{Type: rating.CoverageCollision, Limit: decimal.NewFromInt(25000), Deductible: deductible(1000)},
		},
	}
}

// NewFLQuote: one DUI conviction, liability and PIP.
func NewFLQuote() *rating.Quote {
	return &rating.Quote{
		ID:            "Q-FL-001",
		State:         "FL",
		EffectiveDate: FixtureEffective,
		TerritoryCode: "33101",
		Drivers:       []rating.DriverInfo{{Age: 40, YearsLicensed: 20, DUIConvictions: 1, LicenseJurisdiction: "FL"}},
		Vehicles: []rating.VehicleInfo{{
			ModelYear:     2020,
			Type:          rating.VehicleSUV,
			AnnualMileage: 11000,
			AssessedValue: decimal.NewFromInt(30000),
		}},
		Coverages: []rating.CoverageSelection{
			{Type: rating.CoverageLiability, Limit: decimal.NewFromInt(50000)},
			{Type: rating.CoveragePersonalInjury, Limit: decimal.NewFromInt(10000)},
		},
	}
}

// SignalProvider is a scriptable rating.ExternalSignalProvider.
type SignalProvider struct {
	Multipliers map[rating.SignalKind]decimal.Decimal
	Err         error
	// Delay is slept before answering; the sleep ignores ctx, like a
	// misbehaving remote client.
	Delay time.Duration
	Calls atomic.Int64
}

func (p *SignalProvider) FetchSignal(_ context.Context, kind rating.SignalKind, _ rating.Location) (rating.SignalReading, error) {
	p.Calls.Add(1)
	if p.Delay > 0 {
		time.Sleep(p.Delay)
	}
	if p.Err != nil {
		return rating.SignalReading{}, p.Err
	}
	m, ok := p.Multipliers[kind]
	if !ok {
		m = decimal.NewFromInt(1)
	}
	return rating.SignalReading{Kind: kind, Multiplier: m, Provider: "test"}, nil
}

// Scorer is a scriptable rating.AIRiskScorer.
type Scorer struct {
	Multiplier decimal.Decimal
	Version    string
	Err        error
	Delay      time.Duration
}

func (s *Scorer) Score(ctx context.Context, _ *rating.Quote) (*rating.AIScore, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return &rating.AIScore{
		Multiplier:    s.Multiplier,
		ModelVersion:  s.Version,
		Confidence:    0.9,
		Contributions: []rating.FeatureContribution{{Feature: "driver_age", Value: 35, Contribution: -0.01}},
	}, nil
}

func (s *Scorer) ModelVersion() string { return s.Version }

// BrokenCache fails every operation, standing in for an unreachable Redis.
type BrokenCache struct {
	Calls atomic.Int64
}

var errCacheDown = errors.New(errors.ErrCodeCacheError, "cache unavailable")

func (c *BrokenCache) Get(context.Context, string, interface{}) error {
	c.Calls.Add(1)
	return errCacheDown
}

func (c *BrokenCache) Set(context.Context, string, interface{}, time.Duration) error {
	c.Calls.Add(1)
	return errCacheDown
}

func (c *BrokenCache) Delete(context.Context, ...string) error {
	c.Calls.Add(1)
	return errCacheDown
}

func (c *BrokenCache) DeleteByPrefix(context.Context, string) (int64, error) {
	c.Calls.Add(1)
	return 0, errCacheDown
}

// SlowCache misses every read and accepts every write after Delay,
// ignoring ctx like a wedged connection would.
type SlowCache struct {
	Delay time.Duration
}

func (c *SlowCache) Get(context.Context, string, interface{}) error {
	time.Sleep(c.Delay)
	return errors.New(errors.ErrCodeCacheMiss, "cache miss")
}

func (c *SlowCache) Set(context.Context, string, interface{}, time.Duration) error {
	time.Sleep(c.Delay)
	return nil
}

func (c *SlowCache) Delete(context.Context, ...string) error { return nil }

func (c *SlowCache) DeleteByPrefix(context.Context, string) (int64, error) { return 0, nil }

//Personal.AI order the ending
