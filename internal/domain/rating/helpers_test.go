package rating

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var testEffective = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.Truef(t, Money(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func deductible(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// newCAQuote: age 35, 17 years licensed, clean record, sedan with four
// safety features, liability 300k plus collision/comprehensive 50k, two policies.
func newCAQuote() *Quote {
	return &Quote{
		ID:            "Q-CA-001",
		State:         "CA",
		EffectiveDate: testEffective,
		TerritoryCode: "90210",
		Drivers:       []DriverInfo{{Age: 35, YearsLicensed: 17, LicenseJurisdiction: "CA"}},
		Vehicles: []VehicleInfo{{
			ModelYear:      2022,
			Type:           VehicleSedan,
			AnnualMileage:  12000,
			SafetyFeatures: []string{"abs", "airbags", "backup_camera", "blind_spot_monitoring"},
			AssessedValue:  decimal.NewFromInt(28000),
		}},
		Coverages: []CoverageSelection{
			{Type: CoverageLiability, Limit: decimal.NewFromInt(300000)},
			{Type: CoverageCollision, Limit: decimal.NewFromInt(50000), Deductible: deductible(500)},
			{Type: CoverageComprehensive, Limit: decimal.NewFromInt(50000), Deductible: deductible(500)},
		},
		Customer: &CustomerData{PolicyCount: 2},
	}
}

// newTXQuote: age 19, one year licensed, three violations and an accident,
// sports car with two safety features, state-minimum liability plus collision.
func newTXQuote() *Quote {
	return &Quote{
		ID:            "Q-TX-001",
		State:         "TX",
		EffectiveDate: testEffective,
		TerritoryCode: "77001",
		Drivers:       []DriverInfo{{Age: 19, YearsLicensed: 1, Violations: 3, Accidents: 1, LicenseJurisdiction: "TX"}},
		Vehicles: []VehicleInfo{{
			ModelYear:      2024,
			Type:           VehicleSports,
			AnnualMileage:  14000,
			SafetyFeatures: []string{"abs", "airbags"},
			AssessedValue:  decimal.NewFromInt(45000),
		}},
		Coverages: []CoverageSelection{
			{Type: CoverageLiability, Limit: decimal.NewFromInt(30000)},
			{Type: CoverageCollision, Limit: decimal.NewFromInt(25000), Deductible: deductible(1000)},
		},
	}
}

// newFLQuote: one DUI conviction.
func newFLQuote() *Quote {
	return &Quote{
		ID:            "Q-FL-001",
		State:         "FL",
		EffectiveDate: testEffective,
		TerritoryCode: "33101",
		Drivers:       []DriverInfo{{Age: 40, YearsLicensed: 20, DUIConvictions: 1, LicenseJurisdiction: "FL"}},
		Vehicles: []VehicleInfo{{
			ModelYear:     2020,
			Type:          VehicleSUV,
			AnnualMileage: 11000,
			AssessedValue: decimal.NewFromInt(30000),
		}},
		Coverages: []CoverageSelection{
			{Type: CoverageLiability, Limit: decimal.NewFromInt(50000)},
			{Type: CoveragePersonalInjury, Limit: decimal.NewFromInt(10000)},
		},
	}
}

//Personal.AI order the ending
