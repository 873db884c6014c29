package rating

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Driver risk

// AgeBand adds Penalty for drivers whose age is in [MinAge, MaxAge].
type AgeBand struct {
	MinAge  int
	MaxAge  int
	Penalty decimal.Decimal
}

// ExperienceBand adds Penalty for drivers licensed fewer than BelowYears.
// Only the first matching band (in ascending BelowYears order) applies.
type ExperienceBand struct {
	BelowYears int
	Penalty    decimal.Decimal
}

// DriverRiskSchedule holds the additive penalty schedule.
//
// The driver factor is 1.0 plus the sum of all matching penalties, mapped onto
// the multiplicative scale and clamped to the global factor bounds:
//
//	factor = clamp(1 + age + experience + n_viol×ViolationPenalty
//	             + n_acc×AccidentPenalty + n_dui×DUIPenalty − clean_credit)
type DriverRiskSchedule struct {
	AgeBands          []AgeBand
	ExperienceBands   []ExperienceBand
	ViolationPenalty  decimal.Decimal
	AccidentPenalty   decimal.Decimal
	DUIPenalty        decimal.Decimal
	CleanRecordCredit decimal.Decimal
	// CleanRecordMinYears is the experience needed for the clean credit.
	CleanRecordMinYears int
}

// DefaultDriverRiskSchedule returns the standard schedule.
func DefaultDriverRiskSchedule() DriverRiskSchedule {
	return DriverRiskSchedule{
		AgeBands: []AgeBand{
			{MinAge: 0, MaxAge: 19, Penalty: Money("0.60")},
			{MinAge: 20, MaxAge: 24, Penalty: Money("0.30")},
			{MinAge: 25, MaxAge: 29, Penalty: Money("0.10")},
			{MinAge: 65, MaxAge: 74, Penalty: Money("0.10")},
			{MinAge: 75, MaxAge: 200, Penalty: Money("0.25")},
		},
		ExperienceBands: []ExperienceBand{
			{BelowYears: 1, Penalty: Money("0.30")},
			{BelowYears: 3, Penalty: Money("0.20")},
			{BelowYears: 5, Penalty: Money("0.10")},
		},
		ViolationPenalty:    Money("0.15"),
		AccidentPenalty:     Money("0.25"),
		DUIPenalty:          Money("0.75"),
		CleanRecordCredit:   Money("0.05"),
		CleanRecordMinYears: 10,
	}
}

// DriverRiskCalculator computes the driver_risk factor.
type DriverRiskCalculator struct {
	schedule DriverRiskSchedule
	bounds   FactorBounds
}

// NewDriverRiskCalculator creates a calculator.
func NewDriverRiskCalculator(schedule DriverRiskSchedule, bounds FactorBounds) *DriverRiskCalculator {
	bands := append([]ExperienceBand(nil), schedule.ExperienceBands...)
	sort.Slice(bands, func(i, j int) bool { return bands[i].BelowYears < bands[j].BelowYears })
	schedule.ExperienceBands = bands
	return &DriverRiskCalculator{schedule: schedule, bounds: bounds}
}

// Score returns the unclamped multiplier for one driver.
func (c *DriverRiskCalculator) Score(d DriverInfo) decimal.Decimal {
	s := c.schedule
	factor := one
	for _, band := range s.AgeBands {
		if d.Age >= band.MinAge && d.Age <= band.MaxAge {
			factor = factor.Add(band.Penalty)
			break
		}
	}
	for _, band := range s.ExperienceBands {
		if d.YearsLicensed < band.BelowYears {
			factor = factor.Add(band.Penalty)
			break
		}
	}
	factor = factor.
		Add(s.ViolationPenalty.Mul(decimal.NewFromInt(int64(d.Violations)))).
		Add(s.AccidentPenalty.Mul(decimal.NewFromInt(int64(d.Accidents)))).
		Add(s.DUIPenalty.Mul(decimal.NewFromInt(int64(d.DUIConvictions))))
	if d.CleanRecord() && d.YearsLicensed >= s.CleanRecordMinYears {
		factor = factor.Sub(s.CleanRecordCredit)
	}
	return factor
}

// Calculate rates the highest-risk driver on the quote.  Taking the maximum
// makes the result independent of driver order.
func (c *DriverRiskCalculator) Calculate(drivers []DriverInfo) Factor {
	if len(drivers) == 0 {
		return NeutralFactor(FactorDriverRisk)
	}
	worst := c.Score(drivers[0])
	for _, d := range drivers[1:] {
		if s := c.Score(d); s.GreaterThan(worst) {
			worst = s
		}
	}
	return Factor{Name: FactorDriverRisk, Multiplier: c.bounds.Clamp(worst), Source: SourceRule}
}

// Vehicle risk

// MileageBand adjusts the factor when annual mileage is above MinMileage.
type MileageBand struct {
	MinMileage int
	Adjustment decimal.Decimal
}

// VehicleRiskSchedule holds class multipliers and adjustments.
type VehicleRiskSchedule struct {
	ClassBase    map[VehicleType]decimal.Decimal
	UnknownClass decimal.Decimal
	// NewVehicleAdjustment applies to vehicles at most NewVehicleMaxAge old.
	NewVehicleMaxAge     int
	NewVehicleAdjustment decimal.Decimal
	// AgedVehicleAdjustment applies from AgedVehicleMinAge, OldVehicle* from OldVehicleMinAge.
	AgedVehicleMinAge     int
	AgedVehicleAdjustment decimal.Decimal
	OldVehicleMinAge      int
	OldVehicleAdjustment  decimal.Decimal
	// MileageBands are matched highest MinMileage first.
	MileageBands         []MileageBand
	LowMileageThreshold  int
	LowMileageAdjustment decimal.Decimal
	// RecognizedSafetyFeatures earn SafetyFeatureCredit each, up to MaxSafetyCredit.
	RecognizedSafetyFeatures map[string]bool
	SafetyFeatureCredit      decimal.Decimal
	MaxSafetyCredit          decimal.Decimal
}

// DefaultVehicleRiskSchedule returns the standard schedule.
func DefaultVehicleRiskSchedule() VehicleRiskSchedule {
	return VehicleRiskSchedule{
		ClassBase: map[VehicleType]decimal.Decimal{
			VehicleSedan:      Money("1.00"),
			VehicleSUV:        Money("1.05"),
			VehicleTruck:      Money("1.10"),
			VehicleMinivan:    Money("0.95"),
			VehicleSports:     Money("1.40"),
			VehicleLuxury:     Money("1.25"),
			VehicleElectric:   Money("1.00"),
			VehicleMotorcycle: Money("1.50"),
		},
		UnknownClass:          Money("1.10"),
		NewVehicleMaxAge:      1,
		NewVehicleAdjustment:  Money("0.10"),
		AgedVehicleMinAge:     6,
		AgedVehicleAdjustment: Money("-0.05"),
		OldVehicleMinAge:      11,
		OldVehicleAdjustment:  Money("-0.10"),
		MileageBands: []MileageBand{
			{MinMileage: 25000, Adjustment: Money("0.20")},
			{MinMileage: 15000, Adjustment: Money("0.10")},
		},
		LowMileageThreshold:  7500,
		LowMileageAdjustment: Money("-0.05"),
		RecognizedSafetyFeatures: map[string]bool{
			"abs":                          true,
			"airbags":                      true,
			"anti_theft":                   true,
			"automatic_emergency_braking":  true,
			"blind_spot_monitoring":        true,
			"lane_departure_warning":       true,
			"adaptive_cruise_control":      true,
			"backup_camera":                true,
			"electronic_stability_control": true,
			"forward_collision_warning":    true,
		},
		SafetyFeatureCredit: Money("0.03"),
		MaxSafetyCredit:     Money("0.15"),
	}
}

// VehicleRiskCalculator computes the vehicle_risk factor.
type VehicleRiskCalculator struct {
	schedule VehicleRiskSchedule
	bounds   FactorBounds
}

// NewVehicleRiskCalculator creates a calculator.
func NewVehicleRiskCalculator(schedule VehicleRiskSchedule, bounds FactorBounds) *VehicleRiskCalculator {
	bands := append([]MileageBand(nil), schedule.MileageBands...)
	sort.Slice(bands, func(i, j int) bool { return bands[i].MinMileage > bands[j].MinMileage })
	schedule.MileageBands = bands
	return &VehicleRiskCalculator{schedule: schedule, bounds: bounds}
}

// Score returns the unclamped multiplier for one vehicle rated in year.
func (c *VehicleRiskCalculator) Score(v VehicleInfo, year int) decimal.Decimal {
	s := c.schedule
	factor, ok := s.ClassBase[v.Type]
	if !ok {
		factor = s.UnknownClass
	}

	age := year - v.ModelYear
	switch {
	case age <= s.NewVehicleMaxAge:
		factor = factor.Add(s.NewVehicleAdjustment)
	case age >= s.OldVehicleMinAge:
		factor = factor.Add(s.OldVehicleAdjustment)
	case age >= s.AgedVehicleMinAge:
		factor = factor.Add(s.AgedVehicleAdjustment)
	}

	matched := false
	for _, band := range s.MileageBands {
		if v.AnnualMileage > band.MinMileage {
			factor = factor.Add(band.Adjustment)
			matched = true
			break
		}
	}
	if !matched && v.AnnualMileage < s.LowMileageThreshold {
		factor = factor.Add(s.LowMileageAdjustment)
	}

	credit := zero
	for f := range uniqueFeatures(v.SafetyFeatures) {
		if s.RecognizedSafetyFeatures[f] {
			credit = credit.Add(s.SafetyFeatureCredit)
		}
	}
	return factor.Sub(minDecimal(credit, s.MaxSafetyCredit))
}

// Calculate averages the vehicle scores.  The mean is order independent.
func (c *VehicleRiskCalculator) Calculate(vehicles []VehicleInfo, year int) Factor {
	if len(vehicles) == 0 {
		return NeutralFactor(FactorVehicleRisk)
	}
	sum := zero
	for _, v := range vehicles {
		sum = sum.Add(c.Score(v, year))
	}
	mean := sum.DivRound(decimal.NewFromInt(int64(len(vehicles))), 8)
	return Factor{Name: FactorVehicleRisk, Multiplier: c.bounds.Clamp(mean), Source: SourceRule}
}

//Personal.AI order the ending
