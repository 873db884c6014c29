package rating

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/RateCraft/pkg/errors"
)

// MinimumLicensingAge is the youngest age a rated driver may have.
const MinimumLicensingAge = 15

// Coverage and product types

// CoverageType identifies a coverage line on a quote.
type CoverageType string

const (
	CoverageLiability           CoverageType = "liability"
	CoverageCollision           CoverageType = "collision"
	CoverageComprehensive       CoverageType = "comprehensive"
	CoveragePersonalInjury      CoverageType = "pip"
	CoverageUninsuredMotorist   CoverageType = "uninsured_motorist"
	CoverageMedicalPayments     CoverageType = "medical_payments"
	CoverageHomeownersDwelling  CoverageType = "dwelling"
	CoverageHomeownersContents  CoverageType = "personal_property"
	CoverageHomeownersLiability CoverageType = "personal_liability"
)

// ProductType identifies the rated product a set of coverages belongs to.
type ProductType string

const (
	ProductAuto       ProductType = "auto"
	ProductHomeowners ProductType = "homeowners"
)

var coverageProducts = map[CoverageType]ProductType{
	CoverageLiability:           ProductAuto,
	CoverageCollision:           ProductAuto,
	CoverageComprehensive:       ProductAuto,
	CoveragePersonalInjury:      ProductAuto,
	CoverageUninsuredMotorist:   ProductAuto,
	CoverageMedicalPayments:     ProductAuto,
	CoverageHomeownersDwelling:  ProductHomeowners,
	CoverageHomeownersContents:  ProductHomeowners,
	CoverageHomeownersLiability: ProductHomeowners,
}

// Known reports whether c is a coverage type the engine can rate.
func (c CoverageType) Known() bool {
	_, ok := coverageProducts[c]
	return ok
}

// InferProductType derives the product from the selected coverage types.
// All coverages must belong to the same product.
func InferProductType(coverages []CoverageSelection) (ProductType, error) {
	if len(coverages) == 0 {
		return "", errors.InvalidCoverage("at least one coverage must be selected")
	}
	var product ProductType
	for _, c := range coverages {
		p, ok := coverageProducts[c.Type]
		if !ok {
			return "", errors.InvalidCoverage(fmt.Sprintf("unsupported coverage type %q", c.Type))
		}
		if product != "" && p != product {
			return "", errors.InvalidCoverage("coverages span multiple products").
				WithDetail(fmt.Sprintf("%s and %s", product, p))
		}
		product = p
	}
	return product, nil
}

// Quote context

// DriverInfo describes one rated driver.  Counts cover a three-year window.
type DriverInfo struct {
	Age                 int
	YearsLicensed       int
	Violations          int
	Accidents           int
	DUIConvictions      int
	LicenseJurisdiction string
}

// CleanRecord reports whether the driver has no violations, accidents or DUIs.
func (d DriverInfo) CleanRecord() bool {
	return d.Violations == 0 && d.Accidents == 0 && d.DUIConvictions == 0
}

// VehicleType is the rating class of a vehicle.
type VehicleType string

const (
	VehicleSedan      VehicleType = "sedan"
	VehicleSUV        VehicleType = "suv"
	VehicleTruck      VehicleType = "truck"
	VehicleMinivan    VehicleType = "minivan"
	VehicleSports     VehicleType = "sports"
	VehicleLuxury     VehicleType = "luxury"
	VehicleElectric   VehicleType = "electric"
	VehicleMotorcycle VehicleType = "motorcycle"
)

// VehicleInfo describes one rated vehicle.
type VehicleInfo struct {
	ModelYear      int
	Type           VehicleType
	AnnualMileage  int
	SafetyFeatures []string
	AssessedValue  decimal.Decimal
}

// CoverageSelection is one selected coverage line.  The premium is rated on
// Limit alone; Deductible is validated and echoed on the coverage's result
// line but filed rate tables carry no deductible credit.
type CoverageSelection struct {
	Type       CoverageType
	Limit      decimal.Decimal
	Deductible *decimal.Decimal
}

// CustomerData carries the optional relationship attributes used by
// multi-policy and loyalty rules.
type CustomerData struct {
	PolicyCount  int
	TenureYears  int
	PriorInsurer string
}

// Quote is the immutable rating input for one calculation.
type Quote struct {
	ID            string
	State         string
	EffectiveDate time.Time
	TerritoryCode string
	Drivers       []DriverInfo
	Vehicles      []VehicleInfo
	Coverages     []CoverageSelection
	Customer      *CustomerData
}

// Validate checks the structural invariants of the quote.  Jurisdictional
// checks such as minimum limits live in BusinessRuleValidator.
func (q *Quote) Validate(now time.Time) error {
	if q == nil {
		return errors.InvalidParam("quote must not be nil")
	}
	if strings.TrimSpace(q.ID) == "" {
		return errors.InvalidParam("quote id must not be empty")
	}
	if len(q.State) != 2 {
		return errors.InvalidParam(fmt.Sprintf("state must be a two-letter code, got %q", q.State))
	}
	if q.EffectiveDate.IsZero() {
		return errors.InvalidParam("effective date must be set")
	}
	if len(q.Drivers) == 0 {
		return errors.InvalidParam("at least one driver is required")
	}
	for i, d := range q.Drivers {
		if d.Age < MinimumLicensingAge {
			return errors.InvalidParam(fmt.Sprintf("driver %d: age %d below minimum licensing age", i, d.Age))
		}
		if d.YearsLicensed < 0 || d.Violations < 0 || d.Accidents < 0 || d.DUIConvictions < 0 {
			return errors.InvalidParam(fmt.Sprintf("driver %d: counts must be non-negative", i))
		}
		if d.YearsLicensed > d.Age-MinimumLicensingAge+1 {
			return errors.InvalidParam(fmt.Sprintf("driver %d: years licensed exceeds possible driving years", i))
		}
	}
	if len(q.Vehicles) == 0 {
		return errors.InvalidParam("at least one vehicle is required")
	}
	for i, v := range q.Vehicles {
		if v.ModelYear > now.Year()+1 {
			return errors.InvalidParam(fmt.Sprintf("vehicle %d: model year %d is in the future", i, v.ModelYear))
		}
		if v.AnnualMileage < 0 {
			return errors.InvalidParam(fmt.Sprintf("vehicle %d: annual mileage must be non-negative", i))
		}
	}
	if len(q.Coverages) == 0 {
		return errors.InvalidCoverage("at least one coverage must be selected")
	}
	seen := make(map[CoverageType]bool, len(q.Coverages))
	for _, c := range q.Coverages {
		if seen[c.Type] {
			return errors.InvalidCoverage(fmt.Sprintf("coverage %q selected more than once", c.Type))
		}
		seen[c.Type] = true
		if !c.Limit.IsPositive() {
			return errors.InvalidCoverage(fmt.Sprintf("coverage %q limit must be positive", c.Type))
		}
		if c.Deductible != nil && c.Deductible.IsNegative() {
			return errors.InvalidCoverage(fmt.Sprintf("coverage %q deductible must be non-negative", c.Type))
		}
	}
	return nil
}

// HasCoverage reports whether the quote selects the coverage type.
func (q *Quote) HasCoverage(t CoverageType) bool {
	for _, c := range q.Coverages {
		if c.Type == t {
			return true
		}
	}
	return false
}

// Coverage returns the selection for t, if any.
func (q *Quote) Coverage(t CoverageType) (CoverageSelection, bool) {
	for _, c := range q.Coverages {
		if c.Type == t {
			return c, true
		}
	}
	return CoverageSelection{}, false
}

// YoungestDriverAge returns the lowest driver age on the quote.
func (q *Quote) YoungestDriverAge() int {
	youngest := 0
	for i, d := range q.Drivers {
		if i == 0 || d.Age < youngest {
			youngest = d.Age
		}
	}
	return youngest
}

// LeastExperience returns the lowest years-licensed value on the quote.
func (q *Quote) LeastExperience() int {
	least := 0
	for i, d := range q.Drivers {
		if i == 0 || d.YearsLicensed < least {
			least = d.YearsLicensed
		}
	}
	return least
}

// TotalViolations sums violations across drivers.
func (q *Quote) TotalViolations() int {
	n := 0
	for _, d := range q.Drivers {
		n += d.Violations
	}
	return n
}

// TotalAccidents sums accidents across drivers.
func (q *Quote) TotalAccidents() int {
	n := 0
	for _, d := range q.Drivers {
		n += d.Accidents
	}
	return n
}

// TotalDUIConvictions sums DUI convictions across drivers.
func (q *Quote) TotalDUIConvictions() int {
	n := 0
	for _, d := range q.Drivers {
		n += d.DUIConvictions
	}
	return n
}

// MaxSafetyFeatures returns the largest distinct safety-feature count among
// the quote's vehicles.
func (q *Quote) MaxSafetyFeatures() int {
	max := 0
	for _, v := range q.Vehicles {
		if n := len(uniqueFeatures(v.SafetyFeatures)); n > max {
			max = n
		}
	}
	return max
}

// PolicyCount returns the customer's policy count, defaulting to 1.
func (q *Quote) PolicyCount() int {
	if q.Customer == nil || q.Customer.PolicyCount < 1 {
		return 1
	}
	return q.Customer.PolicyCount
}

// TenureYears returns the customer's tenure, defaulting to 0.
func (q *Quote) TenureYears() int {
	if q.Customer == nil {
		return 0
	}
	return q.Customer.TenureYears
}

func uniqueFeatures(features []string) map[string]struct{} {
	out := make(map[string]struct{}, len(features))
	for _, f := range features {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out[f] = struct{}{}
		}
	}
	return out
}

//Personal.AI order the ending
