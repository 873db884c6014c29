package rating

import (
	"time"

	"github.com/shopspring/decimal"
)

// catalogEffective is the effective date of the built-in rule catalog.
var catalogEffective = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Discount codes of the built-in catalog.
const (
	DiscountMultiPolicy    = "MULTI_POLICY"
	DiscountSafeDriver     = "SAFE_DRIVER"
	DiscountSafetyFeatures = "SAFETY_FEATURES"
	DiscountLoyalty        = "LOYALTY"
	DiscountAccidentFree   = "ACCIDENT_FREE"
)

// Surcharge codes of the built-in catalog.
const (
	SurchargeDUI           = "DUI_CONVICTION"
	SurchargeHighRisk      = "HIGH_RISK_DRIVER"
	SurchargeAtFault       = "AT_FAULT_ACCIDENT"
	SurchargeYoungDriver   = "YOUNG_DRIVER"
	SurchargeInexperienced = "INEXPERIENCED_DRIVER"
	SurchargeSR22Filing    = "SR22_FILING_FEE"
)

// DefaultDiscountRules is the standard personal-auto discount catalog.
func DefaultDiscountRules() []Rule {
	return []Rule{
		{
			Code: DiscountMultiPolicy, Name: "Multi-policy discount", Kind: KindDiscount,
			Type: AdjustmentPercentage, Rate: Percent(10),
			Condition: RuleCondition{MinPolicyCount: IntPtr(2)},
			Priority: 10, Stackable: true, Active: true, EffectiveDate: catalogEffective,
		},
		{
			Code: DiscountSafeDriver, Name: "Safe driver discount", Kind: KindDiscount,
			Type: AdjustmentPercentage, Rate: Percent(8),
			Condition: RuleCondition{
				MaxViolations: IntPtr(0), MaxAccidents: IntPtr(0), MaxDUIConvictions: IntPtr(0),
				MinYearsLicensed: IntPtr(3),
			},
			Priority: 20, Stackable: false, Active: true, EffectiveDate: catalogEffective,
		},
		{
			Code: DiscountSafetyFeatures, Name: "Vehicle safety features discount", Kind: KindDiscount,
			Type: AdjustmentPercentage, Rate: Percent(5),
			Condition: RuleCondition{MinSafetyFeatures: IntPtr(3)},
			Priority: 30, Stackable: true, Active: true, EffectiveDate: catalogEffective,
		},
		{
			Code: DiscountLoyalty, Name: "Loyalty discount", Kind: KindDiscount,
			Type: AdjustmentTiered, TierBasis: TierByTenureYears,
			Tiers: []Tier{
				{Threshold: 3, Rate: Percent(3)},
				{Threshold: 5, Rate: Percent(5)},
				{Threshold: 10, Rate: Percent(8)},
			},
			Priority: 40, Stackable: true, Active: true, EffectiveDate: catalogEffective,
		},
		{
			Code: DiscountAccidentFree, Name: "Accident-free discount", Kind: KindDiscount,
			Type: AdjustmentPercentage, Rate: Percent(5),
			Condition: RuleCondition{MaxAccidents: IntPtr(0), MaxDUIConvictions: IntPtr(0), MinYearsLicensed: IntPtr(5)},
			Priority: 60, Stackable: false, Active: true, EffectiveDate: catalogEffective,
		},
	}
}

// DefaultSurchargeRules is the standard personal-auto surcharge catalog.
func DefaultSurchargeRules() []Rule {
	return []Rule{
		{
			Code: SurchargeDUI, Name: "DUI conviction surcharge", Kind: KindSurcharge,
			Type: AdjustmentPercentage, Rate: Percent(50),
			Condition: RuleCondition{MinDUIConvictions: IntPtr(1)},
			Priority: 5, Stackable: true, Active: true, EffectiveDate: catalogEffective,
			Flags: []RegulatoryFlag{FlagSR22},
		},
		{
			Code: SurchargeHighRisk, Name: "High-risk driver surcharge", Kind: KindSurcharge,
			Type: AdjustmentPercentage, Rate: Percent(25),
			Condition: RuleCondition{MinViolations: IntPtr(3)},
			Priority: 10, Stackable: true, Active: true, EffectiveDate: catalogEffective,
		},
		{
			Code: SurchargeAtFault, Name: "At-fault accident surcharge", Kind: KindSurcharge,
			Type: AdjustmentPercentage, Rate: Percent(15),
			Condition: RuleCondition{MinAccidents: IntPtr(1)},
			Priority: 20, Stackable: true, Active: true, EffectiveDate: catalogEffective,
		},
		{
			Code: SurchargeYoungDriver, Name: "Young driver surcharge", Kind: KindSurcharge,
			Type: AdjustmentPercentage, Rate: Percent(20),
			Condition: RuleCondition{MaxDriverAge: IntPtr(24)},
			Priority: 30, Stackable: true, Active: true, EffectiveDate: catalogEffective,
		},
		{
			Code: SurchargeInexperienced, Name: "Inexperienced driver surcharge", Kind: KindSurcharge,
			Type: AdjustmentPercentage, Rate: Percent(15),
			Condition: RuleCondition{MaxYearsLicensed: IntPtr(2)},
			Priority: 40, Stackable: true, Active: true, EffectiveDate: catalogEffective,
		},
		{
			Code: SurchargeSR22Filing, Name: "SR-22 filing fee", Kind: KindSurcharge,
			Type: AdjustmentFixed, Amount: decimal.NewFromInt(25),
			Condition: RuleCondition{RequiredFlags: []RegulatoryFlag{FlagSR22}},
			Priority: 90, Stackable: false, Active: true, EffectiveDate: catalogEffective,
		},
	}
}

//Personal.AI order the ending
