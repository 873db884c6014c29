// Package riskmodel implements the statistical risk multiplier that sits
// alongside the rule-based factors.  Every scorer returns its model version
// and per-feature contributions so the multiplier can be explained.
package riskmodel

import (
	domain "github.com/turtacn/RateCraft/internal/domain/rating"
)

// Feature names shared by the local model and the remote serving contract.
const (
	FeatureDriverAge      = "driver_age"
	FeatureYearsLicensed  = "years_licensed"
	FeatureViolations     = "violations"
	FeatureAccidents      = "accidents"
	FeatureDUI            = "dui"
	FeatureVehicleAge     = "vehicle_age"
	FeatureMileage        = "mileage_k"
	FeatureSafetyFeatures = "safety_features"
	FeaturePolicyCount    = "policy_count"
)

// Feature is one model input.
type Feature struct {
	Name  string
	Value float64
}

// ExtractFeatures flattens a quote into model inputs.  Driver features take
// the riskiest driver; vehicle features take the oldest vehicle and the
// average mileage.
func ExtractFeatures(q *domain.Quote) []Feature {
	vehicleAge, mileage := 0, 0
	for _, v := range q.Vehicles {
		if age := q.EffectiveDate.Year() - v.ModelYear; age > vehicleAge {
			vehicleAge = age
		}
		mileage += v.AnnualMileage
	}
	avgMileageK := 0.0
	if n := len(q.Vehicles); n > 0 {
		avgMileageK = float64(mileage) / float64(n) / 1000
	}

	return []Feature{
		{FeatureDriverAge, float64(q.YoungestDriverAge())},
		{FeatureYearsLicensed, float64(q.LeastExperience())},
		{FeatureViolations, float64(q.TotalViolations())},
		{FeatureAccidents, float64(q.TotalAccidents())},
		{FeatureDUI, float64(q.TotalDUIConvictions())},
		{FeatureVehicleAge, float64(vehicleAge)},
		{FeatureMileage, avgMileageK},
		{FeatureSafetyFeatures, float64(q.MaxSafetyFeatures())},
		{FeaturePolicyCount, float64(q.PolicyCount())},
	}
}

func featureMap(fs []Feature) map[string]float64 {
	m := make(map[string]float64, len(fs))
	for _, f := range fs {
		m[f.Name] = f.Value
	}
	return m
}

//Personal.AI order the ending
