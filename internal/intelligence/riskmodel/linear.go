package riskmodel

import (
	"math"

	domain "github.com/turtacn/RateCraft/internal/domain/rating"
)

// DefaultModelVersion identifies the built-in coefficients.
const DefaultModelVersion = "linear-2026.05"

// Coefficient is one term of the log-linear model.  A feature contributes
// Weight * (clamp(x, Min, Max) - Reference).
type Coefficient struct {
	Feature   string
	Weight    float64
	Reference float64
	Min       float64
	Max       float64
}

// LinearModel is a log-linear risk model: multiplier = exp(Intercept + sum
// of contributions).  Values outside a coefficient's training range are
// clamped and lower the reported confidence.
type LinearModel struct {
	Version      string
	Intercept    float64
	Coefficients []Coefficient
}

// DefaultLinearModel returns the built-in model.  Its references describe a
// 40 year old driver with ten clean years, a five year old vehicle at 12k
// miles, two safety features and a single policy, which scores 1.0.
func DefaultLinearModel() *LinearModel {
	return &LinearModel{
		Version: DefaultModelVersion,
		Coefficients: []Coefficient{
			{FeatureDriverAge, -0.006, 40, 16, 90},
			{FeatureYearsLicensed, -0.005, 10, 0, 60},
			{FeatureViolations, 0.06, 0, 0, 10},
			{FeatureAccidents, 0.09, 0, 0, 10},
			{FeatureDUI, 0.25, 0, 0, 5},
			{FeatureVehicleAge, 0.008, 5, 0, 40},
			{FeatureMileage, 0.004, 12, 0, 60},
			{FeatureSafetyFeatures, -0.015, 2, 0, 8},
			{FeaturePolicyCount, -0.02, 1, 1, 6},
		},
	}
}

// Evaluate returns the linear score, per-feature contributions in
// coefficient order, and a confidence in [0.5, 1].
func (m *LinearModel) Evaluate(features []Feature) (float64, []domain.FeatureContribution, float64) {
	values := featureMap(features)
	score := m.Intercept
	contributions := make([]domain.FeatureContribution, 0, len(m.Coefficients))
	outOfRange := 0

	for _, c := range m.Coefficients {
		x, ok := values[c.Feature]
		if !ok {
			outOfRange++
			x = c.Reference
		}
		clamped := math.Min(math.Max(x, c.Min), c.Max)
		if clamped != x {
			outOfRange++
		}
		contrib := c.Weight * (clamped - c.Reference)
		score += contrib
		contributions = append(contributions, domain.FeatureContribution{
			Feature:      c.Feature,
			Value:        x,
			Contribution: round(contrib, 6),
		})
	}

	confidence := 1.0
	if n := len(m.Coefficients); n > 0 {
		confidence -= 0.5 * float64(outOfRange) / float64(n)
	}
	return score, contributions, confidence
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

//Personal.AI order the ending
