package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/RateCraft/internal/domain/rating"
)

var seedEffective = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Base rates per unit of limit, by state and coverage.
var autoRates = map[string]map[rating.CoverageType]string{
	"CA": {
		rating.CoverageLiability: "0.0035", rating.CoverageCollision: "0.012", rating.CoverageComprehensive: "0.006",
		rating.CoveragePersonalInjury: "0.010", rating.CoverageUninsuredMotorist: "0.0020", rating.CoverageMedicalPayments: "0.008",
	},
	"TX": {
		rating.CoverageLiability: "0.0040", rating.CoverageCollision: "0.014", rating.CoverageComprehensive: "0.007",
		rating.CoveragePersonalInjury: "0.012", rating.CoverageUninsuredMotorist: "0.0025", rating.CoverageMedicalPayments: "0.009",
	},
	"FL": {
		rating.CoverageLiability: "0.0050", rating.CoverageCollision: "0.015", rating.CoverageComprehensive: "0.009",
		rating.CoveragePersonalInjury: "0.020", rating.CoverageUninsuredMotorist: "0.0030", rating.CoverageMedicalPayments: "0.010",
	},
	"NY": {
		rating.CoverageLiability: "0.0045", rating.CoverageCollision: "0.013", rating.CoverageComprehensive: "0.006",
		rating.CoveragePersonalInjury: "0.015", rating.CoverageUninsuredMotorist: "0.0030", rating.CoverageMedicalPayments: "0.009",
	},
}

var homeownersRates = map[rating.CoverageType]string{
	rating.CoverageHomeownersDwelling:  "0.0035",
	rating.CoverageHomeownersContents:  "0.0020",
	rating.CoverageHomeownersLiability: "0.0008",
}

// DefaultRateTables returns the built-in rate filings.  Every scope has one
// active version; CA liability also carries an archived version 1 so the
// version selection is visible in demos.
func DefaultRateTables() []rating.RateTable {
	var out []rating.RateTable
	add := func(state string, product rating.ProductType, cov rating.CoverageType, version int, rate string, status rating.RateTableStatus, eff time.Time) {
		out = append(out, rating.RateTable{
			ID:            fmt.Sprintf("%s-%s-%s-v%d", strings.ToLower(state), product, cov, version),
			Scope:         rating.RateScope{State: state, ProductType: product, CoverageType: cov},
			Version:       version,
			BaseRate:      decimal.RequireFromString(rate),
			EffectiveDate: eff,
			Status:        status,
		})
	}

	for _, state := range []string{"CA", "FL", "NY", "TX"} {
		for _, cov := range []rating.CoverageType{
			rating.CoverageLiability, rating.CoverageCollision, rating.CoverageComprehensive,
			rating.CoveragePersonalInjury, rating.CoverageUninsuredMotorist, rating.CoverageMedicalPayments,
		} {
			add(state, rating.ProductAuto, cov, 2, autoRates[state][cov], rating.RateTableActive, seedEffective)
		}
		for _, cov := range []rating.CoverageType{
			rating.CoverageHomeownersDwelling, rating.CoverageHomeownersContents, rating.CoverageHomeownersLiability,
		} {
			add(state, rating.ProductHomeowners, cov, 1, homeownersRates[cov], rating.RateTableActive, seedEffective)
		}
	}
	add("CA", rating.ProductAuto, rating.CoverageLiability, 1, "0.0031", rating.RateTableArchived, seedEffective.AddDate(-2, 0, 0))
	return out
}

// DefaultStatewideStats returns the statewide loss-cost baselines.
func DefaultStatewideStats() []rating.StatewideStats {
	return []rating.StatewideStats{
		{State: "CA", BaseLossCost: decimal.NewFromInt(500), AverageLossCost: decimal.NewFromInt(520), CredibilityThreshold: 1000},
		{State: "FL", BaseLossCost: decimal.NewFromInt(560), AverageLossCost: decimal.NewFromInt(600), CredibilityThreshold: 1000},
		{State: "NY", BaseLossCost: decimal.NewFromInt(610), AverageLossCost: decimal.NewFromInt(610), CredibilityThreshold: 1500},
		{State: "TX", BaseLossCost: decimal.NewFromInt(450), AverageLossCost: decimal.NewFromInt(450), CredibilityThreshold: 1000},
	}
}

// DefaultTerritoryStats returns loss experience for a handful of territories.
func DefaultTerritoryStats() []rating.TerritoryStats {
	return []rating.TerritoryStats{
		{State: "CA", Code: "90210", LocalLossCost: decimal.NewFromInt(620), Observations: 2500},
		{State: "CA", Code: "94105", LocalLossCost: decimal.NewFromInt(580), Observations: 1800},
		{State: "CA", Code: "93555", LocalLossCost: decimal.NewFromInt(400), Observations: 90},
		{State: "FL", Code: "33101", LocalLossCost: decimal.NewFromInt(700), Observations: 1200},
		{State: "NY", Code: "10001", LocalLossCost: decimal.NewFromInt(760), Observations: 3000},
		{State: "TX", Code: "77001", LocalLossCost: decimal.NewFromInt(480), Observations: 250},
	}
}

//Personal.AI order the ending
