package rating

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/RateCraft/pkg/errors"
)

// RateTableStatus is the lifecycle state of a rate table version.
type RateTableStatus string

const (
	RateTableDraft    RateTableStatus = "draft"
	RateTablePending  RateTableStatus = "pending"
	RateTableApproved RateTableStatus = "approved"
	RateTableActive   RateTableStatus = "active"
	RateTableArchived RateTableStatus = "archived"
)

// RateScope identifies the series of versions a rate table belongs to.
type RateScope struct {
	State        string
	ProductType  ProductType
	CoverageType CoverageType
}

// RateTable is one filed version of base rates for a scope.
//
// BaseRate is applied per unit of coverage limit: base premium =
// limit × BaseRate.  MinPremium and MaxPremium, when positive, bound the
// coverage's contribution to the final premium.
type RateTable struct {
	ID             string
	Scope          RateScope
	Version        int
	BaseRate       decimal.Decimal
	MinPremium     decimal.Decimal
	MaxPremium     decimal.Decimal
	EffectiveDate  time.Time
	ExpirationDate *time.Time
	Status         RateTableStatus
}

// EffectiveOn reports whether the table's window contains date.  The
// expiration date is exclusive.
func (t RateTable) EffectiveOn(date time.Time) bool {
	if date.Before(t.EffectiveDate) {
		return false
	}
	if t.ExpirationDate != nil && !date.Before(*t.ExpirationDate) {
		return false
	}
	return true
}

// SelectActive picks the highest-version active table whose window contains
// asOf.  It fails with RateTableNotFound when none qualifies; there is no
// fallback to a draft, archived or expired version.
func SelectActive(tables []RateTable, scope RateScope, asOf time.Time) (RateTable, error) {
	var (
		best  RateTable
		found bool
	)
	for _, t := range tables {
		if t.Scope != scope || t.Status != RateTableActive || !t.EffectiveOn(asOf) {
			continue
		}
		if !found || t.Version > best.Version {
			best = t
			found = true
		}
	}
	if !found {
		return RateTable{}, errors.RateTableNotFound(scope.State, string(scope.ProductType), string(scope.CoverageType))
	}
	return best, nil
}

// RateTableStore is read-only access to versioned rate data and the rule
// catalogs, provided by the persistence layer.
type RateTableStore interface {
	// GetActiveRate returns the active, effective table for the scope or a
	// RateTableNotFound error.
	GetActiveRate(ctx context.Context, scope RateScope, asOf time.Time) (*RateTable, error)

	// GetDiscountRules returns the discount catalog for a state and product,
	// ordered by priority ascending.
	GetDiscountRules(ctx context.Context, state string, product ProductType) ([]Rule, error)

	// GetSurchargeRules is the surcharge counterpart of GetDiscountRules.
	GetSurchargeRules(ctx context.Context, state string, product ProductType) ([]Rule, error)
}

// TerritoryStore supplies the loss-cost statistics used by TerritoryResolver.
type TerritoryStore interface {
	// GetTerritoryStats returns NotFound when the code is unknown.
	GetTerritoryStats(ctx context.Context, state, code string) (*TerritoryStats, error)
	GetStatewideStats(ctx context.Context, state string) (*StatewideStats, error)
}

//Personal.AI order the ending
