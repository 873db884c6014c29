// Package memory provides in-process implementations of the rating store and
// cache collaborators.  They back the CLI's demo mode and the test suites,
// and behave like their PostgreSQL and Redis counterparts at the interface
// boundary.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/pkg/errors"
)

type territoryKey struct {
	state string
	code  string
}

// RatingStore is a concurrency-safe RateTableStore and TerritoryStore.
type RatingStore struct {
	mu          sync.RWMutex
	tables      []rating.RateTable
	discounts   []rating.Rule
	surcharges  []rating.Rule
	territories map[territoryKey]rating.TerritoryStats
	statewide   map[string]rating.StatewideStats
}

var (
	_ rating.RateTableStore = (*RatingStore)(nil)
	_ rating.TerritoryStore = (*RatingStore)(nil)
)

// NewRatingStore returns an empty store.
func NewRatingStore() *RatingStore {
	return &RatingStore{
		territories: make(map[territoryKey]rating.TerritoryStats),
		statewide:   make(map[string]rating.StatewideStats),
	}
}

// NewSeededRatingStore returns a store loaded with the built-in rate tables,
// rule catalog and territory statistics.
func NewSeededRatingStore() *RatingStore {
	s := NewRatingStore()
	for _, t := range DefaultRateTables() {
		s.PutRateTable(t)
	}
	for _, r := range rating.DefaultDiscountRules() {
		s.PutRule(r)
	}
	for _, r := range rating.DefaultSurchargeRules() {
		s.PutRule(r)
	}
	for _, st := range DefaultStatewideStats() {
		s.PutStatewideStats(st)
	}
	for _, t := range DefaultTerritoryStats() {
		s.PutTerritoryStats(t)
	}
	return s
}

// PutRateTable inserts or replaces a table by ID.
func (s *RatingStore) PutRateTable(t rating.RateTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tables {
		if s.tables[i].ID == t.ID {
			s.tables[i] = t
			return
		}
	}
	s.tables = append(s.tables, t)
}

// ActivateVersion marks the table with id active and archives whatever was
// active in the same scope, keeping one active version per scope.
func (s *RatingStore) ActivateVersion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.tables {
		if s.tables[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.NotFound("rate table not found").WithDetail("id=" + id)
	}
	scope := s.tables[idx].Scope
	for i := range s.tables {
		if i != idx && s.tables[i].Scope == scope && s.tables[i].Status == rating.RateTableActive {
			s.tables[i].Status = rating.RateTableArchived
		}
	}
	s.tables[idx].Status = rating.RateTableActive
	return nil
}

// PutRule inserts or replaces a discount or surcharge rule by code.
func (s *RatingStore) PutRule(r rating.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := &s.discounts
	if r.Kind == rating.KindSurcharge {
		list = &s.surcharges
	}
	for i := range *list {
		if (*list)[i].Code == r.Code {
			(*list)[i] = r
			return
		}
	}
	*list = append(*list, r)
}

// PutTerritoryStats inserts or replaces a territory's statistics.
func (s *RatingStore) PutTerritoryStats(t rating.TerritoryStats) {
	s.mu.Lock()
	s.territories[territoryKey{t.State, t.Code}] = t
	s.mu.Unlock()
}

// PutStatewideStats inserts or replaces a state's statistics.
func (s *RatingStore) PutStatewideStats(st rating.StatewideStats) {
	s.mu.Lock()
	s.statewide[st.State] = st
	s.mu.Unlock()
}

// GetActiveRate implements rating.RateTableStore.
func (s *RatingStore) GetActiveRate(ctx context.Context, scope rating.RateScope, asOf time.Time) (*rating.RateTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	t, err := rating.SelectActive(s.tables, scope, asOf)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetDiscountRules implements rating.RateTableStore.
func (s *RatingStore) GetDiscountRules(ctx context.Context, state string, product rating.ProductType) ([]rating.Rule, error) {
	return s.rules(ctx, rating.KindDiscount, state, product)
}

// GetSurchargeRules implements rating.RateTableStore.
func (s *RatingStore) GetSurchargeRules(ctx context.Context, state string, product rating.ProductType) ([]rating.Rule, error) {
	return s.rules(ctx, rating.KindSurcharge, state, product)
}

// rules returns active rules scoped to state and product.  Effective-date
// filtering is left to the domain, which knows the quote's date.
func (s *RatingStore) rules(ctx context.Context, kind rating.RuleKind, state string, product rating.ProductType) ([]rating.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	src := s.discounts
	if kind == rating.KindSurcharge {
		src = s.surcharges
	}
	var out []rating.Rule
	for _, r := range src {
		if r.Active && scoped(r.States, state) && scopedProduct(r.ProductTypes, product) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()
	return rating.SortRules(out), nil
}

// GetTerritoryStats implements rating.TerritoryStore.
func (s *RatingStore) GetTerritoryStats(ctx context.Context, state, code string) (*rating.TerritoryStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	t, ok := s.territories[territoryKey{state, code}]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("territory not found").WithDetail("state=" + state + " code=" + code)
	}
	return &t, nil
}

// GetStatewideStats implements rating.TerritoryStore.
func (s *RatingStore) GetStatewideStats(ctx context.Context, state string) (*rating.StatewideStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	st, ok := s.statewide[state]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("statewide statistics not found").WithDetail("state=" + state)
	}
	return &st, nil
}

func scoped(list []string, v string) bool {
	if len(list) == 0 {
		return true
	}
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func scopedProduct(list []rating.ProductType, v rating.ProductType) bool {
	if len(list) == 0 {
		return true
	}
	for _, p := range list {
		if p == v {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
