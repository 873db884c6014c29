package rating

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RateCraft/pkg/errors"
)

func TestSelectActive(t *testing.T) {
	scope := RateScope{State: "CA", ProductType: ProductAuto, CoverageType: CoverageLiability}
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jul := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	tables := []RateTable{
		{ID: "v1", Scope: scope, Version: 1, BaseRate: Money("0.004"), EffectiveDate: jan.AddDate(-1, 0, 0), Status: RateTableActive},
		{ID: "v2", Scope: scope, Version: 2, BaseRate: Money("0.0042"), EffectiveDate: jan, ExpirationDate: &jul, Status: RateTableActive},
		{ID: "v3", Scope: scope, Version: 3, BaseRate: Money("0.005"), EffectiveDate: jan, Status: RateTableDraft},
		{ID: "other", Scope: RateScope{State: "TX", ProductType: ProductAuto, CoverageType: CoverageLiability},
			Version: 9, EffectiveDate: jan, Status: RateTableActive},
	}

	t.Run("highest active version in window", func(t *testing.T) {
		got, err := SelectActive(tables, scope, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "v2", got.ID)
	})

	t.Run("expiration is exclusive", func(t *testing.T) {
		got, err := SelectActive(tables, scope, jul)
		require.NoError(t, err)
		assert.Equal(t, "v1", got.ID)
	})

	t.Run("nothing effective is a hard failure", func(t *testing.T) {
		_, err := SelectActive(tables, scope, jan.AddDate(-2, 0, 0))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeRateTableNotFound))
	})

	t.Run("draft versions are never selected", func(t *testing.T) {
		_, err := SelectActive(tables[2:3], scope, jul)
		assert.True(t, errors.IsCode(err, errors.ErrCodeRateTableNotFound))
	})
}

//Personal.AI order the ending
