//go:build integration

package repositories_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/memory"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/postgres"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/RateCraft/pkg/errors"
)

// startPostgres launches PostgreSQL 16, applies the embedded migrations and
// seeds the built-in catalog.
func startPostgres(t *testing.T) *repositories.RatingRepository {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("ratecraft_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logging.NewNopLogger()
	mg, err := postgres.NewMigrator(db, log)
	require.NoError(t, err)
	require.NoError(t, mg.Up())
	version, dirty, err := mg.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	repo := repositories.NewRatingRepository(postgres.NewConnectionWithDB(db, log), log)
	rules := append(rating.DefaultDiscountRules(), rating.DefaultSurchargeRules()...)
	require.NoError(t, repo.Seed(ctx, repositories.Catalog{
		RateTables:  memory.DefaultRateTables(),
		Rules:       rules,
		Statewide:   memory.DefaultStatewideStats(),
		Territories: memory.DefaultTerritoryStats(),
	}))
	return repo
}

func TestRatingRepository_Integration(t *testing.T) {
	repo := startPostgres(t)
	ctx := context.Background()
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	scope := rating.RateScope{State: "CA", ProductType: rating.ProductAuto, CoverageType: rating.CoverageLiability}

	t.Run("active version matches in-memory store", func(t *testing.T) {
		want, err := memory.NewSeededRatingStore().GetActiveRate(ctx, scope, asOf)
		require.NoError(t, err)
		got, err := repo.GetActiveRate(ctx, scope, asOf)
		require.NoError(t, err)
		assert.Equal(t, want.Version, got.Version)
		assert.True(t, want.BaseRate.Equal(got.BaseRate))
	})

	t.Run("unknown state", func(t *testing.T) {
		_, err := repo.GetActiveRate(ctx, rating.RateScope{State: "WY", ProductType: rating.ProductAuto, CoverageType: rating.CoverageLiability}, asOf)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeRateTableNotFound))
	})

	t.Run("rules round-trip", func(t *testing.T) {
		got, err := repo.GetDiscountRules(ctx, "CA", rating.ProductAuto)
		require.NoError(t, err)
		assert.Len(t, got, len(rating.DefaultDiscountRules()))
	})

	t.Run("territory resolves", func(t *testing.T) {
		tf, err := rating.NewTerritoryResolver(repo, rating.DefaultFactorBounds()).Resolve(ctx, "CA", "90210")
		require.NoError(t, err)
		assert.Equal(t, "1.1923", tf.Multiplier.StringFixed(4))
	})

	t.Run("activate archives previous", func(t *testing.T) {
		tables, err := repo.ListRateTables(ctx, scope)
		require.NoError(t, err)
		var archived string
		for _, tbl := range tables {
			if tbl.Status == rating.RateTableArchived {
				archived = tbl.ID
			}
		}
		require.NotEmpty(t, archived)
		require.NoError(t, repo.ActivateVersion(ctx, archived))

		tables, err = repo.ListRateTables(ctx, scope)
		require.NoError(t, err)
		active := 0
		for _, tbl := range tables {
			if tbl.Status == rating.RateTableActive {
				active++
				assert.Equal(t, archived, tbl.ID)
			}
		}
		assert.Equal(t, 1, active)
	})
}

//Personal.AI order the ending
