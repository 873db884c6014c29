package bootstrap

import (
	"context"

	"github.com/turtacn/RateCraft/internal/config"
	domain "github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/memory"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
)

// DefaultCatalog is the reference rate data shipped with the service: the
// seed rate tables and territory statistics plus the standard discount and
// surcharge rules.
func DefaultCatalog() repositories.Catalog {
	rules := append(domain.DefaultDiscountRules(), domain.DefaultSurchargeRules()...)
	return repositories.Catalog{
		RateTables:  memory.DefaultRateTables(),
		Rules:       rules,
		Statewide:   memory.DefaultStatewideStats(),
		Territories: memory.DefaultTerritoryStats(),
	}
}

// SeedDefaults writes DefaultCatalog through the runtime's PostgreSQL
// connection.  The memory driver is always seeded, so this is a no-op there.
func (rt *Runtime) SeedDefaults(ctx context.Context) (int, error) {
	if rt.db == nil {
		return 0, nil
	}
	cat := DefaultCatalog()
	repo := repositories.NewRatingRepository(rt.db, rt.Logger)
	if err := repo.Seed(ctx, cat); err != nil {
		return 0, err
	}
	return len(cat.RateTables) + len(cat.Rules) + len(cat.Statewide) + len(cat.Territories), nil
}

// WatchPolicy reloads the rating policy whenever the config file changes.
func (rt *Runtime) WatchPolicy(path string) error {
	if path == "" {
		return nil
	}
	log := rt.Logger.Named("config")
	return config.Watch(path, func(cfg *config.Config) {
		rt.ApplyConfig(cfg)
		log.Info("rating policy reloaded",
			logging.Duration("cache_ttl", cfg.Rating.CacheTTL),
			logging.Duration("latency_target", cfg.Rating.LatencyTarget),
			logging.Bool("ai_enabled", cfg.AI.Enabled))
	}, func(err error) {
		log.Error("config reload rejected", logging.Err(err))
	})
}

//Personal.AI order the ending
