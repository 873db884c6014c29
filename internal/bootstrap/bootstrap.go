// Package bootstrap assembles the rating runtime from configuration.  The
// API server, the worker and the CLI all build their engine here so the
// three entry points rate identically.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/RateCraft/internal/application/quoting"
	"github.com/turtacn/RateCraft/internal/application/rating"
	"github.com/turtacn/RateCraft/internal/config"
	domain "github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/memory"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/postgres"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/redis"
	"github.com/turtacn/RateCraft/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RateCraft/internal/infrastructure/signals"
	"github.com/turtacn/RateCraft/internal/intelligence/riskmodel"
	"github.com/turtacn/RateCraft/internal/interfaces/http/handlers"
)

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig, service string) (logging.Logger, error) {
	lc := logging.LogConfig{LevelName: cfg.Level, Format: cfg.Format, ServiceName: service}
	if len(cfg.OutputPaths) > 0 {
		lc.OutputPaths = cfg.OutputPaths
	}
	return logging.NewLogger(lc)
}

// Options tunes Build for a particular entry point.
type Options struct {
	// Publish attaches a Kafka producer when kafka.enabled is set.
	Publish bool
	// Clock and IDs override the engine's defaults; tests pin them.
	Clock func() time.Time
	IDs   func() string
}

// Runtime is a fully wired rating stack.
type Runtime struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics
	Engine    *rating.Engine
	Service   quoting.Service
	Producer  *kafka.Producer
	Checks    []handlers.HealthChecker

	db      *postgres.Connection
	redis   *redis.Client
	closers []func() error
}

// Build connects every configured dependency and returns the runtime.  On
// error everything opened so far is closed again.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger, opts Options) (rt *Runtime, err error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	rt = &Runtime{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = rt.Close()
			rt = nil
		}
	}()

	if cfg.Metrics.Enabled {
		rt.Collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		rt.Metrics = prometheus.NewAppMetrics(rt.Collector)
	}

	store, territories, err := rt.openStore(ctx)
	if err != nil {
		return nil, err
	}
	cacheStore, err := rt.openCache(ctx)
	if err != nil {
		return nil, err
	}

	provider, err := signals.NewProvider(cfg.Signals, logger)
	if err != nil {
		return nil, fmt.Errorf("signals: %w", err)
	}
	var scorerOpts []riskmodel.Option
	if rt.Collector != nil {
		scorerOpts = append(scorerOpts, riskmodel.WithMetrics(riskmodel.NewScorerMetrics(rt.Collector)))
	}
	scorer, err := riskmodel.NewScorer(cfg.AI, logger, scorerOpts...)
	if err != nil {
		return nil, fmt.Errorf("ai scorer: %w", err)
	}

	policy := rating.PolicyFromConfig(cfg.Rating)
	var sink rating.MetricsSink
	if rt.Metrics != nil {
		sink = rt.Metrics
	}
	engineOpts := []rating.Option{
		rating.WithPolicy(policy),
		rating.WithLogger(logger),
		rating.WithCache(rating.NewRatingCache(cacheStore, policy.CacheTTL, logger)),
		rating.WithMonitor(rating.NewPerformanceMonitor(policy.LatencyTarget, sink)),
	}
	if provider != nil {
		engineOpts = append(engineOpts, rating.WithSignalProvider(provider))
	}
	if scorer != nil {
		engineOpts = append(engineOpts, rating.WithAIScorer(scorer))
	}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, rating.WithClock(opts.Clock))
	}
	if opts.IDs != nil {
		engineOpts = append(engineOpts, rating.WithIDGenerator(opts.IDs))
	}
	rt.Engine, err = rating.NewEngine(store, territories, engineOpts...)
	if err != nil {
		return nil, err
	}

	svcOpts := []quoting.Option{quoting.WithMetrics(rt.Metrics)}
	if opts.Publish && cfg.Kafka.Enabled {
		rt.Producer, err = kafka.NewProducer(kafka.ProducerConfigFromConfig(cfg.Kafka), logger)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		rt.closers = append(rt.closers, rt.Producer.Close)
		svcOpts = append(svcOpts, quoting.WithPublisher(rt.Producer), quoting.WithPublishTimeout(cfg.Kafka.WriteTimeout))
	}
	rt.Service = quoting.NewService(rt.Engine, logger, svcOpts...)

	logger.Info("rating runtime ready",
		logging.String("database", cfg.Database.Driver),
		logging.Bool("redis", cfg.Redis.Enabled),
		logging.Bool("signals", provider != nil),
		logging.Bool("ai", scorer != nil),
		logging.Bool("events", rt.Producer != nil))
	return rt, nil
}

func (rt *Runtime) openStore(ctx context.Context) (domain.RateTableStore, domain.TerritoryStore, error) {
	cfg := rt.Config
	if cfg.Database.Driver == "memory" {
		s := memory.NewSeededRatingStore()
		return s, s, nil
	}

	conn, err := postgres.NewConnection(ctx, cfg.Database, rt.Logger)
	if err != nil {
		return nil, nil, err
	}
	rt.db = conn
	rt.closers = append(rt.closers, conn.Close)
	rt.Checks = append(rt.Checks, handlers.NewCheck("postgres", conn.HealthCheck))

	if cfg.Database.AutoMigrate {
		if err := migrateUp(conn, rt.Logger); err != nil {
			return nil, nil, err
		}
	}

	var repoOpts []repositories.Option
	if rt.Metrics != nil {
		m := rt.Metrics
		repoOpts = append(repoOpts, repositories.WithQueryObserver(func(op string, elapsed time.Duration, err error) {
			prometheus.RecordDBQuery(m, op, elapsed, err)
		}))
	}
	repo := repositories.NewRatingRepository(conn, rt.Logger, repoOpts...)
	return repo, repo, nil
}

func migrateUp(conn *postgres.Connection, logger logging.Logger) error {
	m, err := postgres.NewMigrator(conn.DB(), logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// openCache falls back to the in-process cache when Redis is off.
func (rt *Runtime) openCache(ctx context.Context) (rating.CacheStore, error) {
	cfg := rt.Config
	if !cfg.Redis.Enabled {
		return memory.NewCache(), nil
	}
	client, err := redis.NewClient(ctx, cfg.Redis, rt.Logger)
	if err != nil {
		return nil, err
	}
	rt.redis = client
	rt.closers = append(rt.closers, client.Close)
	rt.Checks = append(rt.Checks, handlers.NewCheck("redis", client.Ping))

	var opts []redis.CacheOption
	if cfg.Redis.KeyPrefix != "" {
		opts = append(opts, redis.WithPrefix(cfg.Redis.KeyPrefix))
	}
	return redis.NewCache(client, rt.Logger, opts...), nil
}

// DB returns the PostgreSQL connection, or nil with the memory driver.
func (rt *Runtime) DB() *postgres.Connection { return rt.db }

// ApplyConfig pushes a reloaded configuration into the running engine.
// Connection settings are not reloaded.
func (rt *Runtime) ApplyConfig(cfg *config.Config) {
	rt.Engine.UpdatePolicy(rating.PolicyFromConfig(cfg.Rating))
	rt.Engine.SetAIEnabled(cfg.AI.Enabled)
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close() error {
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	rt.closers = nil
	_ = rt.Logger.Sync()
	return first
}

//Personal.AI order the ending
