// Command worker rates quotes delivered on rating.quote.requested and
// publishes the results to rating.premium.calculated.  Messages that fail
// permanently or exhaust their retries are dead-lettered.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/RateCraft/internal/application/quoting"
	"github.com/turtacn/RateCraft/internal/bootstrap"
	"github.com/turtacn/RateCraft/internal/config"
	"github.com/turtacn/RateCraft/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/RateCraft/internal/interfaces/http"
	"github.com/turtacn/RateCraft/internal/interfaces/http/handlers"
	"github.com/turtacn/RateCraft/internal/interfaces/http/middleware"
)

var version = "dev"

const defaultHealthPort = 8081

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	workers := flag.Int("workers", 0, "concurrent consumers in the group (overrides worker.concurrency)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for /healthz, /readyz and /metrics")
	createTopics := flag.Bool("create-topics", false, "create the rating topics before consuming")
	replication := flag.Int("replication-factor", 1, "replication factor used with --create-topics")
	flag.Parse()

	if err := run(*configPath, *workers, *healthPort, *createTopics, *replication); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, workers, healthPort int, createTopics bool, replication int) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka.enabled must be true for the worker")
	}
	if workers > 0 {
		cfg.Worker.Concurrency = workers
	}

	logger, err := bootstrap.NewLogger(cfg.Log, "ratecraft-worker")
	if err != nil {
		return err
	}
	logging.SetGlobalLogger(logger)
	logger.Info("starting RateCraft worker",
		logging.String("version", version),
		logging.Int("consumers", cfg.Worker.Concurrency),
		logging.Strings("brokers", cfg.Kafka.Brokers))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if createTopics {
		if err := ensureTopics(ctx, cfg, replication, logger); err != nil {
			return err
		}
	}

	rt, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{Publish: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	if configPath != "" {
		if err := rt.WatchPolicy(configPath); err != nil {
			logger.Warn("config hot reload disabled", logging.Err(err))
		}
	}

	handler := quoting.NewQuoteRequestHandler(rt.Service, rt.Metrics, logger)
	consumerCfg := kafka.ConsumerConfigFromConfig(cfg.Kafka)
	consumerCfg.Retry.MaxRetries = cfg.Worker.MaxRetries

	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	defer func() {
		for _, c := range consumers {
			if err := c.Close(); err != nil {
				logger.Warn("consumer close failed", logging.Err(err))
			}
		}
	}()
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		c, err := kafka.NewConsumer(consumerCfg, rt.Producer, logger.With(logging.Int("consumer", i)))
		if err != nil {
			return err
		}
		consumers = append(consumers, c)
		c.Subscribe(kafka.TopicQuoteRequested, handler)
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	probes := httpserver.NewServer(config.ServerConfig{
		Port:            healthPort,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(version, rt.Metrics, rt.Checks...),
		Logger:           logger,
		Metrics:          rt.Metrics,
		MetricsCollector: rt.Collector,
		Logging:          middleware.DefaultLoggingConfig(),
	}), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- probes.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("probe server failed", logging.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := probes.Stop(shutdownCtx); err != nil {
		logger.Error("probe server shutdown error", logging.Err(err))
	}
	logger.Info("RateCraft worker stopping")
	return nil
}

func ensureTopics(ctx context.Context, cfg *config.Config, replication int, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(ctx, cfg.Kafka.Brokers, logger)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.DefaultTopics(replication))
}

//Personal.AI order the ending
