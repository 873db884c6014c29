// Command apiserver serves the premium rating HTTP API and the gRPC health
// service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/RateCraft/internal/bootstrap"
	"github.com/turtacn/RateCraft/internal/config"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/RateCraft/internal/interfaces/grpc"
	httpserver "github.com/turtacn/RateCraft/internal/interfaces/http"
	"github.com/turtacn/RateCraft/internal/interfaces/http/handlers"
	"github.com/turtacn/RateCraft/internal/interfaces/http/middleware"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *httpPort, *grpcPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort, grpcPort int) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if httpPort > 0 {
		cfg.Server.Port = httpPort
	}
	if grpcPort > 0 {
		cfg.GRPC.Port = grpcPort
	}

	logger, err := bootstrap.NewLogger(cfg.Log, "ratecraft-apiserver")
	if err != nil {
		return err
	}
	logging.SetGlobalLogger(logger)
	logger.Info("starting RateCraft API server",
		logging.String("version", version),
		logging.Int("http_port", cfg.Server.Port),
		logging.Bool("grpc", cfg.GRPC.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	router := httpserver.NewRouter(httpserver.RouterConfig{
		PremiumHandler:   handlers.NewPremiumHandler(rt.Service, logger),
		HealthHandler:    handlers.NewHealthHandler(version, rt.Metrics, rt.Checks...),
		Logger:           logger,
		Metrics:          rt.Metrics,
		MetricsCollector: rt.Collector,
		Logging:          middleware.DefaultLoggingConfig(),
		MaxBodySize:      cfg.Server.MaxBodySize,
	})
	httpSrv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 2)
	go func() { errCh <- httpSrv.Start() }()

	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		opts := []grpcserver.Option{grpcserver.WithLogger(logger)}
		if rt.Collector != nil {
			opts = append(opts, grpcserver.WithMetrics(grpcserver.NewMetrics(rt.Collector)))
		}
		for _, c := range rt.Checks {
			opts = append(opts, grpcserver.WithCheckers(c))
		}
		if grpcSrv, err = grpcserver.NewServer(cfg.GRPC, opts...); err != nil {
			return err
		}
		go func() { errCh <- grpcSrv.Start() }()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", logging.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if grpcSrv != nil {
		_ = grpcSrv.Stop(shutdownCtx)
	}
	if err := httpSrv.Stop(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	logger.Info("RateCraft API server stopped")
	return nil
}

//Personal.AI order the ending
