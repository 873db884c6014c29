// Package grpc serves the standard gRPC health protocol for the rating
// service.  Serving status follows the same dependency checks as the HTTP
// readiness probe, so gRPC-native load balancers and mesh sidecars can drain
// an instance whose database or cache is unreachable.
package grpc

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"

	"github.com/turtacn/RateCraft/internal/config"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/prometheus"
)

// ServiceName is the health-check service name of the rating engine.
const ServiceName = "ratecraft.Rating"

const (
	defaultGracefulTimeout = 10 * time.Second
	defaultCheckInterval   = 10 * time.Second
	checkTimeout           = 2 * time.Second
)

var defaultKeepaliveParams = keepalive.ServerParameters{
	MaxConnectionIdle:     15 * time.Minute,
	MaxConnectionAge:      30 * time.Minute,
	MaxConnectionAgeGrace: 5 * time.Second,
	Time:                  5 * time.Minute,
	Timeout:               1 * time.Second,
}

var defaultKeepalivePolicy = keepalive.EnforcementPolicy{
	MinTime:             5 * time.Second,
	PermitWithoutStream: true,
}

// Checker is a dependency probe.  The HTTP health handler's checkers satisfy
// it.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Metrics counts gRPC calls by service, method and status code.
type Metrics struct {
	RequestsTotal   prometheus.CounterVec
	RequestDuration prometheus.HistogramVec
}

func NewMetrics(collector prometheus.MetricsCollector) *Metrics {
	return &Metrics{
		RequestsTotal: collector.RegisterCounter("grpc_requests_total",
			"gRPC requests by service, method and code", "service", "method", "code"),
		RequestDuration: collector.RegisterHistogram("grpc_request_duration_seconds",
			"gRPC request latency", nil, "service", "method"),
	}
}

// Option configures the Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger          logging.Logger
	metrics         *Metrics
	checkers        []Checker
	checkInterval   time.Duration
	gracefulTimeout time.Duration
	listener        net.Listener
}

func WithLogger(l logging.Logger) Option {
	return func(o *serverOptions) { o.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(o *serverOptions) { o.metrics = m }
}

// WithCheckers sets the probes that decide the serving status.
func WithCheckers(checkers ...Checker) Option {
	return func(o *serverOptions) { o.checkers = append(o.checkers, checkers...) }
}

// WithCheckInterval sets how often the probes run.
func WithCheckInterval(d time.Duration) Option {
	return func(o *serverOptions) {
		if d > 0 {
			o.checkInterval = d
		}
	}
}

func WithGracefulTimeout(d time.Duration) Option {
	return func(o *serverOptions) {
		if d > 0 {
			o.gracefulTimeout = d
		}
	}
}

// WithListener serves on l instead of binding cfg.Port.
func WithListener(l net.Listener) Option {
	return func(o *serverOptions) { o.listener = l }
}

// Server wraps a grpc.Server carrying the health service.
type Server struct {
	grpcServer   *grpc.Server
	listener     net.Listener
	opts         *serverOptions
	healthServer *health.Server
	logger       logging.Logger

	mu      sync.Mutex
	started bool
	stop    chan struct{}
}

// NewServer binds the listener and assembles the interceptor chain.
func NewServer(cfg config.GRPCConfig, opts ...Option) (*Server, error) {
	sopts := &serverOptions{
		checkInterval:   defaultCheckInterval,
		gracefulTimeout: defaultGracefulTimeout,
	}
	for _, o := range opts {
		o(sopts)
	}
	if sopts.logger == nil {
		sopts.logger = logging.NewNopLogger()
	}
	logger := sopts.logger.Named("grpc")

	lis := sopts.listener
	if lis == nil {
		addr := fmt.Sprintf(":%d", cfg.Port)
		var err error
		if lis, err = net.Listen("tcp", addr); err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
	}

	gs := grpc.NewServer(
		grpc.KeepaliveParams(defaultKeepaliveParams),
		grpc.KeepaliveEnforcementPolicy(defaultKeepalivePolicy),
		grpc.ChainUnaryInterceptor(
			recoveryUnaryInterceptor(logger),
			loggingUnaryInterceptor(logger),
			metricsUnaryInterceptor(sopts.metrics),
		),
		grpc.ChainStreamInterceptor(
			recoveryStreamInterceptor(logger),
			metricsStreamInterceptor(sopts.metrics),
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	s := &Server{
		grpcServer:   gs,
		listener:     lis,
		opts:         sopts,
		healthServer: hs,
		logger:       logger,
		stop:         make(chan struct{}),
	}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s, nil
}

// Start runs an initial health probe and then serves until Stop.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	s.mu.Unlock()

	s.RefreshHealth(context.Background())
	go s.watchHealth()

	s.logger.Info("grpc server listening", logging.String("address", s.Addr()))
	if err := s.grpcServer.Serve(s.listener); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

func (s *Server) watchHealth() {
	ticker := time.NewTicker(s.opts.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.RefreshHealth(context.Background())
		}
	}
}

// RefreshHealth runs every checker and publishes the outcome.  Returns
// whether all checks passed.
func (s *Server) RefreshHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	healthy := true
	for _, c := range s.opts.checkers {
		if err := c.Check(ctx); err != nil {
			healthy = false
			s.logger.Warn("dependency unhealthy", logging.String("component", c.Name()), logging.Err(err))
		}
	}
	if healthy {
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
	} else {
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return healthy
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.healthServer.SetServingStatus("", st)
	s.healthServer.SetServingStatus(ServiceName, st)
}

// Stop drains the server.  If the graceful period expires it forces an
// immediate stop.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	close(s.stop)
	s.mu.Unlock()

	// Load balancers drain on NOT_SERVING before connections close.
	s.healthServer.Shutdown()

	gracefulCtx, cancel := context.WithTimeout(ctx, s.opts.gracefulTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info("grpc server stopped")
	case <-gracefulCtx.Done():
		s.logger.Warn("grpc graceful stop timed out, forcing stop")
		s.grpcServer.Stop()
	}
	return nil
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func recoveryUnaryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc panic recovered",
					logging.String("method", info.FullMethod),
					logging.Any("panic", r),
					logging.String("stack", string(debug.Stack())))
				err = status.Errorf(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

func recoveryStreamInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc stream panic recovered",
					logging.String("method", info.FullMethod),
					logging.Any("panic", r),
					logging.String("stack", string(debug.Stack())))
				err = status.Errorf(codes.Internal, "internal server error")
			}
		}()
		return handler(srv, ss)
	}
}

func isHealthCheck(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.Health/")
}

// loggingUnaryInterceptor logs every call except health probes.
func loggingUnaryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if isHealthCheck(info.FullMethod) {
			return handler(ctx, req)
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc request",
			logging.String("method", info.FullMethod),
			logging.Duration("duration", time.Since(start)),
			logging.String("code", status.Code(err).String()))
		return resp, err
	}
}

func metricsUnaryInterceptor(m *Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if m == nil {
			return handler(ctx, req)
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		m.observe(info.FullMethod, err, time.Since(start))
		return resp, err
	}
}

func metricsStreamInterceptor(m *Metrics) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if m == nil {
			return handler(srv, ss)
		}
		start := time.Now()
		err := handler(srv, ss)
		m.observe(info.FullMethod, err, time.Since(start))
		return err
	}
}

func (m *Metrics) observe(fullMethod string, err error, elapsed time.Duration) {
	service, method := splitMethodName(fullMethod)
	m.RequestsTotal.WithLabelValues(service, method, status.Code(err).String()).Inc()
	m.RequestDuration.WithLabelValues(service, method).Observe(elapsed.Seconds())
}

// splitMethodName splits "/package.Service/Method" into ("package.Service", "Method").
func splitMethodName(fullMethod string) (string, string) {
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	idx := strings.LastIndex(fullMethod, "/")
	if idx < 0 {
		return "unknown", fullMethod
	}
	return fullMethod[:idx], fullMethod[idx+1:]
}

//Personal.AI order the ending
