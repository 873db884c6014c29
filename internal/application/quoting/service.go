// Package quoting is the application service behind every entry point that
// rates a quote: the HTTP API, the CLI and the Kafka worker.  It maps wire
// requests to the rating engine and publishes the outcome as an event.
package quoting

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/RateCraft/internal/application/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/prometheus"
	dto "github.com/turtacn/RateCraft/pkg/types/rating"
)

// EventSource is stamped on every envelope this service publishes.
const EventSource = "ratecraft"

// Service defines the quoting operations.
type Service interface {
	Calculate(ctx context.Context, req *dto.QuoteRequest) (*dto.PremiumResponse, error)
	Performance(ctx context.Context) dto.PerformanceMetrics
	InvalidateState(ctx context.Context, state string) (int64, error)
}

// Engine is the rating surface the service drives.
type Engine interface {
	rating.Calculator
	InvalidateState(ctx context.Context, state string) (int64, error)
}

// Option configures the service.
type Option func(*serviceImpl)

// WithPublisher enables premium.calculated events.  Publishing is best
// effort: a failure is logged and counted, never returned.
func WithPublisher(p kafka.Publisher) Option {
	return func(s *serviceImpl) { s.publisher = p }
}

func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

// WithPublishTimeout bounds each event publish.  Defaults to 2s.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *serviceImpl) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

type serviceImpl struct {
	engine         Engine
	publisher      kafka.Publisher
	metrics        *prometheus.AppMetrics
	logger         logging.Logger
	publishTimeout time.Duration
}

// NewService creates a quoting service around engine.
func NewService(engine Engine, logger logging.Logger, opts ...Option) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{engine: engine, logger: logger.Named("quoting"), publishTimeout: 2 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculate rates req and, on success, publishes the result.
func (s *serviceImpl) Calculate(ctx context.Context, req *dto.QuoteRequest) (*dto.PremiumResponse, error) {
	in, err := ToPremiumRequest(req)
	if err != nil {
		return nil, err
	}
	result, err := s.engine.CalculatePremium(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, PremiumCalculated(result, logging.RequestIDFrom(ctx)))
	return ToPremiumResponse(result), nil
}

func (s *serviceImpl) publish(ctx context.Context, ev dto.PremiumCalculatedEvent) {
	if s.publisher == nil {
		return
	}
	log := s.logger.WithContext(ctx)
	env, err := kafka.NewEventEnvelope(kafka.EventPremiumCalculated, EventSource, ev)
	if err == nil {
		env.RequestID = ev.RequestID
		var msg *kafka.ProducerMessage
		if msg, err = env.ToMessage(kafka.TopicPremiumCalculated, ev.QuoteID); err == nil {
			// The caller's deadline belongs to the calculation; the event
			// gets its own.
			pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
			err = s.publisher.Publish(pubCtx, msg)
			cancel()
		}
	}
	if s.metrics != nil {
		prometheus.RecordEventPublish(s.metrics, kafka.TopicPremiumCalculated, err)
	}
	if err != nil {
		log.Warn("premium event not published",
			logging.String("calculation_id", ev.CalculationID),
			logging.Err(err))
	}
}

func (s *serviceImpl) Performance(context.Context) dto.PerformanceMetrics {
	return ToPerformanceMetrics(s.engine.GetPerformanceMetrics())
}

// InvalidateState drops cached rate tables and territory stats for state.
func (s *serviceImpl) InvalidateState(ctx context.Context, state string) (int64, error) {
	return s.engine.InvalidateState(ctx, strings.ToUpper(state))
}

//Personal.AI order the ending
