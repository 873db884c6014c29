package kafka

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/RateCraft/internal/config"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.ErrCodeMessageQueue, "producer closed")

// ProducerConfig holds configuration for the Producer.
type ProducerConfig struct {
	Brokers          []string
	Acks             string // "none" | "one" | "all"
	MaxRetries       int
	BatchSize        int
	BatchTimeout     time.Duration
	MaxMessageBytes  int
	CompressionCodec string
	WriteTimeout     time.Duration
	Security         SecurityConfig

	AsyncErrorHandler func(err error, msg *ProducerMessage)
}

// ProducerConfigFromConfig maps the kafka section of the service config.
// Premium events are small and latency-sensitive, so batches flush after
// 10ms rather than kafka-go's one-second default.
func ProducerConfigFromConfig(cfg config.KafkaConfig) ProducerConfig {
	return ProducerConfig{
		Brokers:      cfg.Brokers,
		Acks:         "all",
		MaxRetries:   cfg.MaxRetries,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		Security: SecurityConfig{
			SASLMechanism: cfg.SASLMechanism,
			SASLUsername:  cfg.SASLUsername,
			SASLPassword:  cfg.SASLPassword,
			TLSEnabled:    cfg.TLSEnabled,
			TLSCAPath:     cfg.TLSCAPath,
		},
	}
}

// ProducerMetrics is a point-in-time copy of the producer counters.
type ProducerMetrics struct {
	MessagesSent   int64
	MessagesFailed int64
	BytesSent      int64
	LastLatencyMs  int64
	LastSentAt     time.Time
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.WriterStats
}

// Producer publishes rating events.
type Producer struct {
	writer WriterInterface
	config ProducerConfig
	logger logging.Logger
	closed atomic.Bool

	sent       atomic.Int64
	failed     atomic.Int64
	bytes      atomic.Int64
	latencyMs  atomic.Int64
	lastSentAt atomic.Value // time.Time
}

// NewProducer builds a Producer backed by a kafka.Writer.
func NewProducer(cfg ProducerConfig, logger logging.Logger) (*Producer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}
	cfg = withProducerDefaults(cfg)

	transport := &kafka.Transport{DialTimeout: 10 * time.Second}
	mech, err := saslMechanism(cfg.Security)
	if err != nil {
		return nil, err
	}
	transport.SASL = mech
	tc, err := tlsConfig(cfg.Security)
	if err != nil {
		return nil, err
	}
	transport.TLS = tc

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: requiredAcks(cfg.Acks),
		Compression:  compression(cfg.CompressionCodec),
		Transport:    transport,
	}
	return newProducerWithWriter(writer, cfg, logger), nil
}

func newProducerWithWriter(w WriterInterface, cfg ProducerConfig, logger logging.Logger) *Producer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Producer{writer: w, config: withProducerDefaults(cfg), logger: logger.Named("kafka.producer")}
}

func withProducerDefaults(cfg ProducerConfig) ProducerConfig {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = time.Second
	}
	if cfg.MaxMessageBytes == 0 {
		cfg.MaxMessageBytes = 1 << 20
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return cfg
}

func requiredAcks(s string) kafka.RequiredAcks {
	switch s {
	case "none":
		return kafka.RequireNone
	case "all":
		return kafka.RequireAll
	default:
		return kafka.RequireOne
	}
}

func compression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}

func (p *Producer) validate(msg *ProducerMessage) error {
	if msg == nil || msg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "message topic is required")
	}
	if len(msg.Value) == 0 {
		return errors.New(errors.ErrCodeValidation, "message value is required")
	}
	if len(msg.Value) > p.config.MaxMessageBytes {
		return errors.Newf(errors.ErrCodeValidation, "message of %d bytes exceeds limit of %d", len(msg.Value), p.config.MaxMessageBytes)
	}
	return nil
}

// Publish writes one message and waits for the configured acks.
func (p *Producer) Publish(ctx context.Context, msg *ProducerMessage) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if err := p.validate(msg); err != nil {
		return err
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, toKafkaMessage(msg)); err != nil {
		p.failed.Add(1)
		return errors.Wrap(err, errors.ErrCodeMessageQueue, "publish failed").WithDetail("topic=" + msg.Topic)
	}

	latency := time.Since(start).Milliseconds()
	p.sent.Add(1)
	p.bytes.Add(int64(len(msg.Value)))
	p.latencyMs.Store(latency)
	p.lastSentAt.Store(time.Now())

	p.logger.Debug("message published",
		logging.String("topic", msg.Topic),
		logging.Int64("latency_ms", latency))
	return nil
}

// PublishBatch writes msgs in one call.  Per-message failures are reported
// in the result; the error is reserved for invalid input or a closed
// producer.
func (p *Producer) PublishBatch(ctx context.Context, msgs []*ProducerMessage) (*BatchPublishResult, error) {
	if p.closed.Load() {
		return nil, ErrProducerClosed
	}
	if len(msgs) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "batch is empty")
	}
	kMsgs := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		if err := p.validate(msg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid batch message").WithDetail(fmt.Sprintf("index=%d", i))
		}
		kMsgs[i] = toKafkaMessage(msg)
	}

	result := &BatchPublishResult{}
	err := p.writer.WriteMessages(ctx, kMsgs...)
	var writeErrs kafka.WriteErrors
	switch {
	case err == nil:
		result.Succeeded = len(msgs)
	case errors.As(err, &writeErrs):
		for i, we := range writeErrs {
			if we == nil {
				result.Succeeded++
				continue
			}
			result.Failed++
			result.Errors = append(result.Errors, BatchItemError{Index: i, Topic: msgs[i].Topic, Error: we})
		}
	default:
		result.Failed = len(msgs)
		result.Errors = append(result.Errors, BatchItemError{Index: -1, Error: err})
	}

	p.sent.Add(int64(result.Succeeded))
	p.failed.Add(int64(result.Failed))
	p.logger.Info("batch published",
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed))
	return result, nil
}

// PublishAsync publishes in the background; failures go to
// AsyncErrorHandler when one is configured.
func (p *Producer) PublishAsync(ctx context.Context, msg *ProducerMessage) {
	go func() {
		if err := p.Publish(ctx, msg); err != nil && p.config.AsyncErrorHandler != nil {
			p.config.AsyncErrorHandler(err, msg)
		}
	}()
}

func (p *Producer) GetMetrics() ProducerMetrics {
	m := ProducerMetrics{
		MessagesSent:   p.sent.Load(),
		MessagesFailed: p.failed.Load(),
		BytesSent:      p.bytes.Load(),
		LastLatencyMs:  p.latencyMs.Load(),
	}
	if t, ok := p.lastSentAt.Load().(time.Time); ok {
		m.LastSentAt = t
	}
	return m
}

// Close flushes pending writes.  Calling it twice is safe.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}

func toKafkaMessage(msg *ProducerMessage) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{Topic: msg.Topic, Key: msg.Key, Value: msg.Value, Headers: headers, Time: ts}
}

func ValidateProducerConfig(cfg ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "at least one broker is required")
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "max retries must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
