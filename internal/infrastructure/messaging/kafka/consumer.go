package kafka

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/RateCraft/internal/config"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// Dead-letter headers added to a message that exhausted its retries.
const (
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderAttempts      = "x-attempts"
)

// permanentError marks a handler failure that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the consumer dead-letters the message without
// retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped by Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// RetryConfig defines retry behaviour for failing handlers.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DeadLetterTopic string
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	Topics          []string
	AutoOffsetReset string // "earliest" | "latest"
	SessionTimeout  time.Duration
	MaxWait         time.Duration
	FetchMinBytes   int
	FetchMaxBytes   int
	Security        SecurityConfig
	Retry           RetryConfig
}

// ConsumerConfigFromConfig builds the quote-request consumer config.
func ConsumerConfigFromConfig(cfg config.KafkaConfig) ConsumerConfig {
	return ConsumerConfig{
		Brokers:         cfg.Brokers,
		GroupID:         cfg.GroupID,
		Topics:          []string{TopicQuoteRequested},
		AutoOffsetReset: cfg.AutoOffsetReset,
		Security: SecurityConfig{
			SASLMechanism: cfg.SASLMechanism,
			SASLUsername:  cfg.SASLUsername,
			SASLPassword:  cfg.SASLPassword,
			TLSEnabled:    cfg.TLSEnabled,
			TLSCAPath:     cfg.TLSCAPath,
		},
		Retry: RetryConfig{
			MaxRetries:      cfg.MaxRetries,
			DeadLetterTopic: TopicQuoteRequestedDLQ,
		},
	}
}

// ConsumerMetrics is a point-in-time copy of the consumer counters.
type ConsumerMetrics struct {
	MessagesConsumed     int64
	MessagesProcessed    int64
	MessagesFailed       int64
	MessagesRetried      int64
	MessagesDeadLettered int64
	Lag                  int64
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.ReaderStats
}

// Consumer dispatches messages to per-topic handlers.  Offsets are
// committed after the handler succeeds or the message is dead-lettered.
type Consumer struct {
	reader     ReaderInterface
	deadLetter Publisher
	config     ConsumerConfig
	logger     logging.Logger
	sleep      func(ctx context.Context, d time.Duration) error

	handlers map[string]MessageHandler
	mu       sync.RWMutex

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	consumed     atomic.Int64
	processed    atomic.Int64
	failed       atomic.Int64
	retried      atomic.Int64
	deadLettered atomic.Int64
	lag          atomic.Int64
}

// NewConsumer builds a group consumer.  deadLetter may be nil, in which
// case exhausted messages are logged and skipped.
func NewConsumer(cfg ConsumerConfig, deadLetter Publisher, logger logging.Logger) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	cfg = withConsumerDefaults(cfg)

	dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
	mech, err := saslMechanism(cfg.Security)
	if err != nil {
		return nil, err
	}
	dialer.SASLMechanism = mech
	tc, err := tlsConfig(cfg.Security)
	if err != nil {
		return nil, err
	}
	dialer.TLS = tc

	readerCfg := kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    cfg.Topics,
		MinBytes:       cfg.FetchMinBytes,
		MaxBytes:       cfg.FetchMaxBytes,
		MaxWait:        cfg.MaxWait,
		SessionTimeout: cfg.SessionTimeout,
		StartOffset:    kafka.FirstOffset,
		Dialer:         dialer,
	}
	if cfg.AutoOffsetReset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}
	return newConsumerWithReader(kafka.NewReader(readerCfg), deadLetter, cfg, logger), nil
}

func newConsumerWithReader(r ReaderInterface, deadLetter Publisher, cfg ConsumerConfig, logger logging.Logger) *Consumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Consumer{
		reader:     r,
		deadLetter: deadLetter,
		config:     withConsumerDefaults(cfg),
		logger:     logger.Named("kafka.consumer"),
		sleep:      sleepCtx,
		handlers:   make(map[string]MessageHandler),
	}
}

func withConsumerDefaults(cfg ConsumerConfig) ConsumerConfig {
	if cfg.AutoOffsetReset == "" {
		cfg.AutoOffsetReset = "earliest"
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 500 * time.Millisecond
	}
	if cfg.FetchMinBytes == 0 {
		cfg.FetchMinBytes = 1
	}
	if cfg.FetchMaxBytes == 0 {
		cfg.FetchMaxBytes = 10 << 20
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.RetryBackoff == 0 {
		cfg.Retry.RetryBackoff = 200 * time.Millisecond
	}
	if cfg.Retry.MaxRetryBackoff == 0 {
		cfg.Retry.MaxRetryBackoff = 10 * time.Second
	}
	return cfg
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Subscribe registers handler for topic, replacing any previous one.
func (c *Consumer) Subscribe(topic string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("subscribed", logging.String("topic", topic))
}

// Start launches the fetch loop and returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)
	c.logger.Info("kafka consumer started", logging.String("group", c.config.GroupID))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch failed", logging.Err(err))
			if c.sleep(ctx, time.Second) != nil {
				return
			}
			continue
		}

		c.consumed.Add(1)
		if m.HighWaterMark > 0 {
			c.lag.Store(m.HighWaterMark - m.Offset - 1)
		}

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("no handler for topic", logging.String("topic", m.Topic))
		} else if err := c.processMessage(ctx, fromKafkaMessage(m), handler); err != nil {
			// Only cancellation lands here; leave the offset for redelivery.
			return
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed",
				logging.String("topic", m.Topic),
				logging.Int64("offset", m.Offset),
				logging.Err(err))
		}
	}
}

// processMessage runs handler with exponential backoff.  It returns an
// error only when ctx is cancelled mid-retry; exhausted messages are
// dead-lettered (or dropped) and reported as handled.
func (c *Consumer) processMessage(ctx context.Context, msg *Message, handler MessageHandler) error {
	err := handler(ctx, msg)
	if err == nil {
		c.processed.Add(1)
		return nil
	}

	backoff := c.config.Retry.RetryBackoff
	attempts := 1
	for i := 0; i < c.config.Retry.MaxRetries && !IsPermanent(err); i++ {
		c.retried.Add(1)
		if serr := c.sleep(ctx, backoff); serr != nil {
			return serr
		}
		attempts++
		if err = handler(ctx, msg); err == nil {
			c.processed.Add(1)
			return nil
		}
		backoff *= 2
		if backoff > c.config.Retry.MaxRetryBackoff {
			backoff = c.config.Retry.MaxRetryBackoff
		}
	}

	c.failed.Add(1)
	c.logger.Error("message processing failed after retries",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("attempts", attempts),
		logging.Err(err))

	if c.deadLetter == nil || c.config.Retry.DeadLetterTopic == "" {
		return nil
	}
	headers := make(map[string]string, len(msg.Headers)+3)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderErrorMessage] = err.Error()
	headers[HeaderAttempts] = strconv.Itoa(attempts)

	dl := &ProducerMessage{Topic: c.config.Retry.DeadLetterTopic, Key: msg.Key, Value: msg.Value, Headers: headers}
	if dlErr := c.deadLetter.Publish(ctx, dl); dlErr != nil {
		c.logger.Error("dead-letter publish failed", logging.String("topic", dl.Topic), logging.Err(dlErr))
		return nil
	}
	c.deadLettered.Add(1)
	return nil
}

func fromKafkaMessage(m kafka.Message) *Message {
	msg := &Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

func (c *Consumer) GetMetrics() ConsumerMetrics {
	return ConsumerMetrics{
		MessagesConsumed:     c.consumed.Load(),
		MessagesProcessed:    c.processed.Load(),
		MessagesFailed:       c.failed.Load(),
		MessagesRetried:      c.retried.Load(),
		MessagesDeadLettered: c.deadLettered.Load(),
		Lag:                  c.lag.Load(),
	}
}

// Close stops the loop, waits for the in-flight message, and closes the
// reader.  The dead-letter publisher is owned by the caller.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return c.reader.Close()
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "at least one broker is required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeValidation, "group id is required")
	}
	if len(cfg.Topics) == 0 {
		return errors.New(errors.ErrCodeValidation, "at least one topic is required")
	}
	if cfg.AutoOffsetReset != "" && cfg.AutoOffsetReset != "earliest" && cfg.AutoOffsetReset != "latest" {
		return errors.Newf(errors.ErrCodeValidation, "invalid auto offset reset %q", cfg.AutoOffsetReset)
	}
	if cfg.Retry.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "max retries must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
