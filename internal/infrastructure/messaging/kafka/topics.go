package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

const (
	TopicPremiumCalculated = "rating.premium.calculated"
	TopicQuoteRequested    = "rating.quote.requested"
	TopicQuoteRequestedDLQ = "rating.quote.requested.dlq"
)

// Event types carried in EventEnvelope.EventType.
const (
	EventPremiumCalculated = "premium.calculated"
	EventQuoteRequested    = "quote.requested"
)

const (
	SchemaVersion = "v1"

	HeaderEventType     = "event_type"
	HeaderSource        = "source_service"
	HeaderSchemaVersion = "schema_version"
	HeaderRequestID     = "request_id"
)

// EventEnvelope wraps every payload published by the service.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	RequestID     string            `json:"request_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target.  An absent payload is
// an error: every event type defined here carries one.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeSerialization, "event has no payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}

// ToMessage serialises the envelope.  key selects the partition; callers
// pass the quote ID so events for one quote stay ordered.
func (e *EventEnvelope) ToMessage(topic string, key string) (*ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event envelope")
	}
	headers := map[string]string{
		HeaderEventType:     e.EventType,
		HeaderSource:        e.Source,
		HeaderSchemaVersion: e.SchemaVersion,
	}
	if e.RequestID != "" {
		headers[HeaderRequestID] = e.RequestID
	}
	msg := &ProducerMessage{Topic: topic, Value: val, Headers: headers, Timestamp: e.Timestamp}
	if key != "" {
		msg.Key = []byte(key)
	}
	return msg, nil
}

func MessageToEventEnvelope(msg *Message) (*EventEnvelope, error) {
	if msg == nil || len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal event envelope")
	}
	return &env, nil
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	DeleteTopics(topics ...string) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates and inspects topics through a controller connection.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

func NewTopicManager(ctx context.Context, brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one broker is required")
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessageQueue, "failed to dial kafka")
	}
	return newTopicManagerWithConn(conn, logger), nil
}

func newTopicManagerWithConn(conn ConnInterface, logger logging.Logger) *TopicManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TopicManager{conn: conn, logger: logger.Named("kafka.topics")}
}

// CreateTopic is idempotent: an existing topic is not an error.
func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name is required")
	}
	if cfg.NumPartitions <= 0 || cfg.ReplicationFactor <= 0 {
		return errors.Newf(errors.ErrCodeValidation, "topic %s needs positive partitions and replication factor", cfg.Name)
	}
	if exists, _ := m.TopicExists(ctx, cfg.Name); exists {
		return nil
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(cfg.RetentionMs, 10)})
	}
	if cfg.CleanupPolicy != "" {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}
	for k, v := range cfg.Configs {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: k, ConfigValue: v})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		if errors.Is(err, kafka.TopicAlreadyExists) {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeMessageQueue, "create topic failed").WithDetail("topic=" + cfg.Name)
	}
	m.logger.Info("topic created", logging.String("topic", cfg.Name), logging.Int("partitions", cfg.NumPartitions))
	return nil
}

func (m *TopicManager) DeleteTopic(_ context.Context, name string) error {
	if err := m.conn.DeleteTopics(name); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessageQueue, "delete topic failed").WithDetail("topic=" + name)
	}
	m.logger.Warn("topic deleted", logging.String("topic", name))
	return nil
}

func (m *TopicManager) TopicExists(_ context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeMessageQueue, "read partitions failed")
	}
	return len(partitions) > 0, nil
}

// ListTopics returns topic names in first-seen partition order.
func (m *TopicManager) ListTopics(_ context.Context) ([]string, error) {
	partitions, err := m.conn.ReadPartitions()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessageQueue, "read partitions failed")
	}
	seen := make(map[string]bool)
	var topics []string
	for _, p := range partitions {
		if !seen[p.Topic] {
			seen[p.Topic] = true
			topics = append(topics, p.Topic)
		}
	}
	return topics, nil
}

func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, t := range topics {
		if err := m.CreateTopic(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}

const day = int64(24 * time.Hour / time.Millisecond)

// DefaultTopics are the topics the rating service reads and writes.
// replicationFactor is taken from the caller since single-broker
// development clusters cannot host three replicas.
func DefaultTopics(replicationFactor int) []TopicConfig {
	return []TopicConfig{
		{Name: TopicPremiumCalculated, NumPartitions: 6, ReplicationFactor: replicationFactor, RetentionMs: 7 * day},
		{Name: TopicQuoteRequested, NumPartitions: 6, ReplicationFactor: replicationFactor, RetentionMs: 3 * day},
		{Name: TopicQuoteRequestedDLQ, NumPartitions: 1, ReplicationFactor: replicationFactor, RetentionMs: 30 * day},
	}
}

//Personal.AI order the ending
