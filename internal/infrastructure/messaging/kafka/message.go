// Package kafka carries rating events over Kafka: a producer for
// rating.premium.calculated, a consumer group for rating.quote.requested
// with retry and dead-lettering, and topic management.
package kafka

import (
	"context"
	"time"
)

// Message is a consumed record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerMessage is a record to publish.  Partition is ignored unless the
// writer is configured for manual partitioning.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one message.  A returned error triggers retries.
type MessageHandler func(ctx context.Context, msg *Message) error

// Publisher is the subset of Producer the application layer depends on.
type Publisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
}

// BatchItemError reports one failed record of a batch.  Index is -1 when
// the whole batch failed.
type BatchItemError struct {
	Index int
	Topic string
	Error error
}

type BatchPublishResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	Configs           map[string]string
}

//Personal.AI order the ending
