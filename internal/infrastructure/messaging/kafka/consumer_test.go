package kafka

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RateCraft/internal/config"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
)

// fakeReader hands out queued messages, then blocks until ctx ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) Stats() kafka.ReaderStats { return kafka.ReaderStats{} }

func (r *fakeReader) commitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*ProducerMessage
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg *ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func testConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "ratecraft-test",
		Topics:  []string{TopicQuoteRequested},
		Retry:   RetryConfig{MaxRetries: 2, DeadLetterTopic: TopicQuoteRequestedDLQ},
	}
}

func newTestConsumer(r ReaderInterface, dl Publisher) *Consumer {
	c := newConsumerWithReader(r, dl, testConsumerConfig(), logging.NewNopLogger())
	c.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return c
}

func TestValidateConsumerConfig(t *testing.T) {
	assert.NoError(t, ValidateConsumerConfig(testConsumerConfig()))

	cfg := testConsumerConfig()
	cfg.Brokers = nil
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = testConsumerConfig()
	cfg.GroupID = ""
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = testConsumerConfig()
	cfg.AutoOffsetReset = "middle"
	assert.Error(t, ValidateConsumerConfig(cfg))
}

func TestConsumerConfigFromConfig(t *testing.T) {
	cfg := ConsumerConfigFromConfig(config.KafkaConfig{
		Brokers: []string{"k:9092"}, GroupID: "g", AutoOffsetReset: "latest", MaxRetries: 4,
	})
	assert.Equal(t, []string{TopicQuoteRequested}, cfg.Topics)
	assert.Equal(t, TopicQuoteRequestedDLQ, cfg.Retry.DeadLetterTopic)
	assert.Equal(t, 4, cfg.Retry.MaxRetries)
	assert.NoError(t, ValidateConsumerConfig(cfg))
}

func TestConsumer_StartTwice(t *testing.T) {
	c := newTestConsumer(&fakeReader{}, nil)
	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)
	require.NoError(t, c.Close())
}

func TestConsumer_DeliversAndCommits(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{{
		Topic:         TopicQuoteRequested,
		Offset:        41,
		HighWaterMark: 45,
		Key:           []byte("Q-1"),
		Value:         []byte(`{}`),
		Headers:       []kafka.Header{{Key: HeaderRequestID, Value: []byte("req-1")}},
	}}}
	c := newTestConsumer(r, nil)

	got := make(chan *Message, 1)
	c.Subscribe(TopicQuoteRequested, func(_ context.Context, msg *Message) error {
		got <- msg
		return nil
	})
	require.NoError(t, c.Start(context.Background()))

	select {
	case msg := <-got:
		assert.Equal(t, "Q-1", string(msg.Key))
		assert.Equal(t, "req-1", msg.Headers[HeaderRequestID])
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
	assert.Eventually(t, func() bool { return r.commitCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	m := c.GetMetrics()
	assert.EqualValues(t, 1, m.MessagesConsumed)
	assert.EqualValues(t, 1, m.MessagesProcessed)
	assert.EqualValues(t, 3, m.Lag)
	assert.True(t, r.closed)
}

func TestConsumer_UnhandledTopicIsCommitted(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{{Topic: "other", Value: []byte("x")}}}
	c := newTestConsumer(r, nil)
	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool { return r.commitCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
}

func TestProcessMessage_RetryThenSuccess(t *testing.T) {
	c := newTestConsumer(&fakeReader{}, nil)
	var calls atomic.Int32
	handler := func(context.Context, *Message) error {
		if calls.Add(1) < 2 {
			return stderrors.New("transient")
		}
		return nil
	}

	require.NoError(t, c.processMessage(context.Background(), &Message{Topic: TopicQuoteRequested}, handler))
	assert.EqualValues(t, 2, calls.Load())
	m := c.GetMetrics()
	assert.EqualValues(t, 1, m.MessagesRetried)
	assert.EqualValues(t, 1, m.MessagesProcessed)
}

func TestProcessMessage_ExhaustedGoesToDeadLetter(t *testing.T) {
	dl := &recordingPublisher{}
	c := newTestConsumer(&fakeReader{}, dl)
	var calls atomic.Int32
	handler := func(context.Context, *Message) error {
		calls.Add(1)
		return stderrors.New("bad payload")
	}

	msg := &Message{Topic: TopicQuoteRequested, Key: []byte("Q-9"), Value: []byte("{"), Headers: map[string]string{HeaderRequestID: "r"}}
	require.NoError(t, c.processMessage(context.Background(), msg, handler))

	assert.EqualValues(t, 3, calls.Load(), "one attempt plus two retries")
	require.Len(t, dl.msgs, 1)
	out := dl.msgs[0]
	assert.Equal(t, TopicQuoteRequestedDLQ, out.Topic)
	assert.Equal(t, "Q-9", string(out.Key))
	assert.Equal(t, TopicQuoteRequested, out.Headers[HeaderOriginalTopic])
	assert.Equal(t, "bad payload", out.Headers[HeaderErrorMessage])
	assert.Equal(t, "3", out.Headers[HeaderAttempts])
	assert.Equal(t, "r", out.Headers[HeaderRequestID])
	_, leaked := msg.Headers[HeaderOriginalTopic]
	assert.False(t, leaked, "source headers are not mutated")

	m := c.GetMetrics()
	assert.EqualValues(t, 1, m.MessagesFailed)
	assert.EqualValues(t, 1, m.MessagesDeadLettered)
}

func TestProcessMessage_PermanentSkipsRetries(t *testing.T) {
	dl := &recordingPublisher{}
	c := newTestConsumer(&fakeReader{}, dl)
	var calls atomic.Int32

	err := c.processMessage(context.Background(), &Message{Topic: TopicQuoteRequested}, func(context.Context, *Message) error {
		calls.Add(1)
		return Permanent(stderrors.New("invalid quote"))
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
	require.Len(t, dl.msgs, 1)
	assert.Equal(t, "1", dl.msgs[0].Headers[HeaderAttempts])
	assert.Equal(t, "invalid quote", dl.msgs[0].Headers[HeaderErrorMessage])
	assert.Nil(t, Permanent(nil))
}

func TestProcessMessage_CancelledDuringRetry(t *testing.T) {
	c := newTestConsumer(&fakeReader{}, &recordingPublisher{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.processMessage(ctx, &Message{Topic: TopicQuoteRequested}, func(context.Context, *Message) error {
		return stderrors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, c.GetMetrics().MessagesDeadLettered)
}

//Personal.AI order the ending
