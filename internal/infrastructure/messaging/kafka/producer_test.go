package kafka

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RateCraft/internal/config"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) Stats() kafka.WriterStats { return kafka.WriterStats{} }

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

func newTestProducer(w WriterInterface) *Producer {
	return newProducerWithWriter(w, ProducerConfig{Brokers: []string{"localhost:9092"}}, logging.NewNopLogger())
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	assert.True(t, errors.IsCode(ValidateProducerConfig(ProducerConfig{}), errors.ErrCodeValidation))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, MaxRetries: -1}))
}

func TestProducerConfigFromConfig(t *testing.T) {
	cfg := ProducerConfigFromConfig(config.KafkaConfig{
		Brokers:       []string{"k1:9092", "k2:9092"},
		MaxRetries:    5,
		WriteTimeout:  2 * time.Second,
		SASLMechanism: "SCRAM-SHA-512",
		SASLUsername:  "rating",
		SASLPassword:  "secret",
	})
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.Equal(t, "all", cfg.Acks)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, "SCRAM-SHA-512", cfg.Security.SASLMechanism)

	mech, err := saslMechanism(cfg.Security)
	require.NoError(t, err)
	assert.Equal(t, "SCRAM-SHA-512", mech.Name())
}

func TestSASLMechanism_Unsupported(t *testing.T) {
	_, err := saslMechanism(SecurityConfig{SASLMechanism: "GSSAPI"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	mech, err := saslMechanism(SecurityConfig{})
	require.NoError(t, err)
	assert.Nil(t, mech)
}

func TestTLSConfig_MissingCA(t *testing.T) {
	tc, err := tlsConfig(SecurityConfig{})
	require.NoError(t, err)
	assert.Nil(t, tc)

	_, err = tlsConfig(SecurityConfig{TLSEnabled: true, TLSCAPath: "/nonexistent/ca.pem"})
	assert.Error(t, err)
}

func TestPublish_Success(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{
		Topic:   TopicPremiumCalculated,
		Key:     []byte("Q-1"),
		Value:   []byte(`{"ok":true}`),
		Headers: map[string]string{HeaderEventType: EventPremiumCalculated},
	})
	require.NoError(t, err)

	msgs := w.written()
	require.Len(t, msgs, 1)
	assert.Equal(t, TopicPremiumCalculated, msgs[0].Topic)
	assert.Equal(t, "Q-1", string(msgs[0].Key))
	require.Len(t, msgs[0].Headers, 1)
	assert.Equal(t, HeaderEventType, msgs[0].Headers[0].Key)
	assert.False(t, msgs[0].Time.IsZero())

	m := p.GetMetrics()
	assert.EqualValues(t, 1, m.MessagesSent)
	assert.EqualValues(t, len(`{"ok":true}`), m.BytesSent)
	assert.False(t, m.LastSentAt.IsZero())
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&fakeWriter{})
	ctx := context.Background()

	assert.Error(t, p.Publish(ctx, &ProducerMessage{Value: []byte("x")}))
	assert.Error(t, p.Publish(ctx, &ProducerMessage{Topic: "t"}))
	assert.Error(t, p.Publish(ctx, &ProducerMessage{Topic: "t", Value: make([]byte, 2<<20)}))
}

func TestPublish_WriterFailure(t *testing.T) {
	p := newTestProducer(&fakeWriter{err: stderrors.New("broker unavailable")})

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMessageQueue))
	assert.EqualValues(t, 1, p.GetMetrics().MessagesFailed)
}

func TestPublishBatch_PartialFailure(t *testing.T) {
	w := &fakeWriter{err: kafka.WriteErrors{nil, stderrors.New("leader not available"), nil}}
	p := newTestProducer(w)

	res, err := p.PublishBatch(context.Background(), []*ProducerMessage{
		{Topic: "a", Value: []byte("1")},
		{Topic: "b", Value: []byte("2")},
		{Topic: "c", Value: []byte("3")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Equal(t, "b", res.Errors[0].Topic)
}

func TestPublishBatch_TotalFailure(t *testing.T) {
	p := newTestProducer(&fakeWriter{err: stderrors.New("timeout")})

	res, err := p.PublishBatch(context.Background(), []*ProducerMessage{{Topic: "a", Value: []byte("1")}, {Topic: "a", Value: []byte("2")}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, -1, res.Errors[0].Index)

	_, err = p.PublishBatch(context.Background(), nil)
	assert.Error(t, err)
}

func TestPublishAsync_ReportsFailure(t *testing.T) {
	w := &fakeWriter{err: stderrors.New("down")}
	failed := make(chan *ProducerMessage, 1)
	p := newProducerWithWriter(w, ProducerConfig{
		Brokers:           []string{"localhost:9092"},
		AsyncErrorHandler: func(_ error, msg *ProducerMessage) { failed <- msg },
	}, nil)

	p.PublishAsync(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	select {
	case msg := <-failed:
		assert.Equal(t, "t", msg.Topic)
	case <-time.After(2 * time.Second):
		t.Fatal("async error handler not called")
	}
}

func TestProducerClose(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")}), ErrProducerClosed)
}

//Personal.AI order the ending
