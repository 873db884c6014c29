package quoting

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	promclient "github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RateCraft/internal/application/rating"
	domain "github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/memory"
	"github.com/turtacn/RateCraft/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RateCraft/internal/testutil"
	"github.com/turtacn/RateCraft/pkg/errors"
	dto "github.com/turtacn/RateCraft/pkg/types/rating"
)

type capturePublisher struct {
	mu   sync.Mutex
	msgs []*kafka.ProducerMessage
	err  error
}

func (p *capturePublisher) Publish(_ context.Context, msg *kafka.ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func newEngine(t *testing.T) *rating.Engine {
	t.Helper()
	store := memory.NewSeededRatingStore()
	e, err := rating.NewEngine(store, store,
		rating.WithClock(testutil.FixedClock(testutil.FixtureNow)),
		rating.WithIDGenerator(func() string { return "calc-1" }))
	require.NoError(t, err)
	return e
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// caRequest is the wire form of testutil.NewCAQuote.
func caRequest() *dto.QuoteRequest {
	return &dto.QuoteRequest{
		QuoteID:       "Q-CA-001",
		State:         "ca",
		EffectiveDate: "2026-06-01",
		TerritoryCode: "90210",
		Drivers:       []dto.Driver{{Age: 35, YearsLicensed: 17, LicenseJurisdiction: "ca"}},
		Vehicles: []dto.Vehicle{{
			ModelYear:      2022,
			Type:           "Sedan",
			AnnualMileage:  12000,
			SafetyFeatures: []string{"abs", "airbags", "backup_camera", "blind_spot_monitoring"},
			AssessedValue:  dec("28000"),
		}},
		Coverages: []dto.Coverage{
			{Type: "liability", Limit: dec("300000")},
			{Type: "collision", Limit: dec("50000"), Deductible: decPtr("500")},
			{Type: "comprehensive", Limit: dec("50000"), Deductible: decPtr("500")},
		},
		Customer: &dto.Customer{PolicyCount: 2},
	}
}

func TestToPremiumRequest_MatchesDomainFixture(t *testing.T) {
	in, err := ToPremiumRequest(caRequest())
	require.NoError(t, err)

	want := testutil.NewCAQuote()
	got := in.Quote
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, "CA", got.State)
	assert.True(t, want.EffectiveDate.Equal(got.EffectiveDate))
	assert.Equal(t, want.Drivers, got.Drivers)
	assert.Equal(t, want.Vehicles[0].Type, got.Vehicles[0].Type)
	require.Len(t, got.Coverages, 3)
	assert.True(t, got.Coverages[1].Deductible.Equal(dec("500")))
	assert.Equal(t, 2, got.PolicyCount())
	assert.Nil(t, in.OverridePremium)
}

func TestToPremiumRequest_Invalid(t *testing.T) {
	_, err := ToPremiumRequest(nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	req := caRequest()
	req.EffectiveDate = "06/01/2026"
	req.Drivers = nil
	_, err = ToPremiumRequest(req)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	assert.Contains(t, err.Error(), "invalid quote request")
}

func TestService_CalculateParity(t *testing.T) {
	e := newEngine(t)
	svc := NewService(e, logging.NewNopLogger())

	resp, err := svc.Calculate(context.Background(), caRequest())
	require.NoError(t, err)

	direct, err := newEngine(t).CalculatePremium(context.Background(), rating.PremiumRequest{Quote: testutil.NewCAQuote()})
	require.NoError(t, err)

	assert.Equal(t, "calc-1", resp.CalculationID)
	assert.Equal(t, "auto", resp.ProductType)
	assert.Equal(t, "2026-06-01", resp.EffectiveDate)
	assert.True(t, direct.FinalPremium.Equal(resp.FinalPremium), "want %s got %s", direct.FinalPremium, resp.FinalPremium)
	assert.True(t, direct.BasePremium.Equal(resp.BasePremium))
	assert.Len(t, resp.Coverages, 3)
	assert.Nil(t, resp.Coverages[0].Deductible)
	require.NotNil(t, resp.Coverages[1].Deductible)
	assert.True(t, resp.Coverages[1].Deductible.Equal(dec("500")))
	assert.Len(t, resp.Factors, len(direct.Factors))
	assert.Equal(t, string(direct.Compliance.Status), resp.Compliance.Status)

	perf := svc.Performance(context.Background())
	assert.EqualValues(t, 1, perf.Count)
}

func TestService_ManualDiscountAndOverride(t *testing.T) {
	svc := NewService(newEngine(t), nil)
	req := caRequest()
	req.ManualDiscounts = []dto.ManualDiscount{{Code: "loyal", Reason: "retention", Type: "fixed", Amount: dec("10")}}
	req.OverridePremium = decPtr("1500")

	resp, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)

	var manual *dto.Adjustment
	for i := range resp.Discounts {
		if resp.Discounts[i].Manual {
			manual = &resp.Discounts[i]
		}
	}
	require.NotNil(t, manual)
	assert.Equal(t, "LOYAL", manual.Code)
	require.NotNil(t, resp.OverridePremium)
	assert.True(t, resp.OverridePremium.Equal(dec("1500")))
}

func TestService_PublishesPremiumEvent(t *testing.T) {
	pub := &capturePublisher{}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test", Subsystem: "quoting"}, logging.NewNopLogger())
	require.NoError(t, err)
	metrics := prometheus.NewAppMetrics(collector)
	svc := NewService(newEngine(t), nil, WithPublisher(pub), WithMetrics(metrics))

	ctx := logging.WithRequestID(context.Background(), "req-42")
	resp, err := svc.Calculate(ctx, caRequest())
	require.NoError(t, err)

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, kafka.TopicPremiumCalculated, msg.Topic)
	assert.Equal(t, "Q-CA-001", string(msg.Key))
	assert.Equal(t, "req-42", msg.Headers[kafka.HeaderRequestID])

	env, err := kafka.MessageToEventEnvelope(&kafka.Message{Value: msg.Value})
	require.NoError(t, err)
	assert.Equal(t, kafka.EventPremiumCalculated, env.EventType)
	var ev dto.PremiumCalculatedEvent
	require.NoError(t, env.DecodePayload(&ev))
	assert.Equal(t, resp.CalculationID, ev.CalculationID)
	assert.True(t, resp.FinalPremium.Equal(ev.FinalPremium))

	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.EventsPublishedTotal.WithLabelValues(kafka.TopicPremiumCalculated, "success").(promclient.Collector)))
}

func TestService_PublishFailureDoesNotFailCalculation(t *testing.T) {
	log := testutil.NewMockLogger()
	pub := &capturePublisher{err: stderrors.New("broker down")}
	svc := NewService(newEngine(t), log, WithPublisher(pub))

	resp, err := svc.Calculate(context.Background(), caRequest())
	require.NoError(t, err)
	assert.True(t, resp.FinalPremium.IsPositive())
	assert.True(t, log.HasMessage("warn", "premium event not published"))
}

func TestService_EngineErrorPropagates(t *testing.T) {
	svc := NewService(newEngine(t), nil, WithPublisher(&capturePublisher{}))
	req := caRequest()
	req.State = "WY"

	_, err := svc.Calculate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRateTableNotFound))
}

func TestService_InvalidateState(t *testing.T) {
	svc := NewService(newEngine(t), nil)
	n, err := svc.InvalidateState(context.Background(), "CA")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func quoteRequestedMessage(t *testing.T, ev dto.QuoteRequestedEvent) *kafka.Message {
	t.Helper()
	env, err := kafka.NewEventEnvelope(kafka.EventQuoteRequested, "test", ev)
	require.NoError(t, err)
	pm, err := env.ToMessage(kafka.TopicQuoteRequested, ev.Quote.QuoteID)
	require.NoError(t, err)
	return &kafka.Message{Topic: pm.Topic, Key: pm.Key, Value: pm.Value, Headers: pm.Headers}
}

func TestQuoteRequestHandler(t *testing.T) {
	pub := &capturePublisher{}
	svc := NewService(newEngine(t), nil, WithPublisher(pub))
	handler := NewQuoteRequestHandler(svc, nil, nil)

	err := handler(context.Background(), quoteRequestedMessage(t, dto.QuoteRequestedEvent{RequestID: "r-1", Quote: *caRequest()}))
	require.NoError(t, err)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "r-1", pub.msgs[0].Headers[kafka.HeaderRequestID])
}

func TestQuoteRequestHandler_PermanentFailures(t *testing.T) {
	handler := NewQuoteRequestHandler(NewService(newEngine(t), nil), nil, nil)
	ctx := context.Background()

	err := handler(ctx, &kafka.Message{Topic: kafka.TopicQuoteRequested, Value: []byte("{oops")})
	assert.True(t, kafka.IsPermanent(err))

	bad := caRequest()
	bad.Coverages = nil
	err = handler(ctx, quoteRequestedMessage(t, dto.QuoteRequestedEvent{Quote: *bad}))
	assert.True(t, kafka.IsPermanent(err))
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	other, err := kafka.NewEventEnvelope("something.else", "test", map[string]string{})
	require.NoError(t, err)
	raw, err := json.Marshal(other)
	require.NoError(t, err)
	assert.True(t, kafka.IsPermanent(handler(ctx, &kafka.Message{Topic: kafka.TopicQuoteRequested, Value: raw})))
}

type failingEngine struct{ rating.Calculator }

func (failingEngine) CalculatePremium(context.Context, rating.PremiumRequest) (domain.RatingResult, error) {
	return domain.RatingResult{}, errors.New(errors.ErrCodeDatabaseError, "db down")
}

func (failingEngine) InvalidateState(context.Context, string) (int64, error) { return 0, nil }

func TestQuoteRequestHandler_TransientFailureIsRetryable(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test", Subsystem: "worker"}, logging.NewNopLogger())
	require.NoError(t, err)
	metrics := prometheus.NewAppMetrics(collector)
	handler := NewQuoteRequestHandler(NewService(failingEngine{}, nil), metrics, nil)

	err = handler(context.Background(), quoteRequestedMessage(t, dto.QuoteRequestedEvent{Quote: *caRequest()}))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
	processed, err := promtest.GatherAndCount(collector.Gatherer(), "test_worker_messages_processed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.False(t, kafka.IsPermanent(err))
}

//Personal.AI order the ending
