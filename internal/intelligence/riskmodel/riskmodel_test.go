package riskmodel

import (
	"context"
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/turtacn/RateCraft/internal/config"
	domain "github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RateCraft/internal/testutil"
	"github.com/turtacn/RateCraft/pkg/errors"
)

func TestExtractFeatures(t *testing.T) {
	got := featureMap(ExtractFeatures(testutil.NewCAQuote()))
	assert.Equal(t, map[string]float64{
		FeatureDriverAge:      35,
		FeatureYearsLicensed:  17,
		FeatureViolations:     0,
		FeatureAccidents:      0,
		FeatureDUI:            0,
		FeatureVehicleAge:     4,
		FeatureMileage:        12,
		FeatureSafetyFeatures: 4,
		FeaturePolicyCount:    2,
	}, got)
}

func referenceQuote() *domain.Quote {
	q := testutil.NewCAQuote()
	q.Drivers[0].Age = 40
	q.Drivers[0].YearsLicensed = 10
	q.Vehicles[0].ModelYear = testutil.FixtureEffective.Year() - 5
	q.Vehicles[0].SafetyFeatures = []string{"abs", "airbags"}
	q.Customer.PolicyCount = 1
	return q
}

func TestLocalScorer_ReferenceIsNeutral(t *testing.T) {
	s := NewLocalScorer(nil)
	score, err := s.Score(context.Background(), referenceQuote())
	require.NoError(t, err)
	assert.True(t, score.Multiplier.Equal(decimal.NewFromInt(1)), "got %s", score.Multiplier)
	assert.Equal(t, 1.0, score.Confidence)
	assert.Equal(t, DefaultModelVersion, score.ModelVersion)
	assert.Len(t, score.Contributions, 9)
}

func TestLocalScorer_Explainable(t *testing.T) {
	s := NewLocalScorer(DefaultLinearModel())
	ctx := context.Background()

	safe, err := s.Score(ctx, testutil.NewCAQuote())
	require.NoError(t, err)
	risky, err := s.Score(ctx, testutil.NewTXQuote())
	require.NoError(t, err)

	assert.True(t, safe.Multiplier.LessThan(decimal.NewFromInt(1)))
	assert.True(t, risky.Multiplier.GreaterThan(safe.Multiplier))

	sum := 0.0
	for _, c := range risky.Contributions {
		sum += c.Contribution
	}
	m, _ := risky.Multiplier.Float64()
	assert.InDelta(t, math.Log(m), sum, 1e-3, "contributions explain the multiplier")
}

func TestLinearModel_OutOfRangeLowersConfidence(t *testing.T) {
	q := testutil.NewCAQuote()
	q.Drivers[0].Age = 97
	q.Drivers[0].YearsLicensed = 79

	score, err := NewLocalScorer(nil).Score(context.Background(), q)
	require.NoError(t, err)
	assert.InDelta(t, 1-0.5*2.0/9.0, score.Confidence, 1e-9)
	assert.Equal(t, 97.0, score.Contributions[0].Value, "reported value is unclamped")
	assert.InDelta(t, -0.006*(90-40), score.Contributions[0].Contribution, 1e-9)
}

func TestLocalScorer_Errors(t *testing.T) {
	s := NewLocalScorer(nil)
	_, err := s.Score(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Score(ctx, testutil.NewCAQuote())
	assert.ErrorIs(t, err, context.Canceled)
}

type fakePoster struct {
	path string
	body scoreRequest
	resp string
	err  error
}

func (f *fakePoster) PostJSON(_ context.Context, path string, body, out interface{}) error {
	f.path = path
	f.body = body.(scoreRequest)
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.resp), out)
}

func TestRemoteScorer(t *testing.T) {
	p := &fakePoster{resp: `{"multiplier":"1.12","confidence":0.91,"contributions":[{"feature":"accidents","value":1,"contribution":0.09}]}`}
	s := NewRemoteScorer(p, "gbm-7")

	score, err := s.Score(context.Background(), testutil.NewTXQuote())
	require.NoError(t, err)
	assert.Equal(t, "/v1/score", p.path)
	assert.Equal(t, "gbm-7", p.body.ModelVersion)
	assert.Equal(t, "TX", p.body.State)
	assert.Equal(t, 19.0, p.body.Features[FeatureDriverAge])

	assert.Equal(t, "1.12", score.Multiplier.String())
	assert.Equal(t, "gbm-7", score.ModelVersion)
	assert.Equal(t, 0.91, score.Confidence)
	require.Len(t, score.Contributions, 1)
	assert.Equal(t, "accidents", score.Contributions[0].Feature)
}

func TestRemoteScorer_Failures(t *testing.T) {
	s := NewRemoteScorer(&fakePoster{err: errors.New(errors.ErrCodeTimeout, "slow")}, "")
	_, err := s.Score(context.Background(), testutil.NewTXQuote())
	assert.True(t, errors.IsCode(err, errors.ErrCodeAIScoringUnavailable))
	assert.Equal(t, ModeRemote, s.ModelVersion())

	s = NewRemoteScorer(&fakePoster{resp: `{"multiplier":"-1"}`}, "")
	_, err = s.Score(context.Background(), testutil.NewTXQuote())
	assert.True(t, errors.IsCode(err, errors.ErrCodeAIScoringUnavailable))
}

func TestNewScorer(t *testing.T) {
	s, err := NewScorer(config.AIConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = NewScorer(config.AIConfig{Enabled: true, Mode: "local", ModelVersion: "linear-test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "linear-test", s.ModelVersion())

	s, err = NewScorer(config.AIConfig{Enabled: true, Mode: "remote", Endpoint: "http://models.local"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, s.ModelVersion())

	_, err = NewScorer(config.AIConfig{Enabled: true, Mode: "onnx"}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestNewScorer_MinConfidenceAndMetrics(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test", Subsystem: "ai"}, logging.NewNopLogger())
	require.NoError(t, err)

	s, err := NewScorer(config.AIConfig{Enabled: true, Mode: "local", MinConfidence: 0.95}, nil,
		WithMetrics(NewScorerMetrics(collector)))
	require.NoError(t, err)

	_, err = s.Score(context.Background(), testutil.NewCAQuote())
	require.NoError(t, err)

	q := testutil.NewCAQuote()
	q.Drivers[0].Age = 97
	_, err = s.Score(context.Background(), q)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAIScoringUnavailable))

	n, err := promtest.GatherAndCount(collector.Gatherer(), "test_ai_ai_scores_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per outcome")
}

//Personal.AI order the ending
