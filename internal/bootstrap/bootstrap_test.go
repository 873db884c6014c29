package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RateCraft/internal/config"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/internal/testutil"
	dto "github.com/turtacn/RateCraft/pkg/types/rating"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "bootstrap_test"
	return cfg
}

func quoteRequest() *dto.QuoteRequest {
	deductible := decimal.NewFromInt(500)
	return &dto.QuoteRequest{
		QuoteID:       "Q-BOOT-1",
		State:         "CA",
		EffectiveDate: "2026-06-01",
		TerritoryCode: "90210",
		Drivers:       []dto.Driver{{Age: 35, YearsLicensed: 17, LicenseJurisdiction: "CA"}},
		Vehicles:      []dto.Vehicle{{ModelYear: 2022, Type: "sedan", AnnualMileage: 12000, AssessedValue: decimal.NewFromInt(28000)}},
		Coverages: []dto.Coverage{
			{Type: "liability", Limit: decimal.NewFromInt(300000)},
			{Type: "collision", Limit: decimal.NewFromInt(50000), Deductible: &deductible},
		},
	}
}

func TestBuild_MemoryRuntime(t *testing.T) {
	cfg := memoryConfig()
	rt, err := Build(context.Background(), cfg, nil, Options{
		Clock: testutil.FixedClock(testutil.FixtureNow),
		IDs:   func() string { return "calc-boot" },
	})
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.DB())
	assert.Nil(t, rt.Producer)
	assert.Empty(t, rt.Checks)
	require.NotNil(t, rt.Metrics)
	assert.True(t, rt.Engine.Cache().Enabled())

	resp, err := rt.Service.Calculate(context.Background(), quoteRequest())
	require.NoError(t, err)
	assert.Equal(t, "calc-boot", resp.CalculationID)
	assert.True(t, resp.FinalPremium.IsPositive())

	calculations, err := promtest.GatherAndCount(rt.Collector.Gatherer(), "bootstrap_test_premium_calculations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, calculations)
	assert.EqualValues(t, 1, rt.Service.Performance(context.Background()).Count)
}

func TestBuild_MetricsDisabled(t *testing.T) {
	cfg := config.Default()
	rt, err := Build(context.Background(), cfg, logging.NewNopLogger(), Options{})
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.Collector)
	assert.Nil(t, rt.Metrics)
	_, err = rt.Service.Calculate(context.Background(), quoteRequest())
	require.NoError(t, err)
}

func TestBuild_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.ReadTimeout = time.Second
	cfg.Redis.WriteTimeout = time.Second

	rt, err := Build(context.Background(), cfg, nil, Options{})
	require.NoError(t, err)
	defer rt.Close()

	require.Len(t, rt.Checks, 1)
	assert.Equal(t, "redis", rt.Checks[0].Name())
	assert.NoError(t, rt.Checks[0].Check(context.Background()))

	_, err = rt.Service.Calculate(context.Background(), quoteRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys(), "rate lookups should be cached in redis")

	n, err := rt.Service.InvalidateState(context.Background(), "ca")
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestBuild_SignalsAndAI(t *testing.T) {
	cfg := memoryConfig()
	cfg.Signals.Enabled = true
	cfg.Signals.Static = map[string]float64{"weather_ca": 1.05}
	cfg.AI.Enabled = true

	rt, err := Build(context.Background(), cfg, nil, Options{Clock: testutil.FixedClock(testutil.FixtureNow)})
	require.NoError(t, err)
	defer rt.Close()
	assert.True(t, rt.Engine.AIEnabled())

	resp, err := rt.Service.Calculate(context.Background(), quoteRequest())
	require.NoError(t, err)
	var sources []string
	for _, f := range resp.Factors {
		sources = append(sources, f.Source)
	}
	assert.Contains(t, sources, "model")
	assert.Contains(t, sources, "external")
}

func TestBuild_BadSignalsProvider(t *testing.T) {
	cfg := memoryConfig()
	cfg.Signals.Enabled = true
	cfg.Signals.Provider = "carrier-pigeon"

	_, err := Build(context.Background(), cfg, nil, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signals")
}

func TestApplyConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.AI.Enabled = true
	rt, err := Build(context.Background(), cfg, nil, Options{})
	require.NoError(t, err)
	defer rt.Close()

	next := memoryConfig()
	next.AI.Enabled = false
	next.Rating.CacheTTL = time.Minute
	next.Rating.LatencyTarget = 20 * time.Millisecond
	rt.ApplyConfig(next)

	assert.False(t, rt.Engine.AIEnabled())
	assert.Equal(t, time.Minute, rt.Engine.Policy().CacheTTL)
	assert.Equal(t, 20.0, rt.Service.Performance(context.Background()).TargetMs)
}

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog()
	assert.NotEmpty(t, cat.RateTables)
	assert.NotEmpty(t, cat.Statewide)
	assert.NotEmpty(t, cat.Territories)

	kinds := map[string]int{}
	for _, r := range cat.Rules {
		kinds[string(r.Kind)]++
	}
	assert.Len(t, kinds, 2)
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(config.LogConfig{Level: "debug", Format: "console"}, "ratecraft-test")
	require.NoError(t, err)
	assert.NotNil(t, log)

	_, err = NewLogger(config.LogConfig{Level: "loud"}, "x")
	assert.Error(t, err)
}

//Personal.AI order the ending
