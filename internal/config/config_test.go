package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RateCraft/internal/config"
)

// validConfig returns a postgres-backed Config that passes Validate().
func validConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Driver = "postgres"
	cfg.Database.User = "ratecraft"
	cfg.Database.Password = "secret"
	return cfg
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validConfig().Validate())
	assert.NoError(t, config.Default().Validate())
}

func TestConfig_Validate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{"server port", func(c *config.Config) { c.Server.Port = 70000 }, "server.port"},
		{"server mode", func(c *config.Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"grpc port", func(c *config.Config) { c.GRPC.Enabled = true; c.GRPC.Port = -1 }, "grpc.port"},
		{"database driver", func(c *config.Config) { c.Database.Driver = "sqlite" }, "database.driver"},
		{"database host", func(c *config.Config) { c.Database.Host = "" }, "database.host"},
		{"database user", func(c *config.Config) { c.Database.User = "" }, "database.user"},
		{"database name", func(c *config.Config) { c.Database.DBName = "" }, "database.db_name"},
		{"redis addr", func(c *config.Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"kafka brokers", func(c *config.Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"kafka sasl mechanism", func(c *config.Config) { c.Kafka.Enabled = true; c.Kafka.SASLMechanism = "GSSAPI" }, "kafka.sasl_mechanism"},
		{"kafka sasl credentials", func(c *config.Config) { c.Kafka.Enabled = true; c.Kafka.SASLMechanism = "PLAIN" }, "kafka.sasl_username"},
		{"signals base url", func(c *config.Config) { c.Signals.Enabled = true; c.Signals.Provider = "http" }, "signals.base_url"},
		{"ai endpoint", func(c *config.Config) { c.AI.Enabled = true; c.AI.Mode = "remote" }, "ai.endpoint"},
		{"log level", func(c *config.Config) { c.Log.Level = "trace" }, "log.level"},
		{"discount cap", func(c *config.Config) { c.Rating.DiscountCap = 1.2 }, "rating.discount_cap"},
		{"override threshold", func(c *config.Config) { c.Rating.OverrideApprovalThreshold = -0.1 }, "override_approval_threshold"},
		{"factor bounds", func(c *config.Config) { c.Rating.FactorBounds = config.BoundsConfig{Min: 1.5, Max: 5} }, "rating.factor_bounds"},
		{"signal timeout", func(c *config.Config) { c.Rating.SignalTimeout = -time.Millisecond }, "signal_timeout"},
		{"coverage bounds", func(c *config.Config) {
			c.Rating.CoverageBounds = map[string]config.BoundsConfig{"liability": {Min: 500, Max: 100}}
		}, "coverage_bounds"},
		{"unknown coverage bound", func(c *config.Config) {
			c.Rating.CoverageBounds = map[string]config.BoundsConfig{"gap": {Min: 10, Max: 100}}
		}, `unknown coverage "gap"`},
		{"unknown minimum limit", func(c *config.Config) {
			c.Rating.Jurisdictions = map[string]config.JurisdictionConfig{"fl": {MinimumLimits: map[string]float64{"personal_injury": 10000}}}
		}, "jurisdictions.fl.minimum_limits"},
		{"unknown required coverage", func(c *config.Config) {
			c.Rating.Jurisdictions = map[string]config.JurisdictionConfig{"fl": {RequiredCoverages: []string{"liability", "personal_injury"}}}
		}, `required_coverages has unknown coverage "personal_injury"`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_Validate_MemoryDriverSkipsDatabase(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Database.Driver = "memory"
	cfg.Database.Host = ""
	cfg.Database.User = ""
	assert.NoError(t, cfg.Validate())
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	assert.Equal(t, config.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, config.DefaultDBDriver, cfg.Database.Driver)
	assert.Equal(t, config.DefaultRedisKeyPrefix, cfg.Redis.KeyPrefix)
	assert.Equal(t, 0.25, cfg.Rating.DiscountCap)
	assert.Equal(t, 0.15, cfg.Rating.OverrideApprovalThreshold)
	assert.Equal(t, config.BoundsConfig{Min: 0.1, Max: 5.0}, cfg.Rating.FactorBounds)
	assert.Equal(t, config.BoundsConfig{Min: 0.85, Max: 1.15}, cfg.Rating.AIMultiplierBounds)
	assert.Equal(t, 15*time.Millisecond, cfg.Rating.SignalTimeout)
	assert.Equal(t, 20*time.Millisecond, cfg.Rating.AITimeout)
	assert.Equal(t, 5*time.Minute, cfg.Rating.CacheTTL)
	assert.Equal(t, 50*time.Millisecond, cfg.Rating.LatencyTarget)
	assert.Empty(t, cfg.Rating.Jurisdictions)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Server.Port = 9999
	cfg.Rating.DiscountCap = 0.30
	config.ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 0.30, cfg.Rating.DiscountCap)

	assert.NotPanics(t, func() { config.ApplyDefaults(nil) })
}

//Personal.AI order the ending
