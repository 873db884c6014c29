// Package config defines the configuration structures for RateCraft.  No I/O
// or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GRPCConfig holds the gRPC health server settings.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// DatabaseConfig holds rate-table store parameters.  Driver "memory" serves
// the built-in catalog without PostgreSQL.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // "postgres" | "memory"
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig holds cache connection parameters.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds event publication and worker consumption parameters.
type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	BatchSize       int           `mapstructure:"batch_size"`
	MaxRetries      int           `mapstructure:"max_retries"`
	// SASLMechanism is empty, "PLAIN", "SCRAM-SHA-256" or "SCRAM-SHA-512".
	SASLMechanism string `mapstructure:"sasl_mechanism"`
	SASLUsername  string `mapstructure:"sasl_username"`
	SASLPassword  string `mapstructure:"sasl_password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	TLSCAPath     string `mapstructure:"tls_ca_path"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// SignalsConfig selects the external risk-signal provider.
type SignalsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Provider string `mapstructure:"provider"` // "http" | "static"
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	// MaxConnsPerHost bounds the pooled client.
	MaxConnsPerHost int `mapstructure:"max_conns_per_host"`
	// Static multipliers keyed "<kind>_<state>" (e.g. "weather_fl") for the
	// static provider.
	Static map[string]float64 `mapstructure:"static"`
}

// AIConfig selects the statistical risk scorer.
type AIConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	Mode          string  `mapstructure:"mode"` // "local" | "remote"
	Endpoint      string  `mapstructure:"endpoint"`
	ModelVersion  string  `mapstructure:"model_version"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// WorkerConfig holds the rating worker's execution parameters.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxRetries  int `mapstructure:"max_retries"`
}

// BoundsConfig is a min/max pair.
type BoundsConfig struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// JurisdictionConfig holds one state's coverage and premium constraints.
type JurisdictionConfig struct {
	MinimumLimits     map[string]float64 `mapstructure:"minimum_limits"`
	RequiredCoverages []string           `mapstructure:"required_coverages"`
	MinPremium        float64            `mapstructure:"min_premium"`
	MaxPremium        float64            `mapstructure:"max_premium"`
}

// RatingConfig holds every tunable of the premium pipeline.  Zero values are
// filled by ApplyDefaults.
type RatingConfig struct {
	DiscountCap               float64       `mapstructure:"discount_cap"`
	OverrideApprovalThreshold float64       `mapstructure:"override_approval_threshold"`
	FactorBounds              BoundsConfig  `mapstructure:"factor_bounds"`
	AIMultiplierBounds        BoundsConfig  `mapstructure:"ai_multiplier_bounds"`
	MaxFixedSurcharge         float64       `mapstructure:"max_fixed_surcharge"`
	SignalTimeout             time.Duration `mapstructure:"signal_timeout"`
	AITimeout                 time.Duration `mapstructure:"ai_timeout"`
	StoreTimeout              time.Duration `mapstructure:"store_timeout"`
	CacheTTL                  time.Duration `mapstructure:"cache_ttl"`
	LatencyTarget             time.Duration `mapstructure:"latency_target"`

	CoverageBounds map[string]BoundsConfig       `mapstructure:"coverage_bounds"`
	Jurisdictions  map[string]JurisdictionConfig `mapstructure:"jurisdictions"`
}

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Signals  SignalsConfig  `mapstructure:"signals"`
	AI       AIConfig       `mapstructure:"ai"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Rating   RatingConfig   `mapstructure:"rating"`
}

// Validate performs semantic validation of a fully populated Config and
// returns the first problem found.  Callers treat any error as fatal.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.GRPC.Enabled && (c.GRPC.Port < 1 || c.GRPC.Port > 65535) {
		return fmt.Errorf("config: grpc.port %d is out of range [1, 65535]", c.GRPC.Port)
	}

	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
		}
	default:
		return fmt.Errorf("config: database.driver %q is invalid; expected postgres|memory", c.Database.Driver)
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required")
		}
		switch c.Kafka.SASLMechanism {
		case "":
		case "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
			if c.Kafka.SASLUsername == "" || c.Kafka.SASLPassword == "" {
				return fmt.Errorf("config: kafka.sasl_username and kafka.sasl_password are required with sasl_mechanism")
			}
		default:
			return fmt.Errorf("config: kafka.sasl_mechanism %q is invalid; expected PLAIN|SCRAM-SHA-256|SCRAM-SHA-512", c.Kafka.SASLMechanism)
		}
	}

	if c.Signals.Enabled {
		switch c.Signals.Provider {
		case "static":
		case "http":
			if c.Signals.BaseURL == "" {
				return fmt.Errorf("config: signals.base_url is required for the http provider")
			}
		default:
			return fmt.Errorf("config: signals.provider %q is invalid; expected http|static", c.Signals.Provider)
		}
	}
	if c.AI.Enabled {
		switch c.AI.Mode {
		case "local":
		case "remote":
			if c.AI.Endpoint == "" {
				return fmt.Errorf("config: ai.endpoint is required in remote mode")
			}
		default:
			return fmt.Errorf("config: ai.mode %q is invalid; expected local|remote", c.AI.Mode)
		}
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return c.Rating.Validate()
}

// CoverageTypes are the coverage names accepted in rating.coverage_bounds
// and rating.jurisdictions.  They match the engine's coverage types.
var CoverageTypes = []string{
	"liability", "collision", "comprehensive", "pip", "uninsured_motorist",
	"medical_payments", "dwelling", "personal_property", "personal_liability",
}

func knownCoverage(name string) bool {
	name = strings.ToLower(name)
	for _, c := range CoverageTypes {
		if c == name {
			return true
		}
	}
	return false
}

// Validate checks the rating tunables.
func (r *RatingConfig) Validate() error {
	if r.DiscountCap <= 0 || r.DiscountCap >= 1 {
		return fmt.Errorf("config: rating.discount_cap %.4f must be in (0, 1)", r.DiscountCap)
	}
	if r.OverrideApprovalThreshold <= 0 || r.OverrideApprovalThreshold >= 1 {
		return fmt.Errorf("config: rating.override_approval_threshold %.4f must be in (0, 1)", r.OverrideApprovalThreshold)
	}
	if err := validateMultiplierBounds("rating.factor_bounds", r.FactorBounds); err != nil {
		return err
	}
	if err := validateMultiplierBounds("rating.ai_multiplier_bounds", r.AIMultiplierBounds); err != nil {
		return err
	}
	if r.MaxFixedSurcharge < 0 {
		return fmt.Errorf("config: rating.max_fixed_surcharge must be >= 0")
	}
	for name, d := range map[string]time.Duration{
		"signal_timeout": r.SignalTimeout,
		"ai_timeout":     r.AITimeout,
		"store_timeout":  r.StoreTimeout,
		"latency_target": r.LatencyTarget,
	} {
		if d <= 0 {
			return fmt.Errorf("config: rating.%s must be positive", name)
		}
	}
	if r.CacheTTL < 0 {
		return fmt.Errorf("config: rating.cache_ttl must be >= 0")
	}
	for cov, b := range r.CoverageBounds {
		if !knownCoverage(cov) {
			return fmt.Errorf("config: rating.coverage_bounds has unknown coverage %q", cov)
		}
		if b.Min < 0 || (b.Max > 0 && b.Max < b.Min) {
			return fmt.Errorf("config: rating.coverage_bounds.%s has an invalid range [%.2f, %.2f]", cov, b.Min, b.Max)
		}
	}
	for state, j := range r.Jurisdictions {
		for cov := range j.MinimumLimits {
			if !knownCoverage(cov) {
				return fmt.Errorf("config: rating.jurisdictions.%s.minimum_limits has unknown coverage %q", state, cov)
			}
		}
		for _, cov := range j.RequiredCoverages {
			if !knownCoverage(cov) {
				return fmt.Errorf("config: rating.jurisdictions.%s.required_coverages has unknown coverage %q", state, cov)
			}
		}
		if j.MaxPremium > 0 && j.MaxPremium < j.MinPremium {
			return fmt.Errorf("config: rating.jurisdictions.%s max_premium is below min_premium", state)
		}
	}
	return nil
}

func validateMultiplierBounds(key string, b BoundsConfig) error {
	if b.Min <= 0 || b.Min > 1 || b.Max < 1 {
		return fmt.Errorf("config: %s [%.4f, %.4f] must satisfy 0 < min <= 1 <= max", key, b.Min, b.Max)
	}
	return nil
}

//Personal.AI order the ending
