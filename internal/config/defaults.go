// Package config provides configuration loading, defaults, and validation for
// RateCraft.
package config

import "time"

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"
	DefaultGRPCPort   = 9090

	DefaultDBDriver   = "memory"
	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "ratecraft"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "ratecraft:"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "ratecraft-rating"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "ratecraft"

	DefaultSignalsProvider = "static"
	DefaultAIMode          = "local"

	DefaultWorkerConcurrency = 8

	DefaultDiscountCap               = 0.25
	DefaultOverrideApprovalThreshold = 0.15
	DefaultFactorMin                 = 0.1
	DefaultFactorMax                 = 5.0
	DefaultAIMultiplierMin           = 0.85
	DefaultAIMultiplierMax           = 1.15
	DefaultMaxFixedSurcharge         = 1000.0
	DefaultSignalTimeout             = 15 * time.Millisecond
	DefaultAITimeout                 = 20 * time.Millisecond
	DefaultStoreTimeout              = 25 * time.Millisecond
	DefaultCacheTTL                  = 5 * time.Minute
	DefaultLatencyTarget             = 50 * time.Millisecond
)

// ApplyDefaults fills every zero-value field in cfg.  Values already set by
// the caller are left unchanged so that explicit configuration always wins.
// Empty coverage bounds and jurisdiction maps are left empty; the rating
// policy falls back to its built-in rules for those.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 5 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 1 << 20
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDBDriver
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 20
	}
	// Redis reads sit on the rating hot path; keep them well under the
	// latency target.
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 10 * time.Millisecond
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 10 * time.Millisecond
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = time.Second
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 5 * time.Second
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 3
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Signals.Provider == "" {
		cfg.Signals.Provider = DefaultSignalsProvider
	}
	if cfg.Signals.MaxConnsPerHost == 0 {
		cfg.Signals.MaxConnsPerHost = 64
	}
	if cfg.AI.Mode == "" {
		cfg.AI.Mode = DefaultAIMode
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}

	applyRatingDefaults(&cfg.Rating)
}

func applyRatingDefaults(r *RatingConfig) {
	if r.DiscountCap == 0 {
		r.DiscountCap = DefaultDiscountCap
	}
	if r.OverrideApprovalThreshold == 0 {
		r.OverrideApprovalThreshold = DefaultOverrideApprovalThreshold
	}
	if r.FactorBounds == (BoundsConfig{}) {
		r.FactorBounds = BoundsConfig{Min: DefaultFactorMin, Max: DefaultFactorMax}
	}
	if r.AIMultiplierBounds == (BoundsConfig{}) {
		r.AIMultiplierBounds = BoundsConfig{Min: DefaultAIMultiplierMin, Max: DefaultAIMultiplierMax}
	}
	if r.MaxFixedSurcharge == 0 {
		r.MaxFixedSurcharge = DefaultMaxFixedSurcharge
	}
	if r.SignalTimeout == 0 {
		r.SignalTimeout = DefaultSignalTimeout
	}
	if r.AITimeout == 0 {
		r.AITimeout = DefaultAITimeout
	}
	if r.StoreTimeout == 0 {
		r.StoreTimeout = DefaultStoreTimeout
	}
	if r.CacheTTL == 0 {
		r.CacheTTL = DefaultCacheTTL
	}
	if r.LatencyTarget == 0 {
		r.LatencyTarget = DefaultLatencyTarget
	}
}

// Default returns a fully defaulted configuration for the in-memory store,
// used by the CLI and tests when no file is given.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
