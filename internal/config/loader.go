package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "RATECRAFT"

// newViper builds a Viper instance with YAML file type, RATECRAFT_ env
// prefix, automatic env binding, and a "." -> "_" key replacer so that
// "rating.discount_cap" resolves to RATECRAFT_RATING_DISCOUNT_CAP.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvKeys(v)
	return v
}

// bindEnvKeys registers the keys that must be overridable from the
// environment even when absent from the file; AutomaticEnv alone only
// resolves keys viper already knows about.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.port", "server.mode",
		"grpc.enabled", "grpc.port",
		"database.driver", "database.host", "database.port", "database.user",
		"database.password", "database.db_name", "database.ssl_mode", "database.auto_migrate",
		"redis.enabled", "redis.addr", "redis.password", "redis.db",
		"kafka.enabled", "kafka.brokers", "kafka.group_id",
		"kafka.sasl_mechanism", "kafka.sasl_username", "kafka.sasl_password", "kafka.tls_enabled", "kafka.tls_ca_path",
		"log.level", "log.format",
		"metrics.enabled",
		"signals.enabled", "signals.provider", "signals.base_url", "signals.api_key",
		"ai.enabled", "ai.mode", "ai.endpoint",
		"worker.concurrency",
		"rating.discount_cap", "rating.override_approval_threshold",
		"rating.signal_timeout", "rating.ai_timeout", "rating.cache_ttl", "rating.latency_target",
	} {
		_ = v.BindEnv(key)
	}
}

// Load reads the YAML file at configPath, merges RATECRAFT_* overrides,
// applies defaults for unset fields, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from RATECRAFT_* environment
// variables, with no config file required.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// LoadOrDefault loads configPath when it is non-empty and falls back to
// environment variables otherwise.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	return Load(configPath)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed Config
// whenever the file changes.  Changes that fail to parse or validate are
// reported to onError (when non-nil) and never reach onChange, so a bad edit
// leaves the running policy in place.
//
// Watch is non-blocking; viper manages the fsnotify goroutine.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on any error.  Use it only in main().
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
