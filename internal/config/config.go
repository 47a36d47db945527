package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Environment string `toml:"environment"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage
	PostgresHost       string `toml:"postgres_host"`
	PostgresPort       string `toml:"postgres_port"`
	PostgresDBName     string `toml:"postgres_db_name"`
	PostgresUser       string `toml:"postgres_user"`
	ApplySchemaOnStart bool   `toml:"apply_schema_on_start"`
	RedisHost          string `toml:"redis_host"`
	RedisPort          string `toml:"redis_port"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// api
	AllowedOrigins                  []string `toml:"allowed_origins"`
	LoginRateLimitAllowedPerMin     int      `toml:"login_rate_limit_allowed_per_min"`
	FriendAddRateLimitAllowedPerMin int      `toml:"friend_add_rate_limit_allowed_per_min"`
	SessionTTLHours                 int      `toml:"session_ttl_hours"`
	GlobalAveragesCacheTTLSeconds   int      `toml:"global_averages_cache_ttl_seconds"`
}

func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) GlobalAveragesCacheTTL() time.Duration {
	if c.GlobalAveragesCacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.GlobalAveragesCacheTTLSeconds) * time.Second
}

type Toml struct {
	Development *Config `toml:"development"`
	Production  *Config `toml:"production"`
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return t.Get(env)
}
