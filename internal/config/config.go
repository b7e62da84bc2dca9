package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// browser origins allowed by CORS
	AllowedOrigins []string `toml:"allowed_origins"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb"`
	LogMaxBackups int    `toml:"log_max_backups"`
	LogMaxAgeDays int    `toml:"log_max_age_days"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// timer sessions
	MaxSessions           int    `toml:"max_sessions"`
	TickIntervalMs        int    `toml:"tick_interval_ms"`
	CreateTimerRatePerMin int    `toml:"create_timer_rate_per_min"`
	CueChannelPrefix      string `toml:"cue_channel_prefix"`
	CueWebhookURL         string `toml:"cue_webhook_url"`
	CueSinkQueueSize      int    `toml:"cue_sink_queue_size"`
	HistoryQueueSize      int    `toml:"history_queue_size"`
	// presets
	PresetCacheSizeMB int `toml:"preset_cache_size_mb"`
	PresetCacheTTLSec int `toml:"preset_cache_ttl_sec"`
}

// TickInterval is the duration of one logical timer second.
func (c *Config) TickInterval() time.Duration {
	if c.TickIntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the config for env, with defaults applied.
func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode toml config [%s]: %w", path, err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing in [%s]", env, path)
	}

	cfg.applyDefaults(env)
	return cfg, nil
}

func (c *Config) applyDefaults(env string) {
	if c.Environment == "" {
		c.Environment = strings.ToLower(env)
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9100
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 1000
	}
	if c.CreateTimerRatePerMin <= 0 {
		c.CreateTimerRatePerMin = 30
	}
	if c.CueChannelPrefix == "" {
		c.CueChannelPrefix = "intervaltimer:cues:"
	}
	if c.CueSinkQueueSize <= 0 {
		c.CueSinkQueueSize = 256
	}
	if c.HistoryQueueSize <= 0 {
		c.HistoryQueueSize = 256
	}
	if c.PresetCacheSizeMB <= 0 {
		c.PresetCacheSizeMB = 1
	}
	if c.PresetCacheTTLSec <= 0 {
		c.PresetCacheTTLSec = 300
	}
}
