package config

import (
	"fmt"
	"time"
)

// Sync variants.
const (
	VariantHistory = "history"
	VariantOrders  = "orders"
)

// Aggregation policies and metrics for the history variant.
const (
	PolicyTrailingMean = "trailing_mean"
	PolicyLatest       = "latest"

	MetricVolume  = "volume"
	MetricAverage = "average"
)

// Config is the root configuration.
type Config struct {
	Instance   InstanceConfig   `yaml:"instance"`
	API        APIConfig        `yaml:"api"`
	Redis      RedisConfig      `yaml:"redis"`
	Database   DBConfig         `yaml:"database"`
	Sync       SyncConfig       `yaml:"sync"`
	Retention  RetentionConfig  `yaml:"retention"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Log        LogConfig        `yaml:"log"`
	Health     HealthConfig     `yaml:"health"`
}

// InstanceConfig identifies this deployment.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds ESI and universe document settings.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Datasource        string        `yaml:"datasource"`
	UniverseURL       string        `yaml:"universe_url"`
	UserAgent         string        `yaml:"user_agent"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        *int          `yaml:"max_retries"` // nil means DefaultMaxRetries; 0 disables retries
	RetryDelay        time.Duration `yaml:"retry_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// Retries returns the configured retry count, or the default when unset.
func (a APIConfig) Retries() int {
	if a.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *a.MaxRetries
}

// RedisConfig holds the key-value store connection.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DBConfig holds the relational store connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`

	AppName        string        `yaml:"application_name"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// SyncConfig holds the per-invocation pipeline settings.
type SyncConfig struct {
	Variant            string        `yaml:"variant"`              // history | orders
	Policy             string        `yaml:"policy"`               // trailing_mean | latest
	Metric             string        `yaml:"metric"`               // volume | average
	WindowDays         int           `yaml:"window_days"`          // trailing mean window
	Concurrency        int           `yaml:"concurrency"`          // history fetch workers
	PageConcurrency    int           `yaml:"page_concurrency"`     // pages 2..N in flight
	CursorKey          string        `yaml:"cursor_key"`           // well-known cursor key
	TTL                time.Duration `yaml:"ttl"`                  // aggregate key expiry
	BatchSize          int           `yaml:"batch_size"`           // keys or rows per batch
	LowBudgetThreshold int           `yaml:"low_budget_threshold"` // X-Esi-Error-Limit-Remain floor
	LowBudgetPause     time.Duration `yaml:"low_budget_pause"`
}

// RetentionConfig holds relational store pruning settings.
type RetentionConfig struct {
	Days        int  `yaml:"days"`
	SkipCompact bool `yaml:"skip_compact"` // skip VACUUM after the retention delete
}

// IngestConfig holds settings for the relational -> key-value ingest job.
type IngestConfig struct {
	WindowDays int           `yaml:"window_days"`
	TTL        time.Duration `yaml:"ttl"`
	BatchSize  int           `yaml:"batch_size"`
}

// SupervisorConfig holds the outer retry loop cooldowns.
type SupervisorConfig struct {
	Cooldown          time.Duration `yaml:"cooldown"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// HealthConfig holds the health endpoint settings. Port 0 disables it.
type HealthConfig struct {
	Port int `yaml:"port"`
}
