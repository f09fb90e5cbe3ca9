package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL            = "https://esi.evetech.net/latest"
	DefaultDatasource         = "tranquility"
	DefaultUniverseURL        = "https://evetrade.s3.amazonaws.com/resources/universeList.json"
	DefaultUserAgent          = "market-sync"
	DefaultAPITimeout         = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultRetryDelay         = 60 * time.Second
	DefaultRequestsPerSecond  = 20
	DefaultRedisPort          = 6379
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultConnectTimeout     = 10 * time.Second
	DefaultWindowDays         = 20
	DefaultConcurrency        = 16
	DefaultPageConcurrency    = 8
	DefaultCursorKey          = "volume_region"
	DefaultTTL                = 336 * 24 * time.Hour // 48 weeks
	DefaultBatchSize          = 10000
	DefaultLowBudgetThreshold = 10
	DefaultLowBudgetPause     = 5 * time.Second
	DefaultRetentionDays      = 31
	DefaultIngestTTL          = 28 * 24 * time.Hour
	DefaultCooldown           = 2 * time.Minute
	DefaultRateLimitCooldown  = 5 * time.Minute
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Datasource == "" {
		c.API.Datasource = DefaultDatasource
	}
	if c.API.UniverseURL == "" {
		c.API.UniverseURL = DefaultUniverseURL
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = DefaultUserAgent
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == nil {
		retries := DefaultMaxRetries
		c.API.MaxRetries = &retries
	}
	if c.API.RetryDelay == 0 {
		c.API.RetryDelay = DefaultRetryDelay
	}
	if c.API.RequestsPerSecond == 0 {
		c.API.RequestsPerSecond = DefaultRequestsPerSecond
	}

	// Store defaults
	if c.Redis.Port == 0 {
		c.Redis.Port = DefaultRedisPort
	}
	applyDBDefaults(&c.Database)
	if c.Database.AppName == "" {
		c.Database.AppName = DefaultUserAgent
		if c.Instance.ID != "" {
			c.Database.AppName = c.Instance.ID
		}
	}

	// Sync defaults
	if c.Sync.Variant == "" {
		c.Sync.Variant = VariantHistory
	}
	if c.Sync.Policy == "" {
		c.Sync.Policy = PolicyTrailingMean
	}
	if c.Sync.Metric == "" {
		c.Sync.Metric = MetricVolume
	}
	if c.Sync.WindowDays == 0 {
		c.Sync.WindowDays = DefaultWindowDays
	}
	if c.Sync.Concurrency == 0 {
		c.Sync.Concurrency = DefaultConcurrency
	}
	if c.Sync.PageConcurrency == 0 {
		c.Sync.PageConcurrency = DefaultPageConcurrency
	}
	if c.Sync.CursorKey == "" {
		c.Sync.CursorKey = DefaultCursorKey
	}
	if c.Sync.TTL == 0 {
		c.Sync.TTL = DefaultTTL
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = DefaultBatchSize
	}
	if c.Sync.LowBudgetThreshold == 0 {
		c.Sync.LowBudgetThreshold = DefaultLowBudgetThreshold
	}
	if c.Sync.LowBudgetPause == 0 {
		c.Sync.LowBudgetPause = DefaultLowBudgetPause
	}

	if c.Retention.Days == 0 {
		c.Retention.Days = DefaultRetentionDays
	}

	// Ingest defaults
	if c.Ingest.WindowDays == 0 {
		c.Ingest.WindowDays = DefaultWindowDays
	}
	if c.Ingest.TTL == 0 {
		c.Ingest.TTL = DefaultIngestTTL
	}
	if c.Ingest.BatchSize == 0 {
		c.Ingest.BatchSize = DefaultBatchSize
	}

	// Supervisor defaults
	if c.Supervisor.Cooldown == 0 {
		c.Supervisor.Cooldown = DefaultCooldown
	}
	if c.Supervisor.RateLimitCooldown == 0 {
		c.Supervisor.RateLimitCooldown = DefaultRateLimitCooldown
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = min(DefaultMinConns, db.MaxConns)
	}
	if db.ConnectTimeout == 0 {
		db.ConnectTimeout = DefaultConnectTimeout
	}
}
