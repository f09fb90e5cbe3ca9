package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Redis.Host == "" {
		return errors.New("redis.host is required")
	}

	if c.API.MaxRetries != nil && *c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	if c.API.RetryDelay < time.Minute {
		return fmt.Errorf("api.retry_delay must be >= 1m, got %s", c.API.RetryDelay)
	}

	switch c.Sync.Variant {
	case VariantHistory:
		if err := c.Sync.validatePolicy(); err != nil {
			return err
		}
	case VariantOrders:
		if err := c.Database.validate("database"); err != nil {
			return err
		}
		if c.Retention.Days < 1 {
			return errors.New("retention.days must be >= 1")
		}
	default:
		return fmt.Errorf("sync.variant must be %q or %q, got %q", VariantHistory, VariantOrders, c.Sync.Variant)
	}

	if c.Sync.Concurrency < 1 {
		return errors.New("sync.concurrency must be >= 1")
	}
	if c.Sync.PageConcurrency < 1 {
		return errors.New("sync.page_concurrency must be >= 1")
	}
	if c.Sync.BatchSize < 1 {
		return errors.New("sync.batch_size must be >= 1")
	}

	if c.Health.Port < 0 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 0 and 65535, got %d", c.Health.Port)
	}

	return nil
}

// ValidateIngest checks the fields the ingest job needs.
func (c *Config) ValidateIngest() error {
	if c.Redis.Host == "" {
		return errors.New("redis.host is required")
	}
	if err := c.Database.validate("database"); err != nil {
		return err
	}
	if c.Ingest.WindowDays < 1 {
		return errors.New("ingest.window_days must be >= 1")
	}
	if c.Ingest.BatchSize < 1 {
		return errors.New("ingest.batch_size must be >= 1")
	}
	return nil
}

func (s *SyncConfig) validatePolicy() error {
	switch s.Policy {
	case PolicyTrailingMean:
		if s.Metric != MetricVolume {
			return fmt.Errorf("sync.metric %q is not supported by policy %q", s.Metric, s.Policy)
		}
		if s.WindowDays < 1 {
			return errors.New("sync.window_days must be >= 1")
		}
	case PolicyLatest:
		if s.Metric != MetricVolume && s.Metric != MetricAverage {
			return fmt.Errorf("sync.metric must be %q or %q, got %q", MetricVolume, MetricAverage, s.Metric)
		}
	default:
		return fmt.Errorf("sync.policy must be %q or %q, got %q", PolicyTrailingMean, PolicyLatest, s.Policy)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.ConnectTimeout < 0 {
		return fmt.Errorf("%s.connect_timeout must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
