package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-syncer
api:
  base_url: https://esi.example.com/latest
redis:
  host: localhost
  port: 6380
sync:
  variant: history
  concurrency: 4
  ttl: 24h
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-syncer" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-syncer")
	}
	if cfg.API.BaseURL != "https://esi.example.com/latest" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "https://esi.example.com/latest")
	}
	if cfg.Redis.Addr() != "localhost:6380" {
		t.Errorf("Redis.Addr() = %q, want %q", cfg.Redis.Addr(), "localhost:6380")
	}
	if cfg.Sync.Concurrency != 4 {
		t.Errorf("Sync.Concurrency = %d, want 4", cfg.Sync.Concurrency)
	}
	if cfg.Sync.TTL != 24*time.Hour {
		t.Errorf("Sync.TTL = %v, want %v", cfg.Sync.TTL, 24*time.Hour)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_REDIS_PW", "secret123")
	t.Setenv("TEST_DB_PASSWORD", "dbsecret")

	yaml := `
instance:
  id: test-syncer
redis:
  host: localhost
  password: ${TEST_REDIS_PW}
database:
  host: localhost
  name: market
  user: syncer
  password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Redis.Password != "secret123" {
		t.Errorf("Redis.Password = %q, want %q", cfg.Redis.Password, "secret123")
	}
	if cfg.Database.Password != "dbsecret" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "dbsecret")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-syncer
redis:
  host: localhost
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want default %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.API.RetryDelay != DefaultRetryDelay {
		t.Errorf("API.RetryDelay = %v, want default %v", cfg.API.RetryDelay, DefaultRetryDelay)
	}
	if cfg.Redis.Port != DefaultRedisPort {
		t.Errorf("Redis.Port = %d, want default %d", cfg.Redis.Port, DefaultRedisPort)
	}
	if cfg.Sync.Variant != VariantHistory {
		t.Errorf("Sync.Variant = %q, want default %q", cfg.Sync.Variant, VariantHistory)
	}
	if cfg.Sync.BatchSize != DefaultBatchSize {
		t.Errorf("Sync.BatchSize = %d, want default %d", cfg.Sync.BatchSize, DefaultBatchSize)
	}
	if cfg.Sync.CursorKey != DefaultCursorKey {
		t.Errorf("Sync.CursorKey = %q, want default %q", cfg.Sync.CursorKey, DefaultCursorKey)
	}
	if cfg.Retention.Days != DefaultRetentionDays {
		t.Errorf("Retention.Days = %d, want default %d", cfg.Retention.Days, DefaultRetentionDays)
	}
	if cfg.Supervisor.Cooldown != DefaultCooldown {
		t.Errorf("Supervisor.Cooldown = %v, want default %v", cfg.Supervisor.Cooldown, DefaultCooldown)
	}
	if cfg.Database.MaxConns != DefaultMaxConns {
		t.Errorf("Database.MaxConns = %d, want default %d", cfg.Database.MaxConns, DefaultMaxConns)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	yaml := `
instance:
  id: test-syncer
sync:
  varaint: orders
`
	path := writeTempFile(t, yaml)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "varaint") {
		t.Errorf("Load() error = %q, want it to name the unknown key", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeTempFile(t, ""))
	if err != nil {
		t.Fatalf("Load() error on empty file: %v", err)
	}
	if cfg.Instance.ID != "" {
		t.Errorf("Instance.ID = %q, want empty", cfg.Instance.ID)
	}
}

func TestLoadWithDefaults_ExplicitZeroRetries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want int
	}{
		{
			name: "unset uses default",
			yaml: "redis:\n  host: localhost\n",
			want: DefaultMaxRetries,
		},
		{
			name: "explicit zero disables retries",
			yaml: "api:\n  max_retries: 0\n",
			want: 0,
		},
		{
			name: "explicit value kept",
			yaml: "api:\n  max_retries: 7\n",
			want: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithDefaults(writeTempFile(t, tt.yaml))
			if err != nil {
				t.Fatalf("LoadWithDefaults failed: %v", err)
			}
			if got := cfg.API.Retries(); got != tt.want {
				t.Errorf("API.Retries() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLoadWithDefaults_DatabasePool(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantMin     int
		wantMax     int
		wantAppName string
	}{
		{
			name:        "defaults",
			yaml:        "instance:\n  id: orders-1\n",
			wantMin:     DefaultMinConns,
			wantMax:     DefaultMaxConns,
			wantAppName: "orders-1",
		},
		{
			name:        "single connection clamps min_conns",
			yaml:        "database:\n  max_conns: 1\n",
			wantMin:     1,
			wantMax:     1,
			wantAppName: DefaultUserAgent,
		},
		{
			name:        "explicit application name",
			yaml:        "instance:\n  id: orders-1\ndatabase:\n  application_name: ingest\n",
			wantMin:     DefaultMinConns,
			wantMax:     DefaultMaxConns,
			wantAppName: "ingest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithDefaults(writeTempFile(t, tt.yaml))
			if err != nil {
				t.Fatalf("LoadWithDefaults failed: %v", err)
			}
			db := cfg.Database
			if db.MinConns != tt.wantMin || db.MaxConns != tt.wantMax {
				t.Errorf("conns = %d/%d, want %d/%d", db.MinConns, db.MaxConns, tt.wantMin, tt.wantMax)
			}
			if db.AppName != tt.wantAppName {
				t.Errorf("AppName = %q, want %q", db.AppName, tt.wantAppName)
			}
			if db.ConnectTimeout != DefaultConnectTimeout {
				t.Errorf("ConnectTimeout = %v, want %v", db.ConnectTimeout, DefaultConnectTimeout)
			}
		})
	}
}

func TestLoadAndValidate_SingleConnectionOrders(t *testing.T) {
	yaml := `
instance:
  id: orders-1
redis:
  host: localhost
database:
  host: localhost
  name: market
  user: syncer
  password: secret
  max_conns: 1
sync:
  variant: orders
`
	cfg, err := LoadAndValidate(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if cfg.Database.MinConns != 1 {
		t.Errorf("Database.MinConns = %d, want 1", cfg.Database.MinConns)
	}
}

func TestLoadIngest(t *testing.T) {
	// The sync section is irrelevant to ingest and is not validated.
	yaml := `
redis:
  host: localhost
database:
  host: localhost
  name: market
  user: ingest
  password: secret
sync:
  variant: prices
`
	cfg, err := LoadIngest(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("LoadIngest failed: %v", err)
	}
	if cfg.Ingest.TTL != DefaultIngestTTL {
		t.Errorf("Ingest.TTL = %v, want %v", cfg.Ingest.TTL, DefaultIngestTTL)
	}

	if _, err := LoadIngest(writeTempFile(t, "redis:\n  host: localhost\n")); err == nil {
		t.Error("LoadIngest() expected error without database section")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Config{
			Instance: InstanceConfig{ID: "test"},
			Redis:    RedisConfig{Host: "localhost"},
		}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "missing redis host",
			mutate:  func(c *Config) { c.Redis.Host = "" },
			wantErr: "redis.host is required",
		},
		{
			name: "negative retries",
			mutate: func(c *Config) {
				n := -1
				c.API.MaxRetries = &n
			},
			wantErr: "api.max_retries must be >= 0",
		},
		{
			name:    "retry delay too short",
			mutate:  func(c *Config) { c.API.RetryDelay = 5 * time.Second },
			wantErr: "api.retry_delay must be >= 1m, got 5s",
		},
		{
			name:    "unknown variant",
			mutate:  func(c *Config) { c.Sync.Variant = "prices" },
			wantErr: `sync.variant must be "history" or "orders", got "prices"`,
		},
		{
			name:    "average with trailing mean",
			mutate:  func(c *Config) { c.Sync.Metric = MetricAverage },
			wantErr: `sync.metric "average" is not supported by policy "trailing_mean"`,
		},
		{
			name:    "unknown policy",
			mutate:  func(c *Config) { c.Sync.Policy = "median" },
			wantErr: `sync.policy must be "trailing_mean" or "latest", got "median"`,
		},
		{
			name:    "orders variant needs database",
			mutate:  func(c *Config) { c.Sync.Variant = VariantOrders },
			wantErr: "database.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Sync.Variant = VariantOrders
				c.Database = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10}
			},
			wantErr: "database.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Sync.Concurrency = 0 },
			wantErr: "sync.concurrency must be >= 1",
		},
		{
			name:    "health port out of range",
			mutate:  func(c *Config) { c.Health.Port = 70000 },
			wantErr: "health.port must be between 0 and 65535, got 70000",
		},
		{
			name:    "valid history config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name: "valid latest average config",
			mutate: func(c *Config) {
				c.Sync.Policy = PolicyLatest
				c.Sync.Metric = MetricAverage
			},
			wantErr: "",
		},
		{
			name: "valid orders config",
			mutate: func(c *Config) {
				c.Sync.Variant = VariantOrders
				c.Database = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2}
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestValidateIngest(t *testing.T) {
	cfg := Config{Redis: RedisConfig{Host: "localhost"}}
	cfg.applyDefaults()

	if err := cfg.ValidateIngest(); err == nil || err.Error() != "database.host is required" {
		t.Errorf("ValidateIngest() error = %v, want %q", err, "database.host is required")
	}

	cfg.Database = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 4, MinConns: 1}
	if err := cfg.ValidateIngest(); err != nil {
		t.Errorf("ValidateIngest() unexpected error: %v", err)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
